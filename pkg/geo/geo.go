// Package geo provides the spherical geometry used to place sights around the user.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// Point represents a geographic coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Orb returns the point as an orb.Point (lon, lat order).
func (p Point) Orb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// Distance calculates the Haversine distance between two points in meters.
func Distance(p1, p2 Point) float64 {
	return orbgeo.DistanceHaversine(p1.Orb(), p2.Orb())
}

// DestinationPoint calculates the destination point from a start point, given distance (in meters) and bearing (in degrees).
func DestinationPoint(start Point, distMeters, bearing float64) Point {
	const R = orb.EarthRadius
	lat1 := DegToRad(start.Lat)
	lon1 := DegToRad(start.Lon)
	brng := DegToRad(bearing)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(distMeters/R) +
		math.Cos(lat1)*math.Sin(distMeters/R)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(math.Sin(brng)*math.Sin(distMeters/R)*math.Cos(lat1),
		math.Cos(distMeters/R)-math.Sin(lat1)*math.Sin(lat2))

	return Point{
		Lat: RadToDeg(lat2),
		Lon: RadToDeg(lon2),
	}
}

// Bearing calculates the initial bearing (forward azimuth) from p1 to p2.
// The result is in degrees within (-180, 180]; coincident points yield 0.
// Conversions are deliberately π/180 and 180/π in both directions, not the
// π/100 variant that never converts latitude and longitude.
func Bearing(p1, p2 Point) float64 {
	lat1 := DegToRad(p1.Lat)
	lat2 := DegToRad(p2.Lat)
	dLon := DegToRad(p2.Lon - p1.Lon)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) -
		math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	brng := RadToDeg(math.Atan2(y, x))
	if brng <= -180 {
		brng += 360
	}
	return brng
}

// NormalizeAngle normalizes an angle difference to the range [-180, 180].
func NormalizeAngle(angleDeg float64) float64 {
	for angleDeg > 180 {
		angleDeg -= 360
	}
	for angleDeg < -180 {
		angleDeg += 360
	}
	return angleDeg
}

// NormalizeHeading wraps a compass heading into [0, 360).
func NormalizeHeading(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
