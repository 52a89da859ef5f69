package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		p1   Point
		p2   Point
		want float64
	}{
		{
			name: "Same Point",
			p1:   Point{Lat: 0, Lon: 0},
			p2:   Point{Lat: 0, Lon: 0},
			want: 0,
		},
		{
			name: "London to Paris",
			p1:   Point{Lat: 51.5074, Lon: -0.1278},
			p2:   Point{Lat: 48.8566, Lon: 2.3522},
			want: 344000, // Approx 344km
		},
		{
			name: "Equator 1 degree",
			p1:   Point{Lat: 0, Lon: 0},
			p2:   Point{Lat: 0, Lon: 1},
			want: 111319, // Approx 111km
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.p1, tt.p2)
			if tt.want == 0 {
				if got != 0 {
					t.Errorf("Distance() = %v, want 0", got)
				}
				return
			}
			// Allow 1% margin of error due to float precision/earth radius var
			margin := tt.want * 0.01
			if math.Abs(got-tt.want) > margin {
				t.Errorf("Distance() = %v, want %v (+/- %v)", got, tt.want, margin)
			}
		})
	}
}

func TestBearing(t *testing.T) {
	tests := []struct {
		name string
		from Point
		to   Point
		want float64
	}{
		{"Coincident", Point{Lat: 12.5, Lon: -3}, Point{Lat: 12.5, Lon: -3}, 0},
		{"Due East", Point{Lat: 0, Lon: 0}, Point{Lat: 0, Lon: 0.01}, 90},
		{"Due West", Point{Lat: 0, Lon: 0}, Point{Lat: 0, Lon: -1}, -90},
		{"Due South", Point{Lat: 0, Lon: 0}, Point{Lat: -1, Lon: 0}, 180},
		{"Diagonal", Point{Lat: 0, Lon: 0}, Point{Lat: 10, Lon: 10}, 44.561451},
		{"Diagonal Reverse", Point{Lat: 10, Lon: 10}, Point{Lat: 0, Lon: 0}, -134.561451},
		{"London to Paris", Point{Lat: 51.5074, Lon: -0.1278}, Point{Lat: 48.8566, Lon: 2.3522}, 148.115617},
		{"Paris to London", Point{Lat: 48.8566, Lon: 2.3522}, Point{Lat: 51.5074, Lon: -0.1278}, -29.978907},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(tt.from, tt.to)
			assert.InDelta(t, tt.want, got, 1e-5)
			assert.Greater(t, got, -180.0)
			assert.LessOrEqual(t, got, 180.0)
		})
	}
}

func TestBearing_NotReciprocal(t *testing.T) {
	a := Point{Lat: 51.5074, Lon: -0.1278}
	b := Point{Lat: 48.8566, Lon: 2.3522}

	forward := Bearing(a, b)
	back := Bearing(b, a)

	// Initial bearings on a sphere are not simple negations or 180° flips.
	assert.NotEqual(t, -forward, back)
	assert.Greater(t, math.Abs(NormalizeAngle(forward+180-back)), 0.5)
}

func TestDestinationPoint_RoundTrip(t *testing.T) {
	start := Point{Lat: 48.137, Lon: 11.575}
	dest := DestinationPoint(start, 2500, 60)

	assert.InDelta(t, 2500, Distance(start, dest), 1.0)
	assert.InDelta(t, 60, Bearing(start, dest), 0.1)
}

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{190, -170},
		{-190, 170},
		{540, 180},
		{-45, -45},
	}
	for _, tt := range tests {
		if got := NormalizeAngle(tt.in); got != tt.want {
			t.Errorf("NormalizeAngle(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDegRadConversion(t *testing.T) {
	assert.InDelta(t, math.Pi, DegToRad(180), 1e-12)
	assert.InDelta(t, 360.0, RadToDeg(2*math.Pi), 1e-12)
}

func TestNormalizeHeading(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{360, 0},
		{395, 35},
		{-10, 350},
		{-720, 0},
		{359.5, 359.5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, NormalizeHeading(tt.in), 1e-9, "NormalizeHeading(%v)", tt.in)
	}
}
