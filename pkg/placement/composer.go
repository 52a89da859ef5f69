// Package placement turns a sight's bearing and distance into an anchor pose
// relative to the tracking session's camera.
package placement

import (
	"errors"
	"fmt"

	"sightseer/pkg/config"
	"sightseer/pkg/geo"
)

// ErrNoCameraPose is returned when the tracking session has no current frame.
// Callers skip the sight and continue with the batch.
var ErrNoCameraPose = errors.New("no camera pose available")

// Axis selects the rotation axis for the compass component.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

// Input is the per-sight data needed to compose a placement.
type Input struct {
	Bearing  float64 // Degrees from north toward the sight
	Distance float64 // Meters
	Heading  float64 // Calibrated device heading, degrees
}

// Composer builds placement transforms.
type Composer struct {
	axis            Axis
	tiltBase        float64
	tiltDivisor     float64
	distanceDivisor float64
}

// NewComposer creates a composer from configuration.
func NewComposer(cfg *config.PlacementConfig) (*Composer, error) {
	axis := Axis(cfg.HorizontalAxis)
	if axis != AxisX && axis != AxisY {
		return nil, fmt.Errorf("invalid horizontal axis %q", cfg.HorizontalAxis)
	}
	if cfg.TiltDivisor == 0 || cfg.DistanceDivisor == 0 {
		return nil, fmt.Errorf("placement divisors must be non-zero")
	}
	return &Composer{
		axis:            axis,
		tiltBase:        cfg.TiltBase,
		tiltDivisor:     cfg.TiltDivisor,
		distanceDivisor: cfg.DistanceDivisor,
	}, nil
}

// Compose computes the anchor transform for one sight.
//
// The compass component rotates around X unless placement.horizontal_axis selects "y".
// Matrix order matters: pose × (H × V) × T.
func (c *Composer) Compose(in Input, pose *Transform) (Transform, error) {
	if pose == nil {
		return Transform{}, ErrNoCameraPose
	}

	relative := Relative(in.Bearing, in.Heading)

	horizontal := c.horizontal(geo.DegToRad(relative))
	// Tilt is already in radians.
	vertical := RotationY(c.tiltBase + in.Distance/c.tiltDivisor)

	rotation := horizontal.Mul(vertical)
	world := pose.Mul(rotation)

	translation := TranslationZ(-(in.Distance / c.distanceDivisor))
	return world.Mul(translation), nil
}

// Relative returns the signed angle between a bearing and the device heading.
// It is not normalised and may fall outside [-180, 180].
func Relative(bearing, heading float64) float64 {
	return bearing - heading
}

func (c *Composer) horizontal(rad float64) Transform {
	if c.axis == AxisY {
		return RotationY(rad)
	}
	return RotationX(rad)
}
