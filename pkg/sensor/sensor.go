// Package sensor defines the boundary to the device's location and compass.
package sensor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sightseer/pkg/geo"
	"sightseer/pkg/heading"
)

var (
	// ErrPermissionDenied is reported when the user refused location access.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrUnavailable is reported when the device cannot produce a fix or heading.
	ErrUnavailable = errors.New("location unavailable")
	// ErrNotStarted is returned by adapters that received data before Start.
	ErrNotStarted = errors.New("sensor not started")
)

// Sink receives sensor events. Implementations must be safe for use from
// the sensor's own goroutines.
type Sink interface {
	Location(p geo.Point)
	Heading(s heading.Sample)
	Fail(err error)
}

// Sensor delivers location updates continuously after Start and heading
// samples only between StartHeading and StopHeading.
type Sensor interface {
	Start(ctx context.Context, sink Sink) error
	StartHeading()
	StopHeading()
	Close() error
}

// ParseError maps a client-reported failure code to a sensor error.
func ParseError(code, message string) error {
	var base error
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "permission_denied", "denied":
		base = ErrPermissionDenied
	case "unavailable", "":
		base = ErrUnavailable
	default:
		return fmt.Errorf("%w: %s", ErrUnavailable, code)
	}
	if message == "" {
		return base
	}
	return fmt.Errorf("%w: %s", base, message)
}
