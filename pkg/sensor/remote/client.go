// Package remote is a sensor fed over HTTP by a phone or browser.
package remote

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"sightseer/pkg/geo"
	"sightseer/pkg/heading"
	"sightseer/pkg/sensor"
)

// Client forwards pushed readings to the sink. Heading pushes are dropped
// while delivery is off so a client that ignores the backpressure flag
// cannot feed a calibrated batch.
type Client struct {
	mu        sync.RWMutex
	sink      sensor.Sink
	headingOn atomic.Bool
	index     atomic.Uint64
	dropped   atomic.Int64
}

var _ sensor.Sensor = (*Client)(nil)

// NewClient creates an unstarted remote sensor.
func NewClient() *Client {
	return &Client{}
}

func (c *Client) Start(ctx context.Context, sink sensor.Sink) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = sink
	return nil
}

func (c *Client) StartHeading() { c.headingOn.Store(true) }
func (c *Client) StopHeading()  { c.headingOn.Store(false) }

// HeadingRequested reports whether the engine currently wants heading samples.
func (c *Client) HeadingRequested() bool {
	return c.headingOn.Load()
}

// Dropped returns the number of heading pushes discarded while delivery was off.
func (c *Client) Dropped() int64 {
	return c.dropped.Load()
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = nil
	c.headingOn.Store(false)
	return nil
}

// PushLocation validates and forwards a location fix.
func (c *Client) PushLocation(p geo.Point) error {
	if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("coordinates out of range: %v,%v", p.Lat, p.Lon)
	}
	sink, err := c.currentSink()
	if err != nil {
		return err
	}
	sink.Location(p)
	return nil
}

// PushHeading forwards a compass reading. It returns false when the reading
// was dropped because delivery is off.
func (c *Client) PushHeading(deg float64) (bool, error) {
	if deg < 0 || deg >= 360 {
		return false, fmt.Errorf("heading out of range [0,360): %v", deg)
	}
	sink, err := c.currentSink()
	if err != nil {
		return false, err
	}
	if !c.headingOn.Load() {
		c.dropped.Add(1)
		return false, nil
	}
	sink.Heading(heading.Sample{Heading: deg, Index: c.index.Add(1)})
	return true, nil
}

// PushError reports a device-side failure.
func (c *Client) PushError(err error) error {
	sink, serr := c.currentSink()
	if serr != nil {
		return serr
	}
	sink.Fail(err)
	return nil
}

func (c *Client) currentSink() (sensor.Sink, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.sink == nil {
		return nil, sensor.ErrNotStarted
	}
	return c.sink, nil
}
