package mocksensor

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"sightseer/pkg/config"
	"sightseer/pkg/geo"
	"sightseer/pkg/heading"
	"sightseer/pkg/sensor"
)

// MockClient simulates a phone: a fixed or walking location and a noisy compass.
type MockClient struct {
	mu        sync.Mutex
	cfg       config.MockSensorConfig
	pos       geo.Point
	headingOn bool
	fresh     bool // next sample is the first after StartHeading
	index     uint64
	rng       *rand.Rand

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ sensor.Sensor = (*MockClient)(nil)

// NewClient creates a new mock sensor.
func NewClient(cfg *config.MockSensorConfig) *MockClient {
	return &MockClient{
		cfg: *cfg,
		pos: geo.Point{Lat: cfg.StartLat, Lon: cfg.StartLon},
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start emits the start location and runs the simulation until ctx ends or Close.
func (m *MockClient) Start(ctx context.Context, sink sensor.Sink) error {
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return errors.New("mock sensor already started")
	}
	ctx, m.cancel = context.WithCancel(ctx)
	pos := m.pos
	m.mu.Unlock()

	sink.Location(pos)

	m.wg.Add(1)
	go m.loop(ctx, sink)
	return nil
}

// StartHeading begins heading delivery. The first sample carries the configured error.
func (m *MockClient) StartHeading() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.headingOn {
		m.headingOn = true
		m.fresh = true
	}
}

// StopHeading ends heading delivery.
func (m *MockClient) StopHeading() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.headingOn = false
}

// HeadingOn reports whether heading delivery is active.
func (m *MockClient) HeadingOn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.headingOn
}

// Close stops the simulation loop.
func (m *MockClient) Close() error {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
	return nil
}

func (m *MockClient) loop(ctx context.Context, sink sensor.Sink) {
	defer m.wg.Done()

	interval := time.Duration(m.cfg.HeadingInterval)
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	headingTicker := time.NewTicker(interval)
	defer headingTicker.Stop()

	// A nil channel never fires, which disables walking.
	var relocate <-chan time.Time
	if d := time.Duration(m.cfg.RelocateInterval); d > 0 {
		t := time.NewTicker(d)
		defer t.Stop()
		relocate = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-headingTicker.C:
			if s, ok := m.nextSample(); ok {
				sink.Heading(s)
			}
		case <-relocate:
			sink.Location(m.walk(time.Duration(m.cfg.RelocateInterval)))
		}
	}
}

func (m *MockClient) nextSample() (heading.Sample, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.headingOn {
		return heading.Sample{}, false
	}

	h := m.cfg.StartHeading
	if m.cfg.HeadingJitter > 0 {
		h += (m.rng.Float64()*2 - 1) * m.cfg.HeadingJitter
	}
	if m.fresh {
		h += m.cfg.FirstSampleError
		m.fresh = false
	}

	m.index++
	return heading.Sample{Heading: geo.NormalizeHeading(h), Index: m.index}, true
}

func (m *MockClient) walk(dt time.Duration) geo.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pos = geo.DestinationPoint(m.pos, m.cfg.WalkSpeed*dt.Seconds(), m.cfg.StartHeading)
	return m.pos
}
