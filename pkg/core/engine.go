package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"sightseer/pkg/arsession"
	"sightseer/pkg/config"
	"sightseer/pkg/geo"
	"sightseer/pkg/heading"
	"sightseer/pkg/logging"
	"sightseer/pkg/model"
	"sightseer/pkg/placement"
	"sightseer/pkg/registry"
	"sightseer/pkg/sensor"
	"sightseer/pkg/store"
	"sightseer/pkg/tracker"
	"sightseer/pkg/wikipedia"
)

// ErrEngineStopped is returned by Run when called twice.
var ErrEngineStopped = errors.New("engine already ran")

const (
	eventBuffer = 256
	trackWindow = 5
	jobInterval = time.Second
)

// Status is a snapshot of the engine for the API.
type Status struct {
	BatchID        uuid.UUID  `json:"batch_id"`
	Phase          Phase      `json:"phase"`
	Origin         *geo.Point `json:"origin,omitempty"`
	PreviousOrigin *geo.Point `json:"previous_origin,omitempty"`
	Sights         int        `json:"sights"`
	Placed         int        `json:"placed"`
	Skipped        int        `json:"skipped"`
	Samples        int        `json:"samples"`
	Heading        *float64   `json:"heading,omitempty"`
	Course         *float64   `json:"course,omitempty"` // over ground, from recent fixes
	HeadingWanted  bool       `json:"heading_wanted"`
	LastError      string     `json:"last_error,omitempty"`
	SensorError    string     `json:"sensor_error,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Deps are the collaborators of the engine. Sightings, State, Tracker and
// Sink are optional.
type Deps struct {
	Sensor    sensor.Sensor
	Session   arsession.Session
	Geodata   GeodataSource
	Registry  *registry.Registry
	Composer  *placement.Composer
	Sightings store.SightingStore
	State     store.StateStore
	Tracker   *tracker.Tracker
	Sink      AnchorSink
}

// Engine runs the placement pipeline. Sensor callbacks, fetch results and
// jobs are funnelled into one goroutine, which owns the current batch,
// the calibrator and every registry write.
type Engine struct {
	deps        Deps
	minDistance float64

	events chan any
	done   chan struct{}
	ran    sync.Once
	wg     sync.WaitGroup
	jobs   []Job

	batch     *Batch // loop-confined
	cal       *heading.Calibrator
	track     *geo.TrackBuffer
	lastError string
	sensorErr string
	prevOrig  *geo.Point

	statusMu sync.RWMutex
	status   Status
}

var _ sensor.Sink = (*Engine)(nil)

// NewEngine validates deps and creates an idle engine.
func NewEngine(cfg *config.Config, deps Deps) (*Engine, error) {
	switch {
	case deps.Sensor == nil:
		return nil, errors.New("engine: sensor is required")
	case deps.Session == nil:
		return nil, errors.New("engine: session is required")
	case deps.Geodata == nil:
		return nil, errors.New("engine: geodata source is required")
	case deps.Registry == nil:
		return nil, errors.New("engine: registry is required")
	case deps.Composer == nil:
		return nil, errors.New("engine: composer is required")
	}
	if deps.Tracker == nil {
		deps.Tracker = tracker.New()
	}
	return &Engine{
		deps:        deps,
		minDistance: cfg.Triggers.MinDistance.Meters(),
		track:       geo.NewTrackBuffer(trackWindow),
		cal:         heading.NewCalibrator(),
		events:      make(chan any, eventBuffer),
		done:        make(chan struct{}),
		status:      Status{Phase: PhaseIdle, UpdatedAt: time.Now()},
	}, nil
}

// AddJob registers a periodic job. Call before Run.
func (e *Engine) AddJob(j Job) {
	e.jobs = append(e.jobs, j)
}

// Status returns the latest snapshot.
func (e *Engine) Status() Status {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.status
}

// Location implements sensor.Sink.
func (e *Engine) Location(p geo.Point) { e.post(locationEvent{point: p}) }

// Heading implements sensor.Sink.
func (e *Engine) Heading(s heading.Sample) { e.post(headingEvent{sample: s}) }

// Fail implements sensor.Sink.
func (e *Engine) Fail(err error) { e.post(failEvent{err: err}) }

func (e *Engine) post(ev any) {
	select {
	case e.events <- ev:
	case <-e.done:
	}
}

// Run starts the sensor and processes events until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	first := false
	e.ran.Do(func() { first = true })
	if !first {
		return ErrEngineStopped
	}
	defer func() {
		close(e.done)
		e.wg.Wait()
	}()

	if e.deps.State != nil {
		if p, ok := store.LoadOrigin(ctx, e.deps.State); ok {
			e.prevOrig = &p
			e.publish()
		}
	}

	if err := e.deps.Sensor.Start(ctx, e); err != nil {
		return fmt.Errorf("start sensor: %w", err)
	}

	ticker := time.NewTicker(jobInterval)
	defer ticker.Stop()

	slog.Info("Placement engine started", "min_distance_m", e.minDistance, "registry_policy", e.deps.Registry.Policy())

	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			slog.Info("Placement engine stopped")
			return nil
		case now := <-ticker.C:
			for _, j := range e.jobs {
				if j.ShouldFire(now) {
					e.wg.Add(1)
					go func(j Job) {
						defer e.wg.Done()
						j.Run(ctx)
					}(j)
				}
			}
		case ev := <-e.events:
			e.handle(ctx, ev)
		}
	}
}

func (e *Engine) shutdown() {
	if e.batch != nil {
		e.batch.stop()
	}
	e.deps.Sensor.StopHeading()
	e.publish()
}

func (e *Engine) handle(ctx context.Context, ev any) {
	switch ev := ev.(type) {
	case locationEvent:
		e.handleLocation(ctx, ev.point)
	case fetchResult:
		e.handleFetch(ev)
	case headingEvent:
		e.handleHeading(ctx, ev.sample)
	case failEvent:
		e.handleFail(ev.err)
	}
	e.publish()
}

func (e *Engine) handleLocation(ctx context.Context, p geo.Point) {
	e.track.Push(p)

	if b := e.batch; b != nil && e.minDistance > 0 && b.Phase != PhaseFailed {
		if d := geo.Distance(b.Origin, p); d < e.minDistance {
			slog.Debug("Location update below trigger distance", "moved_m", d, "min_m", e.minDistance)
			return
		}
	}

	// Serialise batches: the previous one is abandoned.
	if prev := e.batch; prev != nil {
		wasCalibrating := prev.Phase == PhaseCalibrating
		prev.stop()
		if wasCalibrating {
			e.deps.Sensor.StopHeading()
		}
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	b := newBatch(p, e.cal, cancel)
	e.batch = b
	e.deps.Tracker.TrackBatch()

	if dropped := e.deps.Registry.BeginBatch(); dropped > 0 {
		slog.Debug("Registry cleared for new batch", "dropped", dropped)
	}
	if e.deps.State != nil {
		if err := store.SaveOrigin(ctx, e.deps.State, p); err != nil {
			slog.Warn("Failed to persist batch origin", "error", err)
		}
	}

	slog.Info("Placement batch started", "batch", b.ID, "lat", p.Lat, "lon", p.Lon)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		sights, err := e.deps.Geodata.Geosearch(fetchCtx, p)
		e.post(fetchResult{batchID: b.ID, sights: sights, err: err})
	}()
}

func (e *Engine) handleFetch(r fetchResult) {
	b := e.batch
	if b == nil || b.ID != r.batchID || b.Phase != PhaseFetching {
		e.deps.Tracker.TrackStaleFetch()
		slog.Debug("Dropping stale fetch result", "batch", r.batchID)
		return
	}

	switch {
	case errors.Is(r.err, wikipedia.ErrNoResults):
		b.Phase = PhasePlaced
		slog.Info("No sights near location", "batch", b.ID)
		return
	case r.err != nil:
		b.Phase = PhaseFailed
		b.Err = r.err
		e.lastError = r.err.Error()
		e.deps.Tracker.TrackFetchFailure()
		slog.Error("Geodata fetch failed", "batch", b.ID, "error", r.err)
		return
	case len(r.sights) == 0:
		b.Phase = PhasePlaced
		slog.Info("No sights near location", "batch", b.ID)
		return
	}

	b.Sights = r.sights
	b.Phase = PhaseCalibrating
	slog.Info("Sights fetched, calibrating heading", "batch", b.ID, "sights", len(r.sights))
	e.deps.Sensor.StartHeading()
}

func (e *Engine) handleHeading(ctx context.Context, s heading.Sample) {
	b := e.batch
	if b == nil || b.Phase != PhaseCalibrating {
		return
	}
	e.deps.Tracker.TrackHeadingSample()
	logging.TraceDefault("Heading sample", "batch", b.ID, "heading", s.Heading, "index", s.Index)

	cal, ok := b.Calibrator.Observe(s)
	if !ok {
		return
	}
	e.deps.Sensor.StopHeading()
	b.Heading = cal.Heading
	slog.Info("Heading calibrated", "batch", b.ID, "heading", cal.Heading, "sample", cal.Index)

	e.place(ctx, b)
}

// place creates one anchor per sight. Sights that cannot be placed are skipped
// and counted; the batch never aborts half way.
func (e *Engine) place(ctx context.Context, b *Batch) {
	for _, s := range b.Sights {
		pa, err := e.placeOne(b, s)
		if err != nil {
			b.Skipped++
			e.deps.Tracker.TrackSkipped()
			slog.Warn("Sight skipped", "batch", b.ID, "title", s.Title, "error", err)
			continue
		}
		b.Placed++
		e.deps.Tracker.TrackPlaced()

		if e.deps.Sightings != nil {
			sg := &model.Sighting{
				AnchorID:  pa.Anchor.ID,
				BatchID:   b.ID,
				PageID:    s.PageID,
				Title:     pa.Label,
				Point:     s.Point,
				Distance:  pa.Distance,
				Bearing:   pa.Bearing,
				Heading:   pa.Heading,
				Transform: pa.Anchor.Transform,
				CreatedAt: pa.Anchor.CreatedAt,
			}
			if err := e.deps.Sightings.SaveSighting(ctx, sg); err != nil {
				slog.Warn("Failed to record sighting", "anchor", pa.Anchor.ID, "error", err)
			}
		}
		if e.deps.Sink != nil {
			e.deps.Sink.AnchorAdded(pa)
		}
	}
	b.Phase = PhasePlaced
	slog.Info("Placement batch finished", "batch", b.ID, "placed", b.Placed, "skipped", b.Skipped)
}

func (e *Engine) placeOne(b *Batch, s model.Sight) (PlacedAnchor, error) {
	pose, ok := e.deps.Session.CurrentPose()
	if !ok {
		return PlacedAnchor{}, placement.ErrNoCameraPose
	}

	in := placement.Input{
		Bearing:  geo.Bearing(b.Origin, s.Point),
		Distance: geo.Distance(b.Origin, s.Point),
		Heading:  b.Heading,
	}
	t, err := e.deps.Composer.Compose(in, pose)
	if err != nil {
		return PlacedAnchor{}, err
	}

	a := arsession.Anchor{ID: uuid.New(), Transform: t, CreatedAt: time.Now()}
	if err := e.deps.Session.AddAnchor(a); err != nil {
		return PlacedAnchor{}, fmt.Errorf("add anchor: %w", err)
	}

	label := s.Title
	if label == "" {
		label = registry.Unknown
	}
	e.deps.Registry.Register(a.ID, label)

	return PlacedAnchor{
		Anchor:   a,
		Label:    label,
		Sight:    s,
		BatchID:  b.ID,
		Distance: in.Distance,
		Bearing:  in.Bearing,
		Heading:  in.Heading,
	}, nil
}

func (e *Engine) handleFail(err error) {
	if err == nil {
		return
	}
	e.sensorErr = err.Error()
	e.lastError = err.Error()
	if errors.Is(err, sensor.ErrPermissionDenied) {
		slog.Error("Location permission denied", "error", err)
		return
	}
	slog.Warn("Sensor failure", "error", err)
}

func (e *Engine) publish() {
	s := Status{
		Phase:          PhaseIdle,
		PreviousOrigin: e.prevOrig,
		LastError:      e.lastError,
		SensorError:    e.sensorErr,
		UpdatedAt:      time.Now(),
	}
	if c, ok := e.track.Course(); ok {
		s.Course = &c
	}
	if b := e.batch; b != nil {
		origin := b.Origin
		s.BatchID = b.ID
		s.Phase = b.Phase
		s.Origin = &origin
		s.Sights = len(b.Sights)
		s.Placed = b.Placed
		s.Skipped = b.Skipped
		s.Samples = b.Calibrator.Count()
		s.HeadingWanted = b.Phase == PhaseCalibrating && b.Calibrator.Wants()
		if h, ok := b.Calibrator.Heading(); ok {
			s.Heading = &h
		}
	}

	e.statusMu.Lock()
	e.status = s
	e.statusMu.Unlock()
}
