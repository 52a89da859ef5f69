package core

import (
	"context"
	"time"

	"github.com/google/uuid"

	"sightseer/pkg/geo"
	"sightseer/pkg/heading"
	"sightseer/pkg/model"
)

// Phase is the lifecycle stage of a placement batch.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseFetching    Phase = "fetching"
	PhaseCalibrating Phase = "calibrating"
	PhasePlaced      Phase = "placed"
	PhaseFailed      Phase = "failed"
	PhaseCanceled    Phase = "canceled"
)

// Batch is one run of the pipeline for a single location update.
// It is owned by the engine loop.
type Batch struct {
	ID         uuid.UUID
	Origin     geo.Point
	StartedAt  time.Time
	Phase      Phase
	Sights     []model.Sight
	Calibrator *heading.Calibrator
	Heading    float64
	Placed     int
	Skipped    int
	Err        error

	cancel context.CancelFunc
}

// newBatch re-arms cal, so the new batch needs two fresh samples.
func newBatch(origin geo.Point, cal *heading.Calibrator, cancel context.CancelFunc) *Batch {
	cal.Rearm()
	return &Batch{
		ID:         uuid.New(),
		Origin:     origin,
		StartedAt:  time.Now(),
		Phase:      PhaseFetching,
		Calibrator: cal,
		cancel:     cancel,
	}
}

// active reports whether the batch still expects fetch results or samples.
func (b *Batch) active() bool {
	return b.Phase == PhaseFetching || b.Phase == PhaseCalibrating
}

func (b *Batch) stop() {
	if b.cancel != nil {
		b.cancel()
	}
	if b.active() {
		b.Phase = PhaseCanceled
	}
}
