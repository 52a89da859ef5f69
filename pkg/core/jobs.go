package core

import (
	"context"
	"sync/atomic"
	"time"
)

// Job is a periodic task evaluated by the engine's job ticker.
type Job interface {
	Name() string
	ShouldFire(now time.Time) bool
	Run(ctx context.Context)
}

// BaseJob provides atomic running state to prevent re-entry.
type BaseJob struct {
	name    string
	running int32 // 1 if running, 0 otherwise
}

func NewBaseJob(name string) BaseJob {
	return BaseJob{name: name}
}

func (b *BaseJob) Name() string {
	return b.name
}

// TryLock attempts to set running to 1. Returns true if successful.
func (b *BaseJob) TryLock() bool {
	return atomic.CompareAndSwapInt32(&b.running, 0, 1)
}

func (b *BaseJob) Unlock() {
	atomic.StoreInt32(&b.running, 0)
}

// TimeJob fires when time elapsed exceeds threshold.
type TimeJob struct {
	BaseJob
	lastTime  atomic.Int64 // unix nanos of the last run, 0 before the first
	threshold time.Duration
	action    func(context.Context)
}

func NewTimeJob(name string, threshold time.Duration, action func(context.Context)) *TimeJob {
	return &TimeJob{
		BaseJob:   NewBaseJob(name),
		threshold: threshold,
		action:    action,
	}
}

func (j *TimeJob) ShouldFire(now time.Time) bool {
	if atomic.LoadInt32(&j.running) == 1 {
		return false
	}
	last := j.lastTime.Load()
	if last == 0 {
		return true
	}
	return now.Sub(time.Unix(0, last)) >= j.threshold
}

func (j *TimeJob) Run(ctx context.Context) {
	if !j.TryLock() {
		return
	}
	defer j.Unlock()

	j.lastTime.Store(time.Now().UnixNano())
	j.action(ctx)
}
