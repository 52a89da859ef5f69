package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBaseJob_LockUnlock(t *testing.T) {
	b := NewBaseJob("test")
	if !b.TryLock() {
		t.Fatal("First TryLock should succeed")
	}
	if b.TryLock() {
		t.Error("Second TryLock should fail when already locked")
	}
	b.Unlock()
	if !b.TryLock() {
		t.Error("TryLock should succeed after Unlock")
	}
	if b.Name() != "test" {
		t.Errorf("Name() = %q", b.Name())
	}
}

func TestTimeJob_ShouldFire(t *testing.T) {
	var runs int32
	j := NewTimeJob("maintenance", time.Hour, func(context.Context) {
		atomic.AddInt32(&runs, 1)
	})

	now := time.Now()
	if !j.ShouldFire(now) {
		t.Fatal("first evaluation should fire")
	}
	j.Run(context.Background())

	tests := []struct {
		name  string
		at    time.Time
		wants bool
	}{
		{"Immediately After", time.Now(), false},
		{"Before Threshold", time.Now().Add(59 * time.Minute), false},
		{"After Threshold", time.Now().Add(61 * time.Minute), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := j.ShouldFire(tt.at); got != tt.wants {
				t.Errorf("ShouldFire = %v, want %v", got, tt.wants)
			}
		})
	}
	if atomic.LoadInt32(&runs) != 1 {
		t.Errorf("runs = %d, want 1", runs)
	}
}

func TestTimeJob_NoReentry(t *testing.T) {
	release := make(chan struct{})
	var runs int32
	j := NewTimeJob("slow", 0, func(context.Context) {
		atomic.AddInt32(&runs, 1)
		<-release
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		j.Run(context.Background())
	}()

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&runs) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if j.ShouldFire(time.Now()) {
		t.Error("running job must not fire")
	}
	j.Run(context.Background()) // returns immediately
	close(release)
	wg.Wait()

	if atomic.LoadInt32(&runs) != 1 {
		t.Errorf("runs = %d, want 1", runs)
	}
}
