package geo

import "sync"

// minTrackStep ignores fixes closer than this to the previous one (meters).
// Phone GPS jitters by a few meters while standing still.
const minTrackStep = 3.0

// TrackBuffer keeps a rolling window of location fixes and derives the
// course over ground from the oldest to the newest one.
type TrackBuffer struct {
	mu         sync.RWMutex
	samples    []Point
	windowSize int
}

// NewTrackBuffer creates a buffer holding at most windowSize fixes.
func NewTrackBuffer(windowSize int) *TrackBuffer {
	if windowSize < 2 {
		windowSize = 2
	}
	return &TrackBuffer{
		windowSize: windowSize,
	}
}

// Push records a fix and returns the current course in degrees [0,360).
// ok is false until two fixes at least minTrackStep apart are known.
func (b *TrackBuffer) Push(p Point) (course float64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n := len(b.samples); n > 0 && Distance(b.samples[n-1], p) < minTrackStep {
		return b.course()
	}

	b.samples = append(b.samples, p)
	if len(b.samples) > b.windowSize {
		b.samples = b.samples[1:]
	}
	return b.course()
}

// Course returns the course without recording a fix.
func (b *TrackBuffer) Course() (float64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.course()
}

func (b *TrackBuffer) course() (float64, bool) {
	if len(b.samples) < 2 {
		return 0, false
	}
	return NormalizeHeading(Bearing(b.samples[0], b.samples[len(b.samples)-1])), true
}

// Len returns the number of fixes in the window.
func (b *TrackBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.samples)
}

// Reset clears the buffer history.
func (b *TrackBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = nil
}
