// Package heading filters raw compass samples into a single stable heading per placement batch.
package heading

// State is the calibrator phase.
type State string

const (
	// StateArmed means the calibrator is waiting for samples.
	StateArmed State = "armed"
	// StateCalibrated means a heading has been accepted for the current batch.
	StateCalibrated State = "calibrated"
)

// calibrationSample is the 1-based sample position that gets accepted.
// The first reading after the compass starts is unreliable and is discarded.
const calibrationSample = 2

// Sample is a raw magnetic heading reading.
type Sample struct {
	Heading float64 `json:"heading"` // Degrees magnetic, [0,360)
	Index   uint64  `json:"index"`   // Monotonic per sensor
}

// Calibrated is emitted once per arming when the heading is accepted.
type Calibrated struct {
	Heading float64 `json:"heading"`
	Index   uint64  `json:"index"`
}

// Calibrator tracks samples since it was last armed.
// It is not safe for concurrent use; the engine confines it to its event loop.
type Calibrator struct {
	state State
	count int
	value Calibrated
}

// NewCalibrator returns an armed calibrator.
func NewCalibrator() *Calibrator {
	return &Calibrator{state: StateArmed}
}

// Observe consumes a raw sample. It returns the calibration event exactly once,
// on the sample that brings the count to two. Every other call returns false.
func (c *Calibrator) Observe(s Sample) (Calibrated, bool) {
	if c.state == StateCalibrated {
		return Calibrated{}, false
	}

	c.count++
	if c.count < calibrationSample {
		return Calibrated{}, false
	}

	c.state = StateCalibrated
	c.value = Calibrated{Heading: s.Heading, Index: s.Index}
	return c.value, true
}

// Wants reports whether the calibrator still consumes samples.
// Once false, heading delivery should be stopped for the batch.
func (c *Calibrator) Wants() bool {
	return c.state == StateArmed
}

// Rearm resets the calibrator for a new batch.
func (c *Calibrator) Rearm() {
	c.state = StateArmed
	c.count = 0
	c.value = Calibrated{}
}

// State returns the current phase.
func (c *Calibrator) State() State {
	return c.state
}

// Count returns the number of samples observed since arming (capped at the accepted one).
func (c *Calibrator) Count() int {
	return c.count
}

// Heading returns the accepted heading, if any.
func (c *Calibrator) Heading() (float64, bool) {
	if c.state != StateCalibrated {
		return 0, false
	}
	return c.value.Heading, true
}
