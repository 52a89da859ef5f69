package heading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(c *Calibrator, headings ...float64) []Calibrated {
	var events []Calibrated
	for i, h := range headings {
		if ev, ok := c.Observe(Sample{Heading: h, Index: uint64(i + 1)}); ok {
			events = append(events, ev)
		}
	}
	return events
}

func TestCalibrator(t *testing.T) {
	tests := []struct {
		name       string
		samples    []float64
		wantEvents []Calibrated
		wantState  State
	}{
		{
			name:      "No Samples",
			samples:   nil,
			wantState: StateArmed,
		},
		{
			name:      "Single Sample Discarded",
			samples:   []float64{10},
			wantState: StateArmed,
		},
		{
			name:       "Second Sample Accepted",
			samples:    []float64{10, 47},
			wantEvents: []Calibrated{{Heading: 47, Index: 2}},
			wantState:  StateCalibrated,
		},
		{
			name:       "Later Samples Ignored",
			samples:    []float64{10, 47, 90},
			wantEvents: []Calibrated{{Heading: 47, Index: 2}},
			wantState:  StateCalibrated,
		},
		{
			name:       "Zero Heading Is Valid",
			samples:    []float64{359.5, 0, 1},
			wantEvents: []Calibrated{{Heading: 0, Index: 2}},
			wantState:  StateCalibrated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCalibrator()
			events := feed(c, tt.samples...)

			assert.Equal(t, tt.wantEvents, events)
			assert.Equal(t, tt.wantState, c.State())
			assert.Equal(t, tt.wantState == StateArmed, c.Wants())
		})
	}
}

func TestCalibrator_Rearm(t *testing.T) {
	c := NewCalibrator()
	require.Len(t, feed(c, 10, 47, 90), 1)

	h, ok := c.Heading()
	require.True(t, ok)
	assert.Equal(t, 47.0, h)

	c.Rearm()
	assert.Equal(t, StateArmed, c.State())
	assert.Equal(t, 0, c.Count())
	_, ok = c.Heading()
	assert.False(t, ok)

	// A fresh batch needs two new samples again.
	_, ok = c.Observe(Sample{Heading: 200, Index: 4})
	assert.False(t, ok)
	ev, ok := c.Observe(Sample{Heading: 210, Index: 5})
	require.True(t, ok)
	assert.Equal(t, Calibrated{Heading: 210, Index: 5}, ev)
	assert.False(t, c.Wants())
}

func TestCalibrator_CountStopsAtAcceptedSample(t *testing.T) {
	c := NewCalibrator()
	feed(c, 1, 2, 3, 4, 5)
	assert.Equal(t, 2, c.Count())
}
