package geo

import (
	"math"
	"testing"
)

func TestTrackBuffer(t *testing.T) {
	tests := []struct {
		name       string
		windowSize int
		points     []Point
		wantOK     []bool
		wantCourse []float64 // after each push, ignored when !ok
	}{
		{
			name:       "Standard 3-Sample Window",
			windowSize: 3,
			points: []Point{
				{Lat: 10, Lon: 20},
				{Lat: 11, Lon: 20}, // north
				{Lat: 11, Lon: 21}, // 10,20 -> 11,21
				{Lat: 10, Lon: 21}, // 11,20 -> 10,21
			},
			wantOK:     []bool{false, true, true, true},
			wantCourse: []float64{0, 0, 45, 135},
		},
		{
			name:       "Westward Is Positive",
			windowSize: 2,
			points: []Point{
				{Lat: 0, Lon: 0},
				{Lat: 0, Lon: -0.01},
			},
			wantOK:     []bool{false, true},
			wantCourse: []float64{0, 270},
		},
		{
			name:       "Jitter Ignored",
			windowSize: 4,
			points: []Point{
				{Lat: 0, Lon: 0},
				{Lat: 0.00001, Lon: 0}, // ~1.1m
			},
			wantOK:     []bool{false, false},
			wantCourse: []float64{0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewTrackBuffer(tt.windowSize)
			for i, p := range tt.points {
				got, ok := b.Push(p)
				if ok != tt.wantOK[i] {
					t.Fatalf("Step %d: ok = %v, want %v", i, ok, tt.wantOK[i])
				}
				if ok && math.Abs(got-tt.wantCourse[i]) > 1.0 {
					t.Errorf("Step %d: Push() = %v, want approx %v", i, got, tt.wantCourse[i])
				}
			}
		})
	}
}

func TestTrackBuffer_Reset(t *testing.T) {
	b := NewTrackBuffer(5)
	b.Push(Point{10, 20})
	b.Push(Point{11, 20})

	if b.Len() != 2 {
		t.Errorf("Expected 2 samples, got %d", b.Len())
	}
	if _, ok := b.Course(); !ok {
		t.Error("Expected a course after two fixes")
	}

	b.Reset()
	if b.Len() != 0 {
		t.Errorf("Expected 0 samples after reset, got %d", b.Len())
	}
	if _, ok := b.Course(); ok {
		t.Error("Expected no course after reset")
	}
}
