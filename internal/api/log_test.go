package api

import (
	"testing"
)

func TestFormatLogLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Batch Started",
			input: `time=2026-03-02T18:04:11.512+01:00 level=INFO msg="Placement batch started" batch=6f1c2a3e-8d4b-4c55-9a0e-1b2c3d4e5f60 lat=52.5163 lon=13.3777`,
			want:  "18:04:11 Placement batch started (lat=52.5163, lon=13.3777)",
		},
		{
			name:  "Quoted Values",
			input: `time=2026-03-02T18:04:12.001+01:00 level=WARN msg="Sight skipped" title="Tiergarten " error=nopose`,
			want:  "18:04:12 Sight skipped (error=nopose, title=Tiergarten)",
		},
		{
			name:  "Unstructured",
			input: "plain text line",
			want:  "plain text line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatLogLine(tt.input); got != tt.want {
				t.Errorf("formatLogLine() = %q, want %q", got, tt.want)
			}
		})
	}
}
