package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sightseer/pkg/config"
)

func TestInit(t *testing.T) {
	tempDir := t.TempDir()
	serverLog := filepath.Join(tempDir, "server.log")
	requestLog := filepath.Join(tempDir, "requests.log")

	// Previous run leftovers get rotated.
	if err := os.WriteFile(serverLog, []byte("previous run\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.LogConfig{
		Server:   config.LogSettings{Path: serverLog, Level: "DEBUG"},
		Requests: config.LogSettings{Path: requestLog, Level: "INFO"},
	}

	prev := slog.Default()
	defer slog.SetDefault(prev)

	cleanup, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer cleanup()

	if _, err := os.Stat(serverLog); os.IsNotExist(err) {
		t.Error("Server log file not created")
	}
	if _, err := os.Stat(requestLog); os.IsNotExist(err) {
		t.Error("Request log file not created")
	}
	old, err := os.ReadFile(serverLog + ".old")
	if err != nil || string(old) != "previous run\n" {
		t.Errorf("expected rotated log, got %q (%v)", old, err)
	}
	if RequestLogger == nil {
		t.Error("RequestLogger was not initialized")
	}

	slog.Info("anchor placed", "title", "Reichstag")
	if !strings.Contains(GlobalLogCapture.GetLastLine(), "anchor placed") {
		t.Errorf("capture missed record: %q", GlobalLogCapture.GetLastLine())
	}
}

func TestParseLevel(t *testing.T) {
	defer func() { EnableTrace = false }()

	tests := []struct {
		in        string
		want      slog.Level
		wantTrace bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"ERROR", slog.LevelError, false},
		{"bogus", slog.LevelInfo, false},
		{"TRACE", slog.LevelDebug, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			EnableTrace = false
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if EnableTrace != tt.wantTrace {
				t.Errorf("EnableTrace = %v, want %v", EnableTrace, tt.wantTrace)
			}
		})
	}
}

func TestMultiHandler_FansOutByLevel(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}}
	logger := slog.New(h).With("batch", "b1")

	logger.Debug("heading sample")
	logger.Warn("fetch failed")

	if !strings.Contains(debugBuf.String(), "heading sample") || !strings.Contains(debugBuf.String(), "fetch failed") {
		t.Errorf("debug handler missing records: %q", debugBuf.String())
	}
	if strings.Contains(warnBuf.String(), "heading sample") {
		t.Errorf("warn handler got debug record: %q", warnBuf.String())
	}
	if !strings.Contains(warnBuf.String(), "batch=b1") {
		t.Errorf("attrs not propagated: %q", warnBuf.String())
	}
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected Enabled for debug")
	}
}

func TestTrace(t *testing.T) {
	defer func() { EnableTrace = false }()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	Trace(logger, "hidden")
	EnableTrace = true
	Trace(logger, "shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("trace logged while disabled")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("trace not logged while enabled")
	}
}
