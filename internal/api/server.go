package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"sightseer/pkg/version"
)

// Handlers groups the endpoint handlers. Sensor is nil unless the remote
// sensor provider is configured.
type Handlers struct {
	Status    *StatusHandler
	Stats     *StatsHandler
	Anchors   *AnchorHandler
	Stream    *Hub
	Sensor    *SensorHandler
	Session   *SessionHandler
	Sightings *SightingsHandler
}

// NewServer creates and configures the HTTP server.
func NewServer(addr string, h Handlers, shutdown func()) *http.Server {
	return &http.Server{
		Addr:        addr,
		Handler:     NewMux(h, shutdown),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the anchor stream is long-lived.
		IdleTimeout: 60 * time.Second,
	}
}

// NewMux registers all routes.
func NewMux(h Handlers, shutdown func()) *http.ServeMux {
	mux := http.NewServeMux()

	// 1. Health & Meta
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)

	// 2. Engine
	mux.Handle("GET /api/status", h.Status)
	mux.Handle("GET /api/stats", h.Stats)

	// 3. Anchors
	mux.HandleFunc("GET /api/anchors", h.Anchors.HandleList)
	mux.HandleFunc("GET /api/anchors/{id}/label", h.Anchors.HandleLabel)
	if h.Stream != nil {
		mux.Handle("GET /api/anchors/stream", h.Stream)
	}

	// 4. Device feed
	if h.Sensor != nil {
		mux.HandleFunc("POST /api/sensor/location", h.Sensor.HandleLocation)
		mux.HandleFunc("POST /api/sensor/heading", h.Sensor.HandleHeading)
		mux.HandleFunc("GET /api/sensor/heading", h.Sensor.HandleHeadingState)
		mux.HandleFunc("POST /api/sensor/error", h.Sensor.HandleError)
	}
	mux.HandleFunc("POST /api/session/pose", h.Session.HandlePose)
	mux.HandleFunc("DELETE /api/session/pose", h.Session.HandleClearPose)

	// 5. History
	if h.Sightings != nil {
		mux.HandleFunc("GET /api/sightings", h.Sightings.HandleList)
	}

	// 6. Shutdown
	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		// Let the response flush first.
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	return mux
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// decodeBody reads a bounded JSON body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
