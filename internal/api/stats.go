package api

import (
	"net/http"
	"runtime"
	"sync"

	"sightseer/pkg/registry"
	"sightseer/pkg/tracker"
)

type ProviderStatsDTO struct {
	CacheHits     int64 `json:"cache_hits"`
	CacheMisses   int64 `json:"cache_misses"`
	APISuccess    int64 `json:"api_success"`
	APIZeroResult int64 `json:"api_zero"`
	APIFailures   int64 `json:"api_errors"`
	HitRate       int64 `json:"hit_rate"`
}

type Diagnostics struct {
	MemoryMB    uint64 `json:"memory_mb"`
	MemoryMaxMB uint64 `json:"memory_max_mb"`
	Goroutines  int    `json:"goroutines"`
}

type TrackingStats struct {
	Labels        int `json:"labels"`
	StreamClients int `json:"stream_clients"`
}

type StatsResponse struct {
	Diagnostics Diagnostics                 `json:"diagnostics"`
	Tracking    TrackingStats               `json:"tracking"`
	Pipeline    tracker.PipelineStats       `json:"pipeline"`
	Providers   map[string]ProviderStatsDTO `json:"providers"`
}

// StatsHandler reports tracker counters and process diagnostics.
type StatsHandler struct {
	tracker  *tracker.Tracker
	registry *registry.Registry
	hub      *Hub

	mu     sync.Mutex
	maxMem uint64
}

// NewStatsHandler creates the handler. hub may be nil.
func NewStatsHandler(t *tracker.Tracker, reg *registry.Registry, hub *Hub) *StatsHandler {
	return &StatsHandler{tracker: t, registry: reg, hub: hub}
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshot := h.tracker.Snapshot()

	resp := StatsResponse{
		Diagnostics: h.gatherDiagnostics(),
		Tracking: TrackingStats{
			Labels: h.registry.Len(),
		},
		Pipeline:  h.tracker.Pipeline(),
		Providers: make(map[string]ProviderStatsDTO, len(snapshot)),
	}
	if h.hub != nil {
		resp.Tracking.StreamClients = h.hub.ClientCount()
	}

	for provider, stats := range snapshot {
		totalCache := stats.CacheHits + stats.CacheMisses
		hitRate := int64(0)
		if totalCache > 0 {
			hitRate = (stats.CacheHits * 100) / totalCache
		}
		resp.Providers[provider] = ProviderStatsDTO{
			CacheHits:     stats.CacheHits,
			CacheMisses:   stats.CacheMisses,
			APISuccess:    stats.APISuccess,
			APIZeroResult: stats.APIZeroResult,
			APIFailures:   stats.APIFailures,
			HitRate:       hitRate,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *StatsHandler) gatherDiagnostics() Diagnostics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	h.mu.Lock()
	if m.Sys > h.maxMem {
		h.maxMem = m.Sys
	}
	peak := h.maxMem
	h.mu.Unlock()

	return Diagnostics{
		MemoryMB:    bToMb(m.Sys),
		MemoryMaxMB: bToMb(peak),
		Goroutines:  runtime.NumGoroutine(),
	}
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
