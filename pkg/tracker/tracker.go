package tracker

import (
	"sync"
	"sync/atomic"
)

// Tracker counts HTTP provider usage and placement pipeline events.
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*ProviderStats

	batches     atomic.Int64
	staleFetch  atomic.Int64
	fetchFailed atomic.Int64
	placed      atomic.Int64
	skipped     atomic.Int64
	samples     atomic.Int64
}

// ProviderStats holds metrics for a specific provider.
// Fields are accessed atomically.
type ProviderStats struct {
	CacheHits     int64 `json:"cache_hits"`
	CacheMisses   int64 `json:"cache_misses"`
	APISuccess    int64 `json:"api_success"`
	APIFailures   int64 `json:"api_failures"`
	APIZeroResult int64 `json:"api_zero_result"`
}

// PipelineStats is a point-in-time copy of the placement counters.
type PipelineStats struct {
	BatchesStarted int64 `json:"batches_started"`
	StaleDropped   int64 `json:"stale_dropped"`
	FetchFailures  int64 `json:"fetch_failures"`
	AnchorsPlaced  int64 `json:"anchors_placed"`
	SightsSkipped  int64 `json:"sights_skipped"`
	HeadingSamples int64 `json:"heading_samples"`
}

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{
		stats: make(map[string]*ProviderStats),
	}
}

func (t *Tracker) getStats(provider string) *ProviderStats {
	t.mu.RLock()
	s, ok := t.stats[provider]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok = t.stats[provider]; ok {
		return s
	}
	s = &ProviderStats{}
	t.stats[provider] = s
	return s
}

func (t *Tracker) TrackCacheHit(provider string) {
	atomic.AddInt64(&t.getStats(provider).CacheHits, 1)
}

func (t *Tracker) TrackCacheMiss(provider string) {
	atomic.AddInt64(&t.getStats(provider).CacheMisses, 1)
}

func (t *Tracker) TrackAPISuccess(provider string) {
	atomic.AddInt64(&t.getStats(provider).APISuccess, 1)
}

func (t *Tracker) TrackAPIFailure(provider string) {
	atomic.AddInt64(&t.getStats(provider).APIFailures, 1)
}

// TrackAPIZero records a successful query that returned no sights.
func (t *Tracker) TrackAPIZero(provider string) {
	atomic.AddInt64(&t.getStats(provider).APIZeroResult, 1)
}

func (t *Tracker) TrackBatch()         { t.batches.Add(1) }
func (t *Tracker) TrackStaleFetch()    { t.staleFetch.Add(1) }
func (t *Tracker) TrackFetchFailure()  { t.fetchFailed.Add(1) }
func (t *Tracker) TrackPlaced()        { t.placed.Add(1) }
func (t *Tracker) TrackSkipped()       { t.skipped.Add(1) }
func (t *Tracker) TrackHeadingSample() { t.samples.Add(1) }

// Snapshot returns a copy of the per-provider stats.
func (t *Tracker) Snapshot() map[string]ProviderStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]ProviderStats, len(t.stats))
	for k, v := range t.stats {
		result[k] = ProviderStats{
			CacheHits:     atomic.LoadInt64(&v.CacheHits),
			CacheMisses:   atomic.LoadInt64(&v.CacheMisses),
			APISuccess:    atomic.LoadInt64(&v.APISuccess),
			APIFailures:   atomic.LoadInt64(&v.APIFailures),
			APIZeroResult: atomic.LoadInt64(&v.APIZeroResult),
		}
	}
	return result
}

// Pipeline returns the placement counters.
func (t *Tracker) Pipeline() PipelineStats {
	return PipelineStats{
		BatchesStarted: t.batches.Load(),
		StaleDropped:   t.staleFetch.Load(),
		FetchFailures:  t.fetchFailed.Load(),
		AnchorsPlaced:  t.placed.Load(),
		SightsSkipped:  t.skipped.Load(),
		HeadingSamples: t.samples.Load(),
	}
}
