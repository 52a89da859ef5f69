package maintenance

import (
	"context"
	"log/slog"
	"time"

	"sightseer/pkg/config"
	"sightseer/pkg/db"
	"sightseer/pkg/store"
)

// Run prunes expired cache entries and old sightings, then records the time
// of the run. Failures are logged; maintenance never blocks startup.
func Run(ctx context.Context, s store.StateStore, d *db.DB, cfg *config.Config) error {
	slog.Info("Starting database maintenance...")

	if maxAge := time.Duration(cfg.Cache.MaxAge); maxAge > 0 {
		if n, err := d.PruneCache(maxAge); err != nil {
			slog.Error("Cache pruning failed", "error", err)
		} else {
			slog.Info("Cache pruning completed", "removed", n)
		}
	}

	if maxAge := time.Duration(cfg.DB.SightingsMaxAge); maxAge > 0 {
		if n, err := d.PruneSightings(maxAge); err != nil {
			slog.Error("Sightings pruning failed", "error", err)
		} else {
			slog.Info("Sightings pruning completed", "removed", n)
		}
	}

	return s.SetState(ctx, store.StateLastMaintenance, time.Now().UTC().Format(time.RFC3339))
}

// LastRun returns the time of the previous maintenance pass.
func LastRun(ctx context.Context, s store.StateStore) (time.Time, bool) {
	v, ok := s.GetState(ctx, store.StateLastMaintenance)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
