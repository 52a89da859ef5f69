package maintenance

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"sightseer/pkg/config"
	"sightseer/pkg/db"
	"sightseer/pkg/store"
)

func TestMaintenance(t *testing.T) {
	tempDir := t.TempDir()
	d, err := db.Init(filepath.Join(tempDir, "maint_test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	s := store.NewSQLiteStore(d)
	ctx := context.Background()

	if _, ok := LastRun(ctx, s); ok {
		t.Fatal("LastRun reported a run on a fresh database")
	}

	stamp := func(age time.Duration) string {
		return time.Now().Add(-age).UTC().Format("2006-01-02 15:04:05")
	}

	inserts := []struct {
		query string
		args  []any
	}{
		{"INSERT INTO cache (key, value, created_at) VALUES (?, ?, ?)", []any{"old-key", "old-val", stamp(40 * config.Day)}},
		{"INSERT INTO cache (key, value, created_at) VALUES (?, ?, ?)", []any{"new-key", "new-val", stamp(config.Day)}},
		{`INSERT INTO sightings (anchor_id, batch_id, page_id, title, lat, lon, distance_m, bearing, heading, transform, created_at)
		  VALUES (?, ?, 1, 'Old', 0, 0, 0, 0, 0, '[]', ?)`, []any{"a-old", "b", stamp(60 * config.Day)}},
		{`INSERT INTO sightings (anchor_id, batch_id, page_id, title, lat, lon, distance_m, bearing, heading, transform, created_at)
		  VALUES (?, ?, 2, 'New', 0, 0, 0, 0, 0, '[]', ?)`, []any{"a-new", "b", stamp(time.Hour)}},
	}
	for _, in := range inserts {
		if _, err := d.Exec(in.query, in.args...); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.DefaultConfig()
	if err := Run(ctx, s, d, cfg); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	count := func(query, key string) int {
		var n int
		if err := d.QueryRow(query, key).Scan(&n); err != nil {
			t.Fatalf("count query failed: %v", err)
		}
		return n
	}

	if count("SELECT count(*) FROM cache WHERE key = ?", "old-key") != 0 {
		t.Error("Old cache entry was not pruned")
	}
	if count("SELECT count(*) FROM cache WHERE key = ?", "new-key") != 1 {
		t.Error("New cache entry was incorrectly pruned")
	}
	if count("SELECT count(*) FROM sightings WHERE anchor_id = ?", "a-old") != 0 {
		t.Error("Old sighting was not pruned")
	}
	if count("SELECT count(*) FROM sightings WHERE anchor_id = ?", "a-new") != 1 {
		t.Error("New sighting was incorrectly pruned")
	}

	last, ok := LastRun(ctx, s)
	if !ok {
		t.Fatal("State not updated after maintenance")
	}
	if time.Since(last) > time.Minute {
		t.Errorf("LastRun = %v, expected just now", last)
	}
}

func TestMaintenance_KeepForever(t *testing.T) {
	d, err := db.Init(filepath.Join(t.TempDir(), "keep.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	old := time.Now().Add(-400 * config.Day).UTC().Format("2006-01-02 15:04:05")
	if _, err := d.Exec(`INSERT INTO sightings (anchor_id, batch_id, page_id, title, lat, lon, distance_m, bearing, heading, transform, created_at)
		VALUES ('a', 'b', 1, 'Ancient', 0, 0, 0, 0, 0, '[]', ?)`, old); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.DB.SightingsMaxAge = 0
	if err := Run(context.Background(), store.NewSQLiteStore(d), d, cfg); err != nil {
		t.Fatal(err)
	}

	var n int
	if err := d.QueryRow("SELECT count(*) FROM sightings").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("sightings = %d, want 1 when retention is disabled", n)
	}
}
