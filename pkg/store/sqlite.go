package store

import (
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"sightseer/pkg/db"
	"sightseer/pkg/geo"
	"sightseer/pkg/model"
)

// Store composes all sub-interfaces.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	CacheStore
	SightingStore
	StateStore

	Close() error
}

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(d *db.DB) *SQLiteStore {
	return &SQLiteStore{db: d}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Sightings ---

func (s *SQLiteStore) SaveSighting(ctx context.Context, sg *model.Sighting) error {
	transform, err := json.Marshal(sg.Transform)
	if err != nil {
		return fmt.Errorf("marshal transform: %w", err)
	}
	created := sg.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	query := `INSERT OR REPLACE INTO sightings
		(anchor_id, batch_id, page_id, title, lat, lon, distance_m, bearing, heading, transform, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		sg.AnchorID.String(), sg.BatchID.String(), sg.PageID, sg.Title,
		sg.Point.Lat, sg.Point.Lon, sg.Distance, sg.Bearing, sg.Heading,
		string(transform), created.UTC().Format("2006-01-02 15:04:05"),
	)
	return err
}

// RecentSightings returns the newest sightings first. limit <= 0 returns all of them.
func (s *SQLiteStore) RecentSightings(ctx context.Context, limit int) ([]*model.Sighting, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT anchor_id, batch_id, page_id, title, lat, lon, distance_m, bearing, heading, transform, created_at
		 FROM sightings ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Sighting
	for rows.Next() {
		var (
			sg                model.Sighting
			anchorID, batchID string
			pageID            sql.NullInt64
			title, transform  sql.NullString
		)
		if err := rows.Scan(&anchorID, &batchID, &pageID, &title,
			&sg.Point.Lat, &sg.Point.Lon, &sg.Distance, &sg.Bearing, &sg.Heading,
			&transform, &sg.CreatedAt); err != nil {
			return nil, err
		}
		if sg.AnchorID, err = uuid.Parse(anchorID); err != nil {
			return nil, fmt.Errorf("sighting anchor id %q: %w", anchorID, err)
		}
		// Batch ids are informational; a malformed one is kept as Nil.
		sg.BatchID, _ = uuid.Parse(batchID)
		sg.PageID = int(pageID.Int64)
		sg.Title = title.String
		if transform.Valid && transform.String != "" {
			if err := json.Unmarshal([]byte(transform.String), &sg.Transform); err != nil {
				return nil, fmt.Errorf("sighting %s transform: %w", anchorID, err)
			}
		}
		out = append(out, &sg)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CountSightings(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM sightings").Scan(&n)
	return n, err
}

// --- Cache ---

func (s *SQLiteStore) GetCache(ctx context.Context, key string) ([]byte, bool) {
	var val []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM cache WHERE key = ?", key).Scan(&val)
	if err != nil {
		// Errors other than ErrNoRows are treated as a miss too.
		return nil, false
	}

	// Transparent Decompression
	if len(val) > 2 && val[0] == 0x1f && val[1] == 0x8b {
		if decompressed, err := decompress(val); err == nil {
			return decompressed, true
		}
	}
	return val, true
}

// --- Compression Pooling ---

var (
	gzipWriterPool = sync.Pool{
		New: func() interface{} {
			return gzip.NewWriter(io.Discard)
		},
	}
	bufferPool = sync.Pool{
		New: func() interface{} {
			return new(bytes.Buffer)
		},
	}
)

func compress(data []byte) ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	w := gzipWriterPool.Get().(*gzip.Writer)
	defer gzipWriterPool.Put(w)
	w.Reset(buf)

	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	// Must copy because buf is returned to pool
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (s *SQLiteStore) HasCache(ctx context.Context, key string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM cache WHERE key = ?", key).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) SetCache(ctx context.Context, key string, val []byte) error {
	if compressed, err := compress(val); err == nil {
		val = compressed
	}
	query := `INSERT OR REPLACE INTO cache (key, value, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, key, val, time.Now().UTC().Format("2006-01-02 15:04:05"))
	return err
}

func (s *SQLiteStore) ListCacheKeys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM cache WHERE key LIKE ?", prefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// --- State ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool) {
	var val string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM persistent_state WHERE key = ?", key).Scan(&val)
	if err != nil {
		return "", false
	}
	return val, true
}

func (s *SQLiteStore) SetState(ctx context.Context, key, val string) error {
	query := `INSERT OR REPLACE INTO persistent_state (key, value, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, key, val, time.Now().UTC().Format("2006-01-02 15:04:05"))
	return err
}

func (s *SQLiteStore) DeleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM persistent_state WHERE key = ?", key)
	return err
}

// Keys used in persistent_state.
const (
	StateLastOrigin      = "last_origin"
	StateLastMaintenance = "last_maintenance"
)

// SaveOrigin stores the origin of the latest placement batch.
func SaveOrigin(ctx context.Context, s StateStore, p geo.Point) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.SetState(ctx, StateLastOrigin, string(data))
}

// LoadOrigin returns the origin stored by SaveOrigin.
func LoadOrigin(ctx context.Context, s StateStore) (geo.Point, bool) {
	val, ok := s.GetState(ctx, StateLastOrigin)
	if !ok {
		return geo.Point{}, false
	}
	var p geo.Point
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return geo.Point{}, false
	}
	return p, true
}
