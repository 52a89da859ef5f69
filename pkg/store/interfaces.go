package store

import (
	"context"

	"sightseer/pkg/model"
)

// CacheStore handles generic key-value caching.
type CacheStore interface {
	GetCache(ctx context.Context, key string) ([]byte, bool)
	HasCache(ctx context.Context, key string) (bool, error)
	SetCache(ctx context.Context, key string, val []byte) error
	ListCacheKeys(ctx context.Context, prefix string) ([]string, error)
}

// SightingStore keeps the history of placed anchors.
type SightingStore interface {
	SaveSighting(ctx context.Context, s *model.Sighting) error
	RecentSightings(ctx context.Context, limit int) ([]*model.Sighting, error)
	CountSightings(ctx context.Context) (int, error)
}

// StateStore handles persistent application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}
