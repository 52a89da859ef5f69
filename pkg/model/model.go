package model

import (
	"time"

	"github.com/google/uuid"

	"sightseer/pkg/geo"
)

// Sight is a point of interest returned by the geodata source.
type Sight struct {
	PageID       int       `json:"page_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Point        geo.Point `json:"point"`
	Index        int       `json:"index"` // rank in the geosearch result
}

// Sighting is the persisted record of an anchor placed for a Sight.
type Sighting struct {
	AnchorID  uuid.UUID   `json:"anchor_id"`
	BatchID   uuid.UUID   `json:"batch_id"`
	PageID    int         `json:"page_id"`
	Title     string      `json:"title"`
	Point     geo.Point   `json:"point"`
	Distance  float64     `json:"distance_m"`
	Bearing   float64     `json:"bearing"`
	Heading   float64     `json:"heading"`
	Transform [16]float64 `json:"transform"`
	CreatedAt time.Time   `json:"created_at"`
}
