package core

import (
	"context"

	"github.com/google/uuid"

	"sightseer/pkg/arsession"
	"sightseer/pkg/geo"
	"sightseer/pkg/model"
)

// GeodataSource returns the sights around a location.
type GeodataSource interface {
	Geosearch(ctx context.Context, p geo.Point) ([]model.Sight, error)
}

// PlacedAnchor describes an anchor created for a sight.
type PlacedAnchor struct {
	Anchor   arsession.Anchor `json:"anchor"`
	Label    string           `json:"label"`
	Sight    model.Sight      `json:"sight"`
	BatchID  uuid.UUID        `json:"batch_id"`
	Distance float64          `json:"distance_m"`
	Bearing  float64          `json:"bearing"`
	Heading  float64          `json:"heading"`
}

// AnchorSink is notified for every anchor placed. Called on the engine loop;
// implementations must not block.
type AnchorSink interface {
	AnchorAdded(p PlacedAnchor)
}
