package core

import (
	"github.com/google/uuid"

	"sightseer/pkg/geo"
	"sightseer/pkg/heading"
	"sightseer/pkg/model"
)

// Events consumed by the engine loop.
type (
	locationEvent struct{ point geo.Point }
	headingEvent  struct{ sample heading.Sample }
	failEvent     struct{ err error }
	fetchResult   struct {
		batchID uuid.UUID
		sights  []model.Sight
		err     error
	}
)
