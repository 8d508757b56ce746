package service

import (
	"context"
	"fmt"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/domain"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/geo"
)

const (
	// DefaultMaxSubmitDistance is how far (meters) a submitter may stand from the toilet.
	DefaultMaxSubmitDistance = 50.0
	// DefaultDuplicateRadius is the radius (meters) within which a visible toilet blocks a new one.
	DefaultDuplicateRadius = 20.0
)

// Guard checks a submission before anything is written. It is advisory:
// two concurrent submissions a few meters apart can both pass.
type Guard struct {
	store           ToiletStore
	maxDistance     float64
	duplicateRadius float64
}

func NewGuard(store ToiletStore, maxDistance, duplicateRadius float64) *Guard {
	if maxDistance <= 0 {
		maxDistance = DefaultMaxSubmitDistance
	}
	if duplicateRadius <= 0 {
		duplicateRadius = DefaultDuplicateRadius
	}
	return &Guard{store: store, maxDistance: maxDistance, duplicateRadius: duplicateRadius}
}

// ValidateSubmission returns domain.ErrTooFar when the submitter is more than
// the allowed distance from the claimed position, and domain.ErrDuplicate when
// a visible toilet already exists within the duplicate radius. Both limits
// are inclusive: exactly 50 m is accepted, exactly 20 m is a duplicate.
func (g *Guard) ValidateSubmission(ctx context.Context, lat, lon, userLat, userLon float64) error {
	if !geo.ValidCoordinate(lat, lon) {
		return domain.Invalid("lat/lng", "toilet coordinates out of range")
	}
	if !geo.ValidCoordinate(userLat, userLon) {
		return domain.Invalid("userLat/userLng", "your coordinates are out of range")
	}

	if d := geo.DistanceMeters(userLat, userLon, lat, lon); d > g.maxDistance {
		return fmt.Errorf("%w (%.0fm, limit %.0fm)", domain.ErrTooFar, d, g.maxDistance)
	}

	exists, err := g.store.ExistsWithin(ctx, lat, lon, g.duplicateRadius)
	if err != nil {
		return unavailable(err)
	}
	if exists {
		return domain.ErrDuplicate
	}
	return nil
}
