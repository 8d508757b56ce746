// Package cache stores proximity search results keyed by quantized center,
// clamped radius and a cache generation. Invalidation bumps the generation,
// so results computed before a write can never be served after it.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/geo"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/model"
)

// DefaultTTL bounds how long a cached search result may live.
const DefaultTTL = time.Hour

// QueryCache is a best-effort store of search results. Errors are reported
// to the caller, which treats them as misses.
type QueryCache interface {
	// Generation returns the current generation to embed in keys.
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, key string) ([]model.Toilet, bool, error)
	Set(ctx context.Context, key string, toilets []model.Toilet) error
	// InvalidateAll makes every existing entry unreachable.
	InvalidateAll(ctx context.Context) error
	// Backend names the implementation for the admin debug view.
	Backend() string
}

// SearchKey builds the cache key for a search. Centers that quantize to the
// same two-decimal cell and radii that clamp to the same step share a key.
func SearchKey(gen int64, lat, lon, radius float64) string {
	return fmt.Sprintf("toilets:%d:%.2f:%.2f:%d",
		gen, geo.Quantize(lat), geo.Quantize(lon), int64(geo.ClampRadius(radius)))
}
