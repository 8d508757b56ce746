package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/cache"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/domain"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/geo"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/metrics"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/model"
)

const (
	DefaultStoreTimeout    = 5 * time.Second
	DefaultMaxSearchRadius = 50_000.0
)

// ToiletOptions configures ToiletService. Zero values take the defaults.
type ToiletOptions struct {
	StoreTimeout      time.Duration
	DefaultRadius     float64
	MaxRadius         float64
	MaxSubmitDistance float64
	DuplicateRadius   float64
}

type ToiletService struct {
	store   ToiletStore
	users   UserStore
	cache   cache.QueryCache
	guard   *Guard
	group   singleflight.Group
	timeout time.Duration

	defaultRadius float64
	maxRadius     float64

	newExternalID func() string
}

func NewToiletService(store ToiletStore, users UserStore, qc cache.QueryCache, opts ToiletOptions) *ToiletService {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	if opts.DefaultRadius <= 0 {
		opts.DefaultRadius = geo.DefaultSearchRadius
	}
	if opts.MaxRadius <= 0 {
		opts.MaxRadius = DefaultMaxSearchRadius
	}
	return &ToiletService{
		store:         store,
		users:         users,
		cache:         qc,
		guard:         NewGuard(store, opts.MaxSubmitDistance, opts.DuplicateRadius),
		timeout:       opts.StoreTimeout,
		defaultRadius: opts.DefaultRadius,
		maxRadius:     opts.MaxRadius,
		newExternalID: func() string { return "user/" + uuid.NewString() },
	}
}

// Search returns visible toilets around the quantized center. The store is
// always queried at the quantized center, so a cached answer and a fresh one
// for the same key are the same set.
func (s *ToiletService) Search(ctx context.Context, lat, lon float64, radius *float64) ([]model.Toilet, error) {
	if !geo.ValidCoordinate(lat, lon) {
		return nil, domain.Invalid("lat/lng", "coordinates out of range")
	}
	r := s.defaultRadius
	if radius != nil {
		if math.IsNaN(*radius) || math.IsInf(*radius, 0) || *radius < 0 {
			return nil, domain.Invalid("radius", "must be a non-negative number")
		}
		if *radius > s.maxRadius {
			return nil, domain.Invalid("radius", fmt.Sprintf("must not exceed %.0f meters", s.maxRadius))
		}
		r = *radius
	}
	r = geo.ClampRadius(r)
	qlat, qlon := geo.Quantize(lat), geo.Quantize(lon)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cacheable := true
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		// without a generation a stale entry could be served or stored
		cacheable = false
		metrics.CacheErrors.WithLabelValues("generation").Inc()
		log.Warn().Err(err).Msg("cache: generation lookup failed")
	}
	key := cache.SearchKey(gen, qlat, qlon, r)

	if cacheable {
		toilets, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.CacheErrors.WithLabelValues("get").Inc()
			log.Warn().Err(err).Str("key", key).Msg("cache: get failed")
		case ok:
			metrics.CacheHits.Inc()
			return toilets, nil
		}
	}
	metrics.CacheMisses.Inc()

	v, err, _ := s.group.Do(key, func() (any, error) {
		// detached from the first caller so its cancellation does not fail the others
		qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		toilets, err := s.store.FindInRadius(qctx, qlat, qlon, r)
		if err != nil {
			return nil, unavailable(err)
		}
		if cacheable {
			if err := s.cache.Set(qctx, key, toilets); err != nil {
				metrics.CacheErrors.WithLabelValues("set").Inc()
				log.Warn().Err(err).Str("key", key).Msg("cache: set failed")
			}
		}
		return toilets, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Toilet), nil
}

// Submit validates and stores a user-submitted toilet, then invalidates the
// search cache.
func (s *ToiletService) Submit(ctx context.Context, in model.SubmitToiletInput, id model.Identity) (*model.Toilet, error) {
	if id.ExternalID == "" {
		return nil, domain.ErrUnauthorized
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.guard.ValidateSubmission(ctx, in.Lat, in.Lon, in.UserLat, in.UserLon); err != nil {
		metrics.SubmissionsTotal.WithLabelValues(submissionOutcome(err)).Inc()
		return nil, err
	}

	u, err := s.users.Upsert(ctx, id)
	if err != nil {
		return nil, unavailable(err)
	}

	t, err := s.store.Insert(ctx, in.ToNewToilet(s.newExternalID(), &u.ID))
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues(submissionOutcome(err)).Inc()
		return nil, unavailable(err)
	}
	metrics.SubmissionsTotal.WithLabelValues("created").Inc()
	log.Info().Int64("toilet_id", t.ID).Str("external_id", t.ExternalID).Msg("toilet submitted")

	s.invalidate(ctx)
	return t, nil
}

func submissionOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrTooFar):
		return "too_far"
	case errors.Is(err, domain.ErrDuplicate):
		return "duplicate"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidGeometry):
		return "invalid"
	default:
		return "error"
	}
}

// ListHidden returns hidden toilets for moderation. Admin only.
func (s *ToiletService) ListHidden(ctx context.Context, caller string) ([]model.Toilet, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := requireAdmin(ctx, s.users, caller); err != nil {
		return nil, err
	}
	toilets, err := s.store.FindHidden(ctx)
	return toilets, unavailable(err)
}

// Restore unhides a toilet and resets its reports. Admin only.
func (s *ToiletService) Restore(ctx context.Context, caller string, toiletID int64) (*model.Toilet, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	admin, err := requireAdmin(ctx, s.users, caller)
	if err != nil {
		return nil, err
	}
	t, err := s.store.Restore(ctx, toiletID)
	if err != nil {
		return nil, unavailable(err)
	}
	log.Info().Int64("toilet_id", toiletID).Int64("admin_id", admin.ID).Msg("toilet restored")
	s.invalidate(ctx)
	return t, nil
}

// Delete removes a toilet with its votes and reviews. Admin only.
func (s *ToiletService) Delete(ctx context.Context, caller string, toiletID int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	admin, err := requireAdmin(ctx, s.users, caller)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, toiletID); err != nil {
		return unavailable(err)
	}
	log.Info().Int64("toilet_id", toiletID).Int64("admin_id", admin.ID).Msg("toilet deleted")
	s.invalidate(ctx)
	return nil
}

// CacheInfo reports the cache backend and generation. Admin only.
func (s *ToiletService) CacheInfo(ctx context.Context, caller string) (*model.CacheInfoResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := requireAdmin(ctx, s.users, caller); err != nil {
		return nil, err
	}
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	return &model.CacheInfoResponse{Backend: s.cache.Backend(), Generation: gen}, nil
}

func (s *ToiletService) invalidate(ctx context.Context) {
	invalidate(ctx, s.cache)
}

// invalidate bumps the cache generation after a committed write. A failure
// leaves stale entries alive until their TTL, so it is logged loudly.
func invalidate(ctx context.Context, qc cache.QueryCache) {
	if err := qc.InvalidateAll(context.WithoutCancel(ctx)); err != nil {
		metrics.CacheErrors.WithLabelValues("invalidate").Inc()
		log.Error().Err(err).Msg("cache: invalidate failed")
	}
}
