package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/domain"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/model"
)

const MaxReviewLength = 2000

type ReviewService struct {
	reviews ReviewStore
	toilets ToiletStore
	users   UserStore
	timeout time.Duration
}

func NewReviewService(reviews ReviewStore, toilets ToiletStore, users UserStore, timeout time.Duration) *ReviewService {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &ReviewService{reviews: reviews, toilets: toilets, users: users, timeout: timeout}
}

// Create posts a review on the toilet with the given external id. The caller
// is optional; anonymous reviews carry no user. Reviews do not change search
// results, so the cache is left alone.
func (s *ReviewService) Create(ctx context.Context, req model.CreateReviewRequest, id *model.Identity) (*model.Review, error) {
	if strings.TrimSpace(req.ExternalID) == "" {
		return nil, domain.Invalid("externalId", "is required")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, domain.Invalid("rating", "must be between 1 and 5")
	}
	if utf8.RuneCountInString(req.Content) > MaxReviewLength {
		return nil, domain.Invalid("content", fmt.Sprintf("must be at most %d characters", MaxReviewLength))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	t, err := s.visibleToilet(ctx, req.ExternalID)
	if err != nil {
		return nil, err
	}

	var userID *int64
	if id != nil && id.ExternalID != "" {
		u, err := s.users.Upsert(ctx, *id)
		if err != nil {
			return nil, unavailable(err)
		}
		userID = &u.ID
	}

	rv, err := s.reviews.Create(ctx, t.ID, userID, req.Content, req.Rating)
	return rv, unavailable(err)
}

// ListByToilet returns reviews of a visible toilet, newest first.
func (s *ReviewService) ListByToilet(ctx context.Context, externalID string) ([]model.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	t, err := s.visibleToilet(ctx, externalID)
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ListByToilet(ctx, t.ID)
	return reviews, unavailable(err)
}

func (s *ReviewService) visibleToilet(ctx context.Context, externalID string) (*model.Toilet, error) {
	t, err := s.toilets.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, unavailable(err)
	}
	if t.IsHidden {
		return nil, fmt.Errorf("toilet %s is hidden: %w", externalID, domain.ErrNotFound)
	}
	return t, nil
}
