package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/domain"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/model"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/trust"
)

// ToiletStore is implemented by repository.ToiletRepo (PostGIS) and
// sqlitestore.ToiletStore. Radius queries exclude hidden toilets and are
// exact: no toilet farther than radius is ever returned.
type ToiletStore interface {
	FindInRadius(ctx context.Context, lat, lon, radius float64) ([]model.Toilet, error)
	ExistsWithin(ctx context.Context, lat, lon, radius float64) (bool, error)
	Insert(ctx context.Context, nt model.NewToilet) (*model.Toilet, error)
	FindByID(ctx context.Context, id int64) (*model.Toilet, error)
	FindByExternalID(ctx context.Context, externalID string) (*model.Toilet, error)
	FindHidden(ctx context.Context) ([]model.Toilet, error)
	Restore(ctx context.Context, id int64) (*model.Toilet, error)
	Delete(ctx context.Context, id int64) error
}

// VoteStore records a vote and applies the trust policy in one transaction.
type VoteStore interface {
	RecordVote(ctx context.Context, toiletID, userID int64, vt domain.VoteType, policy trust.Policy) (*model.Toilet, trust.Transition, error)
}

type UserStore interface {
	Upsert(ctx context.Context, id model.Identity) (*model.User, error)
	FindByExternalID(ctx context.Context, externalID string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	SetRole(ctx context.Context, externalID, role string) (*model.User, error)
}

type ReviewStore interface {
	Create(ctx context.Context, toiletID int64, userID *int64, content string, rating int) (*model.Review, error)
	ListByToilet(ctx context.Context, toiletID int64) ([]model.Review, error)
}

// unavailable marks deadline and cancellation errors as retryable storage
// unavailability so they are never mistaken for an empty result.
func unavailable(err error) error {
	if err == nil || errors.Is(err, domain.ErrUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	return err
}

// requireAdmin re-reads the caller's role from the store; token claims are
// never trusted for it.
func requireAdmin(ctx context.Context, users UserStore, externalID string) (*model.User, error) {
	if externalID == "" {
		return nil, domain.ErrUnauthorized
	}
	u, err := users.FindByExternalID(ctx, externalID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrForbidden
	}
	if err != nil {
		return nil, unavailable(err)
	}
	if u.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	return u, nil
}
