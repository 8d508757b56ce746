package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/domain"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/model"
)

type UserService struct {
	users   UserStore
	timeout time.Duration
}

func NewUserService(users UserStore, timeout time.Duration) *UserService {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &UserService{users: users, timeout: timeout}
}

// Me returns the caller's local user, creating it on first use.
func (s *UserService) Me(ctx context.Context, id model.Identity) (*model.User, error) {
	if id.ExternalID == "" {
		return nil, domain.ErrUnauthorized
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	u, err := s.users.Upsert(ctx, id)
	return u, unavailable(err)
}

// List returns all users. Admin only.
func (s *UserService) List(ctx context.Context, caller string) ([]model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := requireAdmin(ctx, s.users, caller); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	return users, unavailable(err)
}

// SetRole changes another user's role. Admin only.
func (s *UserService) SetRole(ctx context.Context, caller, target, role string) (*model.User, error) {
	if !domain.ValidRole(role) {
		return nil, domain.Invalid("role", fmt.Sprintf("must be %s or %s", domain.RoleUser, domain.RoleAdmin))
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	admin, err := requireAdmin(ctx, s.users, caller)
	if err != nil {
		return nil, err
	}
	u, err := s.users.SetRole(ctx, target, role)
	if err != nil {
		return nil, unavailable(err)
	}
	log.Info().Int64("admin_id", admin.ID).Int64("user_id", u.ID).Str("role", role).Msg("role changed")
	return u, nil
}
