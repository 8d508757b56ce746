package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/cache"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/domain"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/metrics"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/model"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/trust"
)

type VoteService struct {
	votes   VoteStore
	users   UserStore
	cache   cache.QueryCache
	policy  trust.Policy
	timeout time.Duration
}

func NewVoteService(votes VoteStore, users UserStore, qc cache.QueryCache, policy trust.Policy, timeout time.Duration) *VoteService {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &VoteService{votes: votes, users: users, cache: qc, policy: policy, timeout: timeout}
}

// Vote records a REPORT or VERIFY by the caller and returns the toilet after
// any trust transition.
func (s *VoteService) Vote(ctx context.Context, toiletID int64, id model.Identity, vt domain.VoteType) (*model.Toilet, error) {
	if id.ExternalID == "" {
		return nil, domain.ErrUnauthorized
	}
	if !vt.Valid() {
		return nil, domain.Invalid("type", "must be REPORT or VERIFY")
	}
	if toiletID <= 0 {
		return nil, domain.Invalid("id", "must be a positive integer")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	u, err := s.users.Upsert(ctx, id)
	if err != nil {
		return nil, unavailable(err)
	}

	t, tr, err := s.votes.RecordVote(ctx, toiletID, u.ID, vt, s.policy)
	if err != nil {
		if errors.Is(err, domain.ErrInvariant) {
			log.Error().Err(err).Int64("toilet_id", toiletID).Str("type", string(vt)).Msg("vote rejected by trust invariant")
		}
		return nil, unavailable(err)
	}

	metrics.VotesTotal.WithLabelValues(string(vt)).Inc()
	if !tr.None() {
		metrics.TrustTransitions.WithLabelValues(tr.Name()).Inc()
		log.Info().Int64("toilet_id", toiletID).Str("transition", tr.Name()).
			Int("reports", t.ReportCount).Int("verifies", t.VerifyCount).Msg("trust transition")
	}

	invalidate(ctx, s.cache)
	return t, nil
}
