package repository

import (
	"context"
	"fmt"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/db"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/domain"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/model"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/trust"
)

type VoteRepo struct {
	pool db.Pool
}

func NewVoteRepo(pool db.Pool) *VoteRepo {
	return &VoteRepo{pool: pool}
}

// RecordVote counts one vote and applies the trust policy in a single
// transaction. The toilet row is locked first, so concurrent votes on the
// same toilet are applied one after another and no threshold crossing is lost.
func (r *VoteRepo) RecordVote(ctx context.Context, toiletID, userID int64, vt domain.VoteType, policy trust.Policy) (*model.Toilet, trust.Transition, error) {
	var none trust.Transition

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, none, translate(err, "begin vote")
	}
	defer tx.Rollback(ctx)

	t, err := scanToilet(tx.QueryRow(ctx,
		`SELECT `+toiletColumns+` FROM toilets WHERE id = $1 FOR UPDATE`, toiletID))
	if err != nil {
		return nil, none, translate(err, fmt.Sprintf("lock toilet %d", toiletID))
	}
	if t.IsHidden {
		return nil, none, fmt.Errorf("toilet %d is hidden: %w", toiletID, domain.ErrNotFound)
	}

	var voted bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM votes WHERE user_id = $1 AND toilet_id = $2 AND type = $3)`,
		userID, toiletID, string(vt)).Scan(&voted)
	if err != nil {
		return nil, none, translate(err, "check existing vote")
	}
	if voted {
		return nil, none, domain.ErrAlreadyVoted
	}

	_, err = tx.Exec(ctx, `INSERT INTO votes (type, user_id, toilet_id) VALUES ($1, $2, $3)`,
		string(vt), userID, toiletID)
	if err != nil {
		switch pgCode(err) {
		case codeUniqueViolation:
			return nil, none, domain.ErrAlreadyVoted
		case codeForeignKeyViolation:
			return nil, none, fmt.Errorf("insert vote: user %d: %w", userID, domain.ErrNotFound)
		}
		return nil, none, translate(err, "insert vote")
	}

	state := trust.State{
		ReportCount: t.ReportCount,
		VerifyCount: t.VerifyCount,
		IsVerified:  t.IsVerified,
		IsHidden:    t.IsHidden,
	}
	if vt == domain.VoteReport {
		state.ReportCount++
	} else {
		state.VerifyCount++
	}
	tr, err := policy.Apply(state, vt)
	if err != nil {
		return nil, none, err
	}
	state = state.Next(tr)

	err = tx.QueryRow(ctx, `
		UPDATE toilets
		SET report_count = $2, verify_count = $3, is_hidden = $4, is_verified = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		toiletID, state.ReportCount, state.VerifyCount, state.IsHidden, state.IsVerified,
	).Scan(&t.UpdatedAt)
	if err != nil {
		return nil, none, translate(err, "update toilet counters")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, none, translate(err, "commit vote")
	}

	t.ReportCount = state.ReportCount
	t.VerifyCount = state.VerifyCount
	t.IsHidden = state.IsHidden
	t.IsVerified = state.IsVerified
	return t, tr, nil
}
