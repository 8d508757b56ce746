package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/domain"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/model"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/trust"
)

type VoteStore struct {
	db *sql.DB
}

// RecordVote counts one vote and applies the trust policy atomically. The
// handle has a single connection, so transactions never interleave.
func (s *VoteStore) RecordVote(ctx context.Context, toiletID, userID int64, vt domain.VoteType, policy trust.Policy) (*model.Toilet, trust.Transition, error) {
	var none trust.Transition

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, none, translate(err, "begin vote")
	}
	defer tx.Rollback()

	t, err := scanToilet(tx.QueryRowContext(ctx, `SELECT `+toiletColumns+` FROM toilets WHERE id = ?`, toiletID))
	if err != nil {
		return nil, none, translate(err, fmt.Sprintf("load toilet %d", toiletID))
	}
	if t.IsHidden {
		return nil, none, fmt.Errorf("toilet %d is hidden: %w", toiletID, domain.ErrNotFound)
	}

	var voted bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM votes WHERE user_id = ? AND toilet_id = ? AND type = ?)`,
		userID, toiletID, string(vt)).Scan(&voted)
	if err != nil {
		return nil, none, translate(err, "check existing vote")
	}
	if voted {
		return nil, none, domain.ErrAlreadyVoted
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO votes (type, user_id, toilet_id) VALUES (?, ?, ?)`,
		string(vt), userID, toiletID); err != nil {
		switch constraint(err) {
		case uniqueConstraint:
			return nil, none, domain.ErrAlreadyVoted
		case foreignKeyConstraint:
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

	var updated string
	err = tx.QueryRowContext(ctx, `
		UPDATE toilets
		SET report_count = ?, verify_count = ?, is_hidden = ?, is_verified = ?, updated_at = `+nowSQL+`
		WHERE id = ?
		RETURNING updated_at`,
		state.ReportCount, state.VerifyCount, state.IsHidden, state.IsVerified, toiletID).Scan(&updated)
	if err != nil {
		return nil, none, translate(err, "update toilet counters")
	}
	if err := tx.Commit(); err != nil {
		return nil, none, translate(err, "commit vote")
	}

	t.ReportCount = state.ReportCount
	t.VerifyCount = state.VerifyCount
	t.IsHidden = state.IsHidden
	t.IsVerified = state.IsVerified
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, none, err
	}
	return t, tr, nil
}
