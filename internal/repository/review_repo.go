package repository

import (
	"context"
	"fmt"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/db"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/domain"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/model"
)

type ReviewRepo struct {
	pool db.Pool
}

func NewReviewRepo(pool db.Pool) *ReviewRepo {
	return &ReviewRepo{pool: pool}
}

func (r *ReviewRepo) Create(ctx context.Context, toiletID int64, userID *int64, content string, rating int) (*model.Review, error) {
	rv := model.Review{ToiletID: toiletID, UserID: userID, Content: content, Rating: rating}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO reviews (toilet_id, user_id, content, rating) VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		toiletID, userID, content, rating).Scan(&rv.ID, &rv.CreatedAt)
	if err != nil {
		switch pgCode(err) {
		case codeForeignKeyViolation:
			return nil, fmt.Errorf("create review: toilet %d: %w", toiletID, domain.ErrNotFound)
		case codeCheckViolation:
			return nil, domain.Invalid("rating", "must be between 1 and 5")
		}
		return nil, translate(err, "create review")
	}
	return &rv, nil
}

// ListByToilet returns a toilet's reviews, newest first.
func (r *ReviewRepo) ListByToilet(ctx context.Context, toiletID int64) ([]model.Review, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, toilet_id, COALESCE(user_id, 0), content, rating, created_at
		FROM reviews WHERE toilet_id = $1
		ORDER BY created_at DESC, id DESC`, toiletID)
	if err != nil {
		return nil, translate(err, "list reviews")
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		var rv model.Review
		var userID int64
		if err := rows.Scan(&rv.ID, &rv.ToiletID, &userID, &rv.Content, &rv.Rating, &rv.CreatedAt); err != nil {
			return nil, translate(err, "scan review")
		}
		if userID != 0 {
			rv.UserID = &userID
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "list reviews")
	}
	return reviews, nil
}
