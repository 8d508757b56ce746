package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/domain"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/model"
)

type ReviewStore struct {
	db *sql.DB
}

func (s *ReviewStore) Create(ctx context.Context, toiletID int64, userID *int64, content string, rating int) (*model.Review, error) {
	rv := model.Review{ToiletID: toiletID, UserID: userID, Content: content, Rating: rating}
	var created string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO reviews (toilet_id, user_id, content, rating) VALUES (?, ?, ?, ?)
		RETURNING id, created_at`,
		toiletID, userID, content, rating).Scan(&rv.ID, &created)
	if err != nil {
		switch constraint(err) {
		case foreignKeyConstraint:
			return nil, fmt.Errorf("create review: toilet %d: %w", toiletID, domain.ErrNotFound)
		case checkConstraint:
			return nil, domain.Invalid("rating", "must be between 1 and 5")
		}
		return nil, translate(err, "create review")
	}
	if rv.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &rv, nil
}

func (s *ReviewStore) ListByToilet(ctx context.Context, toiletID int64) ([]model.Review, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, toilet_id, COALESCE(user_id, 0), content, rating, created_at
		FROM reviews WHERE toilet_id = ?
		ORDER BY created_at DESC, id DESC`, toiletID)
	if err != nil {
		return nil, translate(err, "list reviews")
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		var rv model.Review
		var userID int64
		var created string
		if err := rows.Scan(&rv.ID, &rv.ToiletID, &userID, &rv.Content, &rv.Rating, &created); err != nil {
			return nil, translate(err, "scan review")
		}
		if userID != 0 {
			rv.UserID = &userID
		}
		if rv.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "list reviews")
	}
	return reviews, nil
}
