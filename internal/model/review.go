package model

import "time"

// Review is a free-text rating of a toilet.
type Review struct {
	ID        int64     `json:"id"`
	ToiletID  int64     `json:"toiletId"`
	UserID    *int64    `json:"userId,omitempty"`
	Content   string    `json:"content"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateReviewRequest is the API request body for posting a review.
type CreateReviewRequest struct {
	ExternalID string `json:"externalId"`
	Content    string `json:"content"`
	Rating     int    `json:"rating"`
}
