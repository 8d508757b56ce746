package model

import "time"

// User is a locally known identity, keyed by the identity provider's subject.
type User struct {
	ID         int64     `json:"id"`
	ExternalID string    `json:"externalId"`
	Email      string    `json:"email,omitempty"`
	Username   string    `json:"username,omitempty"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Identity is the authenticated caller as read from the bearer token.
type Identity struct {
	ExternalID string
	Email      string
	Username   string
}

// SetRoleRequest is the API request body for changing a user's role.
type SetRoleRequest struct {
	Role string `json:"role"`
}

// CacheInfoResponse is the admin view of the query cache.
type CacheInfoResponse struct {
	Backend    string `json:"backend"`
	Generation int64  `json:"generation"`
}
