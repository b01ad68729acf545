package storage

import (
	"context"
	"time"
)

// AuthStorage defines interface for storing the signed-in session on client.
// The access token is stored as issued by the server.
type AuthStorage interface {
	// SaveAuth stores authentication data, replacing the previous session
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth retrieves stored authentication data
	// Returns ErrAuthNotFound if no auth data exists
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes stored authentication data (logout)
	DeleteAuth(ctx context.Context) error

	// IsAuthenticated checks if valid authentication exists (not expired)
	IsAuthenticated(ctx context.Context) (bool, error)
}

// AuthData represents authentication information in storage
type AuthData struct {
	Username    string `json:"username"`
	ActorID     string `json:"actor_id"`     // subject access token'а
	AccessToken string `json:"access_token"` // bearer token для RemoteAPI
	ExpiresAt   int64  `json:"expires_at"`   // unix seconds, 0 = бессрочный
}

// Expired reports whether the token is past its expiry at now.
func (a *AuthData) Expired(now time.Time) bool {
	return a.ExpiresAt > 0 && now.Unix() >= a.ExpiresAt
}
