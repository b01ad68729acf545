package boltdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/forkful/internal/client/storage"
)

// Клиент работает от имени одного пользователя, сессия хранится одной записью
var sessionKey = []byte("session")

// SaveAuth replaces the signed-in session. A session without an actor id is
// rejected: every mutation is attributed to that actor.
func (s *Storage) SaveAuth(ctx context.Context, auth *storage.AuthData) error {
	if auth == nil || auth.ActorID == "" {
		return errors.New("auth data has no actor id")
	}
	if err := s.putRecord(ctx, bucketAuth, sessionKey, auth); err != nil {
		return fmt.Errorf("failed to save auth data: %w", err)
	}
	return nil
}

// GetAuth returns the stored session or storage.ErrAuthNotFound.
func (s *Storage) GetAuth(ctx context.Context) (*storage.AuthData, error) {
	auth := &storage.AuthData{}
	err := s.getRecord(ctx, bucketAuth, sessionKey, auth)
	if errors.Is(err, errNoRecord) {
		return nil, storage.ErrAuthNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load auth data: %w", err)
	}
	return auth, nil
}

// DeleteAuth удаляет сессию (logout). Без сессии возвращает ErrAuthNotFound.
func (s *Storage) DeleteAuth(ctx context.Context) error {
	err := s.deleteRecord(ctx, bucketAuth, sessionKey, true)
	if errors.Is(err, errNoRecord) {
		return storage.ErrAuthNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete auth data: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether a session with an unexpired token is stored.
func (s *Storage) IsAuthenticated(ctx context.Context) (bool, error) {
	auth, err := s.GetAuth(ctx)
	switch {
	case errors.Is(err, storage.ErrAuthNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return auth.AccessToken != "" && !auth.Expired(time.Now()), nil
}
