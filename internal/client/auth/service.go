package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iudanet/forkful/internal/client/storage"
)

//go:generate moq -out service_mock.go . Service

// Service управляет сохраненной сессией пользователя
type Service interface {
	// Login проверяет access token и сохраняет сессию
	Login(ctx context.Context, token string) (*storage.AuthData, error)

	// Logout удаляет локальную сессию и warm-start snapshot пользователя
	Logout(ctx context.Context) error

	// Current возвращает действующую сессию
	// Returns ErrNotSignedIn if there is no session or it has expired
	Current(ctx context.Context) (*storage.AuthData, error)

	// ActorID возвращает идентификатор текущего пользователя
	ActorID(ctx context.Context) (string, error)

	// AccessToken возвращает bearer token или "" для анонимных вызовов
	AccessToken(ctx context.Context) (string, error)
}

type service struct {
	storage   storage.AuthStorage
	snapshots storage.SnapshotStorage
	logger    *slog.Logger
	now       func() time.Time
}

// NewService создает сервис сессии. snapshots может быть nil.
func NewService(authStorage storage.AuthStorage, snapshots storage.SnapshotStorage, logger *slog.Logger) Service {
	return &service{
		storage:   authStorage,
		snapshots: snapshots,
		logger:    logger,
		now:       time.Now,
	}
}

// Login проверяет access token и сохраняет сессию
func (s *service) Login(ctx context.Context, token string) (*storage.AuthData, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return nil, fmt.Errorf("%w: token is empty", ErrInvalidToken)
	}

	claims, err := ParseToken(token)
	if err != nil {
		return nil, err
	}

	auth := &storage.AuthData{
		Username:    claims.Username,
		ActorID:     claims.ActorID(),
		AccessToken: token,
		ExpiresAt:   claims.ExpiresAtUnix(),
	}
	if auth.Expired(s.now()) {
		return nil, fmt.Errorf("%w: token expired", ErrInvalidToken)
	}

	if err := s.storage.SaveAuth(ctx, auth); err != nil {
		return nil, fmt.Errorf("failed to save auth data: %w", err)
	}

	s.logger.Info("Signed in", "actor_id", auth.ActorID, "username", auth.Username)
	return auth, nil
}

// Logout удаляет локальную сессию и warm-start snapshot пользователя
func (s *service) Logout(ctx context.Context) error {
	authData, err := s.storage.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return ErrNotSignedIn
		}
		return fmt.Errorf("failed to get auth data: %w", err)
	}

	// Snapshot удаляем best effort: он не содержит секретов
	if s.snapshots != nil {
		if err := s.snapshots.DeleteSnapshot(ctx, authData.ActorID); err != nil {
			s.logger.Warn("Failed to delete snapshot on logout", "actor_id", authData.ActorID, "error", err)
		}
	}

	if err := s.storage.DeleteAuth(ctx); err != nil {
		return fmt.Errorf("failed to delete local auth data: %w", err)
	}

	s.logger.Info("Signed out", "actor_id", authData.ActorID)
	return nil
}

// Current возвращает действующую сессию
func (s *service) Current(ctx context.Context) (*storage.AuthData, error) {
	authData, err := s.storage.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, ErrNotSignedIn
		}
		return nil, fmt.Errorf("failed to get auth data: %w", err)
	}

	if authData.Expired(s.now()) {
		return nil, ErrNotSignedIn
	}

	return authData, nil
}

// ActorID возвращает идентификатор текущего пользователя
func (s *service) ActorID(ctx context.Context) (string, error) {
	authData, err := s.Current(ctx)
	if err != nil {
		return "", err
	}
	return authData.ActorID, nil
}

// AccessToken возвращает bearer token или "" для анонимных вызовов
func (s *service) AccessToken(ctx context.Context) (string, error) {
	authData, err := s.Current(ctx)
	if err != nil {
		if errors.Is(err, ErrNotSignedIn) {
			return "", nil
		}
		return "", err
	}
	return authData.AccessToken, nil
}
