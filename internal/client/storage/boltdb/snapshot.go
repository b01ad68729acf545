package boltdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/forkful/internal/client/storage"
	"github.com/iudanet/forkful/internal/models"
)

// SaveSnapshot сохраняет warm-start snapshot пользователя
func (s *Storage) SaveSnapshot(ctx context.Context, snap *models.EngagementSnapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot is nil")
	}
	if err := s.putRecord(ctx, bucketSnapshots, snapshotKey(snap.ActorID), snap); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot возвращает последний snapshot пользователя
func (s *Storage) LoadSnapshot(ctx context.Context, actorID string) (*models.EngagementSnapshot, error) {
	snap := &models.EngagementSnapshot{}
	err := s.getRecord(ctx, bucketSnapshots, snapshotKey(actorID), snap)
	if errors.Is(err, errNoRecord) {
		return nil, storage.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return snap, nil
}

// DeleteSnapshot удаляет snapshot пользователя. Отсутствие snapshot'а не ошибка.
func (s *Storage) DeleteSnapshot(ctx context.Context, actorID string) error {
	if err := s.deleteRecord(ctx, bucketSnapshots, snapshotKey(actorID), false); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// snapshotKey ключ snapshot'а; анонимный snapshot хранит только счетчики
func snapshotKey(actorID string) []byte {
	if actorID == "" {
		return []byte("anonymous")
	}
	return []byte("actor:" + actorID)
}
