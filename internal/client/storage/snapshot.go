package storage

import (
	"context"

	"github.com/iudanet/forkful/internal/models"
)

// SnapshotStorage хранит warm-start snapshot кэша между запусками.
// Snapshot одного пользователя перезаписывает предыдущий.
type SnapshotStorage interface {
	// SaveSnapshot сохраняет snapshot под snap.ActorID
	SaveSnapshot(ctx context.Context, snap *models.EngagementSnapshot) error

	// LoadSnapshot возвращает последний snapshot пользователя
	// Returns ErrSnapshotNotFound if nothing was saved for actorID
	LoadSnapshot(ctx context.Context, actorID string) (*models.EngagementSnapshot, error)

	// DeleteSnapshot удаляет snapshot пользователя (logout)
	DeleteSnapshot(ctx context.Context, actorID string) error
}
