package models

import (
	"time"

	"github.com/google/uuid"
)

// MutationKind тип мутации, ожидающей подтверждения сервера
type MutationKind string

const (
	MutationLike    MutationKind = "like"
	MutationUnlike  MutationKind = "unlike"
	MutationSave    MutationKind = "save"
	MutationUnsave  MutationKind = "unsave"
	MutationComment MutationKind = "comment"
	MutationShare   MutationKind = "share"
)

// ToggleKind returns the mutation kind for switching action to the desired state.
func ToggleKind(action Action, desired bool) MutationKind {
	switch action {
	case ActionLike:
		if desired {
			return MutationLike
		}
		return MutationUnlike
	case ActionSave:
		if desired {
			return MutationSave
		}
		return MutationUnsave
	}
	return MutationKind(action)
}

// PendingMutation описывает мутацию от момента оптимистичного обновления
// до подтверждения сервером, отката или исчерпания повторов.
type PendingMutation struct {
	CreatedAt  time.Time         `json:"created_at"`  // CreatedAt момент оптимистичного обновления
	Payload    map[string]string `json:"payload"`     // Payload параметры удаленного вызова (collection_id, temp_id, ...)
	ID         string            `json:"id"`          // ID уникальный идентификатор мутации (UUID)
	Kind       MutationKind      `json:"kind"`        // Kind тип мутации
	ItemID     string            `json:"item_id"`     // ItemID пост, к которому относится мутация
	ActorID    string            `json:"actor_id"`    // ActorID автор мутации
	RetryCount int               `json:"retry_count"` // RetryCount количество выполненных повторов
}

// NewPendingMutation creates a mutation stamped with a fresh id and the current time.
func NewPendingMutation(kind MutationKind, itemID, actorID string, payload map[string]string) *PendingMutation {
	if payload == nil {
		payload = make(map[string]string)
	}
	return &PendingMutation{
		ID:        uuid.New().String(),
		Kind:      kind,
		ItemID:    itemID,
		ActorID:   actorID,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}
