package models

import "time"

// EngagementStats агрегированные счетчики поста.
// Значения приходят с сервера (ответ мутации или realtime snapshot)
// либо являются оптимистичной локальной оценкой.
type EngagementStats struct {
	UpdatedAt     time.Time `json:"updated_at"`     // UpdatedAt время последней записи на сервере
	ItemID        string    `json:"item_id"`        // ItemID идентификатор поста
	LikesCount    int64     `json:"likes_count"`    // LikesCount количество лайков
	CommentsCount int64     `json:"comments_count"` // CommentsCount количество комментариев
	SavesCount    int64     `json:"saves_count"`    // SavesCount количество сохранений
	ShareCount    int64     `json:"share_count"`    // ShareCount количество шеров
	Version       int64     `json:"version"`        // Version монотонная версия агрегатной строки на сервере (0 = неизвестна)
}

// Counter идентифицирует один из счетчиков EngagementStats.
type Counter string

const (
	CounterLikes    Counter = "likes"
	CounterComments Counter = "comments"
	CounterSaves    Counter = "saves"
	CounterShares   Counter = "shares"
)

// ClampCount не дает счетчику уйти в минус.
func ClampCount(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

// Get возвращает значение счетчика.
func (s EngagementStats) Get(c Counter) int64 {
	switch c {
	case CounterLikes:
		return s.LikesCount
	case CounterComments:
		return s.CommentsCount
	case CounterSaves:
		return s.SavesCount
	case CounterShares:
		return s.ShareCount
	}
	return 0
}

// With returns a copy of s with counter c set to n, clamped at zero.
func (s EngagementStats) With(c Counter, n int64) EngagementStats {
	n = ClampCount(n)
	switch c {
	case CounterLikes:
		s.LikesCount = n
	case CounterComments:
		s.CommentsCount = n
	case CounterSaves:
		s.SavesCount = n
	case CounterShares:
		s.ShareCount = n
	}
	return s
}

// Add returns a copy of s with delta applied to counter c, clamped at zero.
func (s EngagementStats) Add(c Counter, delta int64) EngagementStats {
	return s.With(c, s.Get(c)+delta)
}

// Normalize clamps every counter at zero.
func (s EngagementStats) Normalize() EngagementStats {
	s.LikesCount = ClampCount(s.LikesCount)
	s.CommentsCount = ClampCount(s.CommentsCount)
	s.SavesCount = ClampCount(s.SavesCount)
	s.ShareCount = ClampCount(s.ShareCount)
	return s
}

// IsNewerThan сравнивает два snapshot'а по правилу LWW.
// Snapshot без версии (Version == 0) считается новее любого:
// сервер без версионирования не дает нам права его отбросить.
func (s EngagementStats) IsNewerThan(other EngagementStats) bool {
	if s.Version == 0 || other.Version == 0 {
		return true
	}
	if s.Version != other.Version {
		return s.Version > other.Version
	}
	return s.UpdatedAt.After(other.UpdatedAt)
}

// Action тип действия пользователя над постом
type Action string

const (
	ActionLike Action = "like"
	ActionSave Action = "save"
)

// ActorFlag is the per-actor boolean state for one action on one item.
// CollectionID scopes a save to a board; empty means the default target.
type ActorFlag struct {
	ItemID       string `json:"item_id"`
	ActorID      string `json:"actor_id"`
	Action       Action `json:"action"`
	CollectionID string `json:"collection_id,omitempty"`
	Value        bool   `json:"value"`
}

// EngagementSnapshot сохраняемая часть кэша одного пользователя: счетчики и флаги.
// Списки комментариев и ожидающие мутации не сохраняются.
type EngagementSnapshot struct {
	SavedAt time.Time         `json:"saved_at"` // SavedAt момент экспорта
	ActorID string            `json:"actor_id"` // ActorID владелец флагов
	Stats   []EngagementStats `json:"stats"`    // Stats счетчики постов
	Flags   []ActorFlag       `json:"flags"`    // Flags флаги лайков/сохранений
}
