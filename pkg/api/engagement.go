package api

import "time"

// Toggle actions accepted by the engagement endpoint
const (
	ActionToggleLike = "toggle_like"
	ActionToggleSave = "toggle_save"
)

// ToggleRequest представляет атомарную мутацию лайка или сохранения.
// Desired передает намерение клиента, поэтому повтор того же запроса идемпотентен.
type ToggleRequest struct {
	Action       string `json:"action"`                  // toggle_like | toggle_save
	ItemID       string `json:"item_id"`                 // идентификатор поста
	ActorID      string `json:"actor_id"`                // идентификатор пользователя
	CollectionID string `json:"collection_id,omitempty"` // доска для сохранения (опционально)
	RequestID    string `json:"request_id"`              // идентификатор PendingMutation
	Desired      bool   `json:"desired"`                 // желаемое состояние флага
}

// ToggleResponse представляет авторитетное состояние после мутации
type ToggleResponse struct {
	IsLiked    *bool  `json:"is_liked,omitempty"`
	IsSaved    *bool  `json:"is_saved,omitempty"`
	LikesCount *int64 `json:"likes_count,omitempty"`
	SavesCount *int64 `json:"saves_count,omitempty"`
}

// Author представляет публичный профиль автора
type Author struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// CreateCommentRequest представляет запрос на создание комментария
type CreateCommentRequest struct {
	ItemID   string `json:"item_id"`
	ActorID  string `json:"actor_id"`
	Content  string `json:"content"`
	ParentID string `json:"parent_id,omitempty"`
	ClientID string `json:"client_id"` // временный идентификатор на клиенте
}

// Comment представляет сохраненный комментарий
type Comment struct {
	CreatedAt  time.Time `json:"created_at"`
	ID         string    `json:"id"`
	ItemID     string    `json:"item_id"`
	AuthorID   string    `json:"author_id"`
	Content    string    `json:"content"`
	ParentID   string    `json:"parent_id,omitempty"`
	Author     *Author   `json:"author,omitempty"`
	LikesCount int64     `json:"likes_count"`
}

// CreateCommentResponse представляет ответ на создание комментария
type CreateCommentResponse struct {
	Comment       Comment `json:"comment"`
	CommentsCount *int64  `json:"comments_count,omitempty"`
}

// ShareEvent представляет запись аналитики шеринга (insert-only)
type ShareEvent struct {
	ActorID     *string `json:"actor_id"`
	ContentType string  `json:"content_type"` // всегда "post"
	ContentID   string  `json:"content_id"`
	Platform    string  `json:"platform"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
