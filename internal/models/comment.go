package models

import (
	"strings"
	"time"
)

// TempCommentPrefix префикс временного идентификатора локально созданного комментария
const TempCommentPrefix = "temp-"

// AuthorRef is the display identity of a comment author.
type AuthorRef struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// CommentRecord представляет комментарий к посту вместе с ответами.
type CommentRecord struct {
	CreatedAt  time.Time       `json:"created_at"`          // CreatedAt время создания
	Author     AuthorRef       `json:"author"`              // Author автор комментария
	ID         string          `json:"id"`                  // ID серверный или временный (temp-...) идентификатор
	ItemID     string          `json:"item_id"`             // ItemID пост
	Content    string          `json:"content"`             // Content текст комментария
	ParentID   string          `json:"parent_id,omitempty"` // ParentID родительский комментарий (пусто для верхнего уровня)
	Replies    []CommentRecord `json:"replies,omitempty"`   // Replies ответы в хронологическом порядке
	LikesCount int64           `json:"likes_count"`         // LikesCount количество лайков комментария
}

// IsTemporary reports whether the record still carries a local temporary id.
func (c CommentRecord) IsTemporary() bool {
	return strings.HasPrefix(c.ID, TempCommentPrefix)
}

// Clone создает глубокую копию комментария вместе с ответами
func (c CommentRecord) Clone() CommentRecord {
	if c.Replies != nil {
		c.Replies = CloneComments(c.Replies)
	}
	return c
}

// CloneComments returns a deep copy of list.
func CloneComments(list []CommentRecord) []CommentRecord {
	if list == nil {
		return nil
	}
	out := make([]CommentRecord, len(list))
	for i, c := range list {
		out[i] = c.Clone()
	}
	return out
}

// ContainsComment ищет комментарий по id, включая вложенные ответы
func ContainsComment(list []CommentRecord, id string) bool {
	for _, c := range list {
		if c.ID == id || ContainsComment(c.Replies, id) {
			return true
		}
	}
	return false
}

// CountComments returns the number of records in list, replies included.
func CountComments(list []CommentRecord) int {
	n := len(list)
	for _, c := range list {
		n += CountComments(c.Replies)
	}
	return n
}

// InsertComment adds c to a copy of list. Top-level comments are prepended,
// replies are appended to their parent. A reply whose parent is not present
// is prepended at the top level.
func InsertComment(list []CommentRecord, c CommentRecord) []CommentRecord {
	if c.ParentID != "" {
		if out, ok := appendReply(list, c); ok {
			return out
		}
	}
	out := make([]CommentRecord, 0, len(list)+1)
	out = append(out, c)
	return append(out, CloneComments(list)...)
}

func appendReply(list []CommentRecord, reply CommentRecord) ([]CommentRecord, bool) {
	out := CloneComments(list)
	for i := range out {
		if out[i].ID == reply.ParentID {
			out[i].Replies = append(out[i].Replies, reply)
			return out, true
		}
		if replies, ok := appendReply(out[i].Replies, reply); ok {
			out[i].Replies = replies
			return out, true
		}
	}
	return list, false
}

// ReplaceComment заменяет запись с идентификатором id на c (на том же месте).
// Возвращает false, если запись не найдена.
func ReplaceComment(list []CommentRecord, id string, c CommentRecord) ([]CommentRecord, bool) {
	out := CloneComments(list)
	for i := range out {
		if out[i].ID == id {
			// Ответы, пришедшие к временной записи, переносим на подтвержденную
			if len(c.Replies) == 0 {
				c.Replies = out[i].Replies
			}
			out[i] = c
			return out, true
		}
		if replies, ok := ReplaceComment(out[i].Replies, id, c); ok {
			out[i].Replies = replies
			return out, true
		}
	}
	return list, false
}

// RemoveComment удаляет запись с идентификатором id.
// Возвращает false, если запись не найдена.
func RemoveComment(list []CommentRecord, id string) ([]CommentRecord, bool) {
	for i := range list {
		if list[i].ID == id {
			out := make([]CommentRecord, 0, len(list)-1)
			out = append(out, CloneComments(list[:i])...)
			return append(out, CloneComments(list[i+1:])...), true
		}
		if replies, ok := RemoveComment(list[i].Replies, id); ok {
			out := CloneComments(list)
			out[i].Replies = replies
			return out, true
		}
	}
	return list, false
}
