package api

import (
	"encoding/json"
	"time"
)

// Frame types of the realtime socket protocol
const (
	FrameJoin  = "join"
	FrameLeave = "leave"
	FrameEvent = "event"
	FrameError = "error"
)

// Frame is one message on the realtime socket. Client frames carry
// join/leave for a topic, server frames carry events for a joined topic.
type Frame struct {
	Type    string          `json:"type"`
	Topic   string          `json:"topic"`
	Ref     string          `json:"ref,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// StatsEvent полный snapshot агрегатов поста (не дельта)
type StatsEvent struct {
	UpdatedAt     time.Time `json:"updated_at"`
	ItemID        string    `json:"item_id"`
	LikesCount    int64     `json:"likes_count"`
	CommentsCount int64     `json:"comments_count"`
	SavesCount    int64     `json:"saves_count"`
	ShareCount    int64     `json:"share_count"`
	Version       int64     `json:"version"`
}

// CommentInsertEvent новый комментарий, сохраненный на сервере
type CommentInsertEvent struct {
	Comment Comment `json:"comment"`
}
