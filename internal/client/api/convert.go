package api

import (
	"github.com/iudanet/forkful/internal/models"
	"github.com/iudanet/forkful/pkg/api"
)

// StatsFromEvent переводит realtime snapshot в модель кэша
func StatsFromEvent(ev api.StatsEvent) models.EngagementStats {
	return models.EngagementStats{
		ItemID:        ev.ItemID,
		LikesCount:    ev.LikesCount,
		CommentsCount: ev.CommentsCount,
		SavesCount:    ev.SavesCount,
		ShareCount:    ev.ShareCount,
		Version:       ev.Version,
		UpdatedAt:     ev.UpdatedAt,
	}.Normalize()
}

// AuthorRef переводит профиль в ссылку на автора
func AuthorRef(a *api.Author) models.AuthorRef {
	if a == nil {
		return models.AuthorRef{}
	}
	return models.AuthorRef{
		ID:          a.ID,
		Username:    a.Username,
		DisplayName: a.DisplayName,
		AvatarURL:   a.AvatarURL,
	}
}

// CommentRecord переводит сохраненный комментарий в модель кэша.
// Если профиль автора не пришел вместе с комментарием, заполняется только ID.
func CommentRecord(c api.Comment) models.CommentRecord {
	author := AuthorRef(c.Author)
	if author.ID == "" {
		author.ID = c.AuthorID
	}
	return models.CommentRecord{
		ID:         c.ID,
		ItemID:     c.ItemID,
		Author:     author,
		Content:    c.Content,
		ParentID:   c.ParentID,
		CreatedAt:  c.CreatedAt,
		LikesCount: models.ClampCount(c.LikesCount),
	}
}
