package engagement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	clientapi "github.com/iudanet/forkful/internal/client/api"
	"github.com/iudanet/forkful/internal/client/cache"
	"github.com/iudanet/forkful/internal/client/metrics"
	"github.com/iudanet/forkful/internal/models"
	"github.com/iudanet/forkful/internal/validation"
	"github.com/iudanet/forkful/pkg/api"
)

var errEmptyComment = errors.New("server returned no comment")

// CommentDraft новый комментарий, введенный пользователем
type CommentDraft struct {
	Author   models.AuthorRef // Author отображаемый автор временной записи (ID = ActorID, если пусто)
	ItemID   string           // ItemID пост
	ActorID  string           // ActorID автор
	Content  string           // Content текст
	ParentID string           // ParentID комментарий, на который отвечают
}

// AddComment inserts a temporary record and bumps the comment counter, then
// creates the comment remotely. On confirmation the temporary record is
// replaced in place by the authoritative one; if the realtime echo of the
// same comment arrived first, the temporary record is simply removed.
func (c *Coordinator) AddComment(ctx context.Context, draft CommentDraft) Result[models.CommentRecord] {
	if draft.ActorID == "" {
		return Fail(models.CommentRecord{}, ErrAuthRequired)
	}

	content := strings.TrimSpace(draft.Content)
	if err := validation.ValidateComment(validation.CommentInput{
		ItemID:   draft.ItemID,
		Content:  content,
		ParentID: draft.ParentID,
	}); err != nil {
		return Fail(models.CommentRecord{}, fmt.Errorf("%w: %w", ErrValidation, err))
	}

	author := draft.Author
	if author.ID == "" {
		author.ID = draft.ActorID
	}
	temp := models.CommentRecord{
		ID:        models.TempCommentPrefix + uuid.NewString(),
		ItemID:    draft.ItemID,
		Author:    author,
		Content:   content,
		ParentID:  draft.ParentID,
		CreatedAt: time.Now(),
	}

	payload := map[string]string{"temp_id": temp.ID}
	if draft.ParentID != "" {
		payload["parent_id"] = draft.ParentID
	}
	m := models.NewPendingMutation(models.MutationComment, draft.ItemID, draft.ActorID, payload)

	var (
		resp      *api.CreateCommentResponse
		confirmed models.CommentRecord
	)

	t := &transaction{
		mutation: m,
		apply: func(tx *cache.Tx) {
			tx.SetComments(models.InsertComment(tx.Comments(), temp))
			stats, _ := tx.Stats()
			tx.SetStats(stats.Add(models.CounterComments, 1))
		},
		call: func(ctx context.Context) error {
			defer metrics.ObserveRemoteCall("create_comment", time.Now())

			r, err := c.remote.CreateComment(ctx, api.CreateCommentRequest{
				ItemID:   draft.ItemID,
				ActorID:  draft.ActorID,
				Content:  content,
				ParentID: draft.ParentID,
				ClientID: temp.ID,
			})
			if err != nil {
				return err
			}
			if r == nil || r.Comment.ID == "" {
				return errEmptyComment
			}
			resp = r
			return nil
		},
		commit: func(tx *cache.Tx, snapshot bool) {
			confirmed = clientapi.CommentRecord(resp.Comment)
			confirmed.ItemID = draft.ItemID
			if confirmed.Author.Username == "" && author.Username != "" {
				confirmed.Author = author
			}

			list := tx.Comments()
			switch {
			case models.ContainsComment(list, confirmed.ID):
				// Echo из realtime канала пришел раньше ответа
				list, _ = models.RemoveComment(list, temp.ID)
			default:
				replaced, ok := models.ReplaceComment(list, temp.ID, confirmed)
				if !ok {
					replaced = models.InsertComment(list, confirmed)
				}
				list = replaced
			}
			tx.SetComments(list)

			if snapshot || resp.CommentsCount == nil {
				return
			}
			stats, _ := tx.Stats()
			if stats.CommentsCount != models.ClampCount(*resp.CommentsCount) {
				tx.SetStats(stats.With(models.CounterComments, *resp.CommentsCount))
			}
		},
		revert: func(tx *cache.Tx, snapshot bool) {
			if list, ok := models.RemoveComment(tx.Comments(), temp.ID); ok {
				tx.SetComments(list)
			}
			if snapshot {
				return
			}
			stats, _ := tx.Stats()
			tx.SetStats(stats.Add(models.CounterComments, -1))
		},
	}

	pending, err := c.run(ctx, t)
	switch {
	case err != nil:
		return Fail(temp, err)
	case pending:
		return Queued(temp)
	}
	return Ok(confirmed)
}
