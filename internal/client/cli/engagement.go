package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/forkful/internal/client/session"
	"github.com/iudanet/forkful/internal/client/share"
	"github.com/iudanet/forkful/internal/models"
)

// RunLike переключает лайк текущего пользователя
func (c *Cli) RunLike(ctx context.Context, itemID string) error {
	return c.withSession(ctx, func(s *session.Session) error {
		failures := watchFailures(s, itemID)
		defer failures.stop()

		res := s.Screen(itemID, nil).ToggleLike(ctx)
		if err := settle(ctx, c, s, res, failures); err != nil {
			return err
		}

		stats, _ := s.Cache().Stats(itemID)
		if res.Value.Active {
			c.success("Liked %s (%d likes)", itemID, stats.LikesCount)
		} else {
			c.success("Removed like from %s (%d likes)", itemID, stats.LikesCount)
		}
		return nil
	})
}

// RunSave переключает сохранение, опционально в коллекцию
func (c *Cli) RunSave(ctx context.Context, itemID, collectionID string) error {
	return c.withSession(ctx, func(s *session.Session) error {
		failures := watchFailures(s, itemID)
		defer failures.stop()

		res := s.Screen(itemID, nil).ToggleSave(ctx, collectionID)
		if err := settle(ctx, c, s, res, failures); err != nil {
			return err
		}

		stats, _ := s.Cache().Stats(itemID)
		target := "saved"
		if collectionID != "" {
			target = collectionID
		}
		if res.Value.Active {
			c.success("Saved %s to %s (%d saves)", itemID, target, stats.SavesCount)
		} else {
			c.success("Removed %s from %s (%d saves)", itemID, target, stats.SavesCount)
		}
		return nil
	})
}

// RunComment публикует комментарий или ответ
func (c *Cli) RunComment(ctx context.Context, itemID, content, parentID string) error {
	return c.withSession(ctx, func(s *session.Session) error {
		failures := watchFailures(s, itemID)
		defer failures.stop()

		res := s.Screen(itemID, nil).AddComment(ctx, content, parentID)
		if err := settle(ctx, c, s, res, failures); err != nil {
			return err
		}

		stats, _ := s.Cache().Stats(itemID)
		if res.Pending {
			c.success("Comment posted on %s (%d comments)", itemID, stats.CommentsCount)
		} else {
			c.success("Comment %s posted on %s (%d comments)", res.Value.ID, itemID, stats.CommentsCount)
		}
		return nil
	})
}

// RunShare показывает ссылки на пост и пишет событие шеринга
func (c *Cli) RunShare(ctx context.Context, itemID, caption, platform string) error {
	return c.withSession(ctx, func(s *session.Session) error {
		res := s.Screen(itemID, nil).Share(ctx, caption, platform)
		if res.Err != nil {
			return describe(res.Err, res.Kind)
		}
		c.success("Shared %s", itemID)
		return nil
	})
}

// RunCopyLink копирует web ссылку на пост. Без буфера обмена ссылка печатается.
func (c *Cli) RunCopyLink(ctx context.Context, itemID string) error {
	return c.withSession(ctx, func(s *session.Session) error {
		res := s.Screen(itemID, nil).CopyLink(ctx)
		switch {
		case res.Err == nil:
			c.success("Link copied: %s", res.Value)
		case errors.Is(res.Err, share.ErrClipboardUnavailable) && res.Value != "":
			c.warn("Clipboard unavailable, copy the link manually:")
			c.line("%s", res.Value)
		default:
			return describe(res.Err, res.Kind)
		}
		return nil
	})
}

// statsLine форматирует счетчики поста для вывода
func statsLine(itemID string, stats models.EngagementStats) string {
	return fmt.Sprintf("%s  likes=%d comments=%d saves=%d shares=%d",
		itemID, stats.LikesCount, stats.CommentsCount, stats.SavesCount, stats.ShareCount)
}
