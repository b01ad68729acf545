package engagement

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/forkful/internal/client/cache"
	"github.com/iudanet/forkful/internal/client/metrics"
	"github.com/iudanet/forkful/internal/client/share"
	"github.com/iudanet/forkful/internal/models"
	"github.com/iudanet/forkful/internal/validation"
	"github.com/iudanet/forkful/pkg/api"
)

const (
	contentTypePost  = "post"
	analyticsTimeout = 10 * time.Second
)

// ShareTarget пост, которым делится пользователь
type ShareTarget struct {
	ItemID  string
	Caption string
}

// SharePost presents the share sheet with the post's deep link and web link.
// The local share counter is incremented before the sheet is shown and is
// never rolled back; the analytics event is recorded in the background.
// actorID may be empty for anonymous shares.
func (c *Coordinator) SharePost(ctx context.Context, target ShareTarget, actorID, platform string) Result[share.Links] {
	if err := validation.ValidateToggle(validation.ToggleInput{ItemID: target.ItemID}); err != nil {
		return Fail(share.Links{}, fmt.Errorf("%w: %w", ErrValidation, err))
	}
	if platform == "" {
		platform = share.PlatformSheet
	}

	links := c.sharing.Links.Post(target.ItemID)
	c.bumpShares(target.ItemID)

	var err error
	if c.sharing.Sheet != nil {
		err = c.sharing.Sheet.Present(ctx, share.Content{Caption: target.Caption, Links: links})
	}
	c.recordShare(ctx, target.ItemID, actorID, platform)

	if err != nil {
		return Fail(links, fmt.Errorf("failed to present share sheet: %w", err))
	}
	return Ok(links)
}

// CopyLink writes the post's web link to the clipboard. The share counter is
// incremented the same way as for SharePost.
func (c *Coordinator) CopyLink(ctx context.Context, target ShareTarget, actorID string) Result[string] {
	if err := validation.ValidateToggle(validation.ToggleInput{ItemID: target.ItemID}); err != nil {
		return Fail("", fmt.Errorf("%w: %w", ErrValidation, err))
	}

	link := c.sharing.Links.Post(target.ItemID).WebLink
	c.bumpShares(target.ItemID)

	err := c.sharing.Clipboard.WriteText(link)
	c.recordShare(ctx, target.ItemID, actorID, share.PlatformClipboard)

	if err != nil {
		return Fail(link, fmt.Errorf("failed to copy link: %w", err))
	}
	return Ok(link)
}

func (c *Coordinator) bumpShares(itemID string) {
	c.cache.Update(itemID, func(tx *cache.Tx) {
		stats, _ := tx.Stats()
		tx.SetStats(stats.Add(models.CounterShares, 1))
	})
	metrics.MutationsTotal.WithLabelValues(string(models.MutationShare), metrics.ResultSuccess).Inc()
}

// recordShare отправляет событие аналитики в фоне; ошибки только логируются
func (c *Coordinator) recordShare(ctx context.Context, itemID, actorID, platform string) {
	event := api.ShareEvent{
		ContentType: contentTypePost,
		ContentID:   itemID,
		Platform:    platform,
	}
	if actorID != "" {
		event.ActorID = &actorID
	}

	ctx = context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, analyticsTimeout)
		defer cancel()
		defer metrics.ObserveRemoteCall("record_share", time.Now())

		if err := c.remote.RecordShare(ctx, event); err != nil {
			c.logger.Warn("Failed to record share",
				"item_id", itemID,
				"platform", platform,
				"error", err,
			)
			return
		}
		c.logger.Debug("Share recorded", "item_id", itemID, "platform", platform)
	}()
}
