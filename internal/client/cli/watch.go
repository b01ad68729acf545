package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/iudanet/forkful/internal/client/facade"
	"github.com/iudanet/forkful/internal/client/session"
	"github.com/iudanet/forkful/internal/models"
	"github.com/iudanet/forkful/internal/validation"
)

// RunWatch prints live counters and new comments of itemIDs until ctx is done.
func (c *Cli) RunWatch(ctx context.Context, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return fmt.Errorf("at least one post id is required")
	}

	return c.withSession(ctx, func(s *session.Session) error {
		for _, itemID := range itemIDs {
			screen := s.Screen(itemID, nil)
			p := &watchPrinter{cli: c, itemID: itemID}
			screen.Observe(p.print)
			if err := screen.Show(ctx); err != nil {
				c.warn("Realtime unavailable for %s: %v", itemID, err)
			}
		}

		c.line("Watching %d post(s), press Ctrl+C to stop", len(itemIDs))
		<-ctx.Done()
		return nil
	})
}

// watchPrinter печатает только изменения состояния одного поста
type watchPrinter struct {
	cli     *Cli
	seen    map[string]struct{}
	itemID  string
	last    models.EngagementStats
	mu      sync.Mutex
	started bool
}

func (p *watchPrinter) print(st facade.State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	first := !p.started
	p.started = true
	if first {
		p.seen = make(map[string]struct{}, len(st.Comments))
	}

	// Новые комментарии идут первыми; печатаем в хронологическом порядке
	var fresh []models.CommentRecord
	for _, comment := range st.Comments {
		if comment.IsTemporary() {
			continue
		}
		if _, ok := p.seen[comment.ID]; ok {
			continue
		}
		p.seen[comment.ID] = struct{}{}
		if !first {
			fresh = append(fresh, comment)
		}
	}
	for i := len(fresh) - 1; i >= 0; i-- {
		p.cli.line("%s  new comment by %s: %s", p.itemID, authorName(fresh[i].Author), fresh[i].Content)
	}

	if first || !sameCounts(st.Stats, p.last) {
		p.cli.line("%s", statsLine(p.itemID, st.Stats))
	}
	p.last = st.Stats
}

func sameCounts(a, b models.EngagementStats) bool {
	return a.LikesCount == b.LikesCount &&
		a.CommentsCount == b.CommentsCount &&
		a.SavesCount == b.SavesCount &&
		a.ShareCount == b.ShareCount
}

// authorName печатает handle только если он проходит правила username
func authorName(a models.AuthorRef) string {
	switch {
	case a.Username != "" && validation.ValidateUsername(a.Username) == nil:
		return "@" + a.Username
	case a.ID != "":
		return a.ID
	default:
		return "someone"
	}
}
