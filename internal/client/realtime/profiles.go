package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	clientapi "github.com/iudanet/forkful/internal/client/api"
	"github.com/iudanet/forkful/internal/models"
	"github.com/iudanet/forkful/pkg/api"
)

// ProfileSource возвращает публичный профиль по идентификатору автора
type ProfileSource interface {
	GetAuthor(ctx context.Context, authorID string) (*api.Author, error)
}

// ProfileResolver resolves author display identities for pushed comments.
// Concurrent lookups of one author share a single remote call and successful
// results are kept for the lifetime of the resolver.
type ProfileResolver struct {
	source ProfileSource
	logger *slog.Logger
	known  map[string]models.AuthorRef
	group  singleflight.Group
	mu     sync.RWMutex
}

// NewProfileResolver создает резолвер профилей
func NewProfileResolver(source ProfileSource, logger *slog.Logger) *ProfileResolver {
	return &ProfileResolver{
		source: source,
		logger: logger,
		known:  make(map[string]models.AuthorRef),
	}
}

// Resolve returns the author reference of authorID. On lookup failure the
// reference carries the id only and an error is returned.
func (r *ProfileResolver) Resolve(ctx context.Context, authorID string) (models.AuthorRef, error) {
	if authorID == "" {
		return models.AuthorRef{}, fmt.Errorf("author id is empty")
	}

	r.mu.RLock()
	ref, ok := r.known[authorID]
	r.mu.RUnlock()
	if ok {
		return ref, nil
	}

	v, err, shared := r.group.Do(authorID, func() (interface{}, error) {
		// Предыдущий вызов мог завершиться между проверкой и Do
		r.mu.RLock()
		ref, ok := r.known[authorID]
		r.mu.RUnlock()
		if ok {
			return ref, nil
		}

		author, err := r.source.GetAuthor(ctx, authorID)
		if err != nil {
			return nil, err
		}
		ref = clientapi.AuthorRef(author)
		if ref.ID == "" {
			ref.ID = authorID
		}

		r.mu.Lock()
		r.known[authorID] = ref
		r.mu.Unlock()
		return ref, nil
	})
	if err != nil {
		r.logger.Warn("Failed to resolve comment author", "author_id", authorID, "error", err)
		return models.AuthorRef{ID: authorID}, fmt.Errorf("failed to resolve author %s: %w", authorID, err)
	}

	if shared {
		r.logger.Debug("Author lookup deduplicated", "author_id", authorID)
	}
	return v.(models.AuthorRef), nil
}

// Remember stores a reference learned elsewhere, e.g. from a create response.
func (r *ProfileResolver) Remember(ref models.AuthorRef) {
	if ref.ID == "" || ref.Username == "" {
		return
	}
	r.mu.Lock()
	r.known[ref.ID] = ref
	r.mu.Unlock()
}
