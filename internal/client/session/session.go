// Package session wires one client session: the shared cache, retry queue,
// realtime feed and mutation coordinator, plus warm start from the local
// snapshot store.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	clientapi "github.com/iudanet/forkful/internal/client/api"
	"github.com/iudanet/forkful/internal/client/auth"
	"github.com/iudanet/forkful/internal/client/cache"
	"github.com/iudanet/forkful/internal/client/engagement"
	"github.com/iudanet/forkful/internal/client/facade"
	"github.com/iudanet/forkful/internal/client/realtime"
	"github.com/iudanet/forkful/internal/client/realtime/ws"
	"github.com/iudanet/forkful/internal/client/retry"
	"github.com/iudanet/forkful/internal/client/share"
	"github.com/iudanet/forkful/internal/client/storage"
	"github.com/iudanet/forkful/internal/config"
	"github.com/iudanet/forkful/internal/models"
)

// Deps внешние зависимости сессии. Remote и Transport создаются из конфигурации,
// если не заданы.
type Deps struct {
	Auth      auth.Service
	Snapshots storage.SnapshotStorage // Snapshots может быть nil: без warm start
	Remote    clientapi.ClientAPI
	Transport realtime.Transport
	Prompter  facade.SignInPrompter
	Sheet     share.Sheet
	Clipboard share.Clipboard
}

const settlePoll = 20 * time.Millisecond

// Session owns the engine shared by every screen.
type Session struct {
	deps      Deps
	logger    *slog.Logger
	cache     *cache.Cache
	scheduler *retry.Scheduler
	feed      *realtime.Manager
	coord     *engagement.Coordinator
	screens   map[*facade.Facade]struct{}
	actorID   string
	mu        sync.Mutex
	closed    bool
}

// Open builds the session and seeds the cache from the actor's last snapshot.
// A missing or unreadable snapshot only costs the warm start.
func Open(ctx context.Context, cfg *config.Config, deps Deps, logger *slog.Logger) (*Session, error) {
	if deps.Auth == nil {
		return nil, errors.New("session: auth service is required")
	}

	actorID, err := deps.Auth.ActorID(ctx)
	if err != nil && !errors.Is(err, auth.ErrNotSignedIn) {
		return nil, fmt.Errorf("failed to resolve actor: %w", err)
	}

	if deps.Remote == nil {
		deps.Remote = clientapi.NewClient(cfg.Server.URL, cfg.Server.Timeout, deps.Auth.AccessToken)
	}
	if deps.Transport == nil && !cfg.Realtime.Disabled {
		deps.Transport = ws.New(ws.Config{
			URL:              cfg.RealtimeURL(),
			Tokens:           deps.Auth.AccessToken,
			HandshakeTimeout: cfg.Realtime.HandshakeTimeout,
			PingInterval:     cfg.Realtime.PingInterval,
		}, logger)
	}

	s := &Session{
		deps:    deps,
		logger:  logger,
		actorID: actorID,
		cache:   cache.New(),
		screens: make(map[*facade.Facade]struct{}),
		scheduler: retry.NewScheduler(retry.Config{
			BaseDelay:   cfg.Retry.BaseDelay,
			MaxDelay:    cfg.Retry.MaxDelay,
			MaxAttempts: cfg.Retry.MaxAttempts,
		}, logger),
	}
	if deps.Transport != nil {
		profiles := realtime.NewProfileResolver(deps.Remote, logger)
		s.feed = realtime.NewManager(deps.Transport, s.cache, profiles, logger)
	}
	s.coord = engagement.NewCoordinator(deps.Remote, s.cache, s.scheduler, engagement.Sharing{
		Sheet:     deps.Sheet,
		Clipboard: deps.Clipboard,
		Links:     share.NewLinkBuilder(cfg.Links.DeepLinkScheme, cfg.Links.WebBase),
	}, logger)

	s.warmStart(ctx)
	return s, nil
}

func (s *Session) warmStart(ctx context.Context) {
	if s.deps.Snapshots == nil {
		return
	}
	snap, err := s.deps.Snapshots.LoadSnapshot(ctx, s.actorID)
	if err != nil {
		if !errors.Is(err, storage.ErrSnapshotNotFound) {
			s.logger.Warn("Failed to load snapshot", "actor_id", s.actorID, "error", err)
		}
		return
	}
	n := s.cache.Import(snap)
	s.logger.Debug("Cache warmed from snapshot", "actor_id", s.actorID, "entries", n, "saved_at", snap.SavedAt)
}

// ActorID возвращает пользователя сессии ("" для анонимной)
func (s *Session) ActorID() string {
	return s.actorID
}

// Cache возвращает общий кэш сессии
func (s *Session) Cache() *cache.Cache {
	return s.cache
}

// Coordinator возвращает координатор мутаций
func (s *Session) Coordinator() *engagement.Coordinator {
	return s.coord
}

// Feed возвращает realtime менеджер или nil, если realtime отключен
func (s *Session) Feed() *realtime.Manager {
	return s.feed
}

// Settle waits until the retry queue is idle: every queued mutation has been
// confirmed or rolled back.
func (s *Session) Settle(ctx context.Context) error {
	ticker := time.NewTicker(settlePoll)
	defer ticker.Stop()

	for !s.scheduler.Idle() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Screen creates a facade for itemID. Facades still shown at Close are hidden.
func (s *Session) Screen(itemID string, seed *models.EngagementStats) *facade.Facade {
	f := facade.New(itemID, seed, facade.Deps{
		Coordinator: s.coord,
		Cache:       s.cache,
		Feed:        s.feed,
		Actors:      s.deps.Auth,
		Prompter:    s.deps.Prompter,
	}, s.logger)

	s.mu.Lock()
	if !s.closed {
		s.screens[f] = struct{}{}
	}
	s.mu.Unlock()
	return f
}

// Close hides every screen, waits for background analytics, shuts the retry
// queue down (rolling back what it still holds), closes realtime and saves
// the snapshot. Safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	screens := make([]*facade.Facade, 0, len(s.screens))
	for f := range s.screens {
		screens = append(screens, f)
	}
	s.screens = nil
	s.mu.Unlock()

	for _, f := range screens {
		f.Hide()
	}

	s.coord.Wait()
	s.scheduler.Close()

	var errs []error
	if s.feed != nil {
		if err := s.feed.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close realtime feed: %w", err))
		}
	}

	// Snapshot сохраняем после отката очереди: в него попадают только подтвержденные значения
	if s.deps.Snapshots != nil {
		snap := s.cache.Export(s.actorID)
		if err := s.deps.Snapshots.SaveSnapshot(ctx, snap); err != nil {
			errs = append(errs, fmt.Errorf("failed to save snapshot: %w", err))
		} else {
			s.logger.Debug("Snapshot saved", "actor_id", s.actorID, "stats", len(snap.Stats), "flags", len(snap.Flags))
		}
	}

	return errors.Join(errs...)
}
