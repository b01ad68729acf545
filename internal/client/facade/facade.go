// Package facade adapts the engagement engine to one screen showing one post:
// it seeds the shared cache, exposes the post's engagement as observable
// state and routes user actions to the coordinator.
package facade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/iudanet/forkful/internal/client/cache"
	"github.com/iudanet/forkful/internal/client/engagement"
	"github.com/iudanet/forkful/internal/client/realtime"
	"github.com/iudanet/forkful/internal/models"
)

// ActorSource возвращает идентификатор текущего пользователя
type ActorSource interface {
	ActorID(ctx context.Context) (string, error)
}

// SignInPrompter просит пользователя войти перед мутацией
type SignInPrompter interface {
	PromptSignIn(ctx context.Context, action string)
}

// State is the engagement of the post as seen by the current actor.
type State struct {
	LastError error                  // LastError последняя откаченная мутация (nil после успешной)
	Comments  []models.CommentRecord // Comments список комментариев, новые сверху
	Stats     models.EngagementStats // Stats счетчики
	Liked     bool                   // Liked лайк текущего пользователя
	Saved     bool                   // Saved сохранение текущего пользователя (без доски)
	Live      bool                   // Live realtime подписка активна
}

// Deps зависимости фасада; общие для всех экранов сессии
type Deps struct {
	Coordinator *engagement.Coordinator
	Cache       *cache.Cache
	Feed        *realtime.Manager // Feed может быть nil: тогда без realtime
	Actors      ActorSource
	Prompter    SignInPrompter // Prompter может быть nil
}

// Facade is bound to one item. Observers are only called while the facade is
// shown; mutations completing after Hide still update the shared cache.
type Facade struct {
	deps      Deps
	logger    *slog.Logger
	observers map[uint64]func(State)
	actorID   string
	itemID    string
	owner     string // владелец realtime подписок этого экрана
	lastErr   error
	stop      []func()
	handles   []*realtime.Handle
	nextID    uint64
	mu        sync.Mutex
	visible   bool
}

// New binds a facade to itemID. seed replaces counters restored from a
// saved snapshot but never counters written during this session.
func New(itemID string, seed *models.EngagementStats, deps Deps, logger *slog.Logger) *Facade {
	if seed != nil {
		s := seed.Normalize()
		s.ItemID = itemID
		deps.Cache.SeedStats(s)
	}
	return &Facade{
		deps:      deps,
		logger:    logger,
		itemID:    itemID,
		owner:     uuid.NewString(),
		observers: make(map[uint64]func(State)),
	}
}

// ItemID возвращает пост фасада
func (f *Facade) ItemID() string {
	return f.itemID
}

// State returns the current state read from the cache.
func (f *Facade) State() State {
	f.mu.Lock()
	actorID, lastErr := f.actorID, f.lastErr
	live := len(f.handles) > 0
	f.mu.Unlock()

	stats, _ := f.deps.Cache.Stats(f.itemID)
	st := State{
		Stats:     stats,
		Comments:  f.deps.Cache.Comments(f.itemID),
		LastError: lastErr,
		Live:      live,
	}
	if actorID != "" {
		st.Liked = f.deps.Cache.Flag(cache.LikeKey(f.itemID, actorID))
		st.Saved = f.deps.Cache.Flag(cache.SaveKey(f.itemID, actorID, ""))
	}
	return st
}

// Observe registers fn for state changes. The returned cancel function is idempotent.
func (f *Facade) Observe(fn func(State)) (cancel func()) {
	f.mu.Lock()
	f.nextID++
	id := f.nextID
	f.observers[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.observers, id)
			f.mu.Unlock()
		})
	}
}

// Show starts cache and failure observation and subscribes to both realtime
// channels of the item. A realtime error is returned but the facade stays
// shown with local updates only.
func (f *Facade) Show(ctx context.Context) error {
	f.mu.Lock()
	if f.visible {
		f.mu.Unlock()
		return nil
	}
	f.visible = true
	f.mu.Unlock()

	// Актор нужен для флагов в State; отсутствие сессии не ошибка
	if actorID, err := f.deps.Actors.ActorID(ctx); err == nil {
		f.mu.Lock()
		f.actorID = actorID
		f.mu.Unlock()
	}

	stopWatch := f.deps.Cache.Watch(f.itemID, func(string) { f.emit() })
	stopFailures := f.deps.Coordinator.OnFailure(f.itemID, f.failed)

	var (
		handles []*realtime.Handle
		errs    []error
	)
	if f.deps.Feed != nil {
		if h, err := f.deps.Feed.SubscribeStats(ctx, f.owner, f.itemID, nil); err != nil {
			errs = append(errs, err)
		} else {
			handles = append(handles, h)
		}
		if h, err := f.deps.Feed.SubscribeComments(ctx, f.owner, f.itemID, nil); err != nil {
			errs = append(errs, err)
		} else {
			handles = append(handles, h)
		}
	}

	f.mu.Lock()
	if !f.visible {
		// Hide успел отработать, пока шла подписка
		f.mu.Unlock()
		stopWatch()
		stopFailures()
		for _, h := range handles {
			h.Unsubscribe()
		}
		return nil
	}
	f.stop = append(f.stop, stopWatch, stopFailures)
	f.handles = handles
	f.mu.Unlock()

	err := errors.Join(errs...)
	if err != nil {
		f.logger.Warn("Realtime unavailable for post", "item_id", f.itemID, "error", err)
	}
	f.emit()
	return err
}

// Hide tears down every subscription. Safe to call more than once.
func (f *Facade) Hide() {
	f.mu.Lock()
	if !f.visible {
		f.mu.Unlock()
		return
	}
	f.visible = false
	stop, handles := f.stop, f.handles
	f.stop, f.handles = nil, nil
	f.mu.Unlock()

	for _, fn := range stop {
		fn()
	}
	for _, h := range handles {
		h.Unsubscribe()
	}
}

// ToggleLike flips the like of the current actor.
func (f *Facade) ToggleLike(ctx context.Context) engagement.Result[engagement.ToggleState] {
	actorID, err := f.requireActor(ctx, "like")
	if err != nil {
		return engagement.Fail(engagement.ToggleState{ItemID: f.itemID}, err)
	}
	res := f.deps.Coordinator.ToggleLike(ctx, f.itemID, actorID)
	f.clearError(res.Err)
	return res
}

// ToggleSave flips the save of the current actor, optionally in a collection.
func (f *Facade) ToggleSave(ctx context.Context, collectionID string) engagement.Result[engagement.ToggleState] {
	actorID, err := f.requireActor(ctx, "save")
	if err != nil {
		return engagement.Fail(engagement.ToggleState{ItemID: f.itemID}, err)
	}
	res := f.deps.Coordinator.ToggleSave(ctx, f.itemID, actorID, collectionID)
	f.clearError(res.Err)
	return res
}

// AddComment posts a comment or a reply as the current actor.
func (f *Facade) AddComment(ctx context.Context, content, parentID string) engagement.Result[models.CommentRecord] {
	actorID, err := f.requireActor(ctx, "comment")
	if err != nil {
		return engagement.Fail(models.CommentRecord{}, err)
	}
	res := f.deps.Coordinator.AddComment(ctx, engagement.CommentDraft{
		ItemID:   f.itemID,
		ActorID:  actorID,
		Content:  content,
		ParentID: parentID,
	})
	f.clearError(res.Err)
	return res
}

// Share presents the share sheet. Anonymous shares are allowed.
func (f *Facade) Share(ctx context.Context, caption, platform string) engagement.Result[string] {
	res := f.deps.Coordinator.SharePost(ctx, engagement.ShareTarget{ItemID: f.itemID, Caption: caption}, f.optionalActor(ctx), platform)
	return engagement.Result[string]{Value: res.Value.WebLink, Err: res.Err, Kind: res.Kind}
}

// CopyLink copies the post's web link. Anonymous copies are allowed.
func (f *Facade) CopyLink(ctx context.Context) engagement.Result[string] {
	return f.deps.Coordinator.CopyLink(ctx, engagement.ShareTarget{ItemID: f.itemID}, f.optionalActor(ctx))
}

// requireActor возвращает ErrAuthRequired и показывает приглашение войти,
// если пользователь не вошел
func (f *Facade) requireActor(ctx context.Context, action string) (string, error) {
	actorID, err := f.deps.Actors.ActorID(ctx)
	if err != nil || actorID == "" {
		if f.deps.Prompter != nil {
			f.deps.Prompter.PromptSignIn(ctx, action)
		}
		if err == nil {
			return "", engagement.ErrAuthRequired
		}
		return "", fmt.Errorf("%w: %w", engagement.ErrAuthRequired, err)
	}

	f.mu.Lock()
	changed := f.actorID != actorID
	f.actorID = actorID
	f.mu.Unlock()
	if changed {
		f.emit()
	}
	return actorID, nil
}

func (f *Facade) optionalActor(ctx context.Context) string {
	actorID, err := f.deps.Actors.ActorID(ctx)
	if err != nil {
		return ""
	}
	return actorID
}

// failed получает откаты мутаций поста
func (f *Facade) failed(failure engagement.Failure) {
	f.mu.Lock()
	f.lastErr = failure.Err
	f.mu.Unlock()
	f.emit()
}

func (f *Facade) clearError(err error) {
	if err != nil {
		return
	}
	f.mu.Lock()
	cleared := f.lastErr != nil
	f.lastErr = nil
	f.mu.Unlock()
	if cleared {
		f.emit()
	}
}

func (f *Facade) emit() {
	f.mu.Lock()
	if !f.visible {
		f.mu.Unlock()
		return
	}
	fns := make([]func(State), 0, len(f.observers))
	for _, fn := range f.observers {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	if len(fns) == 0 {
		return
	}
	st := f.State()
	for _, fn := range fns {
		fn(st)
	}
}
