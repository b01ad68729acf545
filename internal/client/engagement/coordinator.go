// Package engagement implements the mutation coordinator: like, save, comment
// and share operations that update the engagement cache optimistically, issue
// one remote call and then reconcile with the server response or roll back.
package engagement

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	clientapi "github.com/iudanet/forkful/internal/client/api"
	"github.com/iudanet/forkful/internal/client/cache"
	"github.com/iudanet/forkful/internal/client/metrics"
	"github.com/iudanet/forkful/internal/client/retry"
	"github.com/iudanet/forkful/internal/client/share"
	"github.com/iudanet/forkful/internal/models"
	"github.com/iudanet/forkful/internal/validation"
	"github.com/iudanet/forkful/pkg/api"
)

// Ссылки по умолчанию
const (
	DefaultDeepLinkScheme = "forkful"
	DefaultWebBase        = "https://forkful.app"
)

// Sharing поверхности шеринга, используемые SharePost и CopyLink
type Sharing struct {
	Sheet     share.Sheet       // Sheet системный диалог (nil = не показывать)
	Clipboard share.Clipboard   // Clipboard буфер обмена для CopyLink
	Links     share.LinkBuilder // Links построитель ссылок
}

// Coordinator is shared by every screen of a session.
type Coordinator struct {
	remote    clientapi.ClientAPI
	cache     *cache.Cache
	retry     *retry.Scheduler
	logger    *slog.Logger
	sharing   Sharing
	listeners map[string]map[uint64]FailureFunc // itemID ("" = все посты) -> слушатели
	claims    map[cache.Key][]*claim            // флаг -> неподтвержденные мутации по порядку
	wg        sync.WaitGroup                    // фоновые вызовы аналитики
	nextID    uint64
	mu        sync.Mutex
}

// NewCoordinator создает координатор мутаций
func NewCoordinator(remote clientapi.ClientAPI, c *cache.Cache, scheduler *retry.Scheduler, sharing Sharing, logger *slog.Logger) *Coordinator {
	if sharing.Clipboard == nil {
		sharing.Clipboard = share.SystemClipboard{}
	}
	if sharing.Links == (share.LinkBuilder{}) {
		sharing.Links = share.NewLinkBuilder(DefaultDeepLinkScheme, DefaultWebBase)
	}
	return &Coordinator{
		remote:    remote,
		cache:     c,
		retry:     scheduler,
		logger:    logger,
		sharing:   sharing,
		listeners: make(map[string]map[uint64]FailureFunc),
		claims:    make(map[cache.Key][]*claim),
	}
}

// ToggleState is the flag of one actor and the matching aggregate counter.
type ToggleState struct {
	ItemID string
	Count  int64
	Active bool
}

// ToggleLike flips the like flag of actorID on itemID.
func (c *Coordinator) ToggleLike(ctx context.Context, itemID, actorID string) Result[ToggleState] {
	return c.toggle(ctx, models.ActionLike, itemID, actorID, "")
}

// ToggleSave flips the save flag of actorID on itemID, optionally scoped to a
// collection.
func (c *Coordinator) ToggleSave(ctx context.Context, itemID, actorID, collectionID string) Result[ToggleState] {
	return c.toggle(ctx, models.ActionSave, itemID, actorID, collectionID)
}

// OnFailure registers fn for rolled back mutations of itemID; an empty itemID
// receives failures of every item. The returned cancel function is idempotent.
func (c *Coordinator) OnFailure(itemID string, fn FailureFunc) (cancel func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	if c.listeners[itemID] == nil {
		c.listeners[itemID] = make(map[uint64]FailureFunc)
	}
	c.listeners[itemID][id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()

			delete(c.listeners[itemID], id)
			if len(c.listeners[itemID]) == 0 {
				delete(c.listeners, itemID)
			}
		})
	}
}

// Wait blocks until background analytics calls have finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) notifyFailure(f Failure) {
	c.mu.Lock()
	fns := make([]FailureFunc, 0, len(c.listeners[f.Mutation.ItemID])+len(c.listeners[""]))
	for _, fn := range c.listeners[f.Mutation.ItemID] {
		fns = append(fns, fn)
	}
	if f.Mutation.ItemID != "" {
		for _, fn := range c.listeners[""] {
			fns = append(fns, fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(f)
	}
}

// claim is an unconfirmed toggle of one flag together with the values it
// overwrote. Claims of a flag form a stack in the order the toggles were made;
// only the top one may write the flag.
type claim struct {
	mutationID string
	prevFlag   bool
	prevCount  int64
}

func (c *Coordinator) push(key cache.Key, cl *claim) {
	c.mu.Lock()
	c.claims[key] = append(c.claims[key], cl)
	c.mu.Unlock()
}

func (c *Coordinator) indexLocked(key cache.Key, mutationID string) int {
	for i, cl := range c.claims[key] {
		if cl.mutationID == mutationID {
			return i
		}
	}
	return -1
}

// removeLocked удаляет claim i; при inherit следующая мутация получает его
// предыдущие значения, так как намерение i сервер не примет
func (c *Coordinator) removeLocked(key cache.Key, i int, inherit bool) {
	stack := c.claims[key]
	if inherit && i+1 < len(stack) {
		stack[i+1].prevFlag, stack[i+1].prevCount = stack[i].prevFlag, stack[i].prevCount
	}
	stack = append(stack[:i], stack[i+1:]...)
	if len(stack) == 0 {
		delete(c.claims, key)
		return
	}
	c.claims[key] = stack
}

// confirm records that the server accepted mutationID. Earlier claims of the
// flag are dropped with it: their intent is older than what the server holds.
// Reports whether the response may be written to the cache.
func (c *Coordinator) confirm(key cache.Key, mutationID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	stack := c.claims[key]
	i := c.indexLocked(key, mutationID)
	if i < 0 {
		return false
	}
	top := i == len(stack)-1
	if top {
		delete(c.claims, key)
	} else {
		c.claims[key] = append([]*claim(nil), stack[i+1:]...)
	}
	return top
}

// abandon drops a rolled back mutation. The top claim returns its previous
// values for the cache and hands the flag back to the claim below it; a claim
// further down passes its previous values to the next one instead.
func (c *Coordinator) abandon(key cache.Key, mutationID string) (claim, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(key, mutationID)
	if i < 0 {
		return claim{}, false
	}
	top := i == len(c.claims[key])-1
	cl := *c.claims[key][i]
	c.removeLocked(key, i, !top)
	return cl, top
}

// superseded reports whether a later toggle of the same flag carries a newer
// intent, or the mutation was already resolved. Such a mutation is dropped and
// must not reach the server again.
func (c *Coordinator) superseded(key cache.Key, mutationID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(key, mutationID)
	switch {
	case i < 0:
		return true
	case i == len(c.claims[key])-1:
		return false
	}
	c.removeLocked(key, i, true)
	return true
}

type toggleTarget struct {
	key       cache.Key
	counter   models.Counter
	apiAction string
}

func targetFor(action models.Action, itemID, actorID, collectionID string) toggleTarget {
	if action == models.ActionSave {
		return toggleTarget{
			key:       cache.SaveKey(itemID, actorID, collectionID),
			counter:   models.CounterSaves,
			apiAction: api.ActionToggleSave,
		}
	}
	return toggleTarget{
		key:       cache.LikeKey(itemID, actorID),
		counter:   models.CounterLikes,
		apiAction: api.ActionToggleLike,
	}
}

func (c *Coordinator) toggleState(itemID string, s toggleTarget) ToggleState {
	stats, _ := c.cache.Stats(itemID)
	return ToggleState{
		ItemID: itemID,
		Active: c.cache.Flag(s.key),
		Count:  stats.Get(s.counter),
	}
}

func (c *Coordinator) toggle(ctx context.Context, action models.Action, itemID, actorID, collectionID string) Result[ToggleState] {
	s := targetFor(action, itemID, actorID, collectionID)

	if actorID == "" {
		return Fail(c.toggleState(itemID, s), ErrAuthRequired)
	}
	if err := validation.ValidateToggle(validation.ToggleInput{ItemID: itemID, CollectionID: collectionID}); err != nil {
		return Fail(c.toggleState(itemID, s), fmt.Errorf("%w: %w", ErrValidation, err))
	}

	m := models.NewPendingMutation(models.ToggleKind(action, true), itemID, actorID, nil)
	if collectionID != "" {
		m.Payload["collection_id"] = collectionID
	}

	var (
		desired bool
		resp    *api.ToggleResponse
	)

	t := &transaction{
		mutation: m,
		apply: func(tx *cache.Tx) {
			prevFlag := tx.Flag(s.key)
			stats, _ := tx.Stats()

			desired = !prevFlag
			m.Kind = models.ToggleKind(action, desired)
			m.Payload["desired"] = strconv.FormatBool(desired)

			delta := int64(1)
			if !desired {
				delta = -1
			}
			tx.SetFlag(s.key, desired)
			tx.SetStats(stats.Add(s.counter, delta))
			c.push(s.key, &claim{mutationID: m.ID, prevFlag: prevFlag, prevCount: stats.Get(s.counter)})
		},
		superseded: func() bool {
			return c.superseded(s.key, m.ID)
		},
		call: func(ctx context.Context) error {
			defer metrics.ObserveRemoteCall("toggle_engagement", time.Now())

			r, err := c.remote.ToggleEngagement(ctx, api.ToggleRequest{
				Action:       s.apiAction,
				ItemID:       itemID,
				ActorID:      actorID,
				CollectionID: collectionID,
				RequestID:    m.ID,
				Desired:      desired,
			})
			if err != nil {
				return err
			}
			resp = r
			return nil
		},
		commit: func(tx *cache.Tx, snapshot bool) {
			// Более поздняя мутация того же флага сверится с сервером сама
			if !c.confirm(s.key, m.ID) {
				return
			}

			flag, count := fromToggleResponse(action, resp, desired)
			if tx.Flag(s.key) != flag {
				tx.SetFlag(s.key, flag)
			}
			if snapshot || count == nil {
				return
			}
			stats, _ := tx.Stats()
			if stats.Get(s.counter) != models.ClampCount(*count) {
				tx.SetStats(stats.With(s.counter, *count))
			}
		},
		revert: func(tx *cache.Tx, snapshot bool) {
			prev, top := c.abandon(s.key, m.ID)
			if !top {
				return
			}

			tx.SetFlag(s.key, prev.prevFlag)
			if snapshot {
				return
			}
			stats, _ := tx.Stats()
			tx.SetStats(stats.With(s.counter, prev.prevCount))
		},
	}

	pending, err := c.run(ctx, t)
	state := c.toggleState(itemID, s)
	switch {
	case err != nil:
		return Fail(state, err)
	case pending:
		return Queued(state)
	}
	return Ok(state)
}

// fromToggleResponse извлекает флаг и счетчик из ответа сервера.
// Отсутствующий флаг означает, что сервер принял желаемое состояние.
func fromToggleResponse(action models.Action, resp *api.ToggleResponse, desired bool) (bool, *int64) {
	if resp == nil {
		return desired, nil
	}

	flag, count := resp.IsLiked, resp.LikesCount
	if action == models.ActionSave {
		flag, count = resp.IsSaved, resp.SavesCount
	}
	if flag == nil {
		return desired, count
	}
	return *flag, count
}
