// Package realtime keeps at most one push subscription per item and channel
// and writes pushed server state into the engagement cache. Screens showing
// the same item share the subscription; it is left when the last one goes.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	clientapi "github.com/iudanet/forkful/internal/client/api"
	"github.com/iudanet/forkful/internal/client/cache"
	"github.com/iudanet/forkful/internal/client/metrics"
	"github.com/iudanet/forkful/internal/models"
	"github.com/iudanet/forkful/pkg/api"
)

// ErrManagerClosed возвращается при подписке после Close
var ErrManagerClosed = errors.New("realtime manager closed")

// Результаты обработки события (метка метрики)
const (
	// authorLookupTimeout ограничивает поиск автора на потоке чтения транспорта
	authorLookupTimeout = 2 * time.Second

	eventApplied   = "applied"
	eventStale     = "stale"
	eventDuplicate = "duplicate"
	eventInvalid   = "invalid"
)

// StatsHandler получает примененный snapshot счетчиков
type StatsHandler func(stats models.EngagementStats)

// CommentHandler получает новый комментарий, добавленный в кэш
type CommentHandler func(comment models.CommentRecord)

// holder один подписчик канала (обычно экран)
type holder struct {
	onStats   StatsHandler
	onComment CommentHandler
	id        uint64 // id выданного Handle
}

// registration is one transport join of a channel shared by its holders.
type registration struct {
	holders map[string]*holder // owner -> подписчик
	sub     models.Subscription
	id      uint64 // поколение join'а; события старых поколений отбрасываются
}

func (r *registration) snapshot() []*holder {
	list := make([]*holder, 0, len(r.holders))
	for _, h := range r.holders {
		list = append(list, h)
	}
	return list
}

// Manager owns every realtime subscription of a session.
type Manager struct {
	ctx       context.Context // отменяется в Close: прерывает поиск авторов
	cancel    context.CancelFunc
	transport Transport
	cache     *cache.Cache
	profiles  *ProfileResolver
	logger    *slog.Logger
	regs      map[string]*registration // channel name -> текущая регистрация
	nextID    uint64
	opMu      sync.Mutex // сериализует Join/Leave
	mu        sync.Mutex // защищает regs
	closed    bool
}

// NewManager создает менеджер подписок. profiles может быть nil: тогда автор
// комментария содержит только идентификатор.
func NewManager(transport Transport, c *cache.Cache, profiles *ProfileResolver, logger *slog.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		ctx:       ctx,
		cancel:    cancel,
		transport: transport,
		cache:     c,
		profiles:  profiles,
		logger:    logger,
		regs:      make(map[string]*registration),
	}
}

// Handle is the cancellation handle of one holder of a channel.
type Handle struct {
	m       *Manager
	channel string
	owner   string
	id      uint64
	once    sync.Once
}

// Channel возвращает имя канала подписки
func (h *Handle) Channel() string {
	return h.channel
}

// Unsubscribe removes the holder. The channel is left when no holder remains.
// It is idempotent and does nothing if the holder has already been replaced
// by a newer subscribe of the same owner.
func (h *Handle) Unsubscribe() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		h.m.unsubscribe(h.channel, h.owner, h.id)
	})
}

// SubscribeStats subscribes owner to the full-snapshot stats channel of an
// item. Every accepted snapshot overwrites the cached counters before the fn
// of each holder is called. A second subscribe by the same owner replaces the
// registration; other owners join the existing one.
func (m *Manager) SubscribeStats(ctx context.Context, owner, itemID string, fn StatsHandler) (*Handle, error) {
	channel := models.ChannelName(models.ChannelStats, itemID)
	return m.subscribe(ctx, owner, itemID, channel, &holder{onStats: fn}, func(gen uint64) EventHandler {
		return func(payload json.RawMessage) {
			m.handleStats(channel, gen, itemID, payload)
		}
	})
}

// SubscribeComments subscribes owner to the insert-only comment channel of an
// item. A pushed comment is added to the cached list unless its id is already
// present.
func (m *Manager) SubscribeComments(ctx context.Context, owner, itemID string, fn CommentHandler) (*Handle, error) {
	channel := models.ChannelName(models.ChannelComments, itemID)
	return m.subscribe(ctx, owner, itemID, channel, &holder{onComment: fn}, func(gen uint64) EventHandler {
		return func(payload json.RawMessage) {
			m.handleComment(channel, gen, itemID, payload)
		}
	})
}

// Active reports whether any channel of the item is subscribed.
func (m *Manager) Active(itemID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, reg := range m.regs {
		if reg.sub.ItemID == itemID {
			return true
		}
	}
	return false
}

// Subscriptions возвращает копию активных подписок
func (m *Manager) Subscriptions() []models.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	subs := make([]models.Subscription, 0, len(m.regs))
	for _, reg := range m.regs {
		subs = append(subs, reg.sub)
	}
	return subs
}

// Close leaves every channel and closes the transport.
func (m *Manager) Close() error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	channels := make([]string, 0, len(m.regs))
	for channel := range m.regs {
		channels = append(channels, channel)
	}
	m.regs = make(map[string]*registration)
	m.mu.Unlock()
	m.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	for _, channel := range channels {
		if err := m.transport.Leave(ctx, channel); err != nil {
			errs = append(errs, fmt.Errorf("leave %s: %w", channel, err))
		}
	}
	if err := m.transport.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close transport: %w", err))
	}
	return errors.Join(errs...)
}

func (m *Manager) subscribe(ctx context.Context, owner, itemID, channel string, h *holder, handler func(gen uint64) EventHandler) (*Handle, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	m.nextID++
	h.id = m.nextID
	handle := &Handle{m: m, channel: channel, owner: owner, id: h.id}

	cur, exists := m.regs[channel]
	if exists {
		if _, dup := cur.holders[owner]; !dup {
			// Другой экран того же поста: join транспорта общий
			cur.holders[owner] = h
			holders := len(cur.holders)
			m.mu.Unlock()
			m.logger.Debug("Realtime subscription shared", "channel", channel, "holders", holders)
			return handle, nil
		}
	}

	m.nextID++
	reg := &registration{
		id:      m.nextID,
		sub:     models.Subscription{ItemID: itemID, Channel: channel},
		holders: map[string]*holder{owner: h},
	}
	if exists {
		for o, other := range cur.holders {
			if o != owner {
				reg.holders[o] = other
			}
		}
	}
	// Новая регистрация видна сразу: события старой отбрасываются по поколению
	m.regs[channel] = reg
	m.mu.Unlock()

	if exists {
		if err := m.transport.Leave(ctx, channel); err != nil {
			m.logger.Warn("Failed to leave replaced channel", "channel", channel, "error", err)
		}
		m.logger.Debug("Realtime subscription replaced", "channel", channel)
	}

	if err := m.transport.Join(ctx, channel, handler(reg.id)); err != nil {
		m.mu.Lock()
		if cur, ok := m.regs[channel]; ok && cur.id == reg.id {
			delete(m.regs, channel)
		}
		m.mu.Unlock()
		return nil, fmt.Errorf("failed to join %s: %w", channel, err)
	}

	m.logger.Info("Realtime subscription started", "channel", channel, "item_id", itemID)
	return handle, nil
}

func (m *Manager) unsubscribe(channel, owner string, id uint64) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	cur, ok := m.regs[channel]
	if !ok {
		m.mu.Unlock()
		return
	}
	if h, ok := cur.holders[owner]; !ok || h.id != id {
		m.mu.Unlock()
		return
	}
	delete(cur.holders, owner)
	if len(cur.holders) > 0 {
		holders := len(cur.holders)
		m.mu.Unlock()
		m.logger.Debug("Realtime holder left", "channel", channel, "holders", holders)
		return
	}
	delete(m.regs, channel)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.transport.Leave(ctx, channel); err != nil {
		m.logger.Warn("Failed to leave channel", "channel", channel, "error", err)
		return
	}
	m.logger.Info("Realtime subscription stopped", "channel", channel)
}

// deliver отмечает доставку события и возвращает подписчиков актуального поколения
func (m *Manager) deliver(channel string, gen uint64) ([]*holder, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.regs[channel]
	if !ok || cur.id != gen {
		return nil, false
	}
	cur.sub.Deliveries++
	cur.sub.LastDelivery = time.Now()
	return cur.snapshot(), true
}

func (m *Manager) handleStats(channel string, gen uint64, itemID string, payload json.RawMessage) {
	holders, ok := m.deliver(channel, gen)
	if !ok {
		return
	}

	var ev api.StatsEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		metrics.RealtimeEvents.WithLabelValues(models.ChannelStats, eventInvalid).Inc()
		m.logger.Warn("Invalid stats event", "channel", channel, "error", err)
		return
	}

	stats := clientapi.StatsFromEvent(ev)
	// Канал привязан к посту: item_id события вторичен
	stats.ItemID = itemID

	if !m.cache.ApplySnapshot(stats) {
		metrics.RealtimeEvents.WithLabelValues(models.ChannelStats, eventStale).Inc()
		m.logger.Debug("Stale stats snapshot ignored", "item_id", itemID, "version", stats.Version)
		return
	}
	metrics.RealtimeEvents.WithLabelValues(models.ChannelStats, eventApplied).Inc()

	for _, h := range holders {
		if h.onStats != nil {
			h.onStats(stats)
		}
	}
}

func (m *Manager) handleComment(channel string, gen uint64, itemID string, payload json.RawMessage) {
	holders, ok := m.deliver(channel, gen)
	if !ok {
		return
	}

	var ev api.CommentInsertEvent
	if err := json.Unmarshal(payload, &ev); err != nil || ev.Comment.ID == "" {
		metrics.RealtimeEvents.WithLabelValues(models.ChannelComments, eventInvalid).Inc()
		m.logger.Warn("Invalid comment event", "channel", channel, "error", err)
		return
	}

	rec := clientapi.CommentRecord(ev.Comment)
	rec.ItemID = itemID
	if ev.Comment.Author == nil && m.profiles != nil {
		ctx, cancel := context.WithTimeout(m.ctx, authorLookupTimeout)
		// При ошибке остается автор только с ID
		rec.Author, _ = m.profiles.Resolve(ctx, ev.Comment.AuthorID)
		cancel()
	} else if m.profiles != nil {
		m.profiles.Remember(rec.Author)
	}

	added := false
	m.cache.Update(itemID, func(tx *cache.Tx) {
		list := tx.Comments()
		if models.ContainsComment(list, rec.ID) {
			return
		}
		tx.SetComments(models.InsertComment(list, rec))
		added = true
	})

	if !added {
		metrics.RealtimeEvents.WithLabelValues(models.ChannelComments, eventDuplicate).Inc()
		m.logger.Debug("Duplicate comment event ignored", "item_id", itemID, "comment_id", rec.ID)
		return
	}
	metrics.RealtimeEvents.WithLabelValues(models.ChannelComments, eventApplied).Inc()

	for _, h := range holders {
		if h.onComment != nil {
			h.onComment(rec)
		}
	}
}
