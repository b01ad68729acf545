// Package cache implements the process-wide engagement cache shared by every
// screen of a session. It stores actor flags, aggregate counters and comment
// lists under compound keys and notifies per-item watchers after each write.
package cache

import (
	"strings"
	"sync"

	"github.com/iudanet/forkful/internal/models"
)

// Kind разделяет пространства ключей кэша
type Kind string

const (
	KindStats    Kind = "stats"
	KindFlag     Kind = "flag"
	KindComments Kind = "comments"
)

// Key is a compound cache key. Stats and comment lists are keyed by item only,
// actor flags by (item, actor, action[, collection]).
type Key struct {
	Kind         Kind
	ItemID       string
	ActorID      string
	Action       models.Action
	CollectionID string
}

// StatsKey returns the key of the aggregate counters of an item.
func StatsKey(itemID string) Key {
	return Key{Kind: KindStats, ItemID: itemID}
}

// CommentsKey returns the key of the cached comment list of an item.
func CommentsKey(itemID string) Key {
	return Key{Kind: KindComments, ItemID: itemID}
}

// LikeKey returns the key of the like flag of an actor.
func LikeKey(itemID, actorID string) Key {
	return Key{Kind: KindFlag, ItemID: itemID, ActorID: actorID, Action: models.ActionLike}
}

// SaveKey returns the key of the save flag of an actor, optionally scoped to a collection.
func SaveKey(itemID, actorID, collectionID string) Key {
	return Key{Kind: KindFlag, ItemID: itemID, ActorID: actorID, Action: models.ActionSave, CollectionID: collectionID}
}

// FlagKey returns the key for an arbitrary actor flag.
func FlagKey(f models.ActorFlag) Key {
	return Key{Kind: KindFlag, ItemID: f.ItemID, ActorID: f.ActorID, Action: f.Action, CollectionID: f.CollectionID}
}

func (k Key) String() string {
	parts := []string{string(k.Kind), k.ItemID}
	if k.Kind == KindFlag {
		parts = append(parts, k.ActorID, string(k.Action))
		if k.CollectionID != "" {
			parts = append(parts, k.CollectionID)
		}
	}
	return strings.Join(parts, ":")
}

// WatchFunc вызывается после каждой записи, затрагивающей пост
type WatchFunc func(itemID string)

// Cache is safe for concurrent use. Watchers run synchronously on the writing
// goroutine after the lock is released.
type Cache struct {
	values    map[Key]any
	snapshots map[string]uint64 // itemID -> количество примененных realtime snapshot'ов
	restored  map[string]bool   // счетчики пришли из сохраненного snapshot'а и еще не перезаписаны
	watchers  map[string]map[uint64]WatchFunc
	nextWatch uint64
	mu        sync.RWMutex
}

// New создает пустой кэш
func New() *Cache {
	return &Cache{
		values:    make(map[Key]any),
		snapshots: make(map[string]uint64),
		restored:  make(map[string]bool),
		watchers:  make(map[string]map[uint64]WatchFunc),
	}
}

// Get returns the raw value stored under key.
func (c *Cache) Get(key Key) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.values[key]
	return v, ok
}

// Set stores value under key. No validation is performed: callers must never
// write negative counts.
func (c *Cache) Set(key Key, value any) {
	c.mu.Lock()
	c.values[key] = value
	if key.Kind == KindStats {
		delete(c.restored, key.ItemID)
	}
	c.mu.Unlock()

	c.notify(key.ItemID)
}

// Clear удаляет все значения. Подписки watchers сохраняются.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.values = make(map[Key]any)
	c.snapshots = make(map[string]uint64)
	c.restored = make(map[string]bool)
	c.mu.Unlock()
}

// Stats returns the cached counters of an item. The second value is false when
// nothing has been cached yet; the zero stats then carry the item id.
func (c *Cache) Stats(itemID string) (models.EngagementStats, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.statsLocked(itemID)
}

// SetStats overwrites the counters of stats.ItemID.
func (c *Cache) SetStats(stats models.EngagementStats) {
	c.Set(StatsKey(stats.ItemID), stats)
}

// SeedStats writes fresh counters handed over by the caller (e.g. a feed
// response) unless the item already has counters from this session. Counters
// restored by Import are stale and get overwritten. Returns true if written.
func (c *Cache) SeedStats(stats models.EngagementStats) bool {
	c.mu.Lock()
	key := StatsKey(stats.ItemID)
	if _, ok := c.values[key]; ok && !c.restored[stats.ItemID] {
		c.mu.Unlock()
		return false
	}
	c.values[key] = stats
	delete(c.restored, stats.ItemID)
	c.mu.Unlock()

	c.notify(stats.ItemID)
	return true
}

// ApplySnapshot writes an authoritative realtime snapshot, overwriting any
// optimistic value. A snapshot older than the one already applied is ignored.
// Returns true if the snapshot was written.
func (c *Cache) ApplySnapshot(stats models.EngagementStats) bool {
	c.mu.Lock()
	current, ok := c.statsLocked(stats.ItemID)
	if ok && c.snapshots[stats.ItemID] > 0 && !stats.IsNewerThan(current) {
		c.mu.Unlock()
		return false
	}
	c.values[StatsKey(stats.ItemID)] = stats
	c.snapshots[stats.ItemID]++
	delete(c.restored, stats.ItemID)
	c.mu.Unlock()

	c.notify(stats.ItemID)
	return true
}

// SnapshotSeq returns how many realtime snapshots have been applied to the item.
// Callers compare two readings to detect a snapshot landing in between.
func (c *Cache) SnapshotSeq(itemID string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.snapshots[itemID]
}

// Flag returns the actor flag stored under key, false if absent.
func (c *Cache) Flag(key Key) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.flagLocked(key)
}

// SetFlag stores an actor flag.
func (c *Cache) SetFlag(key Key, value bool) {
	c.Set(key, value)
}

// Comments returns a copy of the cached comment list of an item.
func (c *Cache) Comments(itemID string) []models.CommentRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return models.CloneComments(c.commentsLocked(itemID))
}

// SetComments replaces the cached comment list of an item.
func (c *Cache) SetComments(itemID string, list []models.CommentRecord) {
	c.Set(CommentsKey(itemID), models.CloneComments(list))
}

// Update runs fn with exclusive access to the entries of one item, so that a
// flag and its counter change together. Watchers are notified once afterwards.
func (c *Cache) Update(itemID string, fn func(tx *Tx)) {
	c.mu.Lock()
	tx := &Tx{c: c, itemID: itemID}
	fn(tx)
	c.mu.Unlock()

	if tx.dirty {
		c.notify(itemID)
	}
}

// Watch registers fn for writes touching itemID. The returned cancel function
// is idempotent.
func (c *Cache) Watch(itemID string, fn WatchFunc) (cancel func()) {
	c.mu.Lock()
	c.nextWatch++
	id := c.nextWatch
	if c.watchers[itemID] == nil {
		c.watchers[itemID] = make(map[uint64]WatchFunc)
	}
	c.watchers[itemID][id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()

			delete(c.watchers[itemID], id)
			if len(c.watchers[itemID]) == 0 {
				delete(c.watchers, itemID)
			}
		})
	}
}

func (c *Cache) notify(itemID string) {
	c.mu.RLock()
	fns := make([]WatchFunc, 0, len(c.watchers[itemID]))
	for _, fn := range c.watchers[itemID] {
		fns = append(fns, fn)
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		fn(itemID)
	}
}

func (c *Cache) statsLocked(itemID string) (models.EngagementStats, bool) {
	v, ok := c.values[StatsKey(itemID)]
	if !ok {
		return models.EngagementStats{ItemID: itemID}, false
	}
	stats, ok := v.(models.EngagementStats)
	if !ok {
		return models.EngagementStats{ItemID: itemID}, false
	}
	return stats, true
}

func (c *Cache) flagLocked(key Key) bool {
	v, ok := c.values[key].(bool)
	return ok && v
}

func (c *Cache) commentsLocked(itemID string) []models.CommentRecord {
	list, _ := c.values[CommentsKey(itemID)].([]models.CommentRecord)
	return list
}

// Tx gives Update callbacks lock-free access to the entries of one item.
type Tx struct {
	c      *Cache
	itemID string
	dirty  bool
}

// Stats returns the counters of the item.
func (tx *Tx) Stats() (models.EngagementStats, bool) {
	return tx.c.statsLocked(tx.itemID)
}

// SetStats overwrites the counters of the item.
func (tx *Tx) SetStats(stats models.EngagementStats) {
	stats.ItemID = tx.itemID
	tx.c.values[StatsKey(tx.itemID)] = stats
	delete(tx.c.restored, tx.itemID)
	tx.dirty = true
}

// Flag returns an actor flag of the item.
func (tx *Tx) Flag(key Key) bool {
	return tx.c.flagLocked(key)
}

// SetFlag stores an actor flag of the item.
func (tx *Tx) SetFlag(key Key, value bool) {
	tx.c.values[key] = value
	tx.dirty = true
}

// Comments returns the comment list of the item. The slice must not be modified.
func (tx *Tx) Comments() []models.CommentRecord {
	return tx.c.commentsLocked(tx.itemID)
}

// SetComments replaces the comment list of the item.
func (tx *Tx) SetComments(list []models.CommentRecord) {
	tx.c.values[CommentsKey(tx.itemID)] = list
	tx.dirty = true
}

// SnapshotSeq returns the realtime snapshot counter of the item.
func (tx *Tx) SnapshotSeq() uint64 {
	return tx.c.snapshots[tx.itemID]
}
