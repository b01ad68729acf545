package cache

import (
	"sort"
	"time"

	"github.com/iudanet/forkful/internal/models"
)

// Export собирает snapshot счетчиков и флагов actorID.
// Пустой actorID экспортирует только счетчики.
func (c *Cache) Export(actorID string) *models.EngagementSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := &models.EngagementSnapshot{SavedAt: time.Now(), ActorID: actorID}
	for key, v := range c.values {
		switch key.Kind {
		case KindStats:
			if stats, ok := v.(models.EngagementStats); ok {
				snap.Stats = append(snap.Stats, stats)
			}
		case KindFlag:
			if actorID == "" || key.ActorID != actorID {
				continue
			}
			if value, ok := v.(bool); ok {
				snap.Flags = append(snap.Flags, models.ActorFlag{
					ItemID:       key.ItemID,
					ActorID:      key.ActorID,
					Action:       key.Action,
					CollectionID: key.CollectionID,
					Value:        value,
				})
			}
		}
	}

	// Детерминированный порядок упрощает сравнение snapshot'ов
	sort.Slice(snap.Stats, func(i, j int) bool { return snap.Stats[i].ItemID < snap.Stats[j].ItemID })
	sort.Slice(snap.Flags, func(i, j int) bool {
		return FlagKey(snap.Flags[i]).String() < FlagKey(snap.Flags[j]).String()
	})

	return snap
}

// Import seeds the cache from a snapshot. Entries already present are kept:
// anything written during this session is fresher than the stored snapshot.
// Imported counters stay replaceable by SeedStats.
func (c *Cache) Import(snap *models.EngagementSnapshot) int {
	if snap == nil {
		return 0
	}

	imported := 0
	c.mu.Lock()
	for _, stats := range snap.Stats {
		key := StatsKey(stats.ItemID)
		if _, exists := c.values[key]; exists {
			continue
		}
		c.values[key] = stats.Normalize()
		c.restored[stats.ItemID] = true
		imported++
	}
	for _, flag := range snap.Flags {
		key := FlagKey(flag)
		if _, exists := c.values[key]; exists {
			continue
		}
		c.values[key] = flag.Value
		imported++
	}
	c.mu.Unlock()

	return imported
}
