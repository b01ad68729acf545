package models

import "time"

// Channel kinds for realtime subscriptions
const (
	ChannelStats    = "post-stats"
	ChannelComments = "post-comments"
)

// ChannelName returns the deterministic realtime channel name for an item.
func ChannelName(kind, itemID string) string {
	return kind + ":" + itemID
}

// Subscription описывает активную realtime подписку на пост.
// Принадлежит realtime.Manager.
type Subscription struct {
	LastDelivery time.Time `json:"last_delivery"` // LastDelivery время последнего полученного события
	ItemID       string    `json:"item_id"`       // ItemID пост
	Channel      string    `json:"channel"`       // Channel имя канала (post-stats:<id>)
	Deliveries   int64     `json:"deliveries"`    // Deliveries количество доставленных событий
}
