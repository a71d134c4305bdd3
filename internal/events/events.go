// Package events publishes order lifecycle notifications.
package events

import (
	"context"
	"time"
)

const (
	TopicOrderPlaced        = "order-placed"
	TopicOrderStatusUpdated = "order-status-updated"
)

// Publisher delivers an event to a topic. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
	Close() error
}

type OrderPlaced struct {
	OrderID       string    `json:"order_id"`
	BuyerID       string    `json:"buyer_id"`
	SellerIDs     []string  `json:"seller_ids"`
	PaymentMethod string    `json:"payment_method"`
	PaymentStatus string    `json:"payment_status"`
	TotalPrice    string    `json:"total_price"`
	PlacedAt      time.Time `json:"placed_at"`
}

type OrderStatusUpdated struct {
	OrderID   string    `json:"order_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ActorID   string    `json:"actor_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoopPublisher drops every event; used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, string, any) error { return nil }
func (NoopPublisher) Close() error                                     { return nil }
