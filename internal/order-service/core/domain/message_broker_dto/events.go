package messagebrokerdto

import "food-dash/internal/order-service/core/domain/model"

// OrderOffer is broadcast to online drivers when a new order becomes
// claimable.
type OrderOffer struct {
	OrderId       string        `json:"order_id"`
	Code          string        `json:"code"`
	CafeId        string        `json:"cafe_id"`
	CafeAddress   model.Address `json:"cafe_address"`
	DeliveryETB   float64       `json:"delivery_etb"`
	PlacedAt      string        `json:"placed_at"`
	CorrelationID string        `json:"correlation_id"`
}

// Notify is a fire-and-forget user notification request. Delivery
// failures never roll back the transition that produced the event.
type Notify struct {
	UserId        string         `json:"user_id"`
	Type          string         `json:"type"`
	Payload       map[string]any `json:"payload"`
	Timestamp     string         `json:"timestamp"`
	CorrelationID string         `json:"correlation_id"`
}

// Notification types emitted on key transitions.
const (
	NotifyOrderAssigned   = "order_assigned"
	NotifyOrderDelivered  = "order_delivered"
	NotifyOrderCancelled  = "order_cancelled"
	NotifyPayoutCompleted = "payout_completed"
)
