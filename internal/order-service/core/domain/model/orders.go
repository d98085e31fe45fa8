package model

import "time"

// Canonical order lifecycle states.
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusAssigned  = "assigned"
	StatusInTransit = "in_transit"
	StatusDelivered = "delivered"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusDisputed  = "disputed"
)

// Payment gateway states.
const (
	PayPending  = "pending"
	PayPaid     = "paid"
	PayFailed   = "failed"
	PayRefunded = "refunded"
)

type Order struct {
	ID         string // uuid
	Code       string // human-readable short code
	CustomerId string // uuid references users(user_id)
	CafeId     string // uuid references cafes(cafe_id)
	DriverId   *string
	Items      []OrderItem
	Fees       FeeBreakdown
	Pay        Payment
	Status     string
	Addresses  Addresses
	Timestamps Milestones
	Receipt    *Receipt
	Dispute    *Dispute
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OrderItem lines are immutable once the order is created.
type OrderItem struct {
	ItemId      string  `json:"item_id"`
	Name        string  `json:"name"`
	Qty         int     `json:"qty"`
	UnitPrice   float64 `json:"unit_price_etb"`
	SubtotalETB float64 `json:"subtotal_etb"`
}

// FeeBreakdown is computed once at creation and never recomputed.
type FeeBreakdown struct {
	FoodTotalETB   float64 `json:"food_total_etb"`
	DeliveryETB    float64 `json:"delivery_etb"`
	PlatformFeeETB float64 `json:"platform_fee_etb"`
	PaymentFeeETB  float64 `json:"payment_fee_etb"`
	TotalETB       float64 `json:"total_etb"`
}

type Payment struct {
	Gateway    string         `json:"gateway"`
	Status     string         `json:"status"`
	TxRef      string         `json:"tx_ref"`
	WebhookLog []WebhookEntry `json:"webhook_log"`
}

// WebhookEntry is an append-only record of one gateway callback.
type WebhookEntry struct {
	ID         string    `json:"id"`
	ReceivedAt time.Time `json:"received_at"`
	Event      string    `json:"event"`
	Payload    string    `json:"payload"`
}

type Addresses struct {
	Customer Address `json:"customer"`
	Cafe     Address `json:"cafe"`
}

type Address struct {
	Text      string  `json:"text"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Milestones are set exactly once, in lifecycle order.
type Milestones struct {
	PlacedAt    time.Time  `json:"placed_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	AssignedAt  *time.Time `json:"assigned_at,omitempty"`
	PickedUpAt  *time.Time `json:"picked_up_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type Receipt struct {
	URL            string `json:"url"`
	UploadedBy     string `json:"uploaded_by"`
	VerifiedByCafe bool   `json:"verified_by_cafe"`
	Flagged        bool   `json:"flagged"`
}

type Dispute struct {
	Open       bool      `json:"open"`
	Reason     string    `json:"reason"`
	Notes      string    `json:"notes"`
	Resolved   bool      `json:"resolved"`
	Resolution string    `json:"resolution"`
	At         time.Time `json:"at"`
}

// LedgerEntry is an immutable record of money movement tied to an order
// transition. Entries are only ever appended.
type LedgerEntry struct {
	ID        string    `json:"id"`
	OrderId   string    `json:"order_id"`
	At        time.Time `json:"at"`
	Type      string    `json:"type"`
	PartyId   string    `json:"party_id"` // user credited/debited
	AmountETB float64   `json:"amount_etb"`
	Ref       string    `json:"ref"`
}

// Ledger entry types.
const (
	LedgerCafeCredit     = "cafe_credit"
	LedgerDriverCredit   = "driver_credit"
	LedgerPlatformCredit = "platform_credit"
)
