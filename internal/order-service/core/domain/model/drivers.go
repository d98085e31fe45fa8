package model

import "time"

// Driver availability states.
const (
	DriverOffline    = "offline"
	DriverOnline     = "online"
	DriverOnDelivery = "on_delivery"
)

// Driver is the delivery agent profile. ActiveOrderId is non-nil if and
// only if Status is on_delivery; it is mutated only by the dispatch
// coordinator.
type Driver struct {
	ID            string // uuid
	UserId        string // uuid references users(user_id), 1:1
	VehicleType   string
	VehiclePlate  string
	LicenseNumber string
	Status        string
	Latitude      float64
	Longitude     float64
	ActiveOrderId *string
	ApprovedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Earnings balances are derived from ledger entries minus paid payouts,
// never settable directly.
type Earnings struct {
	AvailableETB float64 `json:"available_etb"`
	PendingETB   float64 `json:"pending_etb"`
	LifetimeETB  float64 `json:"lifetime_etb"`
}
