package model

import "time"

// Cafe operating states.
const (
	CafeOpen   = "open"
	CafeClosed = "closed"
	CafeBusy   = "busy"
)

// Cafe is the merchant profile. Exactly one cafe per owning user.
type Cafe struct {
	ID        string // uuid
	UserId    string // uuid references users(user_id), unique
	Name      string
	Address   string
	Latitude  float64
	Longitude float64
	Status    string
	Payout    PayoutDetails
	CreatedAt time.Time
	UpdatedAt time.Time
}

type PayoutDetails struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountHolder string `json:"account_holder"`
}
