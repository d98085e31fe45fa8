package model

import "time"

// Payout settlement states. A payout moves pending -> paid|failed exactly
// once and is immutable once paid.
const (
	PayoutPending = "pending"
	PayoutPaid    = "paid"
	PayoutFailed  = "failed"
)

type Payout struct {
	ID            string // uuid
	UserId        string // uuid references users(user_id)
	AmountETB     float64
	Status        string
	PaymentMethod string
	TransactionId string // unique
	CreatedAt     time.Time
	PaidAt        *time.Time
}
