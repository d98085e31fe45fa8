package ports

import (
	"context"
	"time"

	"food-dash/internal/order-service/core/domain/model"
)

type IOrdersRepo interface {
	Create(ctx context.Context, m model.Order) (string, error)
	FindById(ctx context.Context, orderId string) (model.Order, error)
	ListByCustomer(ctx context.Context, customerId string) ([]model.Order, error)
	ListByCafe(ctx context.Context, cafeId string) ([]model.Order, error)
	ListByDriver(ctx context.Context, driverId string) ([]model.Order, error)
	ListAvailable(ctx context.Context) ([]model.Order, error)

	// ApplyTransition conditionally moves the order from one of the
	// given source states to the target state, stamping the milestone
	// column when one is named. Zero matched rows surfaces as a
	// conflict.
	ApplyTransition(ctx context.Context, orderId string, from []string, to string, milestone string) (model.Order, error)

	// BindDriver is the two-record dispatch bind: order claim and
	// driver reservation in a single transaction, both conditional.
	BindDriver(ctx context.Context, orderId, driverId string, from []string, requireOnline bool) (model.Order, error)

	// Deliver applies in_transit -> delivered, appends the ledger
	// entries and releases the driver, all in one transaction.
	Deliver(ctx context.Context, orderId, driverId string, entries []model.LedgerEntry) (model.Order, error)

	// Cancel applies the cancel transition and releases the bound
	// driver if there is one.
	Cancel(ctx context.Context, orderId string, from []string) (model.Order, error)

	OpenDispute(ctx context.Context, orderId string, from []string, d model.Dispute) (model.Order, error)

	AppendWebhook(ctx context.Context, txRef string, entry model.WebhookEntry, newStatus string) (model.Order, error)
}

type IDriversRepo interface {
	GetById(ctx context.Context, driverId string) (model.Driver, error)
	GetByUserId(ctx context.Context, userId string) (model.Driver, error)
	UpdateLocation(ctx context.Context, driverId string, lat, lng float64) error

	// SetStatus flips online/offline. Going offline while holding an
	// active order is rejected as a conflict.
	SetStatus(ctx context.Context, driverId, status string) error
}

type ICafesRepo interface {
	GetById(ctx context.Context, cafeId string) (model.Cafe, error)
	GetByUserId(ctx context.Context, userId string) (model.Cafe, error)
}

type ILedgerRepo interface {
	ListByOrder(ctx context.Context, orderId string) ([]model.LedgerEntry, error)
	CreditsTotal(ctx context.Context, userId string) (float64, error)
}

type IPayoutsRepo interface {
	Create(ctx context.Context, m model.Payout) (string, error)
	FindById(ctx context.Context, payoutId string) (model.Payout, error)
	ListByUser(ctx context.Context, userId string) ([]model.Payout, error)

	// Complete conditionally moves pending -> paid, exactly once.
	Complete(ctx context.Context, payoutId string) (model.Payout, error)

	// Totals returns the already-paid and still-pending payout sums for
	// a beneficiary.
	Totals(ctx context.Context, userId string) (paid, pending float64, err error)
}

type IIdempotencyRepo interface {
	// Acquire atomically creates the lock row for the key. When the row
	// already exists it returns the cached response if the original
	// request completed, or acquired=false with no cache if it is still
	// in flight.
	Acquire(ctx context.Context, key string, ttl time.Duration) (cached *model.CachedResponse, acquired bool, err error)
	Complete(ctx context.Context, key string, status int, body []byte) error
	Release(ctx context.Context, key string) error
}
