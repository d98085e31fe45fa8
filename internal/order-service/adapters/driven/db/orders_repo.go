package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"food-dash/internal/order-service/core/domain/model"
	"food-dash/internal/order-service/core/myerrors"
	"food-dash/internal/order-service/core/ports"

	"github.com/jackc/pgx/v5"
)

type OrdersRepo struct {
	db *DB
}

func NewOrdersRepo(db *DB) ports.IOrdersRepo {
	return &OrdersRepo{
		db: db,
	}
}

const orderColumns = `
	order_id,
	code,
	customer_id,
	cafe_id,
	driver_id,
	items,
	food_total_etb,
	delivery_etb,
	platform_fee_etb,
	payment_fee_etb,
	total_etb,
	pay_gateway,
	pay_status,
	pay_tx_ref,
	pay_webhook_log,
	status,
	addresses,
	receipt,
	dispute,
	placed_at,
	accepted_at,
	assigned_at,
	picked_up_at,
	delivered_at,
	completed_at,
	created_at,
	updated_at`

// Milestone columns the state machine stamps. Only these names may be
// interpolated into an UPDATE.
var milestoneColumns = map[string]bool{
	"accepted_at":  true,
	"assigned_at":  true,
	"picked_up_at": true,
	"delivered_at": true,
	"completed_at": true,
}

func scanOrder(row pgx.Row) (model.Order, error) {
	var (
		m           model.Order
		itemsRaw    []byte
		webhooksRaw []byte
		addrRaw     []byte
		receiptRaw  []byte
		disputeRaw  []byte
	)

	err := row.Scan(
		&m.ID,
		&m.Code,
		&m.CustomerId,
		&m.CafeId,
		&m.DriverId,
		&itemsRaw,
		&m.Fees.FoodTotalETB,
		&m.Fees.DeliveryETB,
		&m.Fees.PlatformFeeETB,
		&m.Fees.PaymentFeeETB,
		&m.Fees.TotalETB,
		&m.Pay.Gateway,
		&m.Pay.Status,
		&m.Pay.TxRef,
		&webhooksRaw,
		&m.Status,
		&addrRaw,
		&receiptRaw,
		&disputeRaw,
		&m.Timestamps.PlacedAt,
		&m.Timestamps.AcceptedAt,
		&m.Timestamps.AssignedAt,
		&m.Timestamps.PickedUpAt,
		&m.Timestamps.DeliveredAt,
		&m.Timestamps.CompletedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return model.Order{}, err
	}

	if err := json.Unmarshal(itemsRaw, &m.Items); err != nil {
		return model.Order{}, fmt.Errorf("failed to unmarshal order items: %w", err)
	}
	if err := json.Unmarshal(webhooksRaw, &m.Pay.WebhookLog); err != nil {
		return model.Order{}, fmt.Errorf("failed to unmarshal webhook log: %w", err)
	}
	if err := json.Unmarshal(addrRaw, &m.Addresses); err != nil {
		return model.Order{}, fmt.Errorf("failed to unmarshal addresses: %w", err)
	}
	if receiptRaw != nil {
		if err := json.Unmarshal(receiptRaw, &m.Receipt); err != nil {
			return model.Order{}, fmt.Errorf("failed to unmarshal receipt: %w", err)
		}
	}
	if disputeRaw != nil {
		if err := json.Unmarshal(disputeRaw, &m.Dispute); err != nil {
			return model.Order{}, fmt.Errorf("failed to unmarshal dispute: %w", err)
		}
	}

	return m, nil
}

func (or *OrdersRepo) Create(ctx context.Context, m model.Order) (string, error) {
	itemsRaw, err := json.Marshal(m.Items)
	if err != nil {
		return "", fmt.Errorf("failed to marshal order items: %w", err)
	}
	addrRaw, err := json.Marshal(m.Addresses)
	if err != nil {
		return "", fmt.Errorf("failed to marshal addresses: %w", err)
	}

	q := `INSERT INTO orders(
			code,
			customer_id,
			cafe_id,
			items,
			food_total_etb,
			delivery_etb,
			platform_fee_etb,
			payment_fee_etb,
			total_etb,
			pay_gateway,
			pay_status,
			pay_tx_ref,
			pay_webhook_log,
			status,
			addresses,
			placed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, '[]'::jsonb, $13, $14, NOW())
		RETURNING order_id`

	conn := or.db.conn
	row := conn.QueryRow(ctx, q,
		m.Code,
		m.CustomerId,
		m.CafeId,
		itemsRaw,
		m.Fees.FoodTotalETB,
		m.Fees.DeliveryETB,
		m.Fees.PlatformFeeETB,
		m.Fees.PaymentFeeETB,
		m.Fees.TotalETB,
		m.Pay.Gateway,
		m.Pay.Status,
		m.Pay.TxRef,
		m.Status,
		addrRaw,
	)

	orderId := ""
	if err := row.Scan(&orderId); err != nil {
		return "", err
	}

	return orderId, nil
}

func (or *OrdersRepo) FindById(ctx context.Context, orderId string) (model.Order, error) {
	q := fmt.Sprintf(`SELECT %s FROM orders WHERE order_id = $1`, orderColumns)

	conn := or.db.conn
	m, err := scanOrder(conn.QueryRow(ctx, q, orderId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Order{}, myerrors.ErrOrderNotFound
		}
		return model.Order{}, err
	}

	return m, nil
}

func (or *OrdersRepo) ListByCustomer(ctx context.Context, customerId string) ([]model.Order, error) {
	q := fmt.Sprintf(`SELECT %s FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`, orderColumns)
	return or.list(ctx, q, customerId)
}

func (or *OrdersRepo) ListByCafe(ctx context.Context, cafeId string) ([]model.Order, error) {
	q := fmt.Sprintf(`SELECT %s FROM orders WHERE cafe_id = $1 ORDER BY created_at DESC`, orderColumns)
	return or.list(ctx, q, cafeId)
}

func (or *OrdersRepo) ListByDriver(ctx context.Context, driverId string) ([]model.Order, error) {
	q := fmt.Sprintf(`SELECT %s FROM orders WHERE driver_id = $1 ORDER BY created_at DESC`, orderColumns)
	return or.list(ctx, q, driverId)
}

// ListAvailable returns orders a driver may still claim: no driver
// bound yet and the lifecycle has not moved past accepted.
func (or *OrdersRepo) ListAvailable(ctx context.Context) ([]model.Order, error) {
	q := fmt.Sprintf(`
		SELECT %s
		FROM orders
		WHERE driver_id IS NULL AND status IN ('pending', 'accepted')
		ORDER BY placed_at ASC`, orderColumns)
	return or.list(ctx, q)
}

func (or *OrdersRepo) list(ctx context.Context, q string, args ...any) ([]model.Order, error) {
	conn := or.db.conn
	rows, err := conn.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		m, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, m)
	}

	return orders, rows.Err()
}

// ApplyTransition is the single-record compare-and-set: the status moves
// only if the row is still in one of the expected source states, and the
// milestone column (when named) is stamped in the same statement so it
// can never be set twice.
func (or *OrdersRepo) ApplyTransition(ctx context.Context, orderId string, from []string, to string, milestone string) (model.Order, error) {
	stamp := ""
	guard := ""
	if milestone != "" {
		if !milestoneColumns[milestone] {
			return model.Order{}, fmt.Errorf("unknown milestone column %q: %w", milestone, myerrors.ErrInternal)
		}
		stamp = fmt.Sprintf(", %s = NOW()", milestone)
		guard = fmt.Sprintf(" AND %s IS NULL", milestone)
	}

	q := fmt.Sprintf(`
		UPDATE orders
		SET
			status = $1,
			updated_at = NOW()%s
		WHERE order_id = $2 AND status = ANY($3)%s
		RETURNING %s`, stamp, guard, orderColumns)

	conn := or.db.conn
	m, err := scanOrder(conn.QueryRow(ctx, q, to, orderId, from))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Order{}, or.conflictOrMissing(ctx, orderId)
		}
		return model.Order{}, err
	}

	return m, nil
}

// BindDriver claims the order for the driver and reserves the driver for
// the order in one transaction. Both updates are conditional; if either
// matches zero rows the whole bind is rolled back, so a lost race leaves
// no partial state behind.
func (or *OrdersRepo) BindDriver(ctx context.Context, orderId, driverId string, from []string, requireOnline bool) (model.Order, error) {
	conn := or.db.conn
	tx, err := conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.Order{}, err
	}
	defer tx.Rollback(ctx) // Safe rollback if not committed

	q1 := fmt.Sprintf(`
		UPDATE orders
		SET
			driver_id = $1,
			status = 'assigned',
			assigned_at = NOW(),
			updated_at = NOW()
		WHERE order_id = $2 AND driver_id IS NULL AND status = ANY($3)
		RETURNING %s`, orderColumns)

	m, err := scanOrder(tx.QueryRow(ctx, q1, driverId, orderId, from))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Order{}, or.claimFailure(ctx, orderId)
		}
		return model.Order{}, err
	}

	q2 := `
		UPDATE drivers
		SET
			active_order_id = $1,
			status = 'on_delivery',
			updated_at = NOW()
		WHERE driver_id = $2 AND active_order_id IS NULL`
	if requireOnline {
		q2 += ` AND status = 'online'`
	}

	res, err := tx.Exec(ctx, q2, orderId, driverId)
	if err != nil {
		return model.Order{}, err
	}
	if res.RowsAffected() == 0 {
		return model.Order{}, or.reserveFailure(ctx, tx, driverId, requireOnline)
	}

	return m, tx.Commit(ctx)
}

// Deliver moves in_transit -> delivered, appends the ledger entries and
// frees the driver, all or nothing.
func (or *OrdersRepo) Deliver(ctx context.Context, orderId, driverId string, entries []model.LedgerEntry) (model.Order, error) {
	conn := or.db.conn
	tx, err := conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.Order{}, err
	}
	defer tx.Rollback(ctx) // Safe rollback if not committed

	q1 := fmt.Sprintf(`
		UPDATE orders
		SET
			status = 'delivered',
			delivered_at = NOW(),
			updated_at = NOW()
		WHERE order_id = $1 AND driver_id = $2 AND status = 'in_transit' AND delivered_at IS NULL
		RETURNING %s`, orderColumns)

	m, err := scanOrder(tx.QueryRow(ctx, q1, orderId, driverId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Order{}, or.conflictOrMissing(ctx, orderId)
		}
		return model.Order{}, err
	}

	q2 := `INSERT INTO ledger_entries(order_id, entry_type, party_id, amount_etb, ref, at)
		VALUES ($1, $2, $3, $4, $5, NOW())`
	for _, e := range entries {
		if _, err := tx.Exec(ctx, q2, e.OrderId, e.Type, e.PartyId, e.AmountETB, e.Ref); err != nil {
			return model.Order{}, fmt.Errorf("failed to append ledger entry: %w", err)
		}
	}

	q3 := `
		UPDATE drivers
		SET
			active_order_id = NULL,
			status = 'online',
			updated_at = NOW()
		WHERE driver_id = $1 AND active_order_id = $2`
	res, err := tx.Exec(ctx, q3, driverId, orderId)
	if err != nil {
		return model.Order{}, err
	}
	if res.RowsAffected() == 0 {
		return model.Order{}, fmt.Errorf("driver is not bound to this order: %w", myerrors.ErrConflict)
	}

	return m, tx.Commit(ctx)
}

// Cancel applies the cancel transition and, if a driver was already
// bound, releases the reservation in the same transaction.
func (or *OrdersRepo) Cancel(ctx context.Context, orderId string, from []string) (model.Order, error) {
	conn := or.db.conn
	tx, err := conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.Order{}, err
	}
	defer tx.Rollback(ctx) // Safe rollback if not committed

	q1 := fmt.Sprintf(`
		UPDATE orders
		SET
			status = 'cancelled',
			updated_at = NOW()
		WHERE order_id = $1 AND status = ANY($2)
		RETURNING %s`, orderColumns)

	m, err := scanOrder(tx.QueryRow(ctx, q1, orderId, from))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Order{}, or.conflictOrMissing(ctx, orderId)
		}
		return model.Order{}, err
	}

	if m.DriverId != nil {
		q2 := `
			UPDATE drivers
			SET
				active_order_id = NULL,
				status = 'online',
				updated_at = NOW()
			WHERE driver_id = $1 AND active_order_id = $2`
		if _, err := tx.Exec(ctx, q2, *m.DriverId, orderId); err != nil {
			return model.Order{}, err
		}
	}

	return m, tx.Commit(ctx)
}

func (or *OrdersRepo) OpenDispute(ctx context.Context, orderId string, from []string, d model.Dispute) (model.Order, error) {
	disputeRaw, err := json.Marshal(d)
	if err != nil {
		return model.Order{}, fmt.Errorf("failed to marshal dispute: %w", err)
	}

	q := fmt.Sprintf(`
		UPDATE orders
		SET
			status = 'disputed',
			dispute = $1,
			updated_at = NOW()
		WHERE order_id = $2 AND status = ANY($3)
		RETURNING %s`, orderColumns)

	conn := or.db.conn
	m, err := scanOrder(conn.QueryRow(ctx, q, disputeRaw, orderId, from))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Order{}, or.conflictOrMissing(ctx, orderId)
		}
		return model.Order{}, err
	}

	return m, nil
}

// AppendWebhook pushes the callback record onto the append-only log and
// updates the payment status when the event carries one.
func (or *OrdersRepo) AppendWebhook(ctx context.Context, txRef string, entry model.WebhookEntry, newStatus string) (model.Order, error) {
	entryRaw, err := json.Marshal(entry)
	if err != nil {
		return model.Order{}, fmt.Errorf("failed to marshal webhook entry: %w", err)
	}

	q := fmt.Sprintf(`
		UPDATE orders
		SET
			pay_webhook_log = pay_webhook_log || $1::jsonb,
			pay_status = COALESCE(NULLIF($2, ''), pay_status),
			updated_at = NOW()
		WHERE pay_tx_ref = $3
		RETURNING %s`, orderColumns)

	conn := or.db.conn
	m, err := scanOrder(conn.QueryRow(ctx, q, entryRaw, newStatus, txRef))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Order{}, myerrors.ErrOrderNotFound
		}
		return model.Order{}, err
	}

	return m, nil
}

// conflictOrMissing tells a lost race apart from a bad id after a
// conditional update matched nothing.
func (or *OrdersRepo) conflictOrMissing(ctx context.Context, orderId string) error {
	q := `SELECT COUNT(*) FROM orders WHERE order_id = $1`

	conn := or.db.conn
	var count int = 0
	if err := conn.QueryRow(ctx, q, orderId).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return myerrors.ErrOrderNotFound
	}

	return myerrors.ErrStatusChanged
}

// claimFailure explains why the order half of the bind matched nothing.
func (or *OrdersRepo) claimFailure(ctx context.Context, orderId string) error {
	q := `SELECT driver_id FROM orders WHERE order_id = $1`

	conn := or.db.conn
	var driverId *string
	err := conn.QueryRow(ctx, q, orderId).Scan(&driverId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return myerrors.ErrOrderNotFound
		}
		return err
	}
	if driverId != nil {
		return myerrors.ErrOrderTaken
	}

	return myerrors.ErrStatusChanged
}

// reserveFailure explains why the driver half of the bind matched
// nothing. Read inside the transaction so it sees the same snapshot.
func (or *OrdersRepo) reserveFailure(ctx context.Context, tx pgx.Tx, driverId string, requireOnline bool) error {
	q := `SELECT status, active_order_id FROM drivers WHERE driver_id = $1`

	var (
		status        string
		activeOrderId *string
	)
	err := tx.QueryRow(ctx, q, driverId).Scan(&status, &activeOrderId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return myerrors.ErrDriverNotFound
		}
		return err
	}
	if activeOrderId != nil {
		return myerrors.ErrDriverBusy
	}
	if requireOnline && status != model.DriverOnline {
		return myerrors.ErrDriverOffline
	}

	return myerrors.ErrDriverBusy
}
