package db

import (
	"context"
	"errors"
	"fmt"

	"food-dash/internal/order-service/core/domain/model"
	"food-dash/internal/order-service/core/myerrors"
	"food-dash/internal/order-service/core/ports"

	"github.com/jackc/pgx/v5"
)

type PayoutsRepo struct {
	db *DB
}

func NewPayoutsRepo(db *DB) ports.IPayoutsRepo {
	return &PayoutsRepo{
		db: db,
	}
}

const payoutColumns = `
	payout_id,
	user_id,
	amount_etb,
	status,
	payment_method,
	transaction_id,
	created_at,
	paid_at`

func scanPayout(row pgx.Row) (model.Payout, error) {
	var m model.Payout
	err := row.Scan(
		&m.ID,
		&m.UserId,
		&m.AmountETB,
		&m.Status,
		&m.PaymentMethod,
		&m.TransactionId,
		&m.CreatedAt,
		&m.PaidAt,
	)
	if err != nil {
		return model.Payout{}, err
	}

	return m, nil
}

// Create inserts a pending payout only if the party's available
// balance covers it. The advisory lock serializes requests for the
// same user, so the balance check and the insert are one atomic step
// and two racing requests cannot both draw on the same funds.
func (pr *PayoutsRepo) Create(ctx context.Context, m model.Payout) (string, error) {
	tx, err := pr.db.conn.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, m.UserId); err != nil {
		return "", err
	}

	q := `
		SELECT
			COALESCE((SELECT SUM(amount_etb) FROM ledger_entries WHERE party_id = $1), 0)
			- COALESCE((SELECT SUM(amount_etb) FROM payouts WHERE user_id = $1 AND status IN ('pending', 'paid')), 0)`

	var available float64
	if err := tx.QueryRow(ctx, q, m.UserId).Scan(&available); err != nil {
		return "", err
	}
	if m.AmountETB > available {
		return "", myerrors.ErrInsufficientBalance
	}

	q = `INSERT INTO payouts(
			user_id,
			amount_etb,
			status,
			payment_method,
			transaction_id
		) VALUES ($1, $2, $3, $4, $5) RETURNING payout_id`

	payoutId := ""
	err = tx.QueryRow(ctx, q,
		m.UserId,
		m.AmountETB,
		m.Status,
		m.PaymentMethod,
		m.TransactionId,
	).Scan(&payoutId)
	if err != nil {
		return "", err
	}

	return payoutId, tx.Commit(ctx)
}

func (pr *PayoutsRepo) FindById(ctx context.Context, payoutId string) (model.Payout, error) {
	q := fmt.Sprintf(`SELECT %s FROM payouts WHERE payout_id = $1`, payoutColumns)

	conn := pr.db.conn
	m, err := scanPayout(conn.QueryRow(ctx, q, payoutId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Payout{}, myerrors.ErrPayoutNotFound
		}
		return model.Payout{}, err
	}

	return m, nil
}

func (pr *PayoutsRepo) ListByUser(ctx context.Context, userId string) ([]model.Payout, error) {
	q := fmt.Sprintf(`SELECT %s FROM payouts WHERE user_id = $1 ORDER BY created_at DESC`, payoutColumns)

	conn := pr.db.conn
	rows, err := conn.Query(ctx, q, userId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payouts := []model.Payout{}
	for rows.Next() {
		m, err := scanPayout(rows)
		if err != nil {
			return nil, err
		}
		payouts = append(payouts, m)
	}

	return payouts, rows.Err()
}

// Complete moves pending -> paid exactly once. A second completion of
// the same payout matches zero rows and comes back as a conflict.
func (pr *PayoutsRepo) Complete(ctx context.Context, payoutId string) (model.Payout, error) {
	q := fmt.Sprintf(`
		UPDATE payouts
		SET
			status = 'paid',
			paid_at = NOW()
		WHERE payout_id = $1 AND status = 'pending'
		RETURNING %s`, payoutColumns)

	conn := pr.db.conn
	m, err := scanPayout(conn.QueryRow(ctx, q, payoutId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			q = `SELECT COUNT(*) FROM payouts WHERE payout_id = $1`
			var count int = 0
			if err := conn.QueryRow(ctx, q, payoutId).Scan(&count); err != nil {
				return model.Payout{}, err
			}
			if count == 0 {
				return model.Payout{}, myerrors.ErrPayoutNotFound
			}
			return model.Payout{}, myerrors.ErrPayoutCompleted
		}
		return model.Payout{}, err
	}

	return m, nil
}

func (pr *PayoutsRepo) Totals(ctx context.Context, userId string) (float64, float64, error) {
	q := `
		SELECT
			COALESCE(SUM(amount_etb) FILTER (WHERE status = 'paid'), 0),
			COALESCE(SUM(amount_etb) FILTER (WHERE status = 'pending'), 0)
		FROM payouts
		WHERE user_id = $1`

	conn := pr.db.conn
	var paid, pending float64
	if err := conn.QueryRow(ctx, q, userId).Scan(&paid, &pending); err != nil {
		return 0.0, 0.0, err
	}

	return paid, pending, nil
}
