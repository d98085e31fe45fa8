package db

import (
	"context"

	"food-dash/internal/order-service/core/domain/model"
	"food-dash/internal/order-service/core/ports"
)

type LedgerRepo struct {
	db *DB
}

func NewLedgerRepo(db *DB) ports.ILedgerRepo {
	return &LedgerRepo{
		db: db,
	}
}

func (lr *LedgerRepo) ListByOrder(ctx context.Context, orderId string) ([]model.LedgerEntry, error) {
	q := `
		SELECT
			entry_id,
			order_id,
			at,
			entry_type,
			party_id,
			amount_etb,
			ref
		FROM ledger_entries
		WHERE order_id = $1
		ORDER BY at ASC`

	conn := lr.db.conn
	rows, err := conn.Query(ctx, q, orderId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.LedgerEntry{}
	for rows.Next() {
		var e model.LedgerEntry
		if err := rows.Scan(&e.ID, &e.OrderId, &e.At, &e.Type, &e.PartyId, &e.AmountETB, &e.Ref); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// CreditsTotal sums everything ever credited to the party. Entries are
// append-only, so the sum only grows.
func (lr *LedgerRepo) CreditsTotal(ctx context.Context, userId string) (float64, error) {
	q := `SELECT COALESCE(SUM(amount_etb), 0) FROM ledger_entries WHERE party_id = $1`

	conn := lr.db.conn
	total := 0.0
	if err := conn.QueryRow(ctx, q, userId).Scan(&total); err != nil {
		return 0.0, err
	}

	return total, nil
}
