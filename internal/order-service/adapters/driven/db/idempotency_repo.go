package db

import (
	"context"
	"errors"
	"time"

	"food-dash/internal/order-service/core/domain/model"
	"food-dash/internal/order-service/core/ports"

	"github.com/jackc/pgx/v5"
)

type IdempotencyRepo struct {
	db *DB
}

func NewIdempotencyRepo(db *DB) ports.IIdempotencyRepo {
	return &IdempotencyRepo{
		db: db,
	}
}

// Acquire takes the lock for the key by inserting the row; ON CONFLICT
// DO NOTHING makes the insert a race with exactly one winner. Losers see
// either the cached response of a completed request or an in-flight
// marker. Expired rows are purged first, so a retry after the TTL starts
// a fresh cycle.
func (ir *IdempotencyRepo) Acquire(ctx context.Context, key string, ttl time.Duration) (*model.CachedResponse, bool, error) {
	conn := ir.db.conn

	q := `DELETE FROM idempotency_keys WHERE key = $1 AND expires_at < NOW()`
	if _, err := conn.Exec(ctx, q, key); err != nil {
		return nil, false, err
	}

	q = `INSERT INTO idempotency_keys(key, expires_at)
		VALUES ($1, NOW() + $2::interval)
		ON CONFLICT (key) DO NOTHING`
	res, err := conn.Exec(ctx, q, key, ttl.String())
	if err != nil {
		return nil, false, err
	}
	if res.RowsAffected() == 1 {
		return nil, true, nil
	}

	q = `SELECT key, status, body, created_at, expires_at FROM idempotency_keys WHERE key = $1`
	var (
		cached model.CachedResponse
		status *int
	)
	err = conn.QueryRow(ctx, q, key).Scan(&cached.Key, &status, &cached.Body, &cached.CreatedAt, &cached.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Row vanished between insert and select; treat as still
			// in flight and let the client retry.
			return nil, false, nil
		}
		return nil, false, err
	}
	if status == nil {
		return nil, false, nil
	}

	cached.Status = *status
	return &cached, false, nil
}

// Complete stores the response so retries within the TTL replay it
// byte for byte.
func (ir *IdempotencyRepo) Complete(ctx context.Context, key string, status int, body []byte) error {
	q := `
		UPDATE idempotency_keys
		SET
			status = $1,
			body = $2
		WHERE key = $3`

	conn := ir.db.conn
	_, err := conn.Exec(ctx, q, status, body, key)
	return err
}

// Release drops the lock after a server-side failure so the client can
// retry with the same key.
func (ir *IdempotencyRepo) Release(ctx context.Context, key string) error {
	q := `DELETE FROM idempotency_keys WHERE key = $1 AND status IS NULL`

	conn := ir.db.conn
	_, err := conn.Exec(ctx, q, key)
	return err
}
