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

type CafesRepo struct {
	db *DB
}

func NewCafesRepo(db *DB) ports.ICafesRepo {
	return &CafesRepo{
		db: db,
	}
}

const cafeColumns = `
	cafe_id,
	user_id,
	name,
	address,
	latitude,
	longitude,
	status,
	payout_details,
	created_at,
	updated_at`

func scanCafe(row pgx.Row) (model.Cafe, error) {
	var (
		m         model.Cafe
		payoutRaw []byte
	)

	err := row.Scan(
		&m.ID,
		&m.UserId,
		&m.Name,
		&m.Address,
		&m.Latitude,
		&m.Longitude,
		&m.Status,
		&payoutRaw,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return model.Cafe{}, err
	}

	if payoutRaw != nil {
		if err := json.Unmarshal(payoutRaw, &m.Payout); err != nil {
			return model.Cafe{}, fmt.Errorf("failed to unmarshal payout details: %w", err)
		}
	}

	return m, nil
}

func (cr *CafesRepo) GetById(ctx context.Context, cafeId string) (model.Cafe, error) {
	q := fmt.Sprintf(`SELECT %s FROM cafes WHERE cafe_id = $1`, cafeColumns)

	conn := cr.db.conn
	m, err := scanCafe(conn.QueryRow(ctx, q, cafeId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Cafe{}, myerrors.ErrCafeNotFound
		}
		return model.Cafe{}, err
	}

	return m, nil
}

func (cr *CafesRepo) GetByUserId(ctx context.Context, userId string) (model.Cafe, error) {
	q := fmt.Sprintf(`SELECT %s FROM cafes WHERE user_id = $1`, cafeColumns)

	conn := cr.db.conn
	m, err := scanCafe(conn.QueryRow(ctx, q, userId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Cafe{}, myerrors.ErrCafeNotFound
		}
		return model.Cafe{}, err
	}

	return m, nil
}
