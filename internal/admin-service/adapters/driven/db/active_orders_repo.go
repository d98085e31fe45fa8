package db

import (
	"context"
	"fmt"

	"food-dash/internal/admin-service/core/domain/dto"
	"food-dash/internal/admin-service/core/ports"
)

type ActiveOrdersRepo struct {
	db ports.IDB
}

func NewActiveOrdersRepo(db ports.IDB) ports.IActiveOrdersRepo {
	return &ActiveOrdersRepo{db: db}
}

func (ar *ActiveOrdersRepo) GetActiveOrders(ctx context.Context, page, pageSize int) (int, []dto.ActiveOrder, error) {
	q1 := `
	SELECT COUNT(*)
	FROM orders
	WHERE status IN ('pending', 'accepted', 'assigned', 'in_transit');
	`

	totalCount := 0
	if err := ar.db.GetConn().QueryRow(ctx, q1).Scan(&totalCount); err != nil {
		return 0, nil, fmt.Errorf("failed to get total count: %v", err)
	}

	q2 := `
	SELECT
		order_id,
		code,
		status,
		cafe_id,
		driver_id,
		total_etb,
		to_char(placed_at, 'YYYY-MM-DD"T"HH24:MI:SSOF')
	FROM orders
	WHERE status IN ('pending', 'accepted', 'assigned', 'in_transit')
	ORDER BY placed_at DESC
	LIMIT $1 OFFSET $2;
	`

	offset := (page - 1) * pageSize
	rows, err := ar.db.GetConn().Query(ctx, q2, pageSize, offset)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to query active orders: %v", err)
	}
	defer rows.Close()

	var orders []dto.ActiveOrder
	for rows.Next() {
		var o dto.ActiveOrder
		err := rows.Scan(
			&o.OrderId,
			&o.Code,
			&o.Status,
			&o.CafeId,
			&o.DriverId,
			&o.TotalETB,
			&o.PlacedAt,
		)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to scan active order: %v", err)
		}
		orders = append(orders, o)
	}

	return totalCount, orders, rows.Err()
}
