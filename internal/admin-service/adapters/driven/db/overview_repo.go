package db

import (
	"context"
	"fmt"

	"food-dash/internal/admin-service/core/domain/dto"
	"food-dash/internal/admin-service/core/ports"
)

type OverviewRepo struct {
	db ports.IDB
}

func NewOverviewRepo(db ports.IDB) ports.IOverviewRepo {
	return &OverviewRepo{db: db}
}

func (or *OverviewRepo) GetMetrics(ctx context.Context) (dto.MetricsParams, error) {
	var metrics dto.MetricsParams

	q1 := `
	SELECT
		COUNT(*) FILTER (WHERE status IN ('pending', 'accepted', 'assigned', 'in_transit')) as active_orders,
		COUNT(*) FILTER (WHERE created_at::date = current_date) as orders_today,
		COALESCE(SUM(total_etb) FILTER (WHERE status IN ('delivered', 'completed') AND created_at::date = current_date), 0)::float as revenue_today,
		COALESCE(AVG(EXTRACT(EPOCH FROM (delivered_at - placed_at)) / 60)
				FILTER (WHERE delivered_at IS NOT NULL), 0)::float as avg_delivery_minutes,
		CASE
			WHEN COUNT(*) FILTER (WHERE created_at::date = current_date) > 0 THEN
				COUNT(*) FILTER (WHERE status = 'cancelled' AND created_at::date = current_date)::float /
				COUNT(*) FILTER (WHERE created_at::date = current_date)::float
			ELSE 0
		END::float as cancellation_rate
	FROM orders;
	`

	q2 := `SELECT COALESCE(SUM(amount_etb), 0)::float FROM payouts WHERE status = 'pending';`

	err := or.db.GetConn().QueryRow(ctx, q1).Scan(
		&metrics.ActiveOrders,
		&metrics.OrdersToday,
		&metrics.RevenueTodayETB,
		&metrics.AvgDeliveryMinutes,
		&metrics.CancellationRate,
	)
	if err != nil {
		return dto.MetricsParams{}, fmt.Errorf("failed to get order metrics: %v", err)
	}

	err = or.db.GetConn().QueryRow(ctx, q2).Scan(&metrics.PendingPayoutsETB)
	if err != nil {
		return dto.MetricsParams{}, fmt.Errorf("failed to get payout metrics: %v", err)
	}

	return metrics, nil
}

func (or *OverviewRepo) GetDriverPool(ctx context.Context) (dto.DriverPool, error) {
	pool := dto.DriverPool{}
	q := `
	SELECT
		COUNT(*) FILTER (WHERE status = 'online') as online_drivers,
		COUNT(*) FILTER (WHERE status = 'on_delivery') as on_delivery_drivers,
		COUNT(*) FILTER (WHERE status = 'offline') as offline_drivers
	FROM drivers;
	`

	err := or.db.GetConn().QueryRow(ctx, q).Scan(
		&pool.Online,
		&pool.OnDelivery,
		&pool.Offline,
	)
	if err != nil {
		return dto.DriverPool{}, fmt.Errorf("failed to get driver pool: %v", err)
	}

	return pool, nil
}

func (or *OverviewRepo) GetTopCafes(ctx context.Context, limit int) ([]dto.CafeActivity, error) {
	q := `
	SELECT
		c.cafe_id,
		c.name,
		COUNT(o.order_id) as orders_today,
		COALESCE(SUM(o.total_etb) FILTER (WHERE o.status IN ('delivered', 'completed')), 0)::float as revenue_etb
	FROM cafes c
	JOIN orders o ON o.cafe_id = c.cafe_id
	WHERE o.created_at::date = current_date
	GROUP BY c.cafe_id, c.name
	ORDER BY COUNT(o.order_id) DESC
	LIMIT $1;
	`

	rows, err := or.db.GetConn().Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top cafes: %w", err)
	}
	defer rows.Close()

	var cafes []dto.CafeActivity
	for rows.Next() {
		var cafe dto.CafeActivity
		err := rows.Scan(
			&cafe.CafeId,
			&cafe.Name,
			&cafe.OrdersToday,
			&cafe.RevenueETB,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cafe activity: %w", err)
		}
		cafes = append(cafes, cafe)
	}

	return cafes, rows.Err()
}
