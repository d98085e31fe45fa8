package ports

import (
	"context"

	"food-dash/internal/admin-service/core/domain/dto"

	"github.com/jackc/pgx/v5/pgxpool"
)

type IDB interface {
	GetConn() *pgxpool.Pool
	IsAlive() error
	Close() error
}

type IOverviewRepo interface {
	GetMetrics(ctx context.Context) (dto.MetricsParams, error)
	GetDriverPool(ctx context.Context) (dto.DriverPool, error)
	GetTopCafes(ctx context.Context, limit int) ([]dto.CafeActivity, error)
}

type IActiveOrdersRepo interface {
	GetActiveOrders(ctx context.Context, page, pageSize int) (int, []dto.ActiveOrder, error)
}
