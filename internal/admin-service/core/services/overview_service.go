package services

import (
	"context"
	"fmt"
	"time"

	"food-dash/internal/admin-service/core/domain/dto"
	"food-dash/internal/admin-service/core/ports"
	"food-dash/internal/mylogger"
)

const topCafesLimit = 10

type OverviewService struct {
	ctx          context.Context
	mylog        mylogger.Logger
	overviewRepo ports.IOverviewRepo
}

func NewOverviewService(ctx context.Context, mylog mylogger.Logger, overviewRepo ports.IOverviewRepo) *OverviewService {
	return &OverviewService{
		ctx:          ctx,
		mylog:        mylog,
		overviewRepo: overviewRepo,
	}
}

func (os *OverviewService) GetSystemOverview(ctx context.Context) (dto.SystemOverview, error) {
	metrics, err := os.overviewRepo.GetMetrics(ctx)
	if err != nil {
		return dto.SystemOverview{}, fmt.Errorf("failed to get metrics: %w", err)
	}
	pool, err := os.overviewRepo.GetDriverPool(ctx)
	if err != nil {
		return dto.SystemOverview{}, fmt.Errorf("failed to get driver pool: %w", err)
	}
	topCafes, err := os.overviewRepo.GetTopCafes(ctx, topCafesLimit)
	if err != nil {
		return dto.SystemOverview{}, fmt.Errorf("failed to get top cafes: %w", err)
	}

	return dto.SystemOverview{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Metrics:    metrics,
		DriverPool: pool,
		TopCafes:   topCafes,
	}, nil
}
