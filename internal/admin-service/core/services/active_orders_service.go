package services

import (
	"context"

	"food-dash/internal/admin-service/core/domain/dto"
	"food-dash/internal/admin-service/core/ports"
	"food-dash/internal/mylogger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ActiveOrdersService struct {
	ctx        context.Context
	mylog      mylogger.Logger
	ordersRepo ports.IActiveOrdersRepo
}

func NewActiveOrdersService(ctx context.Context, mylog mylogger.Logger, ordersRepo ports.IActiveOrdersRepo) *ActiveOrdersService {
	return &ActiveOrdersService{
		ctx:        ctx,
		mylog:      mylog,
		ordersRepo: ordersRepo,
	}
}

func (as *ActiveOrdersService) GetActiveOrders(ctx context.Context, page, pageSize int) (dto.ActiveOrdersPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	total, orders, err := as.ordersRepo.GetActiveOrders(ctx, page, pageSize)
	if err != nil {
		return dto.ActiveOrdersPage{}, err
	}

	return dto.ActiveOrdersPage{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Orders:   orders,
	}, nil
}
