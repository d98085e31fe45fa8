package services

import (
	"context"

	"food-dash/internal/driver-gateway/core/ports"
	"food-dash/internal/mylogger"
	"food-dash/internal/order-service/core/domain/model"
	"food-dash/internal/order-service/core/myerrors"

	orderports "food-dash/internal/order-service/core/ports"
)

type GatewayService struct {
	ctx         context.Context
	mylog       mylogger.Logger
	driversRepo orderports.IDriversRepo
}

func NewGatewayService(ctx context.Context, mylog mylogger.Logger, driversRepo orderports.IDriversRepo) ports.IGatewayService {
	return &GatewayService{
		ctx:         ctx,
		mylog:       mylog,
		driversRepo: driversRepo,
	}
}

func (gs *GatewayService) UpdateLocation(ctx context.Context, driverId string, lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return myerrors.Validation("coordinates out of range")
	}
	return gs.driversRepo.UpdateLocation(ctx, driverId, lat, lng)
}

func (gs *GatewayService) SetAvailability(ctx context.Context, userId, status string) (model.Driver, error) {
	if status != model.DriverOnline && status != model.DriverOffline {
		return model.Driver{}, myerrors.Validation("status must be online or offline")
	}

	driver, err := gs.driversRepo.GetByUserId(ctx, userId)
	if err != nil {
		return model.Driver{}, err
	}

	if err := gs.driversRepo.SetStatus(ctx, driver.ID, status); err != nil {
		return model.Driver{}, err
	}

	driver.Status = status
	return driver, nil
}

func (gs *GatewayService) DriverByUserId(ctx context.Context, userId string) (model.Driver, error) {
	return gs.driversRepo.GetByUserId(ctx, userId)
}
