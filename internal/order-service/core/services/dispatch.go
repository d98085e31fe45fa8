package services

import (
	"context"

	"food-dash/internal/mylogger"
	"food-dash/internal/order-service/core/domain/model"
	"food-dash/internal/order-service/core/myerrors"
	"food-dash/internal/order-service/core/ports"
)

// DispatchCoordinator binds exactly one driver to exactly one order.
// Both the pull (driver claims) and push (cafe assigns) protocols run
// the same two conditional updates in one storage transaction: the
// order bind keyed on {unassigned status, driver_id IS NULL} and the
// driver reservation keyed on active_order_id IS NULL. Either update
// matching zero rows aborts the whole bind. The in-service checks here
// are advisory fast-paths; the storage layer is the arbiter.
type DispatchCoordinator struct {
	mylog       mylogger.Logger
	ordersRepo  ports.IOrdersRepo
	driversRepo ports.IDriversRepo
}

func NewDispatchCoordinator(mylog mylogger.Logger, ordersRepo ports.IOrdersRepo, driversRepo ports.IDriversRepo) *DispatchCoordinator {
	return &DispatchCoordinator{
		mylog:       mylog,
		ordersRepo:  ordersRepo,
		driversRepo: driversRepo,
	}
}

// Claim is the pull protocol: the driver proposes itself for an
// unassigned order.
func (dc *DispatchCoordinator) Claim(ctx context.Context, orderId string, driver model.Driver, from []string) (model.Order, error) {
	log := dc.mylog.Action("Claim")

	if driver.ActiveOrderId != nil {
		return model.Order{}, myerrors.ErrDriverBusy
	}

	order, err := dc.ordersRepo.BindDriver(ctx, orderId, driver.ID, from, false)
	if err != nil {
		log.Warn("claim lost", "order_id", orderId, "driver_id", driver.ID, "reason", err.Error())
		return model.Order{}, err
	}

	log.Info("order claimed", "order_id", orderId, "driver_id", driver.ID)
	return order, nil
}

// Assign is the push protocol: the cafe binds a specific driver to an
// accepted order. The target driver must be online at assignment time.
func (dc *DispatchCoordinator) Assign(ctx context.Context, orderId string, driver model.Driver, from []string) (model.Order, error) {
	log := dc.mylog.Action("Assign")

	if driver.ActiveOrderId != nil {
		return model.Order{}, myerrors.ErrDriverBusy
	}
	if driver.Status != model.DriverOnline {
		return model.Order{}, myerrors.ErrDriverOffline
	}

	order, err := dc.ordersRepo.BindDriver(ctx, orderId, driver.ID, from, true)
	if err != nil {
		log.Warn("assignment lost", "order_id", orderId, "driver_id", driver.ID, "reason", err.Error())
		return model.Order{}, err
	}

	log.Info("driver assigned", "order_id", orderId, "driver_id", driver.ID)
	return order, nil
}
