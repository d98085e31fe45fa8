package ports

import (
	"context"

	"food-dash/internal/order-service/core/domain/model"
)

type IGatewayService interface {
	// UpdateLocation records the driver's latest position. Last write
	// wins; there is no ordering guarantee between pings.
	UpdateLocation(ctx context.Context, driverId string, lat, lng float64) error

	// SetAvailability flips the driver online/offline by the owning
	// user id. Going offline mid-delivery is a conflict.
	SetAvailability(ctx context.Context, userId, status string) (model.Driver, error)

	// DriverByUserId resolves the driver profile behind a token subject.
	DriverByUserId(ctx context.Context, userId string) (model.Driver, error)
}
