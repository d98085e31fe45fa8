package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-dash/internal/mylogger"
	"food-dash/internal/order-service/core/domain/model"
	"food-dash/internal/order-service/core/myerrors"
)

type fakeDrivers struct {
	mu      sync.Mutex
	drivers map[string]model.Driver
}

func (r *fakeDrivers) GetById(ctx context.Context, driverId string) (model.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drivers[driverId]
	if !ok {
		return model.Driver{}, myerrors.ErrDriverNotFound
	}
	return d, nil
}

func (r *fakeDrivers) GetByUserId(ctx context.Context, userId string) (model.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.drivers {
		if d.UserId == userId {
			return d, nil
		}
	}
	return model.Driver{}, myerrors.ErrDriverNotFound
}

func (r *fakeDrivers) UpdateLocation(ctx context.Context, driverId string, lat, lng float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drivers[driverId]
	if !ok {
		return myerrors.ErrDriverNotFound
	}
	d.Latitude, d.Longitude = lat, lng
	r.drivers[driverId] = d
	return nil
}

func (r *fakeDrivers) SetStatus(ctx context.Context, driverId, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drivers[driverId]
	if !ok {
		return myerrors.ErrDriverNotFound
	}
	if d.ActiveOrderId != nil {
		return myerrors.ErrDriverBusy
	}
	d.Status = status
	r.drivers[driverId] = d
	return nil
}

func newGateway(t *testing.T, drivers map[string]model.Driver) (*GatewayService, *fakeDrivers) {
	t.Helper()
	log, err := mylogger.New("driver-gateway-test", mylogger.LevelError)
	require.NoError(t, err)
	repo := &fakeDrivers{drivers: drivers}
	svc := NewGatewayService(context.Background(), log, repo)
	return svc.(*GatewayService), repo
}

func TestUpdateLocation(t *testing.T) {
	gw, repo := newGateway(t, map[string]model.Driver{
		"driver-1": {ID: "driver-1", UserId: "user-1", Status: model.DriverOnline},
	})

	require.NoError(t, gw.UpdateLocation(context.Background(), "driver-1", 9.03, 38.74))
	d := repo.drivers["driver-1"]
	assert.Equal(t, 9.03, d.Latitude)
	assert.Equal(t, 38.74, d.Longitude)

	t.Run("coordinates out of range", func(t *testing.T) {
		assert.ErrorIs(t, gw.UpdateLocation(context.Background(), "driver-1", 91, 0), myerrors.ErrValidation)
		assert.ErrorIs(t, gw.UpdateLocation(context.Background(), "driver-1", 0, -181), myerrors.ErrValidation)
	})

	t.Run("unknown driver", func(t *testing.T) {
		assert.ErrorIs(t, gw.UpdateLocation(context.Background(), "driver-404", 9, 38), myerrors.ErrDriverNotFound)
	})
}

func TestSetAvailability(t *testing.T) {
	activeOrder := "order-1"

	t.Run("driver goes online and offline", func(t *testing.T) {
		gw, repo := newGateway(t, map[string]model.Driver{
			"driver-1": {ID: "driver-1", UserId: "user-1", Status: model.DriverOffline},
		})

		d, err := gw.SetAvailability(context.Background(), "user-1", model.DriverOnline)
		require.NoError(t, err)
		assert.Equal(t, model.DriverOnline, d.Status)
		assert.Equal(t, model.DriverOnline, repo.drivers["driver-1"].Status)

		_, err = gw.SetAvailability(context.Background(), "user-1", model.DriverOffline)
		assert.NoError(t, err)
	})

	t.Run("on_delivery cannot be set directly", func(t *testing.T) {
		gw, _ := newGateway(t, map[string]model.Driver{
			"driver-1": {ID: "driver-1", UserId: "user-1", Status: model.DriverOnline},
		})

		_, err := gw.SetAvailability(context.Background(), "user-1", model.DriverOnDelivery)
		assert.ErrorIs(t, err, myerrors.ErrValidation)
	})

	t.Run("going offline mid-delivery conflicts", func(t *testing.T) {
		gw, _ := newGateway(t, map[string]model.Driver{
			"driver-1": {ID: "driver-1", UserId: "user-1", Status: model.DriverOnDelivery, ActiveOrderId: &activeOrder},
		})

		_, err := gw.SetAvailability(context.Background(), "user-1", model.DriverOffline)
		assert.ErrorIs(t, err, myerrors.ErrDriverBusy)
	})
}
