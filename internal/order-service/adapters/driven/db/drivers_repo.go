package db

import (
	"context"
	"errors"
	"fmt"

	"food-dash/internal/order-service/core/domain/model"
	"food-dash/internal/order-service/core/myerrors"
	"food-dash/internal/order-service/core/ports"

	"github.com/jackc/pgx/v5"
)

type DriversRepo struct {
	db *DB
}

func NewDriversRepo(db *DB) ports.IDriversRepo {
	return &DriversRepo{
		db: db,
	}
}

const driverColumns = `
	driver_id,
	user_id,
	vehicle_type,
	vehicle_plate,
	license_number,
	status,
	latitude,
	longitude,
	active_order_id,
	approved_at,
	created_at,
	updated_at`

func scanDriver(row pgx.Row) (model.Driver, error) {
	var m model.Driver
	err := row.Scan(
		&m.ID,
		&m.UserId,
		&m.VehicleType,
		&m.VehiclePlate,
		&m.LicenseNumber,
		&m.Status,
		&m.Latitude,
		&m.Longitude,
		&m.ActiveOrderId,
		&m.ApprovedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return model.Driver{}, err
	}

	return m, nil
}

func (dr *DriversRepo) GetById(ctx context.Context, driverId string) (model.Driver, error) {
	q := fmt.Sprintf(`SELECT %s FROM drivers WHERE driver_id = $1`, driverColumns)

	conn := dr.db.conn
	m, err := scanDriver(conn.QueryRow(ctx, q, driverId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Driver{}, myerrors.ErrDriverNotFound
		}
		return model.Driver{}, err
	}

	return m, nil
}

func (dr *DriversRepo) GetByUserId(ctx context.Context, userId string) (model.Driver, error) {
	q := fmt.Sprintf(`SELECT %s FROM drivers WHERE user_id = $1`, driverColumns)

	conn := dr.db.conn
	m, err := scanDriver(conn.QueryRow(ctx, q, userId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Driver{}, myerrors.ErrDriverNotFound
		}
		return model.Driver{}, err
	}

	return m, nil
}

// UpdateLocation is last-write-wins; stale pings just overwrite.
func (dr *DriversRepo) UpdateLocation(ctx context.Context, driverId string, lat, lng float64) error {
	q := `
		UPDATE drivers
		SET
			latitude = $1,
			longitude = $2,
			updated_at = NOW()
		WHERE driver_id = $3`

	conn := dr.db.conn
	res, err := conn.Exec(ctx, q, lat, lng, driverId)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return myerrors.ErrDriverNotFound
	}

	return nil
}

// SetStatus flips the availability flag. Going offline is refused while
// an active order is bound, so a delivery in flight is never orphaned.
func (dr *DriversRepo) SetStatus(ctx context.Context, driverId, status string) error {
	q := `
		UPDATE drivers
		SET
			status = $1,
			updated_at = NOW()
		WHERE driver_id = $2 AND active_order_id IS NULL`

	conn := dr.db.conn
	res, err := conn.Exec(ctx, q, status, driverId)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		q = `SELECT COUNT(*) FROM drivers WHERE driver_id = $1`
		var count int = 0
		if err := conn.QueryRow(ctx, q, driverId).Scan(&count); err != nil {
			return err
		}
		if count == 0 {
			return myerrors.ErrDriverNotFound
		}
		return myerrors.ErrDriverBusy
	}

	return nil
}
