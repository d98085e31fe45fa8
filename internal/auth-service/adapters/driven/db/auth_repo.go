package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"food-dash/internal/auth-service/core/domain/model"
	"food-dash/internal/auth-service/core/myerrors"
	"food-dash/internal/auth-service/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type AuthRepo struct {
	db *DB
}

func NewAuthRepo(db *DB) ports.IAuthRepo {
	return &AuthRepo{
		db: db,
	}
}

// Create inserts the user and, for drivers and cafes, the matching
// profile row in one transaction. Unique violations on username or
// email map to the taken errors.
func (ar *AuthRepo) Create(ctx context.Context, user model.User, driver *model.DriverProfile, cafe *model.CafeProfile) (string, error) {
	conn := ar.db.conn
	tx, err := conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx) // Safe rollback if not committed

	q := `INSERT INTO users (username, email, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING user_id`
	id := ""
	row := tx.QueryRow(ctx, q, user.Username, user.Email, user.PasswordHash, user.Role)
	if err := row.Scan(&id); err != nil {
		return "", uniqueViolation(err)
	}

	if driver != nil {
		q = `INSERT INTO drivers (user_id, vehicle_type, vehicle_plate, license_number, status)
			VALUES ($1, $2, $3, $4, 'offline')`
		if _, err := tx.Exec(ctx, q, id, driver.VehicleType, driver.VehiclePlate, driver.LicenseNumber); err != nil {
			return "", fmt.Errorf("failed to insert driver profile: %w", err)
		}
	}

	if cafe != nil {
		q = `INSERT INTO cafes (user_id, name, address, latitude, longitude, status)
			VALUES ($1, $2, $3, $4, $5, 'open')`
		if _, err := tx.Exec(ctx, q, id, cafe.Name, cafe.Address, cafe.Latitude, cafe.Longitude); err != nil {
			return "", fmt.Errorf("failed to insert cafe profile: %w", err)
		}
	}

	return id, tx.Commit(ctx)
}

func (ar *AuthRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	q := `
		SELECT
			user_id,
			username,
			email,
			password_hash,
			role,
			created_at,
			updated_at
		FROM users
		WHERE email = $1`

	conn := ar.db.conn
	var u model.User
	err := conn.QueryRow(ctx, q, email).Scan(
		&u.UserId,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, myerrors.ErrUnknownEmail
		}
		return model.User{}, err
	}

	return u, nil
}

// uniqueViolation translates the 23505 constraint name into the
// user-facing taken error.
func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if strings.Contains(pgErr.ConstraintName, "email") {
			return myerrors.ErrEmailRegistered
		}
		return myerrors.ErrUsernameTaken
	}
	return fmt.Errorf("failed to insert user: %v", err)
}
