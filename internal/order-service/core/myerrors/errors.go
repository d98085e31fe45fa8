package myerrors

import (
	"errors"
	"fmt"
)

// Error kinds. Every error leaving the service layer wraps exactly one
// of these so handlers can map it to an HTTP status and clients can
// decide whether a retry makes sense. Conflict is the only kind expected
// under normal concurrent load.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
	ErrInternal   = errors.New("internal error")
)

// Specific failures, each tied to its kind.
var (
	ErrOrderNotFound   = fmt.Errorf("order %w", ErrNotFound)
	ErrDriverNotFound  = fmt.Errorf("driver %w", ErrNotFound)
	ErrCafeNotFound    = fmt.Errorf("cafe %w", ErrNotFound)
	ErrPayoutNotFound  = fmt.Errorf("payout %w", ErrNotFound)
	ErrOrderTaken      = fmt.Errorf("order already claimed: %w", ErrConflict)
	ErrDriverBusy      = fmt.Errorf("driver already has an active order: %w", ErrConflict)
	ErrDriverOffline   = fmt.Errorf("driver is not online: %w", ErrConflict)
	ErrStatusChanged   = fmt.Errorf("order status changed concurrently: %w", ErrConflict)
	ErrPayoutCompleted = fmt.Errorf("payout already completed: %w", ErrConflict)
	ErrKeyInFlight     = fmt.Errorf("request with this idempotency key is in flight: %w", ErrConflict)

	ErrInsufficientBalance = fmt.Errorf("requested amount exceeds available balance: %w", ErrValidation)
)

// Validation wraps a field-level problem as a validation error.
func Validation(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

// Forbidden wraps an authorization failure.
func Forbidden(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrForbidden)...)
}
