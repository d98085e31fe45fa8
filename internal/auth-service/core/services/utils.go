package services

import (
	"fmt"
	"strings"

	"food-dash/internal/auth-service/core/domain/dto"
	"food-dash/internal/auth-service/core/domain/model"
	"food-dash/internal/auth-service/core/myerrors"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinUsernameLen = 1
	MaxUsernameLen = 100

	MinEmailLen = 5
	MaxEmailLen = 100

	MinPasswordLen = 5
	MaxPasswordLen = 50

	HashFactor = 10
)

var allowedRoles = map[string]bool{
	model.RoleCustomer: true,
	model.RoleCafe:     true,
	model.RoleDriver:   true,
	model.RoleAdmin:    true,
}

func validateRegistration(req dto.RegisterRequestDto) error {
	if err := validateName(req.Username); err != nil {
		return fmt.Errorf("invalid name: %v: %w", err, myerrors.ErrValidation)
	}

	if err := validateEmail(req.Email); err != nil {
		return fmt.Errorf("invalid email: %v: %w", err, myerrors.ErrValidation)
	}

	if err := validatePassword(req.Password); err != nil {
		return fmt.Errorf("invalid password: %v: %w", err, myerrors.ErrValidation)
	}

	if !allowedRoles[req.Role] {
		return fmt.Errorf("unknown role %q: %w", req.Role, myerrors.ErrValidation)
	}

	if req.Role == model.RoleDriver {
		if req.Driver == nil || req.Driver.VehicleType == "" || req.Driver.VehiclePlate == "" || req.Driver.LicenseNumber == "" {
			return fmt.Errorf("driver registration requires vehicle_type, vehicle_plate and license_number: %w", myerrors.ErrValidation)
		}
	}

	if req.Role == model.RoleCafe {
		if req.Cafe == nil || req.Cafe.Name == "" || req.Cafe.Address == "" {
			return fmt.Errorf("cafe registration requires name and address: %w", myerrors.ErrValidation)
		}
	}

	return nil
}

func validateLogin(email, password string) error {
	if err := validateEmail(email); err != nil {
		return fmt.Errorf("invalid email: %v: %w", err, myerrors.ErrValidation)
	}

	if err := validatePassword(password); err != nil {
		return fmt.Errorf("invalid password: %v: %w", err, myerrors.ErrValidation)
	}
	return nil
}

func validateName(username string) error {
	if username == "" {
		return fmt.Errorf("field is empty")
	}

	usernameLen := len(username)
	if usernameLen < MinUsernameLen || usernameLen > MaxUsernameLen {
		return fmt.Errorf("must be in range [%d, %d]", MinUsernameLen, MaxUsernameLen)
	}

	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("field is empty")
	}

	emailLen := len(email)
	if emailLen < MinEmailLen || emailLen > MaxEmailLen {
		return fmt.Errorf("must be in range [%d, %d]", MinEmailLen, MaxEmailLen)
	}

	if strings.Count(email, "@") != 1 {
		return fmt.Errorf("must contain only one @: %s", email)
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("field is empty")
	}

	passwordLen := len(password)
	if passwordLen < MinPasswordLen || passwordLen > MaxPasswordLen {
		return fmt.Errorf("must be in range [%d, %d]", MinPasswordLen, MaxPasswordLen)
	}
	return nil
}

func hashPassword(password string) ([]byte, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), HashFactor)
	return bytes, err
}

func checkPassword(hashed []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hashed, []byte(password)) == nil
}
