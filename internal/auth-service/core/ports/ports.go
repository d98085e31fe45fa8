package ports

import (
	"context"

	"food-dash/internal/auth-service/core/domain/dto"
	"food-dash/internal/auth-service/core/domain/model"
)

type IAuthRepo interface {
	// Create inserts the user and, for drivers and cafes, the profile
	// row in the same transaction. Returns the new user id.
	Create(ctx context.Context, user model.User, driver *model.DriverProfile, cafe *model.CafeProfile) (string, error)

	GetByEmail(ctx context.Context, email string) (model.User, error)
}

type IAuthService interface {
	Register(ctx context.Context, req dto.RegisterRequestDto) (dto.AuthResponseDto, error)
	Login(ctx context.Context, req dto.LoginRequestDto) (dto.AuthResponseDto, error)
}
