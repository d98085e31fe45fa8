package dto

import "food-dash/internal/auth-service/core/domain/model"

type RegisterRequestDto struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`

	// Required when Role is driver.
	Driver *model.DriverProfile `json:"driver,omitempty"`

	// Required when Role is cafe.
	Cafe *model.CafeProfile `json:"cafe,omitempty"`
}

type LoginRequestDto struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponseDto struct {
	UserId      string `json:"user_id"`
	Role        string `json:"role"`
	AccessToken string `json:"jwt_access"`
}
