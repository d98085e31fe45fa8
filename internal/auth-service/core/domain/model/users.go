package model

import "time"

// Roles issued in the token claim. Every user has exactly one.
const (
	RoleCustomer = "customer"
	RoleCafe     = "cafe"
	RoleDriver   = "driver"
	RoleAdmin    = "admin"
)

type User struct {
	UserId       string    `json:"user_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"password_hash"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DriverProfile is created alongside the user row when a driver
// registers. Drivers start offline and must go online before orders
// reach them.
type DriverProfile struct {
	VehicleType   string `json:"vehicle_type"`
	VehiclePlate  string `json:"vehicle_plate"`
	LicenseNumber string `json:"license_number"`
}

// CafeProfile is created alongside the user row when a cafe registers.
type CafeProfile struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
