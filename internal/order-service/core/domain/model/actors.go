package model

// Roles carried in the identity provider's token claim.
const (
	RoleCustomer = "customer"
	RoleCafe     = "cafe"
	RoleDriver   = "driver"
	RoleAdmin    = "admin"
)

// Actor is the verified principal behind a request: the subject id and
// role claim returned by the identity collaborator.
type Actor struct {
	UserId string
	Role   string
}
