package auth

// Role is a capability string carried in the access token.
type Role string

const (
	// RoleCustomer owns bookings and may only see their own.
	RoleCustomer Role = "customer"
	// RoleOperations runs the booking desk.
	RoleOperations Role = "operations"
	// RoleWarehouse handles receipt, consolidation and loading.
	RoleWarehouse Role = "warehouse"
	// RoleAdmin may do everything, including irreversible deletes.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleOperations, RoleWarehouse, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	// ID is the user identifier recorded in audit fields and timeline entries.
	ID string `json:"id"`
	// Role decides which operations the actor may perform.
	Role Role `json:"role"`
}

// HasRole reports whether the actor's role is in roles.
func (a Actor) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// IsStaff reports whether the actor works for the forwarder rather than being a customer.
func (a Actor) IsStaff() bool {
	return a.HasRole(RoleOperations, RoleWarehouse, RoleAdmin)
}

// IsAdmin reports whether the actor holds elevated privilege.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// System is the actor used for background operations.
var System = Actor{ID: "system", Role: RoleAdmin}
