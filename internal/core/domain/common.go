package domain

import "time"

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"` // UserID reference
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"` // UserID reference
}

// Role is the coarse-grained role carried by the authenticated principal.
type Role string

const (
	RoleCollector Role = "COLLECTOR"
	RoleCashier   Role = "CASHIER"
	RoleManager   Role = "MANAGER"
	RoleAdmin     Role = "ADMIN"
)

// Principal is the authenticated actor as seen by the cash core. Login and
// user management live outside this service; the JWT middleware populates
// this from token claims.
type Principal struct {
	TenantID string
	UserID   string
	Role     Role
}

// CanManage reports whether the principal holds manager-or-above authority.
func (p Principal) CanManage() bool {
	return p.Role == RoleManager || p.Role == RoleAdmin
}

// Geolocation is an optional GPS fix captured on mobile-originated actions.
type Geolocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
