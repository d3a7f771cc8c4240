package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Estados de usuario.
const (
	UserActive   = "active"
	UserInactive = "inactive"
)

// Permisos por sección de la aplicación.
const (
	PermDashboard   = "dashboard"
	PermProducts    = "products"
	PermWarehouses  = "warehouses"
	PermTransfers   = "transfers"
	PermPurchases   = "purchases"
	PermFumigations = "fumigations"
	PermFields      = "fields"
	PermReports     = "reports"
	PermUsers       = "users"
	PermAdmin       = "admin"
)

// User representa un usuario del sistema con rol y mapa de permisos.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash
	DisplayName  string
	Role         string
	Permissions  map[string]bool
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DefaultPermissions permisos de un usuario nuevo sin permisos explícitos.
func DefaultPermissions() map[string]bool {
	return map[string]bool{PermDashboard: true}
}

// HasPermission: admin (rol o permiso) implica todos los permisos.
func (u *User) HasPermission(perm string) bool {
	return HasPermission(u.Role, u.Permissions, perm)
}

// HasPermission evalúa un permiso a partir de rol y mapa (usado también con los claims del JWT).
func HasPermission(role string, perms map[string]bool, perm string) bool {
	if role == RoleAdmin || perms[PermAdmin] {
		return true
	}
	return perms[perm]
}
