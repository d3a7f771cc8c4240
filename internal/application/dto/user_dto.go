package dto

// CreateUserRequest entrada para crear un usuario (password en texto, se hashea en el caso de uso).
type CreateUserRequest struct {
	Email       string          `json:"email" validate:"required,email"`
	Password    string          `json:"password" validate:"required,min=8"`
	DisplayName string          `json:"displayName" validate:"omitempty,max=200"`
	Role        string          `json:"role" validate:"omitempty,oneof=admin user"`
	Permissions map[string]bool `json:"permissions"`
}

// UpdateUserRequest edición de un usuario (email y password no se cambian aquí).
type UpdateUserRequest struct {
	DisplayName *string         `json:"displayName" validate:"omitempty,max=200"`
	Role        *string         `json:"role" validate:"omitempty,oneof=admin user"`
	Status      *string         `json:"status" validate:"omitempty,oneof=active inactive"`
	Permissions map[string]bool `json:"permissions"`
}

// UpdatePermissionsRequest reemplaza el mapa de permisos.
type UpdatePermissionsRequest struct {
	Permissions map[string]bool `json:"permissions" validate:"required"`
}

// ChangePasswordRequest cambio de contraseña del usuario autenticado.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	DisplayName string          `json:"displayName"`
	Role        string          `json:"role"`
	Permissions map[string]bool `json:"permissions"`
	Status      string          `json:"status"`
	CreatedAt   *Timestamp      `json:"createdAt"`
	UpdatedAt   *Timestamp      `json:"updatedAt"`
}

// LoginRequest entrada para login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse salida con token JWT.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}
