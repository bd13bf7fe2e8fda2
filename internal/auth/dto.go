package auth

import (
	"github.com/angelmondragon/mercadito-backend/internal/stores"
	"github.com/angelmondragon/mercadito-backend/internal/users"
	"github.com/angelmondragon/mercadito-backend/pkg/enums"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the self-service signup payload. Either Locations or the
// single Location may be sent. Admins must include the Store they will run.
type RegisterRequest struct {
	Name      string                   `json:"name" validate:"required,max=100"`
	Email     string                   `json:"email" validate:"required,email"`
	Password  string                   `json:"password" validate:"required,min=6"`
	Phone     string                   `json:"phone" validate:"required,e164phone"`
	Role      enums.Role               `json:"role,omitempty"`
	Locations []users.LocationInput    `json:"locations,omitempty" validate:"omitempty,dive"`
	Location  *users.LocationInput     `json:"location,omitempty"`
	Store     *stores.CreateStoreInput `json:"store,omitempty"`
}

// ChangePasswordRequest rotates the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string           `json:"token"`
	User  *users.UserDTO   `json:"user"`
	Store *stores.StoreDTO `json:"store,omitempty"`
}
