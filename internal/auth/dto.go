package auth

import (
	"github.com/angelmondragon/campground-backend/internal/users"
	"github.com/angelmondragon/campground-backend/pkg/enums"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest contains the payload required to open an account.
type RegisterRequest struct {
	Name     string         `json:"name" validate:"required,max=100"`
	Email    string         `json:"email" validate:"required,email"`
	Tel      string         `json:"tel" validate:"required"`
	Password string         `json:"password" validate:"required,min=6"`
	Role     enums.UserRole `json:"role,omitempty"`
}

// TokenResponse is returned by login and registration.
type TokenResponse struct {
	Token string         `json:"token"`
	User  *users.UserDTO `json:"user"`
}
