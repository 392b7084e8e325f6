package dto

import (
	"time"

	"github.com/insorpa/dte-api/internal/domain/entity"
)

// LoginRequest credenciales de acceso.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse token + datos del usuario autenticado.
type LoginResponse struct {
	Token string       `json:"access_token"`
	Tipo  string       `json:"token_type"`
	User  UserResponse `json:"user"`
}

// RegisterRequest alta de usuario (solo superusuarios, salvo el bootstrap inicial).
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Superuser bool   `json:"superuser"`
}

// UserResponse usuario sin campos sensibles.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Superuser bool      `json:"superuser"`
	CreatedAt time.Time `json:"created_at"`
}

// ToUserResponse mapea la entidad al DTO de salida.
func ToUserResponse(u *entity.Usuario) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Superuser: u.Superuser,
		CreatedAt: u.CreatedAt,
	}
}
