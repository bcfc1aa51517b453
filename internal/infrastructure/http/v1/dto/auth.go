package dto

import (
	"time"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/auth"
)

// LoginRequest for account login.
type LoginRequest struct {
	Correo     string `json:"correo" binding:"required"`
	Contrasena string `json:"contrasena" binding:"required"`
}

// ChangePasswordRequest replaces the caller's password.
type ChangePasswordRequest struct {
	Actual string `json:"actual" binding:"required"`
	Nueva  string `json:"nueva" binding:"required"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	ID          int64     `json:"id"`
	Kind        string    `json:"kind"`
	Nombre      string    `json:"nombre"`
}

// FromLoginResult maps a login result.
func FromLoginResult(r *auth.LoginResult) LoginResponse {
	return LoginResponse{
		AccessToken: r.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   r.ExpiresAt,
		ID:          r.UserID,
		Kind:        r.Kind,
		Nombre:      r.Nombre,
	}
}
