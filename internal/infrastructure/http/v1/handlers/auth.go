package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/auth"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/infrastructure/http/v1/dto"
)

// Authenticator is the part of auth.Service the handlers use.
type Authenticator interface {
	Authenticate(ctx context.Context, kind, correo, password string) (*auth.LoginResult, error)
	ChangePassword(ctx context.Context, kind string, id int64, current, next string) error
}

// AuthHandler handles login and password changes.
type AuthHandler struct {
	BaseHandler
	auth Authenticator
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(a Authenticator) *AuthHandler {
	return &AuthHandler{auth: a}
}

// Login returns a handler for POST /auth/{kind}/login
func (h *AuthHandler) Login(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.LoginRequest
		if !h.BindJSON(c, &req) {
			return
		}
		res, err := h.auth.Authenticate(c.Request.Context(), kind, req.Correo, req.Contrasena)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, dto.FromLoginResult(res))
	}
}

// ChangePassword handles POST /me/contrasena
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, id, ok := h.Principal(c)
	if !ok {
		return
	}
	var req dto.ChangePasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.auth.ChangePassword(c.Request.Context(), user.Kind, id, req.Actual, req.Nueva); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "password updated")
}
