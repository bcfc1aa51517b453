package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/apperror"
	appctx "github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/context"
)

// JWTValidator validates bearer tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// Auth validates the bearer token and puts the principal on the request context.
func Auth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		user, err := validator.ValidateToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		c.Request = c.Request.WithContext(appctx.WithUser(c.Request.Context(), user))
		c.Set("user_id", user.UserID)
		c.Set("user_kind", user.Kind)

		c.Next()
	}
}

// RequireKind allows only principals of the given kinds.
func RequireKind(kinds ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			abortUnauthorized(c, "authentication required")
			return
		}
		for _, k := range kinds {
			if user.Kind == k {
				c.Next()
				return
			}
		}
		_ = c.Error(
			apperror.NewForbidden("operation not allowed for this account").
				WithDetail("required_kinds", kinds),
		)
		c.Abort()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}

// SelfOrKind allows principals of the given kinds, and any principal whose own
// id matches the path parameter.
func SelfOrKind(param string, kinds ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			abortUnauthorized(c, "authentication required")
			return
		}
		for _, k := range kinds {
			if user.Kind == k {
				c.Next()
				return
			}
		}
		if user.UserID != "" && user.UserID == c.Param(param) {
			c.Next()
			return
		}
		_ = c.Error(apperror.NewForbidden("operation not allowed on another account"))
		c.Abort()
	}
}
