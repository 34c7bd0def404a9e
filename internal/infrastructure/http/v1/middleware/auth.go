package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"tradebook/internal/core/apperror"
	"tradebook/internal/domain/auth"
)

// TokenValidator interface for token validation.
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (*auth.Identity, error)
}

// Auth middleware validates JWT tokens and populates the request identity.
func Auth(validator TokenValidator) gin.HandlerFunc {
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

		identity, err := validator.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		ctx := auth.WithIdentity(c.Request.Context(), identity)
		c.Request = c.Request.WithContext(ctx)

		c.Set("user_id", identity.UserID)
		c.Set("is_admin", identity.IsAdmin)

		c.Next()
	}
}

// RequireAdmin middleware allows only administrator accounts through.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := auth.IdentityFromContext(c.Request.Context())
		if identity == nil {
			abortUnauthorized(c, "authentication required")
			return
		}
		if !identity.IsAdmin {
			_ = c.Error(apperror.NewForbidden("administrator access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
