package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAccessToken verifies an access token and injects identity into request context.
// It does not perform RBAC checks; those belong to internal/rbac.
func RequireAccessToken(res Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _, err := IdentityFromRequest(c.Request, res)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, ErrMissingToken) {
				msg = "missing token"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))

		// Also store on gin context for handler convenience.
		c.Set("user_id", id.ID)
		c.Set("role", id.Role)

		c.Next()
	}
}
