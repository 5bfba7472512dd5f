// Package identity materializes the requesting user from gateway headers.
// Token issuance and verification live in the upstream auth service; by the
// time a request reaches this API the gateway has already authenticated it
// and stamped the identity headers.
package identity

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// User is the authenticated caller.
type User struct {
	ID    string
	Name  string
	Admin bool
}

const contextKey = "identity.user"

// Middleware requires the gateway identity headers and stores the user on the
// request context.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-User-Id")
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not_authenticated"})
			return
		}
		c.Set(contextKey, User{
			ID:    id,
			Name:  c.GetHeader("X-User-Name"),
			Admin: c.GetHeader("X-User-Admin") == "true",
		})
		c.Next()
	}
}

// RequireAdmin aborts with 403 unless the user carries the admin flag.
// Must run after Middleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := FromContext(c)
		if !ok || !u.Admin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin_required"})
			return
		}
		c.Next()
	}
}

// FromContext returns the user stored by Middleware.
func FromContext(c *gin.Context) (User, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return User{}, false
	}
	u, ok := v.(User)
	return u, ok
}
