package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/glauncher/glauncher-api/launcher/apperr"
	"github.com/glauncher/glauncher-api/model"
)

const UserKey = "user"

// UserLookup loads the authenticated user.
type UserLookup func(c *gin.Context, id int64) (*model.User, error)

// RequireAdmin lets only administrators through. It must run after Auth.
func RequireAdmin(lookup UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := lookup(c, GetUserID(c))
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			return
		case err != nil:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		case !u.IsAdmin:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Set(UserKey, u)
		c.Next()
	}
}

// GetUser returns the user loaded by RequireAdmin, or nil.
func GetUser(c *gin.Context) *model.User {
	if v, ok := c.Get(UserKey); ok {
		return v.(*model.User)
	}
	return nil
}
