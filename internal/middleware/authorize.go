package middleware

import (
	"github.com/gin-gonic/gin"

	"lagimmo/api/internal/apperr"
)

var errSuperUserOnly = apperr.Forbidden("super-user access required")

// RequireSuperUser must run after Auth.
func RequireSuperUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abortWithError(c, errNotAuthorized)
			return
		}
		if !user.IsSuperUser {
			abortWithError(c, errSuperUserOnly)
			return
		}
		c.Next()
	}
}
