package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"lagimmo/api/internal/apperr"
	"lagimmo/api/internal/models"
	"lagimmo/api/internal/security"
)

const (
	CurrentUserKey  = "current_user"
	AccessTokenKey  = "access_token"
	AccessClaimsKey = "access_claims"
)

var (
	errMissingToken  = apperr.Unauthorized("missing bearer token")
	errRefreshToken  = apperr.Unauthorized("refresh tokens cannot authorize requests")
	errUnknownUser   = apperr.Unauthorized("user no longer exists")
	errNotAuthorized = apperr.Unauthorized("authentication required")
)

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*security.Claims, error)
}

type UserLoader interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

// Auth requires an allow-listed access token and loads its user.
func Auth(tokens TokenVerifier, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abortWithError(c, errMissingToken)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			abortWithError(c, errMissingToken)
			return
		}

		claims, err := tokens.Verify(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		if claims.JwtID != "" {
			abortWithError(c, errRefreshToken)
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.Subject)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				err = errUnknownUser
			}
			abortWithError(c, err)
			return
		}

		c.Set(AccessTokenKey, token)
		c.Set(AccessClaimsKey, *claims)
		c.Set(CurrentUserKey, user)

		c.Next()
	}
}

// CurrentUser returns the user loaded by Auth.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(CurrentUserKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}

func AccessToken(c *gin.Context) string {
	return c.GetString(AccessTokenKey)
}

func abortWithError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	c.AbortWithStatusJSON(kind.HTTPStatus(), gin.H{
		"error":   kind.String(),
		"message": apperr.Message(err),
	})
}
