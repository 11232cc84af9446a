package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"lagimmo/api/internal/apperr"
)

// Recovery turns a handler panic into a 500 with the standard error body.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			log.Error().
				Interface("panic", r).
				Str("request_id", c.GetString(requestIDHeader)).
				Str("method", c.Request.Method).
				Str("route", c.FullPath()).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
			abortWithError(c, apperr.New(apperr.KindInternal, "internal server error"))
		}()
		c.Next()
	}
}
