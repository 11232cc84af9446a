package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"lagimmo/api/internal/metrics"
)

// Metrics records in-flight requests, counts and latency by route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		done := metrics.TrackInFlight()
		start := time.Now()

		c.Next()

		done()
		metrics.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
