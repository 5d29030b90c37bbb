package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anishchandragiri369/studio-sub001/internal/metrics"
)

// MetricsMiddleware records request counts and latency per route template.
// Requests that match no route share one label so unknown paths cannot blow up
// the series count.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		metrics.RecordHTTPRequest(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start).Seconds(),
		)
	}
}
