package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paperpaper/catalog/internal/metrics"
)

// MetricsMiddleware records request counts and latency per route template,
// so "/api/articles/:id" is one series however many ids are requested.
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
