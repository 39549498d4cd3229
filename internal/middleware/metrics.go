package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/richhabits/backend/pkg/telemetry"
)

// Metrics returns a middleware recording request count and latency per route.
func Metrics(m *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
