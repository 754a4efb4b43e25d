package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/schedule-api/internal/service"
)

// unmatchedRoute labels requests no route matched. Raw URLs would give every
// mistyped group or date its own series.
const unmatchedRoute = "unmatched"

// Metrics records every request under its route template.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
