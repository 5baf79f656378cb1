package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/interview-backend/internal/observability"
)

// Metrics records per-route API latency. Scrape and health-check routes are not
// counted; unmatched paths share one "unmatched" label to bound cardinality.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		route := c.FullPath()
		switch route {
		case "/metrics", "/healthcheck":
			c.Next()
			return
		case "":
			route = "unmatched"
		}

		m.ApiInflightInc()
		start := time.Now()
		defer func() {
			m.ApiInflightDec()
			m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
		}()
		c.Next()
	}
}
