package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPMetrics records request metrics.
type HTTPMetrics interface {
	RecordHTTPRequest(method, path string, status int, d time.Duration, respSize int)
	RequestStarted(method string) func()
}

// Metrics records every request under its route template, so path
// parameters do not explode label cardinality.  Unmatched routes are
// recorded as "unmatched".
func Metrics(m HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		done := m.RequestStarted(c.Request.Method)
		start := time.Now()
		c.Next()
		done()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		size := c.Writer.Size()
		if size < 0 {
			size = 0
		}
		m.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start), size)
	}
}
