package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"spamguard/backend/internal/monitoring"
)

// HTTPMetrics HTTP 指标中间件
func HTTPMetrics(metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		statusCode := strconv.Itoa(c.Writer.Status())

		metrics.RecordHTTPRequest(
			c.Request.Method,
			c.FullPath(),
			statusCode,
			duration,
		)

		if c.Writer.Status() >= 500 {
			metrics.RecordError("http_error", "http")
		}
	}
}
