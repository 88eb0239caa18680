// Package requestlog provides middleware that traces every request with a
// generated request ID.
package requestlog

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/terpspark/terpspark-api/internal/logger"
)

// New returns a middleware function that logs request details
func New() gin.HandlerFunc {
	httpLog := logger.HTTP()

	return func(c *gin.Context) {
		startTime := time.Now()

		requestID := uuid.New().String()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		httpLog.Debug("Request started",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"remote_addr", c.ClientIP(),
		)

		c.Next()

		latency := time.Since(startTime)
		status := c.Writer.Status()

		logLevel := httpLog.Info
		if status >= 500 {
			logLevel = httpLog.Error
		} else if status >= 400 {
			logLevel = httpLog.Warn
		}

		logLevel("Request completed",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", latency,
			"size", c.Writer.Size(),
		)
	}
}
