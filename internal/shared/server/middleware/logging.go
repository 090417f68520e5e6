package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rvdzwet/invoice-validator-sub003/internal/shared/telemetry"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		reqID := RequestIDFromContext(c)

		validationID, _ := c.Get("validationId")
		outcome := ""
		if raw, ok := c.Get("outcome"); ok {
			if s, ok := raw.(string); ok {
				outcome = s
			}
		}

		telemetry.Info("request.complete", map[string]any{
			"request_id":    reqID,
			"method":        c.Request.Method,
			"path":          c.Request.URL.Path,
			"status":        status,
			"duration_ms":   float64(latency.Microseconds()) / 1000.0,
			"validation_id": validationID,
			"outcome":       outcome,
			"client_ip":     c.ClientIP(),
			"user_agent":    c.Request.UserAgent(),
		})
	}
}
