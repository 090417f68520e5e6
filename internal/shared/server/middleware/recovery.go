package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/rvdzwet/invoice-validator-sub003/internal/shared/server/respond"
	"github.com/rvdzwet/invoice-validator-sub003/internal/shared/telemetry"
)

// Recovery recovers from panics and returns a standardized error response.
// The validation run in flight, if any, is named in the log entry.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				fields := map[string]any{
					"request_id": RequestIDFromContext(c),
					"error":      rec,
					"stack":      string(debug.Stack()),
					"path":       c.Request.URL.Path,
					"method":     c.Request.Method,
				}
				if validationID := c.GetString("validationId"); validationID != "" {
					fields["validation_id"] = validationID
				}
				telemetry.Error("panic", fields)
				respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
				c.Abort()
			}
		}()
		c.Next()
	}
}
