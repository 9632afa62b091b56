package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sourcing-backend/internal/shared/telemetry"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		activityID, _ := c.Get(activityIDKey)
		fields := map[string]any{
			"request_id":        RequestIDFromContext(c),
			"method":            c.Request.Method,
			"path":              c.Request.URL.Path,
			"route":             c.FullPath(),
			"status":            status,
			"status_transition": c.GetString(statusTransitionKey),
			"duration_ms":       float64(latency.Microseconds()) / 1000.0,
			"session_id":        SessionIDFromContext(c),
			"activity_id":       activityID,
			"client_ip":         c.ClientIP(),
			"user_agent":        c.Request.UserAgent(),
		}
		if status >= 500 {
			telemetry.Error("request.complete", fields)
			return
		}
		telemetry.Info("request.complete", fields)
	}
}
