package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"triplea/internal/auth"
	"triplea/internal/logger"
)

var quietPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// RequestLoggingMiddleware logs one line per request. Server errors log at
// error level, client errors at warn. Probe and scrape endpoints are skipped.
func RequestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if quietPaths[path] {
			return
		}

		status := c.Writer.Status()
		kv := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if id, ok := auth.GetMemberID(c); ok {
			kv = append(kv, "member_id", id)
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "errors", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("HTTP request", kv...)
		case status >= http.StatusBadRequest:
			logger.Warn("HTTP request", kv...)
		default:
			logger.Info("HTTP request", kv...)
		}
	}
}
