package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"triplea/internal/api"
	"triplea/internal/logger"
)

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

type HealthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health runs every check with a short deadline. Any failure turns the
// response into a 503 so load balancers stop routing to the instance.
func Health(checks map[string]Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(checks) == 0 {
			c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		resp := HealthStatus{Status: "ok", Checks: make(map[string]string, len(checks))}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.Warn("Health check failed", "check", name, "error", err)
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
				continue
			}
			resp.Checks[name] = "ok"
		}

		code := http.StatusOK
		if resp.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, resp)
	}
}

type TestEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Mailer is the part of the email queue the admin test endpoint needs.
type Mailer interface {
	Send(ctx context.Context, to, name, subject, body string) error
}

func TestEmail(mailer Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TestEmailRequest
		if !api.BindJSON(c, &req) {
			return
		}

		if err := mailer.Send(c.Request.Context(), req.Email, "Triple A Admin", "Test email from Triple A", "Email delivery is working."); err != nil {
			c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "email queue unavailable", Retryable: true})
			return
		}

		c.JSON(http.StatusAccepted, api.MessageResponse{Message: "email queued"})
	}
}

func Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
