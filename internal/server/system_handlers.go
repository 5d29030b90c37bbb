package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anishchandragiri369/studio-sub001/internal/api"
	"github.com/anishchandragiri369/studio-sub001/internal/logger"
)

type EmailSender interface {
	Send(ctx context.Context, to, name, subject, body string) error
}

type QueueReporter interface {
	QueueLength(ctx context.Context) int64
}

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
}

// Ready runs every check and answers 503 naming the ones that failed.
func Ready(checks map[string]Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		failed := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WithError(err).Warn("Readiness check failed", "dependency", name)
				failed[name] = err.Error()
			}
		}

		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "failed": failed})
			return
		}
		c.JSON(http.StatusOK, api.HealthResponse{Status: "ready"})
	}
}

type testEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func TestEmail(sender EmailSender) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req testEmailRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		if errs := api.ValidateStruct(req); len(errs) > 0 {
			api.RespondWithValidationErrors(c, errs)
			return
		}

		if err := sender.Send(c.Request.Context(), req.Email, "Test User", "Test Email", "Email delivery is working!"); err != nil {
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to queue email"})
			return
		}

		c.JSON(http.StatusOK, api.MessageResponse{Message: "Email queued successfully"})
	}
}

// Metrics serves Prometheus metrics, refreshing the email queue gauge first.
func Metrics(queue QueueReporter) gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		if queue != nil {
			queue.QueueLength(c.Request.Context())
		}
		h.ServeHTTP(c.Writer, c.Request)
	}
}
