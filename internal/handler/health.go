package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]Pinger
}

// NewHealthHandler takes named readiness checks, e.g. "postgres", "redis", "rabbitmq".
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx := c.Request.Context()

	resp := gin.H{"status": "ok"}
	status := http.StatusOK
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			resp[name] = "unavailable"
			resp["status"] = "error"
			status = http.StatusServiceUnavailable
			continue
		}
		resp[name] = "connected"
	}
	c.JSON(status, resp)
}
