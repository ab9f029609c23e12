// internal/api/system_handler.go
package api

import (
	"context"
	"net/http"
	"time"

	"wastewise/internal/common/logger"

	"github.com/gin-gonic/gin"
)

const readinessTimeout = 2 * time.Second

// Pinger is the readiness probe contract. The postgres, redis, and
// elasticsearch clients all satisfy it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessCheck names one dependency probed by GET /ready.
type ReadinessCheck struct {
	Name   string
	Pinger Pinger
}

// SystemHandler serves liveness and readiness.
type SystemHandler struct {
	checks       []ReadinessCheck
	catalogCount int
	modelID      string
	version      string
	logger       logger.Logger
}

func NewSystemHandler(checks []ReadinessCheck, catalogCount int, modelID, version string, log logger.Logger) *SystemHandler {
	return &SystemHandler{
		checks:       checks,
		catalogCount: catalogCount,
		modelID:      modelID,
		version:      version,
		logger:       log.Named("system"),
	}
}

func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.version,
	})
}

// Ready probes every backing service. Any failure flips the response to
// 503 so load balancers stop routing here, while the body still names
// the dependency that failed.
func (h *SystemHandler) Ready(c *gin.Context) {
	details := gin.H{
		"catalog_entries": h.catalogCount,
		"model_id":        h.modelID,
	}
	ready := h.catalogCount > 0 && h.modelID != ""

	for _, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		err := check.Pinger.Ping(ctx)
		cancel()

		if err != nil {
			ready = false
			details[check.Name] = "down: " + err.Error()
			h.logger.Warn("Readiness check failed", map[string]interface{}{
				"dependency": check.Name,
				"error":      err.Error(),
			})
			continue
		}
		details[check.Name] = "ok"
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status": state,
		"checks": details,
	})
}
