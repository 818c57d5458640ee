package handler

import (
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crosslist/backend/internal/domain/integration"
)

// HealthHandler reports process liveness and the configured platforms.
type HealthHandler struct {
	BaseHandler
	startTime time.Time
	registry  integration.Registry
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(registry integration.Registry) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		registry:  registry,
	}
}

// healthResponse is the GET /healthz payload.
type healthResponse struct {
	Status    string                     `json:"status"`
	GoVersion string                     `json:"go_version"`
	Uptime    string                     `json:"uptime"`
	Platforms []integration.PlatformCode `json:"platforms"`
}

// Check handles GET /healthz.
func (h *HealthHandler) Check(c *gin.Context) {
	platforms := make([]integration.PlatformCode, 0)
	if h.registry != nil {
		for _, adapter := range h.registry.Adapters() {
			platforms = append(platforms, adapter.PlatformCode())
		}
	}
	h.Success(c, "", healthResponse{
		Status:    "ok",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Platforms: platforms,
	})
}
