// Package router assembles the gin engine: middleware chain first, then the
// versioned API routes.
package router

import (
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"

	"github.com/crosslist/backend/internal/infrastructure/config"
	"github.com/crosslist/backend/internal/infrastructure/logger"
	"github.com/crosslist/backend/internal/infrastructure/ratelimit"
	"github.com/crosslist/backend/internal/interfaces/http/handler"
	"github.com/crosslist/backend/internal/interfaces/http/middleware"
)

// Dependencies carries everything the router needs to wire the routes.
type Dependencies struct {
	Logger       *zap.Logger
	Registration *handler.RegistrationHandler
	Jobs         *handler.JobHandler
	Orders       *handler.OrderHandler
	Health       *handler.HealthHandler
	// RateLimiter is optional; nil disables HTTP rate limiting
	RateLimiter *ratelimit.SlidingLogLimiter
}

// New builds the engine with the standard middleware chain and all routes
// registered under /api/v1.
func New(cfg config.HTTPConfig, deps Dependencies) (*gin.Engine, error) {
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.RequestLogger(deps.Logger))
	engine.Use(logger.Recovery(deps.Logger))
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}
	if cfg.RateLimitEnabled && deps.RateLimiter != nil {
		engine.Use(middleware.RateLimit(deps.RateLimiter, cfg.RateLimitRequests))
	}

	engine.GET("/healthz", deps.Health.Check)

	api := engine.Group("/api/v1")
	{
		api.POST("/registrations", deps.Registration.Register)
		api.POST("/registrations/:id/retry", deps.Registration.Retry)
		api.GET("/jobs", deps.Jobs.List)
		api.GET("/jobs/:id", deps.Jobs.Get)
		api.GET("/orders", deps.Orders.List)
	}

	return engine, nil
}
