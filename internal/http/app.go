// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"casedesk_backend/platform/config"
	"casedesk_backend/platform/httpkit"
	"casedesk_backend/platform/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the HTTP router configuration.
	Config config.HTTPConfig
	// Env selects gin's mode.
	Env string
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is used for readiness checks against both schema pools.
	Health []HealthChecker
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}

// BuildRouter assembles the gin engine: middleware, CORS, health endpoint
// and per-module route registration.
func (a *App) BuildRouter() *gin.Engine {
	if !strings.EqualFold(a.Env, "development") {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(a.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(a.corsMiddleware())

	engine.GET("/api/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		for _, h := range a.Health {
			if err := h.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	routerCtx := &RouterContext{
		Engine: engine,
		V1:     engine.Group("/api/v1"),
	}

	for _, module := range a.Modules {
		module.RegisterRoutes(routerCtx)
		a.Logger.Info("module routes registered", "module", module.Name())
	}

	return engine
}

func (a *App) corsMiddleware() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if a.Config.GetCORSAllowAll() {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = a.Config.GetCORSOrigins()
	}
	corsConfig.AllowCredentials = a.Config.GetCORSAllowCreds()
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", httpkit.RequestIDHeader}
	return cors.New(corsConfig)
}
