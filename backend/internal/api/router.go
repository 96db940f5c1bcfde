// Package api exposes the memory service over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"memory-graph/backend/internal/metrics"
	"memory-graph/backend/internal/services"
)

// RouterConfig carries the dependencies of the HTTP surface
type RouterConfig struct {
	Service        *services.MemoryService
	Logger         *zap.Logger
	Metrics        *metrics.Collector // nil disables /metrics
	AllowedOrigins []string
	// BreakerState reports the store circuit breaker state on /health when set
	BreakerState func() string
}

// NewRouter builds the gin engine with every route registered
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(cfg.Logger))
	router.Use(gin.Recovery())
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
	}
	router.Use(cors(cfg.AllowedOrigins))

	h := &Handler{service: cfg.Service, logger: cfg.Logger}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if cfg.BreakerState != nil {
			body["breaker"] = cfg.BreakerState()
		}
		c.JSON(http.StatusOK, body)
	})
	router.GET("/health/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := cfg.Service.Ping(ctx); err != nil {
			cfg.Logger.Warn("Readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	mem := router.Group("/memory")
	{
		mem.POST("", h.Create)
		mem.GET("", h.FindAll)
		mem.GET("/timeline", h.Timeline)
		mem.GET("/stats", h.Overview)
		mem.GET("/graph", h.Graph)
		mem.GET("/:id", h.FindOne)
		mem.PATCH("/:id", h.Update)
		mem.DELETE("/:id", h.Remove)
		mem.POST("/:id/links", h.Link)
	}

	return router
}
