package http

import (
	"github.com/basketlens/backend/config"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger zerolog.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, cfg.RateLimit.Burst))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/retailers", handler.ListRetailers)

		prices := v1.Group("/prices")
		{
			prices.POST("", handler.PriceTable)
			prices.GET("/last-updated", handler.LastUpdated)
		}

		v1.POST("/plan", handler.OptimalPlan)
		v1.POST("/link", handler.ShareLink)
		v1.POST("/lists/import", handler.ImportList)
	}

	return router
}
