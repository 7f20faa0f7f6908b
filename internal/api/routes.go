package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up the API routes
func SetupRoutes(handler *Handler) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(Recovery())
	router.Use(CORS())
	router.Use(gin.Logger())

	// Health check
	router.GET("/health", handler.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/records", handler.GetRecords)
		v1.GET("/runs", handler.GetRuns)

		summary := v1.Group("/summary")
		{
			summary.GET("", handler.GetSummary)
			summary.GET("/daily", handler.GetDailySummary)
		}
	}

	return router
}
