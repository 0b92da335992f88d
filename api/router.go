// api/router.go
package api

import (
	"github.com/devadigapratham/spoolkeeper/api/handlers"
	"github.com/devadigapratham/spoolkeeper/metrics"
	"github.com/gin-gonic/gin"
)

// SetupRouter sets up the API routes
func SetupRouter(handler *handlers.Handler, withMetrics bool) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handler.LoggerMiddleware())
	if withMetrics {
		router.Use(metrics.GinMiddleware())
	}

	// Apply middleware
	router.Use(handler.ReadyMiddleware())

	// API group
	api := router.Group("/api/v1")
	{
		// Filament endpoints
		api.POST("/filaments", handler.CreateFilament)
		api.GET("/filaments", handler.GetFilaments)
		api.GET("/filaments/:id", handler.GetFilament)
		api.PATCH("/filaments/:id", handler.UpdateFilament)
		api.DELETE("/filaments/:id", handler.DeleteFilament)

		// Derived views
		api.GET("/facets", handler.GetFacets)
		api.GET("/stats", handler.GetStats)

		// Settings
		api.GET("/export", handler.Export)
		api.POST("/import", handler.Import)
		api.GET("/settings/theme", handler.GetTheme)
		api.PUT("/settings/theme", handler.SetTheme)
		api.POST("/settings/theme/toggle", handler.ToggleTheme)
	}

	router.GET("/status", handler.Status)
	if withMetrics {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	return router
}
