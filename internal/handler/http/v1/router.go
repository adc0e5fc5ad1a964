package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1.
// Лимит запросов применяется только к мутациям
func (h *Handler) RegisterRoutes(api *gin.RouterGroup, gate ThrottleGate) {
	throttled := ThrottleMiddleware(gate, h.logger)

	// Жизненный цикл инцидентов
	incidents := api.Group("/incidents")
	{
		incidents.POST("", throttled, h.createIncident)
		incidents.GET("/search", h.searchIncidents)
		incidents.GET("/:id", h.getIncident)
		incidents.PATCH("/:id", throttled, h.updateIncident)
		incidents.DELETE("/:id", throttled, h.deleteIncident)
		incidents.POST("/:id/verify", throttled, h.verifyIncident)
	}

	api.GET("/incident-types", h.listIncidentTypes)

	// Пространственная и временная аналитика
	analytics := api.Group("/analytics")
	{
		analytics.GET("/hotspots", h.getHotspots)
		analytics.GET("/heatmap", h.getHeatmap)
		analytics.GET("/density", h.getDensity)
		analytics.GET("/clusters", h.getClusters)
		analytics.POST("/impact-zones", h.getImpactZones)
		analytics.GET("/temporal-patterns", h.getTemporalPatterns)
		analytics.GET("/predictive", h.getPredictions)
	}

	// Realtime-поток событий
	api.GET("/ws", h.serveWS)

	// Только для административной роли
	api.GET("/stats", RequireAdmin(), h.getStats)
}
