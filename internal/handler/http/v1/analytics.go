package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/trafficwatch/incident_geo_system/internal/models"
)

// @Summary Incident hotspots
// @Description Aggregate recent incidents into grid cells and rank the densest ones. Requires API token.
// @Tags Analytics
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param min_lat query number true "South boundary"
// @Param min_lon query number true "West boundary"
// @Param max_lat query number true "North boundary"
// @Param max_lon query number true "East boundary"
// @Param time_range_hours query int false "Lookback window in hours" default(24)
// @Param grid_size query int false "Grid cells per degree" default(100)
// @Param min_incidents query int false "Minimum incidents per cell" default(3)
// @Param max_points query int false "Maximum incidents to analyze" default(1000)
// @Param type_id query string false "Incident type filter"
// @Success 200 {array} models.Hotspot
// @Failure 400 {object} ErrorResponse "Invalid query parameters"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /analytics/hotspots [get]
func (h *Handler) getHotspots(c *gin.Context) {
	log := h.logger.WithField("method", "getHotspots")

	var params HotspotParams
	if !h.bindQueryAndValidate(c, log, &params) {
		return
	}

	q := models.HotspotQuery{
		TimeRange:    hoursOrDefault(params.TimeRangeHours, 24),
		GridSize:     intOrDefault(params.GridSize, 100),
		MinIncidents: intOrDefault(params.MinIncidents, 3),
		MaxPoints:    intOrDefault(params.MaxPoints, 1000),
		Bounds:       boundsPtr(params.boundsParams),
		TypeID:       uuidPtr(params.TypeID),
	}

	hotspots, err := h.analyticsService.Hotspots(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, hotspots)
}

// @Summary Incident heatmap
// @Description Build severity-weighted heatmap points for a map area. Requires API token.
// @Tags Analytics
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param min_lat query number true "South boundary"
// @Param min_lon query number true "West boundary"
// @Param max_lat query number true "North boundary"
// @Param max_lon query number true "East boundary"
// @Param grid_size query int false "Grid cells per axis" default(50)
// @Param min_severity query int false "Minimum severity filter"
// @Param time_range_hours query int false "Lookback window in hours" default(24)
// @Success 200 {array} models.HeatmapPoint
// @Failure 400 {object} ErrorResponse "Invalid query parameters"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /analytics/heatmap [get]
func (h *Handler) getHeatmap(c *gin.Context) {
	log := h.logger.WithField("method", "getHeatmap")

	var params HeatmapParams
	if !h.bindQueryAndValidate(c, log, &params) {
		return
	}

	q := models.HeatmapQuery{
		Bounds:      paramsToBounds(params.boundsParams),
		GridSize:    intOrDefault(params.GridSize, 50),
		MinSeverity: params.MinSeverity,
		TimeRange:   hoursOrDefault(params.TimeRangeHours, 24),
	}

	points, err := h.analyticsService.Heatmap(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, points)
}

// @Summary Incident density grid
// @Description Count incidents per grid cell at a named resolution. Requires API token.
// @Tags Analytics
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param min_lat query number true "South boundary"
// @Param min_lon query number true "West boundary"
// @Param max_lat query number true "North boundary"
// @Param max_lon query number true "East boundary"
// @Param resolution query string false "Grid resolution: low, medium or high" default(medium)
// @Param normalize query bool false "Normalize densities to [0,1]"
// @Success 200 {array} models.DensityCell
// @Failure 400 {object} ErrorResponse "Invalid query parameters"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /analytics/density [get]
func (h *Handler) getDensity(c *gin.Context) {
	log := h.logger.WithField("method", "getDensity")

	var params DensityParams
	if !h.bindQueryAndValidate(c, log, &params) {
		return
	}

	resolution := models.DensityResolution(params.Resolution)
	if params.Resolution == "" {
		resolution = models.DensityMedium
	}

	q := models.DensityQuery{
		Bounds:     paramsToBounds(params.boundsParams),
		Resolution: resolution,
		Normalize:  params.Normalize,
	}

	cells, err := h.analyticsService.Density(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, cells)
}

// @Summary Incident clusters
// @Description Group incidents into spatial clusters with per-cluster aggregates. Requires API token.
// @Tags Analytics
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param min_lat query number false "South boundary"
// @Param min_lon query number false "West boundary"
// @Param max_lat query number false "North boundary"
// @Param max_lon query number false "East boundary"
// @Param clusters query int false "Number of clusters" default(5)
// @Param min_severity query int false "Minimum severity filter"
// @Success 200 {array} models.Cluster
// @Failure 400 {object} ErrorResponse "Invalid query parameters"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /analytics/clusters [get]
func (h *Handler) getClusters(c *gin.Context) {
	log := h.logger.WithField("method", "getClusters")

	var params ClusterParams
	if !h.bindQueryAndValidate(c, log, &params) {
		return
	}

	q := models.ClusterQuery{
		Bounds:       boundsPtr(params.boundsParams),
		ClusterCount: intOrDefault(params.ClusterCount, 5),
		MinSeverity:  params.MinSeverity,
	}

	clusters, err := h.analyticsService.Clusters(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, clusters)
}

// @Summary Impact zones
// @Description Compute buffer zones around incidents, their overlaps and the total affected area. Requires API token.
// @Tags Analytics
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body ImpactZonesRequest true "Impact analysis request"
// @Success 200 {object} models.ImpactAnalysis
// @Failure 400 {object} ErrorResponse "Invalid request body"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /analytics/impact-zones [post]
func (h *Handler) getImpactZones(c *gin.Context) {
	log := h.logger.WithField("method", "getImpactZones")

	var input ImpactZonesRequest
	if !h.bindAndValidate(c, log, &input) {
		return
	}

	ids := make([]uuid.UUID, 0, len(input.IncidentIDs))
	for _, raw := range input.IncidentIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid incident ID in incident_ids"})
			return
		}
		ids = append(ids, id)
	}

	q := models.ImpactQuery{
		IncidentIDs:  ids,
		BufferMeters: input.BufferMeters,
	}
	if q.BufferMeters == 0 {
		q.BufferMeters = 500
	}

	analysis, err := h.analyticsService.ImpactZones(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// @Summary Temporal incident patterns
// @Description Bucket incidents by hour, day, weekday or month and compute per-category trends. Requires API token.
// @Tags Analytics
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param time_range_hours query int false "Lookback window in hours" default(168)
// @Param group_by query string false "Bucket granularity: hour, day, weekday or month" default(hour)
// @Param type_id query string false "Incident type filter"
// @Success 200 {array} models.TemporalPattern
// @Failure 400 {object} ErrorResponse "Invalid query parameters"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /analytics/temporal-patterns [get]
func (h *Handler) getTemporalPatterns(c *gin.Context) {
	log := h.logger.WithField("method", "getTemporalPatterns")

	var params TemporalParams
	if !h.bindQueryAndValidate(c, log, &params) {
		return
	}

	groupBy := models.TemporalGroupBy(params.GroupBy)
	if params.GroupBy == "" {
		groupBy = models.GroupByHour
	}

	q := models.TemporalQuery{
		TimeRange: hoursOrDefault(params.TimeRangeHours, 168),
		GroupBy:   groupBy,
		TypeID:    uuidPtr(params.TypeID),
	}

	patterns, err := h.analyticsService.TemporalPatterns(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, patterns)
}

// @Summary Predictive incident locations
// @Description Score likely incident locations for the coming hours from recent history. Responds with a typed insufficient-data body when history is too thin. Requires API token.
// @Tags Analytics
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param hours query int false "Prediction window in hours" default(24)
// @Param confidence query number false "Confidence threshold" default(0.5)
// @Param clusters query int false "Number of history clusters" default(10)
// @Success 200 {object} models.PredictionResult
// @Failure 400 {object} ErrorResponse "Invalid query parameters"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /analytics/predictive [get]
func (h *Handler) getPredictions(c *gin.Context) {
	log := h.logger.WithField("method", "getPredictions")

	var params PredictionParams
	if !h.bindQueryAndValidate(c, log, &params) {
		return
	}

	q := models.PredictionQuery{
		PredictionHours: intOrDefault(params.PredictionHours, 24),
		Confidence:      params.Confidence,
		ClusterCount:    intOrDefault(params.ClusterCount, 10),
	}
	if q.Confidence == 0 {
		q.Confidence = 0.5
	}

	result, err := h.analyticsService.Predict(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Конвертация query-параметров в доменные запросы

func radiusParamsToQuery(p RadiusSearchParams) models.RadiusQuery {
	return models.RadiusQuery{
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		RadiusMeters: p.RadiusMeters,
		TypeID:       uuidPtr(p.TypeID),
		MinSeverity:  p.MinSeverity,
		Page:         p.Page,
		PageSize:     p.PageSize,
		Sort:         p.Sort,
	}
}

func paramsToBounds(p boundsParams) models.Bounds {
	return models.Bounds{
		MinLat: p.MinLat,
		MinLon: p.MinLon,
		MaxLat: p.MaxLat,
		MaxLon: p.MaxLon,
	}
}

// boundsPtr возвращает nil, когда область не задана вовсе
func boundsPtr(p boundsParams) *models.Bounds {
	if p.MinLat == 0 && p.MinLon == 0 && p.MaxLat == 0 && p.MaxLon == 0 {
		return nil
	}
	b := paramsToBounds(p)
	return &b
}

func uuidPtr(raw string) *uuid.UUID {
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

func intOrDefault(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}

func hoursOrDefault(hours, fallback int) time.Duration {
	if hours == 0 {
		hours = fallback
	}
	return time.Duration(hours) * time.Hour
}
