package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trafficwatch/incident_geo_system/internal/apperrors"
	"github.com/trafficwatch/incident_geo_system/internal/config"
	"github.com/trafficwatch/incident_geo_system/internal/models"
	"github.com/trafficwatch/incident_geo_system/internal/service/mocks"
	"go.uber.org/mock/gomock"
)

// newTestAnalyticsService — вспомогательная функция для создания инстанса сервиса с моками.
func newTestAnalyticsService(t *testing.T) (*analyticsService, *mocks.MockAnalyticsRepository) {
	ctrl := gomock.NewController(t)
	repoMock := mocks.NewMockAnalyticsRepository(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	cfg := &config.Config{
		MaxGridCells:          250000,
		AnalyticsMaxPoints:    2000,
		PredictionMinSamples:  50,
		PredictionSampleDays:  30,
		PredictionHistoryDays: 90,
	}

	service := NewAnalyticsService(repoMock, logger, cfg)
	svc := service.(*analyticsService)
	// Фиксируем часы для детерминированных выборок
	svc.now = func() time.Time { return time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC) }
	return svc, repoMock
}

func pt(lat, lon float64, severity int) models.IncidentPoint {
	return models.IncidentPoint{Latitude: lat, Longitude: lon, Severity: severity}
}

func TestHotspots_ValidationRejectsBadGrid(t *testing.T) {
	// Подготовка
	service, repoMock := newTestAnalyticsService(t)
	ctx := context.Background()
	q := models.HotspotQuery{
		TimeRange:    24 * time.Hour,
		GridSize:     5, // ниже минимума
		MinIncidents: 3,
		MaxPoints:    100,
	}

	// Ожидания: до репозитория дело не доходит
	repoMock.EXPECT().SelectPoints(gomock.Any(), gomock.Any()).Times(0)

	// Действие
	hotspots, err := service.Hotspots(ctx, q)

	// Проверки
	require.Error(t, err)
	assert.Nil(t, hotspots)
	_, ok := apperrors.AsValidation(err)
	assert.True(t, ok)
}

func TestHotspots_OversizedGridRejectedBeforeQuery(t *testing.T) {
	// Подготовка
	service, repoMock := newTestAnalyticsService(t)
	ctx := context.Background()
	q := models.HotspotQuery{
		TimeRange:    24 * time.Hour,
		GridSize:     500,
		MinIncidents: 3,
		MaxPoints:    100,
		// Полмира на максимальном разрешении
		Bounds: &models.Bounds{MinLat: -60, MinLon: -170, MaxLat: 60, MaxLon: 170},
	}

	// Ожидания: оценка размера сетки отклоняет запрос без обращения к БД
	repoMock.EXPECT().SelectPoints(gomock.Any(), gomock.Any()).Times(0)

	// Действие
	_, err := service.Hotspots(ctx, q)

	// Проверки
	require.Error(t, err)
	ve, ok := apperrors.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "bounds", ve.Fields[0].Field)
}

func TestHotspots_ScoreAndClassification(t *testing.T) {
	// Подготовка
	service, repoMock := newTestAnalyticsService(t)
	ctx := context.Background()
	// Плотная ячейка: 10 точек severity 4; редкая: 3 точки severity 1
	points := make([]models.IncidentPoint, 0, 13)
	for i := 0; i < 10; i++ {
		points = append(points, pt(55.7501, 37.6101, 4))
	}
	for i := 0; i < 3; i++ {
		points = append(points, pt(54.1001, 36.2001, 1))
	}
	q := models.HotspotQuery{
		TimeRange:    24 * time.Hour,
		GridSize:     100,
		MinIncidents: 3,
		MaxPoints:    100,
	}

	// Ожидания
	repoMock.EXPECT().SelectPoints(ctx, gomock.Any()).Return(points, nil).Times(1)

	// Действие
	hotspots, err := service.Hotspots(ctx, q)

	// Проверки
	require.NoError(t, err)
	require.Len(t, hotspots, 2)
	top := hotspots[0]
	// Плотная ячейка и первая по score, и с нормализацией ровно 1
	assert.Equal(t, 10, top.Count)
	assert.InDelta(t, 4.0, top.AvgSeverity, 1e-9)
	assert.InDelta(t, 40.0, top.Score, 1e-9)
	assert.InDelta(t, 1.0, top.Normalized, 1e-9)
	assert.Equal(t, "high", top.Significance)
	assert.Equal(t, "critical", top.RiskLevel)

	second := hotspots[1]
	assert.Equal(t, 3, second.Count)
	assert.Equal(t, "low", second.Significance)
	assert.Less(t, second.Normalized, top.Normalized)
}

func TestHotspots_MinIncidentsFiltersSparseCells(t *testing.T) {
	// Подготовка
	service, repoMock := newTestAnalyticsService(t)
	ctx := context.Background()
	points := []models.IncidentPoint{
		pt(55.75, 37.61, 3),
		pt(55.75, 37.61, 3),
		// Одиночная точка в другой ячейке
		pt(50.0, 30.0, 5),
	}
	q := models.HotspotQuery{
		TimeRange:    24 * time.Hour,
		GridSize:     100,
		MinIncidents: 2,
		MaxPoints:    100,
	}

	// Ожидания
	repoMock.EXPECT().SelectPoints(ctx, gomock.Any()).Return(points, nil).Times(1)

	// Действие
	hotspots, err := service.Hotspots(ctx, q)

	// Проверки
	require.NoError(t, err)
	require.Len(t, hotspots, 1)
	assert.Equal(t, 2, hotspots[0].Count)
}

func TestDensity_NormalizedGrid(t *testing.T) {
	// Подготовка
	service, repoMock := newTestAnalyticsService(t)
	ctx := context.Background()
	bounds := models.Bounds{MinLat: 55.0, MinLon: 37.0, MaxLat: 56.0, MaxLon: 38.0}
	points := []models.IncidentPoint{
		pt(55.05, 37.05, 2),
		pt(55.05, 37.05, 3),
		pt(55.95, 37.95, 1),
		// Точка вне bounds игнорируется
		pt(10.0, 10.0, 5),
	}
	q := models.DensityQuery{Bounds: bounds, Resolution: models.DensityLow, Normalize: true}

	// Ожидания
	repoMock.EXPECT().SelectPoints(ctx, gomock.Any()).Return(points, nil).Times(1)

	// Действие
	cells, err := service.Density(ctx, q)

	// Проверки
	require.NoError(t, err)
	require.Len(t, cells, 2)
	// Сортировка по убыванию count, максимум нормализован к 1
	assert.Equal(t, 2, cells[0].Count)
	assert.InDelta(t, 1.0, cells[0].Density, 1e-9)
	assert.Equal(t, 1, cells[1].Count)
	assert.InDelta(t, 0.5, cells[1].Density, 1e-9)
}

func TestDensity_InvalidBounds(t *testing.T) {
	// Подготовка
	service, repoMock := newTestAnalyticsService(t)
	ctx := context.Background()
	q := models.DensityQuery{
		Bounds: models.Bounds{MinLat: 56.0, MinLon: 37.0, MaxLat: 55.0, MaxLon: 38.0},
	}

	// Ожидания
	repoMock.EXPECT().SelectPoints(gomock.Any(), gomock.Any()).Times(0)

	// Действие
	_, err := service.Density(ctx, q)

	// Проверки
	require.Error(t, err)
	_, ok := apperrors.AsValidation(err)
	assert.True(t, ok)
}

func TestHeatmap_TimeRangeCapped(t *testing.T) {
	// Подготовка
	service, repoMock := newTestAnalyticsService(t)
	ctx := context.Background()
	q := models.HeatmapQuery{
		Bounds:    models.Bounds{MinLat: 55.0, MinLon: 37.0, MaxLat: 56.0, MaxLon: 38.0},
		GridSize:  50,
		TimeRange: 300 * time.Hour, // выше предела в неделю
	}

	// Ожидания
	repoMock.EXPECT().SelectPoints(gomock.Any(), gomock.Any()).Times(0)

	// Действие
	_, err := service.Heatmap(ctx, q)

	// Проверки
	require.Error(t, err)
	ve, ok := apperrors.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "time_range", ve.Fields[0].Field)
}

func TestHeatmap_IntensityIsCountTimesSeverity(t *testing.T) {
	// Подготовка
	service, repoMock := newTestAnalyticsService(t)
	ctx := context.Background()
	bounds := models.Bounds{MinLat: 55.0, MinLon: 37.0, MaxLat: 56.0, MaxLon: 38.0}
	points := []models.IncidentPoint{
		pt(55.01, 37.01, 2),
		pt(55.01, 37.01, 4),
	}
	q := models.HeatmapQuery{Bounds: bounds, GridSize: 50, TimeRange: 24 * time.Hour}

	// Ожидания
	repoMock.EXPECT().SelectPoints(ctx, gomock.Any()).Return(points, nil).Times(1)

	// Действие
	heatmap, err := service.Heatmap(ctx, q)

	// Проверки
	require.NoError(t, err)
	require.Len(t, heatmap, 1)
	assert.Equal(t, 2, heatmap[0].Count)
	assert.InDelta(t, 3.0, heatmap[0].Severity, 1e-9)
	assert.InDelta(t, 6.0, heatmap[0].Intensity, 1e-9)
}

func TestClusters_Summary(t *testing.T) {
	// Подготовка
	service, repoMock := newTestAnalyticsService(t)
	ctx := context.Background()
	clustered := []models.ClusteredPoint{
		{IncidentPoint: models.IncidentPoint{Latitude: 55.0, Longitude: 37.0, Severity: 2, Category: "accident"}, ClusterID: 0},
		{IncidentPoint: models.IncidentPoint{Latitude: 56.0, Longitude: 38.0, Severity: 4, Category: "roadworks"}, ClusterID: 0},
		{IncidentPoint: models.IncidentPoint{Latitude: 50.0, Longitude: 30.0, Severity: 5, Category: "accident"}, ClusterID: 1},
	}
	q := models.ClusterQuery{ClusterCount: 2}

	// Ожидания
	repoMock.EXPECT().ClusterPoints(ctx, gomock.Any(), 2).Return(clustered, nil).Times(1)

	// Действие
	clusters, err := service.Clusters(ctx, q)

	// Проверки
	require.NoError(t, err)
	require.Len(t, clusters, 2)
	// Больший кластер первым
	big := clusters[0]
	assert.Equal(t, 2, big.Count)
	assert.InDelta(t, 55.5, big.CenterLat, 1e-9)
	assert.InDelta(t, 37.5, big.CenterLon, 1e-9)
	assert.InDelta(t, 3.0, big.AvgSeverity, 1e-9)
	assert.Equal(t, 4, big.MaxSeverity)
	assert.Equal(t, []string{"accident", "roadworks"}, big.Categories)
}

func TestClusters_InvalidK(t *testing.T) {
	// Подготовка
	service, repoMock := newTestAnalyticsService(t)
	ctx := context.Background()

	// Ожидания
	repoMock.EXPECT().ClusterPoints(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	// Действие
	_, err := service.Clusters(ctx, models.ClusterQuery{ClusterCount: 1})

	// Проверки
	require.Error(t, err)
	_, ok := apperrors.AsValidation(err)
	assert.True(t, ok)
}
