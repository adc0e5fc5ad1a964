package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trafficwatch/incident_geo_system/internal/apperrors"
	"github.com/trafficwatch/incident_geo_system/internal/models"
	"go.uber.org/mock/gomock"
)

func cpt(typeID uuid.UUID, clusterID int, lat, lon float64, severity int, category string, created time.Time) models.ClusteredPoint {
	return models.ClusteredPoint{
		IncidentPoint: models.IncidentPoint{
			TypeID:    typeID,
			Category:  category,
			Severity:  severity,
			Latitude:  lat,
			Longitude: lon,
			CreatedAt: created,
		},
		ClusterID: clusterID,
	}
}

func samplePoints(typeID uuid.UUID, n int) []models.IncidentPoint {
	points := make([]models.IncidentPoint, n)
	for i := range points {
		points[i] = models.IncidentPoint{TypeID: typeID}
	}
	return points
}

func TestPredict_ValidationRejectsBadWindow(t *testing.T) {
	// Подготовка
	service, repoMock := newTestAnalyticsService(t)
	ctx := context.Background()

	// Ожидания
	repoMock.EXPECT().SelectPoints(gomock.Any(), gomock.Any()).Times(0)

	// Действие
	_, err := service.Predict(ctx, models.PredictionQuery{PredictionHours: 500, Confidence: 0.5, ClusterCount: 10})

	// Проверки
	require.Error(t, err)
	_, ok := apperrors.AsValidation(err)
	assert.True(t, ok)
}

func TestPredict_InsufficientData(t *testing.T) {
	// Подготовка
	service, repoMock := newTestAnalyticsService(t)
	ctx := context.Background()
	// Меньше порога PredictionMinSamples
	sample := samplePoints(uuid.New(), 12)

	// Ожидания: кластеризация не запускается
	repoMock.EXPECT().SelectPoints(ctx, gomock.Any()).Return(sample, nil).Times(1)
	repoMock.EXPECT().ClusterPoints(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	// Действие
	result, err := service.Predict(ctx, models.PredictionQuery{PredictionHours: 24, Confidence: 0.5, ClusterCount: 10})

	// Проверки: типизированный ответ, а не ошибка
	require.NoError(t, err)
	assert.False(t, result.Sufficient)
	assert.Equal(t, 12, result.SampleSize)
	assert.Equal(t, 50, result.RequiredSize)
	assert.Empty(t, result.Predictions)
}

func TestPredict_ClustersEachTypeSeparately(t *testing.T) {
	// Подготовка
	service, repoMock := newTestAnalyticsService(t)
	ctx := context.Background()
	now := service.now()

	categories := map[uuid.UUID]string{
		uuid.New(): "accident",
		uuid.New(): "roadworks",
		uuid.New(): "hazard",
	}
	sample := make([]models.IncidentPoint, 0, 60)
	for typeID := range categories {
		sample = append(sample, samplePoints(typeID, 20)...)
	}

	// Ожидания: кластеризация запускается отдельным проходом на каждый
	// тип из выборки, фильтр несет конкретный type_id
	clusterCalls := make(map[uuid.UUID]int)
	repoMock.EXPECT().SelectPoints(ctx, gomock.Any()).Return(sample, nil).Times(1)
	repoMock.EXPECT().
		ClusterPoints(ctx, gomock.Any(), 10).
		DoAndReturn(func(_ context.Context, f models.PointFilter, _ int) ([]models.ClusteredPoint, error) {
			require.NotNil(t, f.TypeID)
			clusterCalls[*f.TypeID]++
			history := make([]models.ClusteredPoint, 0, 5)
			for i := 0; i < 5; i++ {
				history = append(history, cpt(*f.TypeID, 0, 55.75, 37.61, 3, categories[*f.TypeID], now.Add(-time.Hour)))
			}
			return history, nil
		}).Times(3)

	// Действие
	result, err := service.Predict(ctx, models.PredictionQuery{PredictionHours: 24, Confidence: 0.5, ClusterCount: 10})

	// Проверки: каждый тип кластеризован ровно один раз и сохранил
	// собственный type_id в своем прогнозе
	require.NoError(t, err)
	require.Len(t, clusterCalls, 3)
	for typeID, calls := range clusterCalls {
		assert.Equal(t, 1, calls, "type %s clustered more than once", typeID)
	}
	require.Len(t, result.Predictions, 3)
	seenTypes := make(map[string]string)
	for _, p := range result.Predictions {
		seenTypes[p.TypeID] = p.Category
	}
	require.Len(t, seenTypes, 3)
	for typeID, category := range categories {
		assert.Equal(t, category, seenTypes[typeID.String()])
	}
}

func TestPredict_ScoresAndRanksClusters(t *testing.T) {
	// Подготовка
	service, repoMock := newTestAnalyticsService(t)
	ctx := context.Background()
	now := service.now()

	accidentType := uuid.New()
	roadworksType := uuid.New()
	sample := append(samplePoints(accidentType, 40), samplePoints(roadworksType, 20)...)

	// Тип accident: частый и свежий кластер, попадает в окно прогноза
	accidentHistory := make([]models.ClusteredPoint, 0, 30)
	for i := 0; i < 30; i++ {
		accidentHistory = append(accidentHistory, cpt(accidentType, 0, 55.75, 37.61, 3, "accident", now.Add(-time.Duration(i)*time.Hour)))
	}
	// Тип roadworks: редкий и старый кластер
	roadworksHistory := make([]models.ClusteredPoint, 0, 10)
	for i := 0; i < 10; i++ {
		roadworksHistory = append(roadworksHistory, cpt(roadworksType, 0, 50.0, 30.0, 2, "roadworks", now.AddDate(0, 0, -30)))
	}

	// Ожидания
	repoMock.EXPECT().SelectPoints(ctx, gomock.Any()).Return(sample, nil).Times(1)
	repoMock.EXPECT().
		ClusterPoints(ctx, gomock.Any(), 10).
		DoAndReturn(func(_ context.Context, f models.PointFilter, _ int) ([]models.ClusteredPoint, error) {
			require.NotNil(t, f.TypeID)
			switch *f.TypeID {
			case accidentType:
				return accidentHistory, nil
			case roadworksType:
				return roadworksHistory, nil
			}
			t.Fatalf("unexpected type filter %s", *f.TypeID)
			return nil, nil
		}).Times(2)

	// Действие
	result, err := service.Predict(ctx, models.PredictionQuery{PredictionHours: 24, Confidence: 0.5, ClusterCount: 10})

	// Проверки
	require.NoError(t, err)
	assert.True(t, result.Sufficient)
	require.Len(t, result.Predictions, 2)

	top := result.Predictions[0]
	assert.Equal(t, "accident", top.Category)
	assert.Equal(t, accidentType.String(), top.TypeID)
	assert.InDelta(t, 55.75, top.Latitude, 1e-9)
	assert.Equal(t, 30, top.SampleSize)
	assert.Equal(t, "high", top.Confidence)
	// Свежий кластер получает recency-буст против старого
	assert.Greater(t, top.Score, result.Predictions[1].Score)
	assert.Equal(t, roadworksType.String(), result.Predictions[1].TypeID)
	assert.Equal(t, "medium", result.Predictions[1].Confidence)
}

func TestPredict_LowFrequencyClustersFiltered(t *testing.T) {
	// Подготовка
	service, repoMock := newTestAnalyticsService(t)
	ctx := context.Background()
	now := service.now()
	accidentType := uuid.New()
	sample := samplePoints(accidentType, 60)

	history := make([]models.ClusteredPoint, 0, 100)
	for i := 0; i < 99; i++ {
		history = append(history, cpt(accidentType, 0, 55.75, 37.61, 3, "accident", now.Add(-time.Hour)))
	}
	// Одиночный выброс: частота 1% ниже порога confidence*0.05
	history = append(history, cpt(accidentType, 1, 50.0, 30.0, 5, "accident", now.Add(-time.Hour)))

	// Ожидания
	repoMock.EXPECT().SelectPoints(ctx, gomock.Any()).Return(sample, nil).Times(1)
	repoMock.EXPECT().ClusterPoints(ctx, gomock.Any(), 10).Return(history, nil).Times(1)

	// Действие
	result, err := service.Predict(ctx, models.PredictionQuery{PredictionHours: 24, Confidence: 1.0, ClusterCount: 10})

	// Проверки
	require.NoError(t, err)
	require.Len(t, result.Predictions, 1)
	assert.Equal(t, "accident", result.Predictions[0].Category)
	assert.Equal(t, 99, result.Predictions[0].SampleSize)
}

func TestClassifyPredictionConfidence(t *testing.T) {
	assert.Equal(t, "high", classifyPredictionConfidence(25))
	assert.Equal(t, "medium", classifyPredictionConfidence(12))
	assert.Equal(t, "low", classifyPredictionConfidence(4))
}
