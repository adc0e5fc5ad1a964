package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trafficwatch/incident_geo_system/internal/apperrors"
	"github.com/trafficwatch/incident_geo_system/internal/models"
	"go.uber.org/mock/gomock"
)

func tpt(created time.Time, category string, severity int) models.IncidentPoint {
	return models.IncidentPoint{Category: category, Severity: severity, CreatedAt: created}
}

func TestTemporalPatterns_InvalidGroupBy(t *testing.T) {
	// Подготовка
	service, repoMock := newTestAnalyticsService(t)
	ctx := context.Background()

	// Ожидания
	repoMock.EXPECT().SelectPoints(gomock.Any(), gomock.Any()).Times(0)

	// Действие
	_, err := service.TemporalPatterns(ctx, models.TemporalQuery{TimeRange: time.Hour, GroupBy: "quarter"})

	// Проверки
	require.Error(t, err)
	_, ok := apperrors.AsValidation(err)
	assert.True(t, ok)
}

func TestTemporalPatterns_WeekdayAlwaysSevenBuckets(t *testing.T) {
	// Подготовка
	service, repoMock := newTestAnalyticsService(t)
	ctx := context.Background()
	monday := time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC)
	points := []models.IncidentPoint{
		tpt(monday, "accident", 3),
		tpt(monday, "accident", 5),
		tpt(monday.AddDate(0, 0, 4), "accident", 2), // пятница
	}
	q := models.TemporalQuery{TimeRange: 14 * 24 * time.Hour, GroupBy: models.GroupByWeekday}

	// Ожидания
	repoMock.EXPECT().SelectPoints(ctx, gomock.Any()).Return(points, nil).Times(1)

	// Действие
	patterns, err := service.TemporalPatterns(ctx, q)

	// Проверки
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	buckets := patterns[0].Buckets
	// Все семь дней присутствуют, включая пустые
	require.Len(t, buckets, 7)
	assert.Equal(t, "Sunday", buckets[0].Bucket)
	assert.Equal(t, "Saturday", buckets[6].Bucket)

	byDay := make(map[string]models.TemporalBucket)
	for _, b := range buckets {
		byDay[b.Bucket] = b
	}
	assert.Equal(t, 2, byDay["Monday"].Count)
	assert.InDelta(t, 4.0, byDay["Monday"].AvgSeverity, 1e-9)
	assert.Equal(t, 1, byDay["Friday"].Count)
	assert.Equal(t, 0, byDay["Tuesday"].Count)
	// Относительные частоты в сумме дают единицу
	total := 0.0
	for _, b := range buckets {
		total += b.RelativeFrequency
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestTemporalPatterns_PerCategorySplit(t *testing.T) {
	// Подготовка
	service, repoMock := newTestAnalyticsService(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 16, 8, 0, 0, 0, time.UTC)
	points := []models.IncidentPoint{
		tpt(base, "accident", 3),
		tpt(base.Add(time.Hour), "roadworks", 2),
	}
	q := models.TemporalQuery{TimeRange: 24 * time.Hour, GroupBy: models.GroupByHour}

	// Ожидания
	repoMock.EXPECT().SelectPoints(ctx, gomock.Any()).Return(points, nil).Times(1)

	// Действие
	patterns, err := service.TemporalPatterns(ctx, q)

	// Проверки
	require.NoError(t, err)
	require.Len(t, patterns, 2)
	// Категории отсортированы по алфавиту
	assert.Equal(t, "accident", patterns[0].Category)
	assert.Equal(t, "roadworks", patterns[1].Category)
	assert.Equal(t, "08:00", patterns[0].Buckets[0].Bucket)
}

func TestClassifyTrendSignificance(t *testing.T) {
	cases := []struct {
		name        string
		trend       float64
		variability float64
		dataPoints  int
		want        string
	}{
		{"мало точек", 1.0, 0.1, 3, "insufficient-data"},
		{"плоско и шумно", 0.05, 0.8, 10, "not-significant"},
		{"крутой стабильный тренд", 0.7, 0.2, 10, "highly-significant"},
		{"заметный тренд", 0.3, 0.6, 10, "significant"},
		{"все остальное", 0.15, 0.4, 10, "moderate"},
		{"отрицательный крутой", -0.7, 0.2, 10, "highly-significant"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classifyTrendSignificance(tc.trend, tc.variability, tc.dataPoints))
		})
	}
}

func TestInterpretTrend(t *testing.T) {
	assert.Equal(t, "incident frequency is increasing with worsening severity", interpretTrend(0.4, 0.2))
	assert.Equal(t, "incident frequency is decreasing with improving severity", interpretTrend(-0.4, -0.2))
	assert.Equal(t, "incident frequency is stable with stable severity", interpretTrend(0.0, 0.0))
}

func TestOlsSlope(t *testing.T) {
	// Идеальная прямая y = 2x
	assert.InDelta(t, 2.0, olsSlope([]float64{0, 2, 4, 6}), 1e-9)
	// Константа - нулевой наклон
	assert.InDelta(t, 0.0, olsSlope([]float64{5, 5, 5}), 1e-9)
	// Вырожденные ряды
	assert.Zero(t, olsSlope(nil))
	assert.Zero(t, olsSlope([]float64{1}))
}

func TestCoefficientOfVariation(t *testing.T) {
	assert.InDelta(t, 0.0, coefficientOfVariation([]float64{3, 3, 3}), 1e-9)
	assert.Zero(t, coefficientOfVariation([]float64{0, 0}))
	assert.Greater(t, coefficientOfVariation([]float64{1, 10}), coefficientOfVariation([]float64{9, 10}))
}
