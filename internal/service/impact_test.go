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

func TestImpactZones_BufferOutOfRange(t *testing.T) {
	// Подготовка
	service, repoMock := newTestAnalyticsService(t)
	ctx := context.Background()

	// Ожидания
	repoMock.EXPECT().BufferZones(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	// Действие
	_, err := service.ImpactZones(ctx, models.ImpactQuery{BufferMeters: 9000})

	// Проверки
	require.Error(t, err)
	_, ok := apperrors.AsValidation(err)
	assert.True(t, ok)
}

func TestImpactZones_UnionAreaNotSum(t *testing.T) {
	// Подготовка
	service, repoMock := newTestAnalyticsService(t)
	ctx := context.Background()
	idA, idB := uuid.New(), uuid.New()
	ids := []uuid.UUID{idA, idB}
	zones := []models.ImpactZone{
		{IncidentID: idA, Severity: 4, BufferAreaM2: 780000},
		{IncidentID: idB, Severity: 2, BufferAreaM2: 780000},
	}
	overlaps := []models.BufferOverlap{
		{IncidentID: idA, OtherID: idB, AreaM2: 120000},
	}
	// Площадь объединения меньше суммы площадей буферов
	unionArea := 1440000.0

	// Ожидания
	repoMock.EXPECT().BufferZones(ctx, ids, 500.0).Return(zones, nil).Times(1)
	repoMock.EXPECT().BufferOverlaps(ctx, ids, 500.0).Return(overlaps, nil).Times(1)
	repoMock.EXPECT().UnionArea(ctx, ids, 500.0).Return(unionArea, nil).Times(1)

	// Действие
	analysis, err := service.ImpactZones(ctx, models.ImpactQuery{IncidentIDs: ids, BufferMeters: 500})

	// Проверки
	require.NoError(t, err)
	assert.InDelta(t, unionArea, analysis.TotalAffectedAreaM2, 1e-9)
	require.Len(t, analysis.Zones, 2)
	// Перекрытие учтено у обеих зон
	assert.Equal(t, 1, analysis.Zones[0].OverlapCount)
	assert.Equal(t, 1, analysis.Zones[1].OverlapCount)
	assert.Contains(t, analysis.Zones[0].OverlapsWith, idB)
	assert.Contains(t, analysis.Zones[1].OverlapsWith, idA)
	// При равных перекрытиях первой идет зона с большей severity
	assert.Equal(t, idA, analysis.Zones[0].IncidentID)
}

func TestImpactZones_DefaultsToRecentIncidents(t *testing.T) {
	// Подготовка
	service, repoMock := newTestAnalyticsService(t)
	ctx := context.Background()
	recent := []uuid.UUID{uuid.New()}
	zones := []models.ImpactZone{{IncidentID: recent[0], Severity: 1, BufferAreaM2: 1000}}

	// Ожидания: без явных id берутся инциденты за последние сутки
	repoMock.EXPECT().
		RecentIncidentIDs(ctx, gomock.Any()).
		DoAndReturn(func(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
			assert.Equal(t, service.now().Add(-24*time.Hour), since)
			return recent, nil
		}).Times(1)
	repoMock.EXPECT().BufferZones(ctx, recent, 200.0).Return(zones, nil).Times(1)
	repoMock.EXPECT().BufferOverlaps(ctx, recent, 200.0).Return(nil, nil).Times(1)
	repoMock.EXPECT().UnionArea(ctx, recent, 200.0).Return(1000.0, nil).Times(1)

	// Действие
	analysis, err := service.ImpactZones(ctx, models.ImpactQuery{BufferMeters: 200})

	// Проверки
	require.NoError(t, err)
	require.Len(t, analysis.Zones, 1)
	assert.Equal(t, "low", analysis.Zones[0].RiskLevel)
}

func TestImpactZones_EmptyWindow(t *testing.T) {
	// Подготовка
	service, repoMock := newTestAnalyticsService(t)
	ctx := context.Background()

	// Ожидания
	repoMock.EXPECT().RecentIncidentIDs(ctx, gomock.Any()).Return(nil, nil).Times(1)
	repoMock.EXPECT().BufferZones(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	// Действие
	analysis, err := service.ImpactZones(ctx, models.ImpactQuery{BufferMeters: 200})

	// Проверки
	require.NoError(t, err)
	assert.Empty(t, analysis.Zones)
	assert.Zero(t, analysis.TotalAffectedAreaM2)
}

func TestClassifyImpactRisk(t *testing.T) {
	cases := []struct {
		name         string
		overlapCount int
		severity     int
		want         string
	}{
		{"изолированная легкая зона", 0, 1, "low"},
		{"severity 3 без перекрытий", 0, 3, "medium"},
		{"одно перекрытие", 1, 2, "medium"},
		{"два перекрытия", 2, 2, "high"},
		{"тяжелая без перекрытий", 0, 4, "high"},
		{"плотный тяжелый узел", 3, 4, "critical"},
		{"плотный но легкий узел", 3, 2, "high"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classifyImpactRisk(tc.overlapCount, tc.severity))
		})
	}
}
