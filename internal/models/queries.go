package models

import (
	"time"

	"github.com/google/uuid"
)

// RadiusQuery - параметры поиска инцидентов вокруг точки
type RadiusQuery struct {
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	TypeID       *uuid.UUID
	MinSeverity  int
	Page         int
	PageSize     int
	// "distance" (по умолчанию), "created_at" или "severity"
	Sort string
}

// PointFilter - общий фильтр аналитических выборок точек
type PointFilter struct {
	Bounds      *Bounds
	TypeID      *uuid.UUID
	Category    string
	MinSeverity int
	Since       time.Time
	Until       time.Time
	// 0 - без ограничения; выборка всегда упорядочена от новых к старым
	Limit      int
	ActiveOnly bool
}

// HotspotQuery - параметры анализа горячих точек
type HotspotQuery struct {
	TimeRange    time.Duration
	GridSize     int
	MinIncidents int
	MaxPoints    int
	Bounds       *Bounds
	TypeID       *uuid.UUID
}

// HeatmapQuery - параметры тепловой карты
type HeatmapQuery struct {
	Bounds      Bounds
	GridSize    int
	MinSeverity int
	TimeRange   time.Duration
}

// DensityResolution - именованное разрешение плотностной сетки
type DensityResolution string

const (
	DensityLow    DensityResolution = "low"
	DensityMedium DensityResolution = "medium"
	DensityHigh   DensityResolution = "high"
)

// GridSize переводит именованное разрешение в размер сетки
func (r DensityResolution) GridSize() int {
	switch r {
	case DensityLow:
		return 50
	case DensityHigh:
		return 200
	default:
		return 100
	}
}

// DensityQuery - параметры плотностной сетки
type DensityQuery struct {
	Bounds     Bounds
	Resolution DensityResolution
	Normalize  bool
}

// ClusterQuery - параметры кластеризации
type ClusterQuery struct {
	Bounds       *Bounds
	ClusterCount int
	MinSeverity  int
}

// ImpactQuery - параметры анализа зон воздействия
type ImpactQuery struct {
	IncidentIDs  []uuid.UUID
	BufferMeters float64
}

// TemporalGroupBy - гранулярность временных корзин
type TemporalGroupBy string

const (
	GroupByHour    TemporalGroupBy = "hour"
	GroupByDay     TemporalGroupBy = "day"
	GroupByWeekday TemporalGroupBy = "weekday"
	GroupByMonth   TemporalGroupBy = "month"
)

// TemporalQuery - параметры временного анализа
type TemporalQuery struct {
	TimeRange time.Duration
	GroupBy   TemporalGroupBy
	TypeID    *uuid.UUID
}

// PredictionQuery - параметры прогнозной модели
type PredictionQuery struct {
	PredictionHours int
	Confidence      float64
	ClusterCount    int
}
