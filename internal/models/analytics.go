package models

import (
	"time"

	"github.com/google/uuid"
)

// Bounds - прямоугольная область карты
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Contains проверяет попадание точки в область
func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// IncidentPoint - облегченная проекция инцидента для аналитических выборок
type IncidentPoint struct {
	ID        uuid.UUID `json:"id"`
	TypeID    uuid.UUID `json:"type_id"`
	Category  string    `json:"category"`
	Severity  int       `json:"severity"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
}

// Hotspot - ячейка сетки с агрегатами и классификацией значимости
type Hotspot struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Count        int     `json:"count"`
	AvgSeverity  float64 `json:"avg_severity"`
	SumSeverity  int     `json:"sum_severity"`
	Score        float64 `json:"score"`
	Normalized   float64 `json:"normalized_score"`
	Significance string  `json:"significance"`
	RiskLevel    string  `json:"risk_level"`
}

// HeatmapPoint - взвешенная точка для непрерывной раскраски карты
type HeatmapPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Intensity float64 `json:"intensity"`
	Count     int     `json:"count"`
	Severity  float64 `json:"severity"`
}

// DensityCell - ячейка плотностной сетки
type DensityCell struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Count     int     `json:"count"`
	Density   float64 `json:"density"`
}

// Cluster - результат кластеризации за один запрос, не персистится
type Cluster struct {
	ClusterID   int      `json:"cluster_id"`
	CenterLat   float64  `json:"center_lat"`
	CenterLon   float64  `json:"center_lon"`
	Count       int      `json:"count"`
	AvgSeverity float64  `json:"avg_severity"`
	MaxSeverity int      `json:"max_severity"`
	Categories  []string `json:"categories"`
}

// ClusteredPoint - строка из ST_ClusterKMeans с номером кластера
type ClusteredPoint struct {
	IncidentPoint
	ClusterID int `json:"cluster_id"`
}

// ImpactZone - буферная зона инцидента с перекрытиями
type ImpactZone struct {
	IncidentID    uuid.UUID   `json:"incident_id"`
	Severity      int         `json:"severity"`
	Category      string      `json:"category"`
	Latitude      float64     `json:"latitude"`
	Longitude     float64     `json:"longitude"`
	BufferAreaM2  float64     `json:"buffer_area_m2"`
	OverlapCount  int         `json:"overlap_count"`
	OverlapAreaM2 float64     `json:"overlap_area_m2"`
	OverlapsWith  []uuid.UUID `json:"overlaps_with"`
	RiskLevel     string      `json:"risk_level"`
}

// ImpactAnalysis - итог запроса impact-zones
type ImpactAnalysis struct {
	Zones []ImpactZone `json:"zones"`
	// Площадь геометрического объединения всех буферов, не сумма
	TotalAffectedAreaM2 float64 `json:"total_affected_area_m2"`
	BufferMeters        float64 `json:"buffer_meters"`
}

// BufferOverlap - пара пересекающихся буферов из хранилища
type BufferOverlap struct {
	IncidentID uuid.UUID `json:"incident_id"`
	OtherID    uuid.UUID `json:"other_id"`
	AreaM2     float64   `json:"area_m2"`
}

// TemporalBucket - агрегат одной временной корзины
type TemporalBucket struct {
	Bucket         string  `json:"bucket"`
	Count          int     `json:"count"`
	AvgSeverity    float64 `json:"avg_severity"`
	StdDevSeverity float64 `json:"stddev_severity"`
	// Доля корзины внутри своей категории
	RelativeFrequency float64 `json:"relative_frequency"`
}

// CategoryTrend - линейный тренд и изменчивость по категории
type CategoryTrend struct {
	Category           string  `json:"category"`
	Trend              float64 `json:"trend"`
	SeverityTrend      float64 `json:"severity_trend"`
	FrequencyTrend     float64 `json:"frequency_trend"`
	CountVariability   float64 `json:"count_variability"`
	SeverityVariability float64 `json:"severity_variability"`
	Significance       string  `json:"significance"`
	Interpretation     string  `json:"interpretation"`
	DataPoints         int     `json:"data_points"`
}

// TemporalPattern - итог temporal-patterns по одной категории
type TemporalPattern struct {
	Category string           `json:"category"`
	GroupBy  string           `json:"group_by"`
	Buckets  []TemporalBucket `json:"buckets"`
	Trend    CategoryTrend    `json:"trend"`
}

// PredictedLocation - одна прогнозная точка
type PredictedLocation struct {
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Category    string   `json:"category"`
	TypeID      string   `json:"type_id"`
	Score       float64  `json:"score"`
	Confidence  string   `json:"confidence"`
	SampleSize  int      `json:"sample_size"`
	AvgSeverity float64  `json:"avg_severity"`
	ActiveHours []int    `json:"active_hours"`
	ActiveDays  []string `json:"active_days"`
}

// PredictionResult - итог predictive; при нехватке истории Sufficient=false
// и Predictions пуст, это типизированный ответ, а не ошибка
type PredictionResult struct {
	Sufficient   bool                `json:"sufficient_data"`
	SampleSize   int                 `json:"sample_size"`
	RequiredSize int                 `json:"required_size"`
	Predictions  []PredictedLocation `json:"predictions"`
	GeneratedAt  time.Time           `json:"generated_at"`
}

// StatsSummary - сводка для админского /stats
type StatsSummary struct {
	ActiveCount   int `json:"active_count"`
	VerifiedCount int `json:"verified_count"`
	WindowMinutes int `json:"window_minutes"`
}
