package v1

import (
	"time"

	"github.com/google/uuid"
)

// CreateIncidentRequest DTO для создания инцидента
// @Description DTO для создания инцидента
type CreateIncidentRequest struct {
	TypeID            string  `json:"type_id" validate:"required,uuid"`
	Description       string  `json:"description,omitempty" validate:"max=2000"`
	// Severity не ограничивается транспортом: допустимый диапазон
	// определяет тип инцидента
	Severity          *int    `json:"severity,omitempty"`
	Latitude          float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude         float64 `json:"longitude" validate:"min=-180,max=180"`
	Address           string  `json:"address,omitempty" validate:"max=500"`
	EstimatedDuration int     `json:"estimated_duration_minutes,omitempty" validate:"omitempty,gt=0"`
	LanesAffected     int     `json:"lanes_affected,omitempty" validate:"omitempty,min=0,max=16"`
}

// UpdateIncidentRequest DTO для частичного обновления инцидента.
// Отсутствующие поля не изменяются
// @Description DTO для частичного обновления инцидента
type UpdateIncidentRequest struct {
	Description       *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	// Диапазон severity проверяет тип инцидента, не транспорт
	Severity          *int    `json:"severity,omitempty"`
	Address           *string `json:"address,omitempty" validate:"omitempty,max=500"`
	EstimatedDuration *int    `json:"estimated_duration_minutes,omitempty" validate:"omitempty,gt=0"`
	LanesAffected     *int    `json:"lanes_affected,omitempty" validate:"omitempty,min=0,max=16"`
	Status            *string `json:"status,omitempty" validate:"omitempty,oneof=expired"`
}

// IncidentResponse DTO для ответа с информацией об инциденте
// @Description DTO для ответа с информацией об инциденте
type IncidentResponse struct {
	ID                uuid.UUID  `json:"id"`
	TypeID            uuid.UUID  `json:"type_id"`
	TypeName          string     `json:"type_name,omitempty"`
	Category          string     `json:"category,omitempty"`
	Description       string     `json:"description,omitempty"`
	Severity          int        `json:"severity"`
	Latitude          float64    `json:"latitude"`
	Longitude         float64    `json:"longitude"`
	Address           string     `json:"address,omitempty"`
	EstimatedDuration int        `json:"estimated_duration_minutes,omitempty"`
	LanesAffected     int        `json:"lanes_affected,omitempty"`
	Status            string     `json:"status"`
	VerificationCount int        `json:"verification_count"`
	IsVerified        bool       `json:"is_verified"`
	ReportedBy        string     `json:"reported_by"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	DistanceMeters    *float64   `json:"distance_meters,omitempty"`
}

// VerifyResponse DTO для результата подтверждения
// @Description DTO для результата подтверждения
type VerifyResponse struct {
	IncidentID        uuid.UUID `json:"incident_id"`
	VerificationCount int       `json:"verification_count"`
	IsVerified        bool      `json:"is_verified"`
}

// IncidentTypeResponse DTO для элемента справочника типов
// @Description DTO для элемента справочника типов
type IncidentTypeResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Category        string    `json:"category"`
	MinSeverity     int       `json:"min_severity"`
	MaxSeverity     int       `json:"max_severity"`
	DefaultSeverity int       `json:"default_severity"`
}

// StatsResponse DTO для ответа со статистикой
// @Description DTO для ответа со статистикой
type StatsResponse struct {
	ActiveCount   int `json:"active_count"`
	VerifiedCount int `json:"verified_count"`
	WindowMinutes int `json:"window_minutes"`
}

// ErrorResponse DTO для тела ошибки
// @Description DTO для тела ошибки
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// boundsParams - общие query-параметры прямоугольной области
type boundsParams struct {
	MinLat float64 `form:"min_lat" validate:"min=-90,max=90"`
	MinLon float64 `form:"min_lon" validate:"min=-180,max=180"`
	MaxLat float64 `form:"max_lat" validate:"min=-90,max=90"`
	MaxLon float64 `form:"max_lon" validate:"min=-180,max=180"`
}

// RadiusSearchParams - query-параметры поиска по радиусу
type RadiusSearchParams struct {
	Latitude     float64 `form:"lat" validate:"min=-90,max=90"`
	Longitude    float64 `form:"lon" validate:"min=-180,max=180"`
	RadiusMeters float64 `form:"radius" validate:"required,gt=0"`
	TypeID       string  `form:"type_id" validate:"omitempty,uuid"`
	MinSeverity  int     `form:"min_severity" validate:"omitempty,gte=1"`
	Page         int     `form:"page" validate:"omitempty,gte=1"`
	PageSize     int     `form:"page_size" validate:"omitempty,gte=1,lte=100"`
	Sort         string  `form:"sort" validate:"omitempty,oneof=distance created_at severity"`
}

// HotspotParams - query-параметры анализа горячих точек
type HotspotParams struct {
	boundsParams
	TimeRangeHours int    `form:"time_range_hours" validate:"omitempty,gte=1,lte=720"`
	GridSize       int    `form:"grid_size" validate:"omitempty,gte=10,lte=500"`
	MinIncidents   int    `form:"min_incidents" validate:"omitempty,gte=1,lte=50"`
	MaxPoints      int    `form:"max_points" validate:"omitempty,gte=10"`
	TypeID         string `form:"type_id" validate:"omitempty,uuid"`
}

// HeatmapParams - query-параметры тепловой карты
type HeatmapParams struct {
	boundsParams
	GridSize       int `form:"grid_size" validate:"omitempty,gte=10,lte=200"`
	MinSeverity    int `form:"min_severity" validate:"omitempty,gte=1"`
	TimeRangeHours int `form:"time_range_hours" validate:"omitempty,gte=1,lte=168"`
}

// DensityParams - query-параметры плотностной сетки
type DensityParams struct {
	boundsParams
	Resolution string `form:"resolution" validate:"omitempty,oneof=low medium high"`
	Normalize  bool   `form:"normalize"`
}

// ClusterParams - query-параметры кластеризации
type ClusterParams struct {
	boundsParams
	ClusterCount int `form:"clusters" validate:"omitempty,gte=2,lte=50"`
	MinSeverity  int `form:"min_severity" validate:"omitempty,gte=1"`
}

// ImpactZonesRequest DTO для анализа зон воздействия
// @Description DTO для анализа зон воздействия
type ImpactZonesRequest struct {
	IncidentIDs  []string `json:"incident_ids" validate:"omitempty,dive,uuid"`
	BufferMeters float64  `json:"buffer_meters" validate:"omitempty,gte=10,lte=5000"`
}

// TemporalParams - query-параметры временного анализа
type TemporalParams struct {
	TimeRangeHours int    `form:"time_range_hours" validate:"omitempty,gte=1,lte=2160"`
	GroupBy        string `form:"group_by" validate:"omitempty,oneof=hour day weekday month"`
	TypeID         string `form:"type_id" validate:"omitempty,uuid"`
}

// PredictionParams - query-параметры прогнозной модели
type PredictionParams struct {
	PredictionHours int     `form:"hours" validate:"omitempty,gte=1,lte=168"`
	Confidence      float64 `form:"confidence" validate:"omitempty,gte=0.1,lte=1.0"`
	ClusterCount    int     `form:"clusters" validate:"omitempty,gte=1,lte=50"`
}
