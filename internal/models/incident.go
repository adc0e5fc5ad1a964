package models

import (
	"time"

	"github.com/google/uuid"
)

// IncidentStatus - статус жизненного цикла инцидента
type IncidentStatus string

const (
	StatusActive  IncidentStatus = "active"
	StatusExpired IncidentStatus = "expired"
	StatusDeleted IncidentStatus = "deleted"
)

// CanTransition - единственная авторитетная функция переходов состояния.
// active -> expired, active -> deleted, expired -> deleted.
func (s IncidentStatus) CanTransition(to IncidentStatus) bool {
	switch s {
	case StatusActive:
		return to == StatusExpired || to == StatusDeleted
	case StatusExpired:
		return to == StatusDeleted
	}
	return false
}

// Incident представляет дорожный инцидент
type Incident struct {
	ID                uuid.UUID      `json:"id"`
	TypeID            uuid.UUID      `json:"type_id"`
	Description       string         `json:"description"`
	Severity          int            `json:"severity"`
	Latitude          float64        `json:"latitude"`
	Longitude         float64        `json:"longitude"`
	Address           string         `json:"address,omitempty"`
	EstimatedDuration int            `json:"estimated_duration_minutes,omitempty"`
	LanesAffected     int            `json:"lanes_affected"`
	Status            IncidentStatus `json:"status"`
	VerificationCount int            `json:"verification_count"`
	IsVerified        bool           `json:"is_verified"`
	ReportedBy        string         `json:"reported_by"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	ExpiresAt         *time.Time     `json:"expires_at,omitempty"`
	DeletedAt         *time.Time     `json:"deleted_at,omitempty"`

	// Заполняется join-ом при чтении, не колонка incidents
	TypeName string `json:"type_name,omitempty"`
	Category string `json:"category,omitempty"`
	// Дистанция до точки запроса в метрах, только для radius search
	DistanceMeters float64 `json:"distance_meters,omitempty"`
}

// EffectiveStatus учитывает авто-истечение по expires_at на момент чтения
func (i *Incident) EffectiveStatus(now time.Time) IncidentStatus {
	if i.Status == StatusActive && i.ExpiresAt != nil && i.ExpiresAt.Before(now) {
		return StatusExpired
	}
	return i.Status
}

// IncidentType - справочник типов инцидентов, диапазон severity типизирован
type IncidentType struct {
	ID                   uuid.UUID `json:"id"`
	Name                 string    `json:"name"`
	Category             string    `json:"category"`
	MinSeverity          int       `json:"min_severity"`
	MaxSeverity          int       `json:"max_severity"`
	DefaultSeverity      int       `json:"default_severity"`
	RequiresVerification bool      `json:"requires_verification"`
	AutoExpireMinutes    int       `json:"auto_expire_minutes,omitempty"`
	Icon                 string    `json:"icon,omitempty"`
	Color                string    `json:"color,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

// SeverityInRange проверяет, что severity лежит в диапазоне типа
func (t *IncidentType) SeverityInRange(severity int) bool {
	return severity >= t.MinSeverity && severity <= t.MaxSeverity
}

// VerificationRecord - подтверждение инцидента пользователем,
// не более одной записи на пару (incident, user)
type VerificationRecord struct {
	ID         int64     `json:"id"`
	IncidentID uuid.UUID `json:"incident_id"`
	UserID     string    `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// VerifyResult - результат применения подтверждения
type VerifyResult struct {
	IncidentID        uuid.UUID `json:"incident_id"`
	VerificationCount int       `json:"verification_count"`
	IsVerified        bool      `json:"is_verified"`
	// true только на переходе unverified -> verified
	JustPromoted bool `json:"-"`
}
