package realtime

import (
	"fmt"
	"math"
	"time"

	"github.com/trafficwatch/incident_geo_system/internal/models"
)

// EventType - тег события жизненного цикла инцидента
type EventType string

const (
	EventCreated   EventType = "incident_created"
	EventUpdated   EventType = "incident_updated"
	EventDeleted   EventType = "incident_deleted"
	EventVerified  EventType = "incident_verified"
	EventExpired   EventType = "incident_expired"
	EventVerifyAck EventType = "verification_ack"
)

// Event - событие, рассылаемое подписчикам. Timestamp сериализуется в ISO 8601.
type Event struct {
	Type          EventType           `json:"type"`
	Timestamp     time.Time           `json:"timestamp"`
	Incident      *models.Incident    `json:"incident,omitempty"`
	ChangedFields []string            `json:"changed_fields,omitempty"`
	Verification  *models.VerifyResult `json:"verification,omitempty"`

	// Адресат приватного канала; пустая строка - без приватной доставки.
	// Наружу не сериализуется.
	TargetUserID string `json:"-"`
	// Только приватная доставка, без глобального и регионального каналов
	PrivateOnly bool `json:"-"`
}

// Broadcaster - контракт рассылки событий, который потребляет оркестратор
type Broadcaster interface {
	Broadcast(ev Event)
}

// RegionID детерминированно выводит идентификатор грубой региональной
// ячейки из координат усечением до шага сетки. Два зрителя, чьи окна
// пересекают одну ячейку, всегда делят канал.
func RegionID(lat, lon, gridDegrees float64) string {
	if gridDegrees <= 0 {
		gridDegrees = 0.1
	}
	cellLat := math.Floor(lat/gridDegrees) * gridDegrees
	cellLon := math.Floor(lon/gridDegrees) * gridDegrees
	return fmt.Sprintf("region:%.4f:%.4f", cellLat, cellLon)
}

// RegionsForBounds возвращает все региональные ячейки, пересекающие область.
// Ограничено сверху, чтобы гигантский viewport не раздувал подписку.
func RegionsForBounds(b models.Bounds, gridDegrees float64, maxRegions int) []string {
	if gridDegrees <= 0 {
		gridDegrees = 0.1
	}
	regions := make([]string, 0)
	for lat := math.Floor(b.MinLat/gridDegrees) * gridDegrees; lat <= b.MaxLat; lat += gridDegrees {
		for lon := math.Floor(b.MinLon/gridDegrees) * gridDegrees; lon <= b.MaxLon; lon += gridDegrees {
			regions = append(regions, RegionID(lat, lon, gridDegrees))
			if maxRegions > 0 && len(regions) >= maxRegions {
				return regions
			}
		}
	}
	return regions
}
