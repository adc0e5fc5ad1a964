package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/trafficwatch/incident_geo_system/internal/apperrors"
	"github.com/trafficwatch/incident_geo_system/internal/models"
)

// ImpactZones строит геодезические буферы вокруг инцидентов, считает
// попарные перекрытия и риск; суммарная площадь - площадь геометрического
// объединения буферов, а не сумма
func (s *analyticsService) ImpactZones(ctx context.Context, q models.ImpactQuery) (*models.ImpactAnalysis, error) {
	if q.BufferMeters < 10 || q.BufferMeters > 5000 {
		return nil, apperrors.NewValidation("buffer_distance", "must be between 10 and 5000 meters")
	}

	log := s.logger.WithFields(logrus.Fields{
		"service": "analytics",
		"method":  "ImpactZones",
		"buffer":  q.BufferMeters,
	})

	ids := q.IncidentIDs
	if len(ids) == 0 {
		// По умолчанию - все инциденты за последние сутки
		var err error
		ids, err = s.repo.RecentIncidentIDs(ctx, s.now().Add(-24*time.Hour))
		if err != nil {
			log.WithError(err).Error("Failed to select recent incidents")
			return nil, fmt.Errorf("service: could not select recent incidents: %w", err)
		}
	}
	if len(ids) == 0 {
		return &models.ImpactAnalysis{Zones: []models.ImpactZone{}, BufferMeters: q.BufferMeters}, nil
	}

	zones, err := s.repo.BufferZones(ctx, ids, q.BufferMeters)
	if err != nil {
		log.WithError(err).Error("Failed to build buffer zones")
		return nil, fmt.Errorf("service: could not build buffer zones: %w", err)
	}

	overlaps, err := s.repo.BufferOverlaps(ctx, ids, q.BufferMeters)
	if err != nil {
		log.WithError(err).Error("Failed to compute buffer overlaps")
		return nil, fmt.Errorf("service: could not compute overlaps: %w", err)
	}

	unionArea, err := s.repo.UnionArea(ctx, ids, q.BufferMeters)
	if err != nil {
		log.WithError(err).Error("Failed to compute union area")
		return nil, fmt.Errorf("service: could not compute union area: %w", err)
	}

	analysis := assembleImpactAnalysis(zones, overlaps, unionArea, q.BufferMeters)
	log.WithFields(logrus.Fields{
		"zones":      len(analysis.Zones),
		"total_area": analysis.TotalAffectedAreaM2,
	}).Info("Impact zone analysis completed")
	return analysis, nil
}

// assembleImpactAnalysis раскладывает перекрытия по зонам и классифицирует риск
func assembleImpactAnalysis(zones []models.ImpactZone, overlaps []models.BufferOverlap, unionArea, bufferMeters float64) *models.ImpactAnalysis {
	byID := make(map[uuid.UUID]*models.ImpactZone, len(zones))
	for i := range zones {
		zones[i].OverlapsWith = []uuid.UUID{}
		byID[zones[i].IncidentID] = &zones[i]
	}

	for _, o := range overlaps {
		if a := byID[o.IncidentID]; a != nil {
			a.OverlapCount++
			a.OverlapAreaM2 += o.AreaM2
			a.OverlapsWith = append(a.OverlapsWith, o.OtherID)
		}
		if b := byID[o.OtherID]; b != nil {
			b.OverlapCount++
			b.OverlapAreaM2 += o.AreaM2
			b.OverlapsWith = append(b.OverlapsWith, o.IncidentID)
		}
	}

	for i := range zones {
		zones[i].RiskLevel = classifyImpactRisk(zones[i].OverlapCount, zones[i].Severity)
	}

	sort.Slice(zones, func(i, j int) bool {
		if zones[i].OverlapCount != zones[j].OverlapCount {
			return zones[i].OverlapCount > zones[j].OverlapCount
		}
		return zones[i].Severity > zones[j].Severity
	})

	return &models.ImpactAnalysis{
		Zones:               zones,
		TotalAffectedAreaM2: unionArea,
		BufferMeters:        bufferMeters,
	}
}

// classifyImpactRisk сочетает число перекрытий и severity
func classifyImpactRisk(overlapCount, severity int) string {
	switch {
	case overlapCount >= 3 && severity >= 4:
		return "critical"
	case overlapCount >= 2 || severity >= 4:
		return "high"
	case overlapCount >= 1 || severity >= 3:
		return "medium"
	default:
		return "low"
	}
}
