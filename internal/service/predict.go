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

const (
	maxPredictions       = 20
	recencyWindow        = 7 * 24 * time.Hour
	recencyBoost         = 1.5
	matchingTimeBoost    = 2.0
	nonMatchingTimeBoost = 0.5
	predictionDamping    = 0.5
)

// Predict строит прогноз вероятных мест инцидентов на ближайшее окно.
// История за PredictionHistoryDays кластеризуется отдельно по каждому
// типу инцидента, каждый кластер профилируется по частоте, времени
// суток и дням недели, после чего прогнозы всех типов ранжируются вместе
func (s *analyticsService) Predict(ctx context.Context, q models.PredictionQuery) (*models.PredictionResult, error) {
	if q.PredictionHours < 1 || q.PredictionHours > 168 {
		return nil, apperrors.NewValidation("prediction_hours", "must be between 1 and 168")
	}
	if q.Confidence < 0.1 || q.Confidence > 1.0 {
		return nil, apperrors.NewValidation("confidence", "must be between 0.1 and 1.0")
	}
	if q.ClusterCount < 1 || q.ClusterCount > 50 {
		return nil, apperrors.NewValidation("cluster_count", "must be between 1 and 50")
	}

	log := s.logger.WithFields(logrus.Fields{
		"service": "analytics",
		"method":  "Predict",
		"hours":   q.PredictionHours,
	})

	now := s.now()

	// Порог достаточности данных считается по недавней выборке,
	// а не по всей истории: устаревшие данные не спасают прогноз
	sampleSince := now.AddDate(0, 0, -s.cfg.PredictionSampleDays)
	sample, err := s.repo.SelectPoints(ctx, models.PointFilter{Since: sampleSince})
	if err != nil {
		log.WithError(err).Error("Failed to sample recent incidents")
		return nil, fmt.Errorf("service: could not sample recent incidents: %w", err)
	}
	if len(sample) < s.cfg.PredictionMinSamples {
		log.WithField("sample_size", len(sample)).Info("Insufficient data for prediction")
		return &models.PredictionResult{
			Sufficient:   false,
			SampleSize:   len(sample),
			RequiredSize: s.cfg.PredictionMinSamples,
			Predictions:  []models.PredictedLocation{},
			GeneratedAt:  now,
		}, nil
	}

	// Смешивать типы в одном кластере нельзя: ДТП и дорожные работы
	// образуют разные пространственные паттерны. Каждый тип из выборки
	// кластеризуется своим проходом, частота считается от общей истории
	historySince := now.AddDate(0, 0, -s.cfg.PredictionHistoryDays)
	grouped := make([][]models.ClusteredPoint, 0, 8)
	total := 0
	for _, typeID := range distinctTypeIDs(sample) {
		typeID := typeID
		clustered, err := s.repo.ClusterPoints(ctx, models.PointFilter{Since: historySince, TypeID: &typeID}, q.ClusterCount)
		if err != nil {
			log.WithError(err).Error("Failed to cluster incident history")
			return nil, fmt.Errorf("service: could not cluster incident history: %w", err)
		}
		grouped = append(grouped, clustered)
		total += len(clustered)
	}

	targetHours, targetWeekdays := upcomingWindow(now, q.PredictionHours)
	minFrequency := q.Confidence * 0.05
	predictions := make([]models.PredictedLocation, 0)
	for _, clustered := range grouped {
		predictions = append(predictions, scoreClusters(clustered, total, now, targetHours, targetWeekdays, minFrequency)...)
	}
	sort.Slice(predictions, func(i, j int) bool {
		return predictions[i].Score > predictions[j].Score
	})
	if len(predictions) > maxPredictions {
		predictions = predictions[:maxPredictions]
	}

	log.WithFields(logrus.Fields{
		"sample_size": len(sample),
		"predictions": len(predictions),
	}).Info("Prediction completed")

	return &models.PredictionResult{
		Sufficient:   true,
		SampleSize:   len(sample),
		RequiredSize: s.cfg.PredictionMinSamples,
		Predictions:  predictions,
		GeneratedAt:  now,
	}, nil
}

type clusterProfile struct {
	count       int
	sumLat      float64
	sumLon      float64
	sumSeverity float64
	hours       map[int]int
	weekdays    map[time.Weekday]int
	categories  map[string]int
	typeIDs     map[uuid.UUID]int
	lastSeen    time.Time
}

// scoreClusters профилирует кластеры одного типа и оценивает каждый по
// формуле baseFreq * recency * avg(hourMatch, weekdayMatch) * damping.
// Частота считается от total - размера всей истории по всем типам,
// поэтому оценки разных типов сопоставимы. Кластеры с частотой ниже
// порога отбрасываются
func scoreClusters(points []models.ClusteredPoint, total int, now time.Time, targetHours map[int]struct{}, targetWeekdays map[time.Weekday]struct{}, minFrequency float64) []models.PredictedLocation {
	if total == 0 {
		return []models.PredictedLocation{}
	}

	profiles := make(map[int]*clusterProfile)
	for _, p := range points {
		prof := profiles[p.ClusterID]
		if prof == nil {
			prof = &clusterProfile{
				hours:      make(map[int]int),
				weekdays:   make(map[time.Weekday]int),
				categories: make(map[string]int),
				typeIDs:    make(map[uuid.UUID]int),
			}
			profiles[p.ClusterID] = prof
		}
		prof.count++
		prof.sumLat += p.Latitude
		prof.sumLon += p.Longitude
		prof.sumSeverity += float64(p.Severity)
		prof.hours[p.CreatedAt.Hour()]++
		prof.weekdays[p.CreatedAt.Weekday()]++
		prof.categories[p.Category]++
		prof.typeIDs[p.TypeID]++
		if p.CreatedAt.After(prof.lastSeen) {
			prof.lastSeen = p.CreatedAt
		}
	}

	predictions := make([]models.PredictedLocation, 0, len(profiles))
	for _, prof := range profiles {
		baseFreq := float64(prof.count) / float64(total)
		if baseFreq < minFrequency {
			continue
		}

		recency := 1.0
		if now.Sub(prof.lastSeen) <= recencyWindow {
			recency = recencyBoost
		}

		hourMatch := nonMatchingTimeBoost
		for h := range targetHours {
			if prof.hours[h] > 0 {
				hourMatch = matchingTimeBoost
				break
			}
		}
		weekdayMatch := nonMatchingTimeBoost
		for wd := range targetWeekdays {
			if prof.weekdays[wd] > 0 {
				weekdayMatch = matchingTimeBoost
				break
			}
		}

		score := baseFreq * recency * ((hourMatch + weekdayMatch) / 2.0) * predictionDamping

		predictions = append(predictions, models.PredictedLocation{
			Latitude:    prof.sumLat / float64(prof.count),
			Longitude:   prof.sumLon / float64(prof.count),
			Category:    dominantKey(prof.categories),
			TypeID:      dominantUUID(prof.typeIDs).String(),
			Score:       score,
			Confidence:  classifyPredictionConfidence(prof.count),
			SampleSize:  prof.count,
			AvgSeverity: prof.sumSeverity / float64(prof.count),
			ActiveHours: sortedHours(prof.hours),
			ActiveDays:  sortedWeekdays(prof.weekdays),
		})
	}
	return predictions
}

// distinctTypeIDs возвращает уникальные типы выборки в стабильном порядке
func distinctTypeIDs(points []models.IncidentPoint) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(points))
	ids := make([]uuid.UUID, 0, len(points))
	for _, p := range points {
		if _, ok := seen[p.TypeID]; ok {
			continue
		}
		seen[p.TypeID] = struct{}{}
		ids = append(ids, p.TypeID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// upcomingWindow перечисляет часы и дни недели внутри окна прогноза
func upcomingWindow(now time.Time, predictionHours int) (map[int]struct{}, map[time.Weekday]struct{}) {
	hours := make(map[int]struct{})
	weekdays := make(map[time.Weekday]struct{})
	for i := 0; i < predictionHours && i < 24*7; i++ {
		t := now.Add(time.Duration(i) * time.Hour)
		hours[t.Hour()] = struct{}{}
		weekdays[t.Weekday()] = struct{}{}
	}
	return hours, weekdays
}

func classifyPredictionConfidence(sampleSize int) string {
	switch {
	case sampleSize >= 20:
		return "high"
	case sampleSize >= 10:
		return "medium"
	default:
		return "low"
	}
}

func dominantKey(counts map[string]int) string {
	best, bestCount := "", -1
	for k, c := range counts {
		if c > bestCount || (c == bestCount && k < best) {
			best, bestCount = k, c
		}
	}
	return best
}

func dominantUUID(counts map[uuid.UUID]int) uuid.UUID {
	var best uuid.UUID
	bestCount := -1
	for k, c := range counts {
		if c > bestCount || (c == bestCount && k.String() < best.String()) {
			best, bestCount = k, c
		}
	}
	return best
}

func sortedHours(counts map[int]int) []int {
	out := make([]int, 0, len(counts))
	for h := range counts {
		out = append(out, h)
	}
	sort.Ints(out)
	return out
}

func sortedWeekdays(counts map[time.Weekday]int) []string {
	out := make([]string, 0, len(counts))
	for _, name := range weekdayOrder {
		for wd := range counts {
			if wd.String() == name {
				out = append(out, name)
			}
		}
	}
	return out
}
