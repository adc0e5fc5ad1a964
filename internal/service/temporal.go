package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/trafficwatch/incident_geo_system/internal/apperrors"
	"github.com/trafficwatch/incident_geo_system/internal/models"
)

// Порядок дней недели для стабильного, равноотстоящего ряда
var weekdayOrder = []string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// TemporalPatterns группирует активные инциденты по временным корзинам
// и считает линейный тренд и изменчивость по каждой категории
func (s *analyticsService) TemporalPatterns(ctx context.Context, q models.TemporalQuery) ([]models.TemporalPattern, error) {
	switch q.GroupBy {
	case models.GroupByHour, models.GroupByDay, models.GroupByWeekday, models.GroupByMonth:
	default:
		return nil, apperrors.NewValidation("group_by", "must be one of: hour, day, weekday, month")
	}
	if q.TimeRange <= 0 {
		return nil, apperrors.NewValidation("time_range", "must be positive")
	}

	log := s.logger.WithFields(logrus.Fields{
		"service":  "analytics",
		"method":   "TemporalPatterns",
		"group_by": q.GroupBy,
	})

	filter := models.PointFilter{
		TypeID:     q.TypeID,
		Since:      s.now().Add(-q.TimeRange),
		ActiveOnly: true,
	}
	points, err := s.repo.SelectPoints(ctx, filter)
	if err != nil {
		log.WithError(err).Error("Failed to select points for temporal analysis")
		return nil, fmt.Errorf("service: could not select temporal points: %w", err)
	}

	patterns := buildTemporalPatterns(points, q.GroupBy)
	log.WithField("categories", len(patterns)).Info("Temporal analysis completed")
	return patterns, nil
}

// bucketKey переводит момент времени в ключ корзины выбранной гранулярности
func bucketKey(t time.Time, groupBy models.TemporalGroupBy) string {
	switch groupBy {
	case models.GroupByHour:
		return fmt.Sprintf("%02d:00", t.Hour())
	case models.GroupByWeekday:
		return t.Weekday().String()
	case models.GroupByMonth:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

type bucketAgg struct {
	count      int
	severities []float64
}

// buildTemporalPatterns - чистая сводка точек в корзины и тренды.
// Для weekday ряд всегда содержит все семь дней, включая нулевые:
// трендовая математика ниже предполагает полный равноотстоящий ряд.
func buildTemporalPatterns(points []models.IncidentPoint, groupBy models.TemporalGroupBy) []models.TemporalPattern {
	byCategory := make(map[string]map[string]*bucketAgg)
	for _, p := range points {
		key := bucketKey(p.CreatedAt, groupBy)
		if byCategory[p.Category] == nil {
			byCategory[p.Category] = make(map[string]*bucketAgg)
		}
		agg := byCategory[p.Category][key]
		if agg == nil {
			agg = &bucketAgg{}
			byCategory[p.Category][key] = agg
		}
		agg.count++
		agg.severities = append(agg.severities, float64(p.Severity))
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	patterns := make([]models.TemporalPattern, 0, len(categories))
	for _, category := range categories {
		buckets := byCategory[category]

		keys := make([]string, 0, len(buckets))
		if groupBy == models.GroupByWeekday {
			// Zero-fill: все семь дней присутствуют всегда
			keys = append(keys, weekdayOrder...)
		} else {
			for k := range buckets {
				keys = append(keys, k)
			}
			sort.Strings(keys)
		}

		total := 0
		for _, agg := range buckets {
			total += agg.count
		}

		series := make([]models.TemporalBucket, 0, len(keys))
		counts := make([]float64, 0, len(keys))
		avgSeverities := make([]float64, 0, len(keys))
		frequencies := make([]float64, 0, len(keys))
		for _, key := range keys {
			agg := buckets[key]
			bucket := models.TemporalBucket{Bucket: key}
			if agg != nil {
				bucket.Count = agg.count
				bucket.AvgSeverity = mean(agg.severities)
				bucket.StdDevSeverity = stdDev(agg.severities)
				if total > 0 {
					bucket.RelativeFrequency = float64(agg.count) / float64(total)
				}
			}
			series = append(series, bucket)
			counts = append(counts, float64(bucket.Count))
			avgSeverities = append(avgSeverities, bucket.AvgSeverity)
			frequencies = append(frequencies, bucket.RelativeFrequency)
		}

		trend := computeCategoryTrend(category, counts, avgSeverities, frequencies)
		patterns = append(patterns, models.TemporalPattern{
			Category: category,
			GroupBy:  string(groupBy),
			Buckets:  series,
			Trend:    trend,
		})
	}
	return patterns
}

// computeCategoryTrend считает наклоны МНК, изменчивость и значимость
func computeCategoryTrend(category string, counts, severities, frequencies []float64) models.CategoryTrend {
	trend := models.CategoryTrend{
		Category:            category,
		Trend:               olsSlope(counts),
		SeverityTrend:       olsSlope(severities),
		FrequencyTrend:      olsSlope(frequencies),
		CountVariability:    coefficientOfVariation(counts),
		SeverityVariability: coefficientOfVariation(severities),
		DataPoints:          len(counts),
	}
	trend.Significance = classifyTrendSignificance(trend.Trend, trend.CountVariability, trend.DataPoints)
	trend.Interpretation = interpretTrend(trend.Trend, trend.SeverityTrend)
	return trend
}

// classifyTrendSignificance присваивает ярус значимости тренда
func classifyTrendSignificance(trend, variability float64, dataPoints int) string {
	absTrend := math.Abs(trend)
	switch {
	case dataPoints < 5:
		return "insufficient-data"
	case absTrend < 0.1 && variability > 0.5:
		return "not-significant"
	case absTrend > 0.5 && variability < 0.3:
		return "highly-significant"
	case absTrend > 0.2:
		return "significant"
	default:
		return "moderate"
	}
}

// interpretTrend строит человекочитаемое описание из знаков наклонов
func interpretTrend(trend, severityTrend float64) string {
	direction := "stable"
	if trend > 0.05 {
		direction = "increasing"
	} else if trend < -0.05 {
		direction = "decreasing"
	}

	severity := "stable severity"
	if severityTrend > 0.05 {
		severity = "worsening severity"
	} else if severityTrend < -0.05 {
		severity = "improving severity"
	}

	return fmt.Sprintf("incident frequency is %s with %s", direction, severity)
}
