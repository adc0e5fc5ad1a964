package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/trafficwatch/incident_geo_system/internal/apperrors"
	"github.com/trafficwatch/incident_geo_system/internal/models"
)

// Clusters разбивает отфильтрованные инциденты на k кластеров нативным
// примитивом хранилища и сводит по каждому центроид и статистику
func (s *analyticsService) Clusters(ctx context.Context, q models.ClusterQuery) ([]models.Cluster, error) {
	if q.ClusterCount < 2 || q.ClusterCount > 50 {
		return nil, apperrors.NewValidation("cluster_count", "must be between 2 and 50")
	}
	if q.Bounds != nil {
		if ve := validateBounds(*q.Bounds); ve != nil {
			return nil, ve
		}
	}

	log := s.logger.WithFields(logrus.Fields{
		"service": "analytics",
		"method":  "Clusters",
		"k":       q.ClusterCount,
	})

	filter := models.PointFilter{
		Bounds:      q.Bounds,
		MinSeverity: q.MinSeverity,
		ActiveOnly:  true,
	}
	points, err := s.repo.ClusterPoints(ctx, filter, q.ClusterCount)
	if err != nil {
		log.WithError(err).Error("Failed to cluster incidents")
		return nil, fmt.Errorf("service: could not cluster incidents: %w", err)
	}

	clusters := summarizeClusters(points)
	log.WithField("clusters", len(clusters)).Info("Clustering completed")
	return clusters, nil
}

// summarizeClusters сводит точки с номерами кластеров в map-ready сводки
func summarizeClusters(points []models.ClusteredPoint) []models.Cluster {
	type agg struct {
		sumLat, sumLon float64
		count          int
		sumSeverity    int
		maxSeverity    int
		categories     map[string]bool
	}

	byCluster := make(map[int]*agg)
	for _, p := range points {
		a := byCluster[p.ClusterID]
		if a == nil {
			a = &agg{categories: make(map[string]bool)}
			byCluster[p.ClusterID] = a
		}
		a.sumLat += p.Latitude
		a.sumLon += p.Longitude
		a.count++
		a.sumSeverity += p.Severity
		if p.Severity > a.maxSeverity {
			a.maxSeverity = p.Severity
		}
		a.categories[p.Category] = true
	}

	clusters := make([]models.Cluster, 0, len(byCluster))
	for id, a := range byCluster {
		categories := make([]string, 0, len(a.categories))
		for c := range a.categories {
			categories = append(categories, c)
		}
		sort.Strings(categories)

		clusters = append(clusters, models.Cluster{
			ClusterID:   id,
			CenterLat:   a.sumLat / float64(a.count),
			CenterLon:   a.sumLon / float64(a.count),
			Count:       a.count,
			AvgSeverity: float64(a.sumSeverity) / float64(a.count),
			MaxSeverity: a.maxSeverity,
			Categories:  categories,
		})
	}

	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].Count > clusters[j].Count
	})
	return clusters
}
