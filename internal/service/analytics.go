package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/trafficwatch/incident_geo_system/internal/apperrors"
	"github.com/trafficwatch/incident_geo_system/internal/config"
	"github.com/trafficwatch/incident_geo_system/internal/models"
)

// AnalyticsRepository определяет пространственные примитивы хранилища,
// которые оркеструет аналитический сервис
type AnalyticsRepository interface {
	SelectPoints(ctx context.Context, f models.PointFilter) ([]models.IncidentPoint, error)
	ClusterPoints(ctx context.Context, f models.PointFilter, k int) ([]models.ClusteredPoint, error)
	BufferZones(ctx context.Context, ids []uuid.UUID, meters float64) ([]models.ImpactZone, error)
	BufferOverlaps(ctx context.Context, ids []uuid.UUID, meters float64) ([]models.BufferOverlap, error)
	UnionArea(ctx context.Context, ids []uuid.UUID, meters float64) (float64, error)
	RecentIncidentIDs(ctx context.Context, since time.Time) ([]uuid.UUID, error)
}

// AnalyticsService определяет контракт производной аналитики по инцидентам
type AnalyticsService interface {
	Hotspots(ctx context.Context, q models.HotspotQuery) ([]models.Hotspot, error)
	Density(ctx context.Context, q models.DensityQuery) ([]models.DensityCell, error)
	Heatmap(ctx context.Context, q models.HeatmapQuery) ([]models.HeatmapPoint, error)
	Clusters(ctx context.Context, q models.ClusterQuery) ([]models.Cluster, error)
	ImpactZones(ctx context.Context, q models.ImpactQuery) (*models.ImpactAnalysis, error)
	TemporalPatterns(ctx context.Context, q models.TemporalQuery) ([]models.TemporalPattern, error)
	Predict(ctx context.Context, q models.PredictionQuery) (*models.PredictionResult, error)
}

type analyticsService struct {
	repo   AnalyticsRepository
	logger *logrus.Logger
	cfg    *config.Config
	// подменяется в тестах
	now func() time.Time
}

func NewAnalyticsService(repo AnalyticsRepository, logger *logrus.Logger, cfg *config.Config) AnalyticsService {
	return &analyticsService{
		repo:   repo,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Hotspots снапит активные инциденты на сетку с шагом 1/gridSize градуса,
// считает score = count * avgSeverity и классифицирует ячейки
func (s *analyticsService) Hotspots(ctx context.Context, q models.HotspotQuery) ([]models.Hotspot, error) {
	ve := &apperrors.ValidationError{}
	if q.GridSize < 10 || q.GridSize > 500 {
		ve.Add("grid_size", "must be between 10 and 500")
	}
	if q.MinIncidents < 1 || q.MinIncidents > 50 {
		ve.Add("min_incidents", "must be between 1 and 50")
	}
	if q.MaxPoints < 10 || q.MaxPoints > s.cfg.AnalyticsMaxPoints {
		ve.Add("max_points", fmt.Sprintf("must be between 10 and %d", s.cfg.AnalyticsMaxPoints))
	}
	// Защита от неограниченной работы: оценка числа ячеек до выполнения
	if q.Bounds != nil && !ve.HasErrors() {
		if cells := estimateCellCount(*q.Bounds, q.GridSize); cells > s.cfg.MaxGridCells {
			ve.Add("bounds", fmt.Sprintf("grid too large: estimated %d cells exceeds limit %d", cells, s.cfg.MaxGridCells))
		}
	}
	if ve.HasErrors() {
		return nil, ve
	}

	log := s.logger.WithFields(logrus.Fields{
		"service":   "analytics",
		"method":    "Hotspots",
		"grid_size": q.GridSize,
	})

	filter := models.PointFilter{
		Bounds:     q.Bounds,
		TypeID:     q.TypeID,
		Since:      s.now().Add(-q.TimeRange),
		Limit:      q.MaxPoints,
		ActiveOnly: true,
	}
	points, err := s.repo.SelectPoints(ctx, filter)
	if err != nil {
		log.WithError(err).Error("Failed to select points for hotspot analysis")
		return nil, fmt.Errorf("service: could not select hotspot points: %w", err)
	}

	hotspots := buildHotspots(points, q.GridSize, q.MinIncidents)
	log.WithField("hotspots", len(hotspots)).Info("Hotspot analysis completed")
	return hotspots, nil
}

// estimateCellCount оценивает число ячеек сетки для bounding box
func estimateCellCount(b models.Bounds, cellsPerDegree int) int {
	dLat := b.MaxLat - b.MinLat
	dLon := b.MaxLon - b.MinLon
	if dLat < 0 || dLon < 0 {
		return 0
	}
	return int(dLat*float64(cellsPerDegree)) * int(dLon*float64(cellsPerDegree))
}

type gridCell struct {
	latKey, lonKey int
	count          int
	sumSeverity    int
}

// buildHotspots агрегирует точки по ячейкам и классифицирует результат;
// вынесено в чистую функцию для тестируемости
func buildHotspots(points []models.IncidentPoint, cellsPerDegree, minIncidents int) []models.Hotspot {
	step := 1.0 / float64(cellsPerDegree)
	cells := make(map[[2]int]*gridCell)
	for _, p := range points {
		key := [2]int{gridIndex(p.Latitude, step), gridIndex(p.Longitude, step)}
		c := cells[key]
		if c == nil {
			c = &gridCell{latKey: key[0], lonKey: key[1]}
			cells[key] = c
		}
		c.count++
		c.sumSeverity += p.Severity
	}

	hotspots := make([]models.Hotspot, 0, len(cells))
	for _, c := range cells {
		if c.count < minIncidents {
			continue
		}
		avg := float64(c.sumSeverity) / float64(c.count)
		hotspots = append(hotspots, models.Hotspot{
			// Центроид ячейки
			Latitude:    (float64(c.latKey) + 0.5) * step,
			Longitude:   (float64(c.lonKey) + 0.5) * step,
			Count:       c.count,
			AvgSeverity: avg,
			SumSeverity: c.sumSeverity,
			Score:       float64(c.count) * avg,
		})
	}

	if len(hotspots) == 0 {
		return hotspots
	}

	// Нормализация к [0,1] по максимуму выборки
	maxScore := 0.0
	scores := make([]float64, len(hotspots))
	for i, h := range hotspots {
		scores[i] = h.Score
		if h.Score > maxScore {
			maxScore = h.Score
		}
	}
	m := mean(scores)
	sd := stdDev(scores)

	for i := range hotspots {
		h := &hotspots[i]
		if maxScore > 0 {
			h.Normalized = h.Score / maxScore
		}
		// Значимость по абсолютному количеству
		switch {
		case h.Count >= 10:
			h.Significance = "high"
		case h.Count >= 5:
			h.Significance = "medium"
		default:
			h.Significance = "low"
		}
		// Риск относительно среднего и отклонения выборки
		switch {
		case h.Score > m+sd:
			h.RiskLevel = "critical"
		case h.Score > m:
			h.RiskLevel = "high"
		default:
			h.RiskLevel = "moderate"
		}
	}

	sort.Slice(hotspots, func(i, j int) bool {
		return hotspots[i].Score > hotspots[j].Score
	})
	return hotspots
}

// Density строит регулярную сетку внутри bounding box; размер ячейки
// зависит от именованного разрешения
func (s *analyticsService) Density(ctx context.Context, q models.DensityQuery) ([]models.DensityCell, error) {
	ve := validateBounds(q.Bounds)
	if ve != nil {
		return nil, ve
	}

	log := s.logger.WithFields(logrus.Fields{
		"service":    "analytics",
		"method":     "Density",
		"resolution": q.Resolution,
	})

	filter := models.PointFilter{
		Bounds:     &q.Bounds,
		Limit:      s.cfg.AnalyticsMaxPoints,
		ActiveOnly: true,
	}
	points, err := s.repo.SelectPoints(ctx, filter)
	if err != nil {
		log.WithError(err).Error("Failed to select points for density grid")
		return nil, fmt.Errorf("service: could not select density points: %w", err)
	}

	cells := buildDensityGrid(points, q.Bounds, q.Resolution.GridSize(), q.Normalize)
	log.WithField("cells", len(cells)).Info("Density grid computed")
	return cells, nil
}

func validateBounds(b models.Bounds) *apperrors.ValidationError {
	ve := &apperrors.ValidationError{}
	if b.MinLat < -90 || b.MaxLat > 90 || b.MinLat >= b.MaxLat {
		ve.Add("bounds", "latitude range is invalid")
	}
	if b.MinLon < -180 || b.MaxLon > 180 || b.MinLon >= b.MaxLon {
		ve.Add("bounds", "longitude range is invalid")
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

// buildDensityGrid раскладывает точки по сетке gridSize x gridSize над bounds
func buildDensityGrid(points []models.IncidentPoint, b models.Bounds, gridSize int, normalize bool) []models.DensityCell {
	latStep := (b.MaxLat - b.MinLat) / float64(gridSize)
	lonStep := (b.MaxLon - b.MinLon) / float64(gridSize)
	if latStep <= 0 || lonStep <= 0 {
		return nil
	}

	counts := make(map[[2]int]int)
	for _, p := range points {
		if !b.Contains(p.Latitude, p.Longitude) {
			continue
		}
		row := int((p.Latitude - b.MinLat) / latStep)
		col := int((p.Longitude - b.MinLon) / lonStep)
		if row >= gridSize {
			row = gridSize - 1
		}
		if col >= gridSize {
			col = gridSize - 1
		}
		counts[[2]int{row, col}]++
	}

	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	cells := make([]models.DensityCell, 0, len(counts))
	for key, count := range counts {
		cell := models.DensityCell{
			Latitude:  b.MinLat + (float64(key[0])+0.5)*latStep,
			Longitude: b.MinLon + (float64(key[1])+0.5)*lonStep,
			Count:     count,
			Density:   float64(count),
		}
		if normalize && maxCount > 0 {
			cell.Density = float64(count) / float64(maxCount)
		}
		cells = append(cells, cell)
	}

	sort.Slice(cells, func(i, j int) bool {
		return cells[i].Count > cells[j].Count
	})
	return cells
}

// Heatmap отдает взвешенные точки для непрерывной раскраски; классификация
// значимости здесь не применяется
func (s *analyticsService) Heatmap(ctx context.Context, q models.HeatmapQuery) ([]models.HeatmapPoint, error) {
	ve := &apperrors.ValidationError{}
	if bve := validateBounds(q.Bounds); bve != nil {
		ve.Fields = append(ve.Fields, bve.Fields...)
	}
	if q.GridSize < 10 || q.GridSize > 200 {
		ve.Add("grid_size", "must be between 10 and 200")
	}
	if q.TimeRange <= 0 || q.TimeRange > 168*time.Hour {
		ve.Add("time_range", "must be between 1 and 168 hours")
	}
	if ve.HasErrors() {
		return nil, ve
	}

	log := s.logger.WithFields(logrus.Fields{
		"service": "analytics",
		"method":  "Heatmap",
	})

	filter := models.PointFilter{
		Bounds:      &q.Bounds,
		MinSeverity: q.MinSeverity,
		Since:       s.now().Add(-q.TimeRange),
		Limit:       s.cfg.AnalyticsMaxPoints,
		ActiveOnly:  true,
	}
	points, err := s.repo.SelectPoints(ctx, filter)
	if err != nil {
		log.WithError(err).Error("Failed to select points for heatmap")
		return nil, fmt.Errorf("service: could not select heatmap points: %w", err)
	}

	heatmap := buildHeatmap(points, q.Bounds, q.GridSize)
	log.WithField("points", len(heatmap)).Info("Heatmap computed")
	return heatmap, nil
}

// buildHeatmap агрегирует точки по мелкой сетке: intensity = count * avgSeverity
func buildHeatmap(points []models.IncidentPoint, b models.Bounds, gridSize int) []models.HeatmapPoint {
	latStep := (b.MaxLat - b.MinLat) / float64(gridSize)
	lonStep := (b.MaxLon - b.MinLon) / float64(gridSize)
	if latStep <= 0 || lonStep <= 0 {
		return nil
	}

	cells := make(map[[2]int]*gridCell)
	for _, p := range points {
		if !b.Contains(p.Latitude, p.Longitude) {
			continue
		}
		row := int((p.Latitude - b.MinLat) / latStep)
		col := int((p.Longitude - b.MinLon) / lonStep)
		if row >= gridSize {
			row = gridSize - 1
		}
		if col >= gridSize {
			col = gridSize - 1
		}
		key := [2]int{row, col}
		c := cells[key]
		if c == nil {
			c = &gridCell{latKey: row, lonKey: col}
			cells[key] = c
		}
		c.count++
		c.sumSeverity += p.Severity
	}

	result := make([]models.HeatmapPoint, 0, len(cells))
	for _, c := range cells {
		avg := float64(c.sumSeverity) / float64(c.count)
		result = append(result, models.HeatmapPoint{
			Latitude:  b.MinLat + (float64(c.latKey)+0.5)*latStep,
			Longitude: b.MinLon + (float64(c.lonKey)+0.5)*lonStep,
			Intensity: float64(c.count) * avg,
			Count:     c.count,
			Severity:  avg,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Intensity > result[j].Intensity
	})
	return result
}
