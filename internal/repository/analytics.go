package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/trafficwatch/incident_geo_system/internal/models"
	"github.com/trafficwatch/incident_geo_system/internal/service"
)

// AnalyticsRepository выполняет пространственные примитивы в PostGIS;
// агрегация и классификация остаются на сервисном слое
type AnalyticsRepository struct {
	db *pgxpool.Pool
}

func NewAnalyticsRepository(db *pgxpool.Pool) service.AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func pointFilterWhere(f models.PointFilter) (string, []any) {
	where := "1=1"
	args := make([]any, 0, 8)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ActiveOnly {
		where += " AND i.status = 'active'"
	} else {
		where += " AND i.status <> 'deleted'"
	}
	if !f.Since.IsZero() {
		where += " AND i.created_at >= " + arg(f.Since)
	}
	if !f.Until.IsZero() {
		where += " AND i.created_at < " + arg(f.Until)
	}
	if f.TypeID != nil {
		where += " AND i.type_id = " + arg(*f.TypeID)
	}
	if f.Category != "" {
		where += " AND t.category = " + arg(f.Category)
	}
	if f.MinSeverity > 0 {
		where += " AND i.severity >= " + arg(f.MinSeverity)
	}
	if f.Bounds != nil {
		where += fmt.Sprintf(
			" AND i.location::geometry && ST_MakeEnvelope(%s, %s, %s, %s, 4326)",
			arg(f.Bounds.MinLon), arg(f.Bounds.MinLat), arg(f.Bounds.MaxLon), arg(f.Bounds.MaxLat))
	}
	return where, args
}

// SelectPoints возвращает облегченные точки инцидентов под фильтром,
// от новых к старым, с ограничением сверху
func (r *AnalyticsRepository) SelectPoints(ctx context.Context, f models.PointFilter) ([]models.IncidentPoint, error) {
	where, args := pointFilterWhere(f)
	query := `
		SELECT i.id, i.type_id, t.category, i.severity,
			ST_Y(i.location::geometry), ST_X(i.location::geometry), i.created_at
		FROM incidents i
		JOIN incident_types t ON t.id = i.type_id
		WHERE ` + where + `
		ORDER BY i.created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapStoreErr("failed to select incident points", err)
	}
	defer rows.Close()

	points := make([]models.IncidentPoint, 0)
	for rows.Next() {
		var p models.IncidentPoint
		if err := rows.Scan(&p.ID, &p.TypeID, &p.Category, &p.Severity, &p.Latitude, &p.Longitude, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan incident point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr("error list iteration in SelectPoints", err)
	}
	return points, nil
}

// ClusterPoints разбивает отфильтрованные инциденты на k кластеров
// нативным ST_ClusterKMeans хранилища
func (r *AnalyticsRepository) ClusterPoints(ctx context.Context, f models.PointFilter, k int) ([]models.ClusteredPoint, error) {
	where, args := pointFilterWhere(f)
	args = append(args, k)
	query := fmt.Sprintf(`
		SELECT i.id, i.type_id, t.category, i.severity,
			ST_Y(i.location::geometry), ST_X(i.location::geometry), i.created_at,
			ST_ClusterKMeans(i.location::geometry, LEAST($%d, COUNT(*) OVER ())::int) OVER () AS cluster_id
		FROM incidents i
		JOIN incident_types t ON t.id = i.type_id
		WHERE %s;
	`, len(args), where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapSpatialErr("cluster query failed", err)
	}
	defer rows.Close()

	points := make([]models.ClusteredPoint, 0)
	for rows.Next() {
		var p models.ClusteredPoint
		if err := rows.Scan(&p.ID, &p.TypeID, &p.Category, &p.Severity, &p.Latitude, &p.Longitude, &p.CreatedAt, &p.ClusterID); err != nil {
			return nil, fmt.Errorf("failed to scan clustered point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr("error list iteration in ClusterPoints", err)
	}
	return points, nil
}

// BufferZones строит геодезический буфер вокруг каждого инцидента
// и возвращает зону с площадью в квадратных метрах
func (r *AnalyticsRepository) BufferZones(ctx context.Context, ids []uuid.UUID, meters float64) ([]models.ImpactZone, error) {
	query := `
		SELECT i.id, i.severity, t.category,
			ST_Y(i.location::geometry), ST_X(i.location::geometry),
			ST_Area(ST_Buffer(i.location, $2))
		FROM incidents i
		JOIN incident_types t ON t.id = i.type_id
		WHERE i.id = ANY($1) AND i.status <> 'deleted';
	`
	rows, err := r.db.Query(ctx, query, ids, meters)
	if err != nil {
		return nil, wrapSpatialErr("buffer query failed", err)
	}
	defer rows.Close()

	zones := make([]models.ImpactZone, 0, len(ids))
	for rows.Next() {
		var z models.ImpactZone
		if err := rows.Scan(&z.IncidentID, &z.Severity, &z.Category, &z.Latitude, &z.Longitude, &z.BufferAreaM2); err != nil {
			return nil, fmt.Errorf("failed to scan impact zone: %w", err)
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr("error list iteration in BufferZones", err)
	}
	return zones, nil
}

// BufferOverlaps возвращает пары инцидентов с пересекающимися буферами
// и площадь каждого пересечения
func (r *AnalyticsRepository) BufferOverlaps(ctx context.Context, ids []uuid.UUID, meters float64) ([]models.BufferOverlap, error) {
	query := `
		SELECT a.id, b.id,
			ST_Area(ST_Intersection(ST_Buffer(a.location, $2), ST_Buffer(b.location, $2)))
		FROM incidents a
		JOIN incidents b ON a.id < b.id
		WHERE a.id = ANY($1) AND b.id = ANY($1)
			AND ST_Intersects(ST_Buffer(a.location, $2), ST_Buffer(b.location, $2));
	`
	rows, err := r.db.Query(ctx, query, ids, meters)
	if err != nil {
		return nil, wrapSpatialErr("overlap query failed", err)
	}
	defer rows.Close()

	overlaps := make([]models.BufferOverlap, 0)
	for rows.Next() {
		var o models.BufferOverlap
		if err := rows.Scan(&o.IncidentID, &o.OtherID, &o.AreaM2); err != nil {
			return nil, fmt.Errorf("failed to scan buffer overlap: %w", err)
		}
		overlaps = append(overlaps, o)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr("error list iteration in BufferOverlaps", err)
	}
	return overlaps, nil
}

// UnionArea считает площадь геометрического объединения буферов.
// Именно объединение, а не сумма площадей: перекрытия не должны
// учитываться дважды.
func (r *AnalyticsRepository) UnionArea(ctx context.Context, ids []uuid.UUID, meters float64) (float64, error) {
	query := `
		SELECT COALESCE(ST_Area(ST_Union(ST_Buffer(location, $2)::geometry)::geography), 0)
		FROM incidents
		WHERE id = ANY($1) AND status <> 'deleted';
	`
	var area float64
	if err := r.db.QueryRow(ctx, query, ids, meters).Scan(&area); err != nil {
		return 0, wrapSpatialErr("union area query failed", err)
	}
	return area, nil
}

// RecentIncidentIDs возвращает id инцидентов не старше since
func (r *AnalyticsRepository) RecentIncidentIDs(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT id FROM incidents
		WHERE status = 'active' AND created_at >= $1
		ORDER BY created_at DESC;
	`
	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, wrapStoreErr("failed to select recent incident ids", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan incident id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr("error list iteration in RecentIncidentIDs", err)
	}
	return ids, nil
}
