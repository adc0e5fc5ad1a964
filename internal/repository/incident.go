package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/trafficwatch/incident_geo_system/internal/apperrors"
	"github.com/trafficwatch/incident_geo_system/internal/models"
	"github.com/trafficwatch/incident_geo_system/internal/service"
)

const incidentColumns = `
	i.id,
	i.type_id,
	i.description,
	i.severity,
	ST_Y(i.location::geometry) AS latitude,
	ST_X(i.location::geometry) AS longitude,
	COALESCE(i.address, ''),
	COALESCE(i.estimated_duration_minutes, 0),
	i.lanes_affected,
	i.status,
	i.verification_count,
	i.is_verified,
	i.reported_by,
	i.created_at,
	i.updated_at,
	i.expires_at,
	i.deleted_at,
	t.name AS type_name,
	t.category`

type IncidentRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
}

func NewIncidentRepository(db *pgxpool.Pool, redisClient *redis.Client) service.IncidentRepository {
	return &IncidentRepository{
		db:          db,
		redisClient: redisClient,
	}
}

func scanIncident(row pgx.Row) (*models.Incident, error) {
	incident := &models.Incident{}
	err := row.Scan(
		&incident.ID,
		&incident.TypeID,
		&incident.Description,
		&incident.Severity,
		&incident.Latitude,
		&incident.Longitude,
		&incident.Address,
		&incident.EstimatedDuration,
		&incident.LanesAffected,
		&incident.Status,
		&incident.VerificationCount,
		&incident.IsVerified,
		&incident.ReportedBy,
		&incident.CreatedAt,
		&incident.UpdatedAt,
		&incident.ExpiresAt,
		&incident.DeletedAt,
		&incident.TypeName,
		&incident.Category,
	)
	if err != nil {
		return nil, err
	}
	return incident, nil
}

// Create создает новую запись об инциденте в бд
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	query := `
		INSERT INTO incidents
			(type_id, description, severity, location, address,
			 estimated_duration_minutes, lanes_affected, status, reported_by, expires_at)
		VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326), NULLIF($6, ''),
			NULLIF($7, 0), $8, $9, $10, $11)
		RETURNING id, created_at, updated_at;
	`
	err := r.db.QueryRow(ctx, query,
		incident.TypeID,
		incident.Description,
		incident.Severity,
		incident.Longitude,
		incident.Latitude,
		incident.Address,
		incident.EstimatedDuration,
		incident.LanesAffected,
		incident.Status,
		incident.ReportedBy,
		incident.ExpiresAt,
	).Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt)
	if err != nil {
		return wrapStoreErr("failed to create incident", err)
	}
	return nil
}

// GetByID возвращает инцидент по его UUID вместе с данными типа
func (r *IncidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	query := `
		SELECT ` + incidentColumns + `
		FROM incidents i
		JOIN incident_types t ON t.id = i.type_id
		WHERE i.id = $1;
	`
	incident, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, wrapStoreErr("failed to get incident by id", err)
	}
	return incident, nil
}

// Update записывает допускаемые к изменению поля инцидента
func (r *IncidentRepository) Update(ctx context.Context, incident *models.Incident) error {
	query := `
		UPDATE incidents SET
			description = $1,
			severity = $2,
			address = NULLIF($3, ''),
			estimated_duration_minutes = NULLIF($4, 0),
			lanes_affected = $5,
			status = $6,
			updated_at = NOW()
		WHERE id = $7 AND status <> 'deleted';
	`
	cmdTag, err := r.db.Exec(ctx, query,
		incident.Description,
		incident.Severity,
		incident.Address,
		incident.EstimatedDuration,
		incident.LanesAffected,
		incident.Status,
		incident.ID,
	)
	if err != nil {
		return wrapStoreErr("failed to update incident", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("incident %s for update: %w", incident.ID, apperrors.ErrNotFound)
	}
	return nil
}

// SoftDelete помечает инцидент удаленным, физического удаления нет
func (r *IncidentRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE incidents SET
			status = 'deleted',
			deleted_at = NOW(),
			updated_at = NOW()
		WHERE id = $1 AND status <> 'deleted';
	`
	cmdTag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return wrapStoreErr("failed to soft-delete incident", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("incident %s for delete: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// SearchRadius находит активные инциденты вокруг точки; по умолчанию
// результат упорядочен по дистанции
func (r *IncidentRepository) SearchRadius(ctx context.Context, q models.RadiusQuery) ([]*models.Incident, error) {
	orderBy := "distance_meters ASC"
	switch q.Sort {
	case "created_at":
		orderBy = "i.created_at DESC"
	case "severity":
		orderBy = "i.severity DESC"
	}

	offset := (q.Page - 1) * q.PageSize
	query := `
		SELECT ` + incidentColumns + `,
			ST_Distance(i.location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) AS distance_meters
		FROM incidents i
		JOIN incident_types t ON t.id = i.type_id
		WHERE
			i.status = 'active'
			AND ST_DWithin(i.location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
			AND ($4::uuid IS NULL OR i.type_id = $4)
			AND i.severity >= $5
		ORDER BY ` + orderBy + `
		LIMIT $6 OFFSET $7;
	`
	rows, err := r.db.Query(ctx, query,
		q.Longitude, q.Latitude, q.RadiusMeters, q.TypeID, q.MinSeverity, q.PageSize, offset)
	if err != nil {
		return nil, wrapStoreErr("failed to search incidents by radius", err)
	}
	defer rows.Close()

	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		incident := &models.Incident{}
		err := rows.Scan(
			&incident.ID,
			&incident.TypeID,
			&incident.Description,
			&incident.Severity,
			&incident.Latitude,
			&incident.Longitude,
			&incident.Address,
			&incident.EstimatedDuration,
			&incident.LanesAffected,
			&incident.Status,
			&incident.VerificationCount,
			&incident.IsVerified,
			&incident.ReportedBy,
			&incident.CreatedAt,
			&incident.UpdatedAt,
			&incident.ExpiresAt,
			&incident.DeletedAt,
			&incident.TypeName,
			&incident.Category,
			&incident.DistanceMeters,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row in SearchRadius: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr("error list iteration in SearchRadius", err)
	}
	return incidents, nil
}

// ApplyVerification атомарно записывает подтверждение и инкрементирует
// счетчик. Вставка и conditional increment-and-check выполняются в одной
// транзакции под блокировкой строки, поэтому под конкурентными verify
// продвижение срабатывает ровно один раз - на достижении кворума.
func (r *IncidentRepository) ApplyVerification(ctx context.Context, incidentID uuid.UUID, userID string, quorum int) (*models.VerifyResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, wrapStoreErr("failed to begin verification tx", err)
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO verifications (incident_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (incident_id, user_id) DO NOTHING;
	`
	cmdTag, err := tx.Exec(ctx, insert, incidentID, userID)
	if err != nil {
		return nil, wrapStoreErr("failed to insert verification", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return nil, fmt.Errorf("duplicate verification by %s: %w", userID, apperrors.ErrConflict)
	}

	update := `
		UPDATE incidents SET
			verification_count = verification_count + 1,
			is_verified = is_verified OR (verification_count + 1 >= $2),
			updated_at = NOW()
		WHERE id = $1 AND status = 'active'
		RETURNING verification_count, is_verified;
	`
	result := &models.VerifyResult{IncidentID: incidentID}
	err = tx.QueryRow(ctx, update, incidentID, quorum).Scan(&result.VerificationCount, &result.IsVerified)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident %s for verification: %w", incidentID, apperrors.ErrNotFound)
		}
		return nil, wrapStoreErr("failed to increment verification count", err)
	}
	// Переход unverified -> verified случается ровно на кворуме
	result.JustPromoted = result.IsVerified && result.VerificationCount == quorum

	if err := tx.Commit(ctx); err != nil {
		return nil, wrapStoreErr("failed to commit verification tx", err)
	}
	return result, nil
}

// ExpireOverdue переводит просроченные активные инциденты в expired
// и возвращает затронутые записи для рассылки
func (r *IncidentRepository) ExpireOverdue(ctx context.Context) ([]*models.Incident, error) {
	query := `
		WITH expired AS (
			UPDATE incidents SET
				status = 'expired',
				updated_at = NOW()
			WHERE status = 'active' AND expires_at IS NOT NULL AND expires_at < NOW()
			RETURNING id
		)
		SELECT ` + incidentColumns + `
		FROM incidents i
		JOIN incident_types t ON t.id = i.type_id
		WHERE i.id IN (SELECT id FROM expired);
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, wrapStoreErr("failed to expire overdue incidents", err)
	}
	defer rows.Close()

	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row in ExpireOverdue: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr("error list iteration in ExpireOverdue", err)
	}
	return incidents, nil
}

// GetTypeByID возвращает тип инцидента
func (r *IncidentRepository) GetTypeByID(ctx context.Context, id uuid.UUID) (*models.IncidentType, error) {
	query := `
		SELECT id, name, category, min_severity, max_severity, default_severity,
			requires_verification, COALESCE(auto_expire_minutes, 0),
			COALESCE(icon, ''), COALESCE(color, ''), created_at
		FROM incident_types
		WHERE id = $1;
	`
	t := &models.IncidentType{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Category, &t.MinSeverity, &t.MaxSeverity, &t.DefaultSeverity,
		&t.RequiresVerification, &t.AutoExpireMinutes, &t.Icon, &t.Color, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident type %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, wrapStoreErr("failed to get incident type", err)
	}
	return t, nil
}

// ListTypes возвращает справочник типов
func (r *IncidentRepository) ListTypes(ctx context.Context) ([]*models.IncidentType, error) {
	query := `
		SELECT id, name, category, min_severity, max_severity, default_severity,
			requires_verification, COALESCE(auto_expire_minutes, 0),
			COALESCE(icon, ''), COALESCE(color, ''), created_at
		FROM incident_types
		ORDER BY name;
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, wrapStoreErr("failed to list incident types", err)
	}
	defer rows.Close()

	types := make([]*models.IncidentType, 0)
	for rows.Next() {
		t := &models.IncidentType{}
		err := rows.Scan(
			&t.ID, &t.Name, &t.Category, &t.MinSeverity, &t.MaxSeverity, &t.DefaultSeverity,
			&t.RequiresVerification, &t.AutoExpireMinutes, &t.Icon, &t.Color, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident type row: %w", err)
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr("error list iteration in ListTypes", err)
	}
	return types, nil
}

// GetStats возвращает сводку по активным и подтвержденным инцидентам за окно
func (r *IncidentRepository) GetStats(ctx context.Context, windowMinutes int) (*models.StatsSummary, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'active' AND is_verified)
		FROM incidents
		WHERE created_at >= NOW() - ($1 * INTERVAL '1 minute');
	`
	stats := &models.StatsSummary{WindowMinutes: windowMinutes}
	err := r.db.QueryRow(ctx, query, windowMinutes).Scan(&stats.ActiveCount, &stats.VerifiedCount)
	if err != nil {
		return nil, wrapStoreErr("failed to get incident stats", err)
	}
	return stats, nil
}

// GetIncidentFromCache пытается получить инцидент из Redis
func (r *IncidentRepository) GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	key := fmt.Sprintf("incident:%s", id.String())
	val, err := r.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get incident from cache: %w", err)
	}

	incident := &models.Incident{}
	if err := json.Unmarshal(val, incident); err != nil {
		return nil, fmt.Errorf("failed to unmarshal incident from cache: %w", err)
	}
	return incident, nil
}

// SetIncidentCache сохраняет инцидент в Redis
func (r *IncidentRepository) SetIncidentCache(ctx context.Context, incident *models.Incident) error {
	key := fmt.Sprintf("incident:%s", incident.ID.String())
	val, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("failed to marshal incident for cache: %w", err)
	}
	// Устанавливаем срок жизни кэша, например, 5 минут
	if err := r.redisClient.Set(ctx, key, val, 5*time.Minute).Err(); err != nil {
		return fmt.Errorf("failed to set incident in cache: %w", err)
	}
	return nil
}

// InvalidateIncidentCache удаляет инцидент из Redis кэша
func (r *IncidentRepository) InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error {
	key := fmt.Sprintf("incident:%s", id.String())
	if err := r.redisClient.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate incident cache: %w", err)
	}
	return nil
}
