package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/trafficwatch/incident_geo_system/internal/apperrors"
	"github.com/trafficwatch/incident_geo_system/internal/config"
	"github.com/trafficwatch/incident_geo_system/internal/models"
	"github.com/trafficwatch/incident_geo_system/internal/realtime"
	"github.com/trafficwatch/incident_geo_system/internal/webhook"
)

// IncidentRepository определяет контракт для работы с бд инцидентов
type IncidentRepository interface {
	Create(ctx context.Context, incident *models.Incident) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	Update(ctx context.Context, incident *models.Incident) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	SearchRadius(ctx context.Context, q models.RadiusQuery) ([]*models.Incident, error)
	ApplyVerification(ctx context.Context, incidentID uuid.UUID, userID string, quorum int) (*models.VerifyResult, error)
	ExpireOverdue(ctx context.Context) ([]*models.Incident, error)
	GetTypeByID(ctx context.Context, id uuid.UUID) (*models.IncidentType, error)
	ListTypes(ctx context.Context) ([]*models.IncidentType, error)
	GetStats(ctx context.Context, windowMinutes int) (*models.StatsSummary, error)
	GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	SetIncidentCache(ctx context.Context, incident *models.Incident) error
	InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error
}

// CreateIncidentInput - данные создания инцидента
type CreateIncidentInput struct {
	TypeID            uuid.UUID
	Description       string
	Severity          *int
	Latitude          float64
	Longitude         float64
	Address           string
	EstimatedDuration int
	LanesAffected     int
}

// IncidentPatch - изменяемые поля; только они проходят allow-list.
// Status принимает единственный ручной переход active -> expired
type IncidentPatch struct {
	Description       *string
	Severity          *int
	Address           *string
	EstimatedDuration *int
	LanesAffected     *int
	Status            *models.IncidentStatus
}

// IncidentService определяет контракт бизнес-логики жизненного цикла инцидентов
type IncidentService interface {
	CreateIncident(ctx context.Context, input CreateIncidentInput, reporterID string) (*models.Incident, error)
	GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	UpdateIncident(ctx context.Context, id uuid.UUID, patch IncidentPatch, actorID string, privileged bool) (*models.Incident, error)
	DeleteIncident(ctx context.Context, id uuid.UUID, actorID string, privileged bool) error
	VerifyIncident(ctx context.Context, id uuid.UUID, verifierID string) (*models.VerifyResult, error)
	SearchRadius(ctx context.Context, q models.RadiusQuery) ([]*models.Incident, error)
	ListTypes(ctx context.Context) ([]*models.IncidentType, error)
	GetStats(ctx context.Context) (*models.StatsSummary, error)
	ExpireOverdue(ctx context.Context) (int, error)
}

type incidentService struct {
	repo        IncidentRepository
	logger      *logrus.Logger
	cfg         *config.Config
	broadcaster realtime.Broadcaster
	webhooks    webhook.WebhookPublisher
}

func NewIncidentService(repo IncidentRepository, logger *logrus.Logger, cfg *config.Config, broadcaster realtime.Broadcaster, webhooks webhook.WebhookPublisher) IncidentService {
	return &incidentService{
		repo:        repo,
		logger:      logger,
		cfg:         cfg,
		broadcaster: broadcaster,
		webhooks:    webhooks,
	}
}

func validateCoordinates(lat, lon float64) *apperrors.ValidationError {
	ve := &apperrors.ValidationError{}
	if lat < -90 || lat > 90 {
		ve.Add("latitude", "must be between -90 and 90")
	}
	if lon < -180 || lon > 180 {
		ve.Add("longitude", "must be between -180 and 180")
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

// CreateIncident валидирует вход, разрешает тип, вычисляет эффективную
// severity и срок истечения, сохраняет и публикует событие created
func (s *incidentService) CreateIncident(ctx context.Context, input CreateIncidentInput, reporterID string) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "incident",
		"method":   "CreateIncident",
		"type_id":  input.TypeID,
		"reporter": reporterID,
	})
	log.Info("Attempting to create a new incident")

	// Валидация отклоняется до любого обращения к хранилищу
	if ve := validateCoordinates(input.Latitude, input.Longitude); ve != nil {
		log.WithError(ve).Warn("Coordinate validation failed")
		return nil, ve
	}

	incidentType, err := s.repo.GetTypeByID(ctx, input.TypeID)
	if err != nil {
		log.WithError(err).Warn("Unknown incident type")
		return nil, fmt.Errorf("service: could not resolve incident type: %w", err)
	}

	severity := incidentType.DefaultSeverity
	if input.Severity != nil {
		severity = *input.Severity
	}
	if !incidentType.SeverityInRange(severity) {
		ve := apperrors.NewValidation("severity",
			fmt.Sprintf("must be between %d and %d for type %s",
				incidentType.MinSeverity, incidentType.MaxSeverity, incidentType.Name))
		log.WithError(ve).Warn("Severity out of type range")
		return nil, ve
	}

	incident := &models.Incident{
		TypeID:            incidentType.ID,
		Description:       input.Description,
		Severity:          severity,
		Latitude:          input.Latitude,
		Longitude:         input.Longitude,
		Address:           input.Address,
		EstimatedDuration: input.EstimatedDuration,
		LanesAffected:     input.LanesAffected,
		Status:            models.StatusActive,
		ReportedBy:        reporterID,
		TypeName:          incidentType.Name,
		Category:          incidentType.Category,
	}
	if incidentType.AutoExpireMinutes > 0 {
		expiresAt := time.Now().Add(time.Duration(incidentType.AutoExpireMinutes) * time.Minute)
		incident.ExpiresAt = &expiresAt
	}

	if err := s.repo.Create(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to create incident in repository")
		return nil, fmt.Errorf("service: could not create incident: %w", err)
	}

	s.broadcaster.Broadcast(realtime.Event{
		Type:      realtime.EventCreated,
		Timestamp: time.Now().UTC(),
		Incident:  incident,
	})
	if err := s.webhooks.Publish(ctx, webhook.NewIncidentEvent(webhook.EventIncidentCreated, incident)); err != nil {
		log.WithError(err).Warn("Failed to queue creation webhook")
	}

	log.WithField("incident_id", incident.ID).Info("Incident created successfully")
	return incident, nil
}

// GetIncident получает инцидент по ID, сперва пробуя кеш
func (s *incidentService) GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "GetIncident",
		"incident_id": id,
	})

	cached, err := s.repo.GetIncidentFromCache(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Incident cache lookup failed")
	}
	if cached != nil {
		return cached, nil
	}

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to get incident from repository")
		return nil, fmt.Errorf("service: could not get incident: %w", err)
	}

	if err := s.repo.SetIncidentCache(ctx, incident); err != nil {
		log.WithError(err).Warn("Failed to cache incident")
	}
	return incident, nil
}

// checkOwnership реализует правило владения: автор или привилегированная роль.
// Наружу уходит общий отказ без деталей о существовании ресурса.
func checkOwnership(incident *models.Incident, actorID string, privileged bool) error {
	if privileged || incident.ReportedBy == actorID {
		return nil
	}
	return apperrors.ErrForbidden
}

// UpdateIncident применяет allow-listed патч и публикует событие updated
// со списком измененных полей; при правке чужого инцидента автору уходит
// приватное уведомление
func (s *incidentService) UpdateIncident(ctx context.Context, id uuid.UUID, patch IncidentPatch, actorID string, privileged bool) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "UpdateIncident",
		"incident_id": id,
		"actor":       actorID,
	})
	log.Info("Attempting to update incident")

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to update a non-existent incident")
		return nil, fmt.Errorf("service: incident not found for update: %w", err)
	}

	if err := checkOwnership(incident, actorID, privileged); err != nil {
		log.Warn("Update denied: actor is not owner and not privileged")
		return nil, fmt.Errorf("service: update denied: %w", err)
	}

	if incident.EffectiveStatus(time.Now()) != models.StatusActive {
		log.Warn("Attempted to update a non-active incident")
		return nil, fmt.Errorf("service: %w", apperrors.ErrExpired)
	}

	changed := make([]string, 0, 5)
	if patch.Description != nil && *patch.Description != incident.Description {
		incident.Description = *patch.Description
		changed = append(changed, "description")
	}
	if patch.Severity != nil && *patch.Severity != incident.Severity {
		incidentType, err := s.repo.GetTypeByID(ctx, incident.TypeID)
		if err != nil {
			return nil, fmt.Errorf("service: could not resolve incident type: %w", err)
		}
		if !incidentType.SeverityInRange(*patch.Severity) {
			ve := apperrors.NewValidation("severity",
				fmt.Sprintf("must be between %d and %d", incidentType.MinSeverity, incidentType.MaxSeverity))
			return nil, ve
		}
		incident.Severity = *patch.Severity
		changed = append(changed, "severity")
	}
	if patch.Address != nil && *patch.Address != incident.Address {
		incident.Address = *patch.Address
		changed = append(changed, "address")
	}
	if patch.EstimatedDuration != nil && *patch.EstimatedDuration != incident.EstimatedDuration {
		incident.EstimatedDuration = *patch.EstimatedDuration
		changed = append(changed, "estimated_duration")
	}
	if patch.LanesAffected != nil && *patch.LanesAffected != incident.LanesAffected {
		incident.LanesAffected = *patch.LanesAffected
		changed = append(changed, "lanes_affected")
	}
	if patch.Status != nil && *patch.Status != incident.Status {
		if *patch.Status != models.StatusExpired || !incident.Status.CanTransition(*patch.Status) {
			ve := apperrors.NewValidation("status", "only the transition to expired is allowed")
			return nil, ve
		}
		incident.Status = *patch.Status
		changed = append(changed, "status")
	}

	if len(changed) == 0 {
		log.Info("Update contained no effective changes")
		return incident, nil
	}

	if err := s.repo.Update(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to update incident in repository")
		return nil, fmt.Errorf("service: could not update incident: %w", err)
	}

	if err := s.repo.InvalidateIncidentCache(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	ev := realtime.Event{
		Type:          realtime.EventUpdated,
		Timestamp:     time.Now().UTC(),
		Incident:      incident,
		ChangedFields: changed,
	}
	// Автор получает приватное уведомление, если правил кто-то другой
	if actorID != incident.ReportedBy {
		ev.TargetUserID = incident.ReportedBy
	}
	s.broadcaster.Broadcast(ev)

	log.WithField("changed_fields", changed).Info("Incident updated successfully")
	return incident, nil
}

// DeleteIncident выполняет мягкое удаление и публикует событие deleted
func (s *incidentService) DeleteIncident(ctx context.Context, id uuid.UUID, actorID string, privileged bool) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "DeleteIncident",
		"incident_id": id,
		"actor":       actorID,
	})
	log.Info("Attempting to delete incident")

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to delete a non-existent incident")
		return fmt.Errorf("service: incident not found for delete: %w", err)
	}

	if err := checkOwnership(incident, actorID, privileged); err != nil {
		log.Warn("Delete denied: actor is not owner and not privileged")
		return fmt.Errorf("service: delete denied: %w", err)
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		log.WithError(err).Error("Failed to soft-delete incident in repository")
		return fmt.Errorf("service: could not delete incident: %w", err)
	}

	if err := s.repo.InvalidateIncidentCache(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	now := time.Now()
	incident.Status = models.StatusDeleted
	incident.DeletedAt = &now
	s.broadcaster.Broadcast(realtime.Event{
		Type:      realtime.EventDeleted,
		Timestamp: now.UTC(),
		Incident:  incident,
	})

	log.Info("Incident deleted successfully")
	return nil
}

// VerifyIncident делегирует движку кворума: подтверждение фиксируется
// атомарно, событие verified уходит ровно один раз - на переходе
// unverified -> verified; иначе верификатор получает приватный ack
func (s *incidentService) VerifyIncident(ctx context.Context, id uuid.UUID, verifierID string) (*models.VerifyResult, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "VerifyIncident",
		"incident_id": id,
		"verifier":    verifierID,
	})
	log.Info("Applying verification")

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to verify a non-existent incident")
		return nil, fmt.Errorf("service: incident not found for verification: %w", err)
	}
	if incident.EffectiveStatus(time.Now()) != models.StatusActive {
		log.Warn("Attempted to verify a non-active incident")
		return nil, fmt.Errorf("service: %w", apperrors.ErrExpired)
	}

	result, err := s.repo.ApplyVerification(ctx, id, verifierID, s.cfg.VerificationQuorum)
	if err != nil {
		log.WithError(err).Warn("Failed to apply verification")
		return nil, fmt.Errorf("service: could not apply verification: %w", err)
	}

	if err := s.repo.InvalidateIncidentCache(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	incident.VerificationCount = result.VerificationCount
	incident.IsVerified = result.IsVerified

	if result.JustPromoted {
		s.broadcaster.Broadcast(realtime.Event{
			Type:      realtime.EventVerified,
			Timestamp: time.Now().UTC(),
			Incident:  incident,
		})
		if err := s.webhooks.Publish(ctx, webhook.NewIncidentEvent(webhook.EventIncidentVerified, incident)); err != nil {
			log.WithError(err).Warn("Failed to queue verification webhook")
		}
		log.WithField("verification_count", result.VerificationCount).Info("Incident promoted to verified")
	} else {
		s.broadcaster.Broadcast(realtime.Event{
			Type:         realtime.EventVerifyAck,
			Timestamp:    time.Now().UTC(),
			Verification: result,
			TargetUserID: verifierID,
			PrivateOnly:  true,
		})
		log.WithField("verification_count", result.VerificationCount).Info("Verification recorded")
	}

	return result, nil
}

// SearchRadius находит активные инциденты вокруг точки с фильтрами и пагинацией
func (s *incidentService) SearchRadius(ctx context.Context, q models.RadiusQuery) ([]*models.Incident, error) {
	ve := &apperrors.ValidationError{}
	if cve := validateCoordinates(q.Latitude, q.Longitude); cve != nil {
		ve.Fields = append(ve.Fields, cve.Fields...)
	}
	if q.RadiusMeters <= 0 || q.RadiusMeters > s.cfg.MaxSearchRadiusMeters {
		ve.Add("radius", fmt.Sprintf("must be between 1 and %.0f meters", s.cfg.MaxSearchRadiusMeters))
	}
	if ve.HasErrors() {
		return nil, ve
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}

	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "SearchRadius",
		"radius":  q.RadiusMeters,
	})

	incidents, err := s.repo.SearchRadius(ctx, q)
	if err != nil {
		log.WithError(err).Error("Failed to search incidents by radius")
		return nil, fmt.Errorf("service: could not search incidents: %w", err)
	}

	log.WithField("count", len(incidents)).Info("Radius search completed")
	return incidents, nil
}

// ListTypes возвращает справочник типов инцидентов
func (s *incidentService) ListTypes(ctx context.Context) ([]*models.IncidentType, error) {
	types, err := s.repo.ListTypes(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list incident types")
		return nil, fmt.Errorf("service: could not list incident types: %w", err)
	}
	return types, nil
}

// GetStats возвращает сводку за настроенное окно
func (s *incidentService) GetStats(ctx context.Context) (*models.StatsSummary, error) {
	stats, err := s.repo.GetStats(ctx, s.cfg.StatsTimeWindowMinutes)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get stats from repository")
		return nil, fmt.Errorf("service: could not get stats: %w", err)
	}
	return stats, nil
}

// ExpireOverdue переводит просроченные инциденты в expired и рассылает
// события; вызывается планировщиком
func (s *incidentService) ExpireOverdue(ctx context.Context) (int, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "ExpireOverdue",
	})

	expired, err := s.repo.ExpireOverdue(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to expire overdue incidents")
		return 0, fmt.Errorf("service: could not expire incidents: %w", err)
	}

	for _, incident := range expired {
		if err := s.repo.InvalidateIncidentCache(ctx, incident.ID); err != nil {
			log.WithError(err).Warn("Failed to invalidate incident cache")
		}
		s.broadcaster.Broadcast(realtime.Event{
			Type:      realtime.EventExpired,
			Timestamp: time.Now().UTC(),
			Incident:  incident,
		})
	}

	if len(expired) > 0 {
		log.WithField("count", len(expired)).Info("Expired overdue incidents")
	}
	return len(expired), nil
}
