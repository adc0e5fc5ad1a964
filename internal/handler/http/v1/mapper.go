package v1

import (
	"github.com/google/uuid"
	"github.com/trafficwatch/incident_geo_system/internal/models"
	"github.com/trafficwatch/incident_geo_system/internal/service"
)

// CreateRequestToInput преобразует DTO создания в входные данные сервиса.
// type_id уже прошел uuid-валидацию
func CreateRequestToInput(dto CreateIncidentRequest) service.CreateIncidentInput {
	typeID, _ := uuid.Parse(dto.TypeID)
	return service.CreateIncidentInput{
		TypeID:            typeID,
		Description:       dto.Description,
		Severity:          dto.Severity,
		Latitude:          dto.Latitude,
		Longitude:         dto.Longitude,
		Address:           dto.Address,
		EstimatedDuration: dto.EstimatedDuration,
		LanesAffected:     dto.LanesAffected,
	}
}

// UpdateRequestToPatch преобразует DTO частичного обновления в патч сервиса
func UpdateRequestToPatch(dto UpdateIncidentRequest) service.IncidentPatch {
	patch := service.IncidentPatch{
		Description:       dto.Description,
		Severity:          dto.Severity,
		Address:           dto.Address,
		EstimatedDuration: dto.EstimatedDuration,
		LanesAffected:     dto.LanesAffected,
	}
	if dto.Status != nil {
		status := models.IncidentStatus(*dto.Status)
		patch.Status = &status
	}
	return patch
}

// ModelToIncidentResponse преобразует доменную модель в DTO для ответа
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	resp := &IncidentResponse{
		ID:                model.ID,
		TypeID:            model.TypeID,
		TypeName:          model.TypeName,
		Category:          model.Category,
		Description:       model.Description,
		Severity:          model.Severity,
		Latitude:          model.Latitude,
		Longitude:         model.Longitude,
		Address:           model.Address,
		EstimatedDuration: model.EstimatedDuration,
		LanesAffected:     model.LanesAffected,
		Status:            string(model.Status),
		VerificationCount: model.VerificationCount,
		IsVerified:        model.IsVerified,
		ReportedBy:        model.ReportedBy,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
		ExpiresAt:         model.ExpiresAt,
	}
	if model.DistanceMeters > 0 {
		d := model.DistanceMeters
		resp.DistanceMeters = &d
	}
	return resp
}

// ModelsToIncidentResponses преобразует слайс моделей в слайс DTO
func ModelsToIncidentResponses(models []*models.Incident) []*IncidentResponse {
	responses := make([]*IncidentResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToIncidentResponse(model)
	}
	return responses
}

// ModelToVerifyResponse преобразует результат подтверждения в DTO
func ModelToVerifyResponse(result *models.VerifyResult) *VerifyResponse {
	return &VerifyResponse{
		IncidentID:        result.IncidentID,
		VerificationCount: result.VerificationCount,
		IsVerified:        result.IsVerified,
	}
}

// ModelsToTypeResponses преобразует справочник типов в DTO
func ModelsToTypeResponses(types []*models.IncidentType) []*IncidentTypeResponse {
	responses := make([]*IncidentTypeResponse, len(types))
	for i, t := range types {
		responses[i] = &IncidentTypeResponse{
			ID:              t.ID,
			Name:            t.Name,
			Category:        t.Category,
			MinSeverity:     t.MinSeverity,
			MaxSeverity:     t.MaxSeverity,
			DefaultSeverity: t.DefaultSeverity,
		}
	}
	return responses
}
