package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trafficwatch/incident_geo_system/internal/apperrors"
	"github.com/trafficwatch/incident_geo_system/internal/config"
	"github.com/trafficwatch/incident_geo_system/internal/handler/http/v1/mocks"
	"github.com/trafficwatch/incident_geo_system/internal/models"
	"github.com/trafficwatch/incident_geo_system/internal/realtime"
	"github.com/trafficwatch/incident_geo_system/internal/service"
	"go.uber.org/mock/gomock"
)

// stubGate - простая заглушка лимитера для тестов роутера
type stubGate struct {
	allowed bool
	err     error
}

func (g stubGate) Allow(context.Context, string) (bool, error) {
	return g.allowed, g.err
}

// newTestRouter собирает роутер с мокированными сервисами и заданным лимитером
func newTestRouter(t *testing.T, gate ThrottleGate) (*mocks.MockIncidentService, *mocks.MockAnalyticsService, *gin.Engine) {
	ctrl := gomock.NewController(t)
	incidentMock := mocks.NewMockIncidentService(ctrl)
	analyticsMock := mocks.NewMockAnalyticsService(ctrl)

	logger := logrus.New()
	logger.SetOutput(io.Discard) // Отключаем вывод логов в тестах

	cfg := &config.Config{
		APITokens: []config.APIToken{
			{Token: "user-token", UserID: "user-1", Role: "user"},
			{Token: "admin-token", UserID: "moderator-1", Role: "admin"},
		},
		StatsTimeWindowMinutes: 60,
		RegionGridDegrees:      0.1,
	}

	hub := realtime.NewHub(logger, cfg.RegionGridDegrees)
	handler := NewHandler(incidentMock, analyticsMock, hub, logger, cfg)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	api.Use(IdentityMiddleware(cfg, logger))
	handler.RegisterRoutes(api, gate)

	return incidentMock, analyticsMock, router
}

func newTestHandler(t *testing.T) (*mocks.MockIncidentService, *mocks.MockAnalyticsService, *gin.Engine) {
	return newTestRouter(t, stubGate{allowed: true})
}

// makeRequest - вспомогательная функция для выполнения HTTP-запросов
func makeRequest(router *gin.Engine, method, url string, body io.Reader, headers ...map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		for key, value := range h {
			req.Header.Set(key, value)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func userAuth() map[string]string {
	return map[string]string{"X-API-Key": "user-token"}
}

func adminAuth() map[string]string {
	return map[string]string{"X-API-Key": "admin-token"}
}

func validCreateBody() CreateIncidentRequest {
	return CreateIncidentRequest{
		TypeID:      uuid.New().String(),
		Description: "Stalled truck in the left lane",
		Latitude:    55.7558,
		Longitude:   37.6173,
	}
}

func TestIdentityMiddleware_MissingToken(t *testing.T) {
	incidentMock, _, router := newTestHandler(t)

	incidentMock.EXPECT().ListTypes(gomock.Any()).Times(0)

	w := makeRequest(router, "GET", "/api/v1/incident-types", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "API token required")
}

func TestIdentityMiddleware_InvalidToken(t *testing.T) {
	incidentMock, _, router := newTestHandler(t)

	incidentMock.EXPECT().ListTypes(gomock.Any()).Times(0)

	w := makeRequest(router, "GET", "/api/v1/incident-types", nil, map[string]string{"X-API-Key": "wrong"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid API token")
}

func TestIdentityMiddleware_BearerToken(t *testing.T) {
	incidentMock, _, router := newTestHandler(t)

	incidentMock.EXPECT().ListTypes(gomock.Any()).Return([]*models.IncidentType{}, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/incident-types", nil, map[string]string{"Authorization": "Bearer user-token"})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateIncident_Success(t *testing.T) {
	incidentMock, _, router := newTestHandler(t)
	reqBody := validCreateBody()
	incidentID := uuid.New()

	incidentMock.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any(), "user-1").
		DoAndReturn(func(_ context.Context, input service.CreateIncidentInput, reporterID string) (*models.Incident, error) {
			assert.Equal(t, reqBody.TypeID, input.TypeID.String())
			assert.Equal(t, reqBody.Description, input.Description)
			return &models.Incident{
				ID:          incidentID,
				TypeID:      input.TypeID,
				Description: input.Description,
				Severity:    3,
				Latitude:    input.Latitude,
				Longitude:   input.Longitude,
				Status:      models.StatusActive,
				ReportedBy:  reporterID,
				CreatedAt:   time.Now(),
				UpdatedAt:   time.Now(),
			}, nil
		}).Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBuffer(bodyBytes), userAuth())

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp IncidentResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, incidentID, resp.ID)
	assert.Equal(t, "user-1", resp.ReportedBy)
	assert.Equal(t, "active", resp.Status)
}

func TestCreateIncident_InvalidJSON(t *testing.T) {
	incidentMock, _, router := newTestHandler(t)

	incidentMock.EXPECT().CreateIncident(gomock.Any(), gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBufferString(`{"type_id": "x"`), userAuth())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestCreateIncident_StructuralValidationError(t *testing.T) {
	incidentMock, _, router := newTestHandler(t)
	reqBody := validCreateBody()
	reqBody.TypeID = "" // Отсутствует type_id

	incidentMock.EXPECT().CreateIncident(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBuffer(bodyBytes), userAuth())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Error:Field validation for 'TypeID' failed on the 'required' tag")
}

func TestCreateIncident_DomainValidationError(t *testing.T) {
	incidentMock, _, router := newTestHandler(t)
	reqBody := validCreateBody()

	incidentMock.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any(), "user-1").
		Return(nil, apperrors.NewValidation("severity", "must be between 2 and 4 for this incident type")).
		Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBuffer(bodyBytes), userAuth())

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "validation failed", resp.Error)
	assert.Contains(t, resp.Fields, "severity")
}

func TestCreateIncident_ServiceError(t *testing.T) {
	incidentMock, _, router := newTestHandler(t)
	reqBody := validCreateBody()

	incidentMock.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("database down")).
		Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBuffer(bodyBytes), userAuth())

	// Детали внутренней ошибки наружу не уходят
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
	assert.NotContains(t, w.Body.String(), "database down")
}

func TestCreateIncident_SeverityRangeDecidedByType(t *testing.T) {
	incidentMock, _, router := newTestHandler(t)
	reqBody := validCreateBody()
	// Выше привычной пятибалльной шкалы: транспорт не режет значение,
	// диапазон проверяет тип инцидента на сервисном слое
	severity := 9
	reqBody.Severity = &severity

	incidentMock.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any(), "user-1").
		DoAndReturn(func(_ context.Context, input service.CreateIncidentInput, _ string) (*models.Incident, error) {
			require.NotNil(t, input.Severity)
			assert.Equal(t, 9, *input.Severity)
			return nil, apperrors.NewValidation("severity", "must be between 2 and 5 for type accident")
		}).Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBuffer(bodyBytes), userAuth())

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "validation failed", resp.Error)
	assert.Contains(t, resp.Fields, "severity")
}

func TestCreateIncident_TransientFailureReturns503(t *testing.T) {
	incidentMock, _, router := newTestHandler(t)
	reqBody := validCreateBody()

	incidentMock.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("service: could not create incident: %w", apperrors.ErrTransient)).
		Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBuffer(bodyBytes), userAuth())

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "service temporarily unavailable")
}

func TestGetIncident_Success(t *testing.T) {
	incidentMock, _, router := newTestHandler(t)
	incidentID := uuid.New()

	incidentMock.EXPECT().GetIncident(gomock.Any(), incidentID).Return(&models.Incident{
		ID:       incidentID,
		Severity: 4,
		Status:   models.StatusActive,
	}, nil).Times(1)

	w := makeRequest(router, "GET", fmt.Sprintf("/api/v1/incidents/%s", incidentID), nil, userAuth())

	assert.Equal(t, http.StatusOK, w.Code)
	var resp IncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, incidentID, resp.ID)
	assert.Equal(t, 4, resp.Severity)
}

func TestGetIncident_InvalidID(t *testing.T) {
	incidentMock, _, router := newTestHandler(t)

	incidentMock.EXPECT().GetIncident(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "GET", "/api/v1/incidents/invalid-uuid", nil, userAuth())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid incident ID")
}

func TestGetIncident_NotFound(t *testing.T) {
	incidentMock, _, router := newTestHandler(t)
	incidentID := uuid.New()

	incidentMock.EXPECT().GetIncident(gomock.Any(), incidentID).Return(nil, fmt.Errorf("service: %w", apperrors.ErrNotFound)).Times(1)

	w := makeRequest(router, "GET", fmt.Sprintf("/api/v1/incidents/%s", incidentID), nil, userAuth())

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "incident not found")
}

func TestUpdateIncident_Success(t *testing.T) {
	incidentMock, _, router := newTestHandler(t)
	incidentID := uuid.New()
	description := "Cleared to one lane"
	reqBody := UpdateIncidentRequest{Description: &description}

	incidentMock.EXPECT().
		UpdateIncident(gomock.Any(), incidentID, gomock.Any(), "user-1", false).
		DoAndReturn(func(_ context.Context, id uuid.UUID, patch service.IncidentPatch, _ string, _ bool) (*models.Incident, error) {
			require.NotNil(t, patch.Description)
			assert.Equal(t, description, *patch.Description)
			return &models.Incident{ID: id, Description: description, Status: models.StatusActive}, nil
		}).Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "PATCH", fmt.Sprintf("/api/v1/incidents/%s", incidentID), bytes.NewBuffer(bodyBytes), userAuth())

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateIncident_ForbiddenHidesResource(t *testing.T) {
	incidentMock, _, router := newTestHandler(t)
	incidentID := uuid.New()
	description := "hijack attempt"
	reqBody := UpdateIncidentRequest{Description: &description}

	incidentMock.EXPECT().
		UpdateIncident(gomock.Any(), incidentID, gomock.Any(), "user-1", false).
		Return(nil, fmt.Errorf("service: %w", apperrors.ErrForbidden)).
		Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "PATCH", fmt.Sprintf("/api/v1/incidents/%s", incidentID), bytes.NewBuffer(bodyBytes), userAuth())

	// Общий отказ без подтверждения существования ресурса
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "access denied")
}

func TestUpdateIncident_AdminIsPrivileged(t *testing.T) {
	incidentMock, _, router := newTestHandler(t)
	incidentID := uuid.New()
	description := "Moderated description"
	reqBody := UpdateIncidentRequest{Description: &description}

	incidentMock.EXPECT().
		UpdateIncident(gomock.Any(), incidentID, gomock.Any(), "moderator-1", true).
		Return(&models.Incident{ID: incidentID, Status: models.StatusActive}, nil).
		Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "PATCH", fmt.Sprintf("/api/v1/incidents/%s", incidentID), bytes.NewBuffer(bodyBytes), adminAuth())

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateIncident_ExpiredConflict(t *testing.T) {
	incidentMock, _, router := newTestHandler(t)
	incidentID := uuid.New()
	description := "too late"
	reqBody := UpdateIncidentRequest{Description: &description}

	incidentMock.EXPECT().
		UpdateIncident(gomock.Any(), incidentID, gomock.Any(), "user-1", false).
		Return(nil, fmt.Errorf("service: %w", apperrors.ErrExpired)).
		Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "PATCH", fmt.Sprintf("/api/v1/incidents/%s", incidentID), bytes.NewBuffer(bodyBytes), userAuth())

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "no longer active")
}

func TestDeleteIncident_Success(t *testing.T) {
	incidentMock, _, router := newTestHandler(t)
	incidentID := uuid.New()

	incidentMock.EXPECT().DeleteIncident(gomock.Any(), incidentID, "user-1", false).Return(nil).Times(1)

	w := makeRequest(router, "DELETE", fmt.Sprintf("/api/v1/incidents/%s", incidentID), nil, userAuth())

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestVerifyIncident_Success(t *testing.T) {
	incidentMock, _, router := newTestHandler(t)
	incidentID := uuid.New()

	incidentMock.EXPECT().VerifyIncident(gomock.Any(), incidentID, "user-1").Return(&models.VerifyResult{
		IncidentID:        incidentID,
		VerificationCount: 3,
		IsVerified:        true,
	}, nil).Times(1)

	w := makeRequest(router, "POST", fmt.Sprintf("/api/v1/incidents/%s/verify", incidentID), nil, userAuth())

	assert.Equal(t, http.StatusOK, w.Code)
	var resp VerifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.VerificationCount)
	assert.True(t, resp.IsVerified)
}

func TestVerifyIncident_DuplicateConflict(t *testing.T) {
	incidentMock, _, router := newTestHandler(t)
	incidentID := uuid.New()

	incidentMock.EXPECT().
		VerifyIncident(gomock.Any(), incidentID, "user-1").
		Return(nil, fmt.Errorf("service: %w", apperrors.ErrConflict)).
		Times(1)

	w := makeRequest(router, "POST", fmt.Sprintf("/api/v1/incidents/%s/verify", incidentID), nil, userAuth())

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already verified")
}

func TestSearchIncidents_QueryBinding(t *testing.T) {
	incidentMock, _, router := newTestHandler(t)

	incidentMock.EXPECT().
		SearchRadius(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q models.RadiusQuery) ([]*models.Incident, error) {
			assert.InDelta(t, 55.7558, q.Latitude, 1e-9)
			assert.InDelta(t, 37.6173, q.Longitude, 1e-9)
			assert.InDelta(t, 1500.0, q.RadiusMeters, 1e-9)
			assert.Equal(t, 3, q.MinSeverity)
			assert.Equal(t, "severity", q.Sort)
			return []*models.Incident{{ID: uuid.New(), DistanceMeters: 420.5}}, nil
		}).Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents/search?lat=55.7558&lon=37.6173&radius=1500&min_severity=3&sort=severity", nil, userAuth())

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []IncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	require.NotNil(t, resp[0].DistanceMeters)
	assert.InDelta(t, 420.5, *resp[0].DistanceMeters, 1e-9)
}

func TestSearchIncidents_MissingRadius(t *testing.T) {
	incidentMock, _, router := newTestHandler(t)

	incidentMock.EXPECT().SearchRadius(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "GET", "/api/v1/incidents/search?lat=55.7558&lon=37.6173", nil, userAuth())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "RadiusMeters")
}

func TestGetStats_RequiresAdminRole(t *testing.T) {
	incidentMock, _, router := newTestHandler(t)

	incidentMock.EXPECT().GetStats(gomock.Any()).Times(0)

	w := makeRequest(router, "GET", "/api/v1/stats", nil, userAuth())

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "access denied")
}

func TestGetStats_Success(t *testing.T) {
	incidentMock, _, router := newTestHandler(t)

	incidentMock.EXPECT().GetStats(gomock.Any()).Return(&models.StatsSummary{
		ActiveCount:   42,
		VerifiedCount: 7,
		WindowMinutes: 60,
	}, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/stats", nil, adminAuth())

	assert.Equal(t, http.StatusOK, w.Code)
	var resp StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 42, resp.ActiveCount)
	assert.Equal(t, 7, resp.VerifiedCount)
	assert.Equal(t, 60, resp.WindowMinutes)
}

func TestThrottle_LimitExceeded(t *testing.T) {
	incidentMock, _, router := newTestRouter(t, stubGate{allowed: false})
	reqBody := validCreateBody()

	incidentMock.EXPECT().CreateIncident(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBuffer(bodyBytes), userAuth())

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate limit exceeded")
}

func TestThrottle_FailsOpenOnGateError(t *testing.T) {
	incidentMock, _, router := newTestRouter(t, stubGate{err: errors.New("redis down")})
	reqBody := validCreateBody()

	incidentMock.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any(), "user-1").
		Return(&models.Incident{ID: uuid.New(), Status: models.StatusActive}, nil).
		Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBuffer(bodyBytes), userAuth())

	// Недоступный счетчик не блокирует запросы
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestThrottle_ReadsNotThrottled(t *testing.T) {
	incidentMock, _, router := newTestRouter(t, stubGate{allowed: false})
	incidentID := uuid.New()

	incidentMock.EXPECT().GetIncident(gomock.Any(), incidentID).Return(&models.Incident{ID: incidentID}, nil).Times(1)

	w := makeRequest(router, "GET", fmt.Sprintf("/api/v1/incidents/%s", incidentID), nil, userAuth())

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetHotspots_DefaultsApplied(t *testing.T) {
	_, analyticsMock, router := newTestHandler(t)

	analyticsMock.EXPECT().
		Hotspots(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q models.HotspotQuery) ([]models.Hotspot, error) {
			assert.Equal(t, 24*time.Hour, q.TimeRange)
			assert.Equal(t, 100, q.GridSize)
			assert.Equal(t, 3, q.MinIncidents)
			require.NotNil(t, q.Bounds)
			assert.InDelta(t, 55.70, q.Bounds.MinLat, 1e-9)
			return []models.Hotspot{{Count: 12, RiskLevel: "high"}}, nil
		}).Times(1)

	w := makeRequest(router, "GET", "/api/v1/analytics/hotspots?min_lat=55.70&min_lon=37.50&max_lat=55.80&max_lon=37.70", nil, userAuth())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"risk_level":"high"`)
}

func TestGetImpactZones_ParsesIDsAndDefaults(t *testing.T) {
	_, analyticsMock, router := newTestHandler(t)
	incidentID := uuid.New()

	analyticsMock.EXPECT().
		ImpactZones(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q models.ImpactQuery) (*models.ImpactAnalysis, error) {
			require.Len(t, q.IncidentIDs, 1)
			assert.Equal(t, incidentID, q.IncidentIDs[0])
			assert.InDelta(t, 500.0, q.BufferMeters, 1e-9)
			return &models.ImpactAnalysis{}, nil
		}).Times(1)

	body := fmt.Sprintf(`{"incident_ids": [%q]}`, incidentID)
	w := makeRequest(router, "POST", "/api/v1/analytics/impact-zones", bytes.NewBufferString(body), userAuth())

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetImpactZones_RejectsMalformedID(t *testing.T) {
	_, analyticsMock, router := newTestHandler(t)

	analyticsMock.EXPECT().ImpactZones(gomock.Any(), gomock.Any()).Times(0)

	// dive,uuid на слайсе отбрасывает мусор еще до парсинга
	w := makeRequest(router, "POST", "/api/v1/analytics/impact-zones", bytes.NewBufferString(`{"incident_ids": ["garbage"]}`), userAuth())

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPredictions_DefaultsApplied(t *testing.T) {
	_, analyticsMock, router := newTestHandler(t)

	analyticsMock.EXPECT().
		Predict(gomock.Any(), models.PredictionQuery{PredictionHours: 24, Confidence: 0.5, ClusterCount: 10}).
		Return(&models.PredictionResult{Sufficient: false, RequiredSize: 50, Predictions: []models.PredictedLocation{}}, nil).
		Times(1)

	w := makeRequest(router, "GET", "/api/v1/analytics/predictive", nil, userAuth())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sufficient_data":false`)
}

func TestGetTemporalPatterns_GroupByValidated(t *testing.T) {
	_, analyticsMock, router := newTestHandler(t)

	analyticsMock.EXPECT().TemporalPatterns(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "GET", "/api/v1/analytics/temporal-patterns?group_by=quarter", nil, userAuth())

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
