package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/trafficwatch/incident_geo_system/internal/apperrors"
)

// respondError сопоставляет доменную ошибку с HTTP-статусом.
// Детали внутренних ошибок наружу уходят только в режиме разработки
func (h *Handler) respondError(c *gin.Context, log *logrus.Entry, err error) {
	if verr, ok := apperrors.AsValidation(err); ok {
		fields := make(map[string]string, len(verr.Fields))
		for _, f := range verr.Fields {
			fields[f.Field] = f.Message
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Fields: fields})
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "incident not found"})
	case errors.Is(err, apperrors.ErrForbidden):
		// Общий отказ, не раскрываем существование ресурса
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "already verified by this user"})
	case errors.Is(err, apperrors.ErrExpired):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "incident is no longer active"})
	case errors.Is(err, apperrors.ErrTransient):
		log.WithError(err).Warn("Transient failure")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "service temporarily unavailable"})
	default:
		log.WithError(err).Error("Internal error")
		if h.cfg.IsDevelopment() {
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

// bindAndValidate связывает JSON-тело и прогоняет структурную валидацию
func (h *Handler) bindAndValidate(c *gin.Context, log *logrus.Entry, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return false
	}
	return true
}

// bindQueryAndValidate связывает query-параметры и прогоняет валидацию
func (h *Handler) bindQueryAndValidate(c *gin.Context, log *logrus.Entry, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		log.WithError(err).Warn("Failed to bind query")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query parameters"})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return false
	}
	return true
}
