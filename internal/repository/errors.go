package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/trafficwatch/incident_geo_system/internal/apperrors"
)

// wrapStoreErr помечает инфраструктурные сбои хранилища как временные,
// чтобы транспортный слой отвечал 503 вместо 500. Ошибки самих запросов
// временными не считаются
func wrapStoreErr(op string, err error) error {
	if isTransient(err) {
		return fmt.Errorf("%s: %w: %w", op, apperrors.ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// wrapSpatialErr различает временный сбой подключения и ошибку самой
// пространственной операции
func wrapSpatialErr(op string, err error) error {
	if isTransient(err) {
		return fmt.Errorf("%s: %w: %w", op, apperrors.ErrTransient, err)
	}
	return fmt.Errorf("%w: %s: %v", apperrors.ErrSpatialOperation, op, err)
}

// isTransient распознает сбои, которые переживаются ретраем: таймауты
// контекста, обрывы соединения и исчерпание ресурсов сервера
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		// Класс 08 - connection exception, 53 - insufficient resources,
		// 57 - operator intervention (shutdown, crash recovery)
		switch pgErr.Code[:2] {
		case "08", "53", "57":
			return true
		}
	}
	return false
}
