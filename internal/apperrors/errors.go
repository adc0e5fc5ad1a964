package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Сентинельные ошибки доменного уровня. Сервисы оборачивают их через %w,
// хэндлеры сопоставляют со статусами через errors.Is.
var (
	// ErrNotFound - инцидент или тип с таким id не существует
	ErrNotFound = errors.New("not found")
	// ErrForbidden - нарушение владения или роли; наружу уходит общий отказ,
	// без подтверждения существования ресурса
	ErrForbidden = errors.New("forbidden")
	// ErrConflict - повторное подтверждение или коллизия уникального поля
	ErrConflict = errors.New("conflict")
	// ErrExpired - инцидент больше не активен и не может изменяться
	ErrExpired = errors.New("incident no longer active")
	// ErrInsufficientData - аналитика запрошена ниже минимальной выборки
	ErrInsufficientData = errors.New("insufficient data")
	// ErrSpatialOperation - ошибка геометрии в хранилище
	ErrSpatialOperation = errors.New("spatial operation failed")
	// ErrTransient - таймаут или обрыв соединения, повтор на стороне вызывающего
	ErrTransient = errors.New("transient failure")
)

// FieldError - одно нарушение валидации
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError перечисляет все некорректные поля запроса.
// Отклоняется до любого обращения к хранилищу.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add добавляет нарушение и возвращает ошибку для цепочки вызовов
func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
	return e
}

// HasErrors сообщает, накоплено ли хоть одно нарушение
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// NewValidation создает ошибку валидации c одним полем
func NewValidation(field, message string) *ValidationError {
	return (&ValidationError{}).Add(field, message)
}

// AsValidation извлекает *ValidationError из цепочки ошибок
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
