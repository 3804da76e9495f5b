package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/senyabanana/funding-service/internal/models"
)

// SendErrorResponse отправляет ошибку в формате JSON
func SendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	SendError(w, models.NewErrorResponse(statusCode, message))
}

// SendError отправляет готовую ошибку в формате JSON.
func SendError(w http.ResponseWriter, errorResponse *models.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(errorResponse.StatusCode)

	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		slog.Error("failed to encode error response", slog.Any("error", err))
	}
}

// SendJSON отправляет ответ в формате JSON с заданным статусом.
func SendJSON(w http.ResponseWriter, statusCode int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(payload)
}

// ParseLimitOffset обрабатывает limit и offset
func ParseLimitOffset(limitStr, offsetStr string) (int, int, error) {
	var limit, offset int
	var err error

	if limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 || limit > 50 {
			return 0, 0, fmt.Errorf("invalid limit parameter, must be a positive integer [0:50]")
		}
	} else {
		limit = 5
	}

	if offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid offset parameter, must be a non-negative integer")
		}
	} else {
		offset = 0
	}

	return limit, offset, nil
}

// ErrorToResponse переводит доменную ошибку в ответ API.
// Внутренние ошибки хранилища не раскрываются клиенту.
func ErrorToResponse(err error) *models.ErrorResponse {
	var errorResponse *models.ErrorResponse
	if errors.As(err, &errorResponse) {
		return errorResponse
	}

	switch {
	case errors.Is(err, models.ErrNotFound):
		return models.NewErrorResponse(http.StatusNotFound, err.Error()).WithCode("not_found")
	case errors.Is(err, models.ErrPermissionDenied):
		return models.NewErrorResponse(http.StatusForbidden, err.Error()).WithCode("permission_denied")
	case errors.Is(err, models.ErrOperationClosed):
		return models.NewErrorResponse(http.StatusBadRequest, err.Error()).WithCode("operation_closed")
	case errors.Is(err, models.ErrOperationExpired):
		return models.NewErrorResponse(http.StatusBadRequest, err.Error()).WithCode("operation_expired")
	case errors.Is(err, models.ErrAmountExceedsCapacity):
		return models.NewErrorResponse(http.StatusBadRequest, err.Error()).WithCode("amount_exceeds_capacity")
	case errors.Is(err, models.ErrValidation):
		return models.NewErrorResponse(http.StatusBadRequest, err.Error()).WithCode("validation_error")
	case errors.Is(err, models.ErrConflict):
		return models.NewErrorResponse(http.StatusBadRequest, err.Error()).WithCode("conflict")
	default:
		return models.NewErrorResponse(http.StatusInternalServerError, "internal server error").WithCode("storage_failure")
	}
}

// StatusFromError возвращает HTTP-статус для доменной ошибки.
func StatusFromError(err error) int {
	return ErrorToResponse(err).StatusCode
}
