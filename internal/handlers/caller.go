package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/senyabanana/funding-service/internal/models"
	"github.com/senyabanana/funding-service/internal/services"
	"github.com/senyabanana/funding-service/internal/utils"
)

// resolveCaller находит пользователя по параметру username.
// Отсутствующий или неизвестный username дает 401.
func resolveCaller(ctx context.Context, users *services.UserService, r *http.Request) (*models.User, *models.ErrorResponse) {
	username := r.URL.Query().Get("username")
	if username == "" {
		return nil, models.NewErrorResponse(http.StatusUnauthorized, "username is required").WithCode("unauthorized")
	}

	user, err := users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewErrorResponse(http.StatusUnauthorized, "user does not exist or is incorrect").WithCode("unauthorized")
		}
		return nil, utils.ErrorToResponse(err)
	}
	return user, nil
}

// writeError логирует ошибку и отправляет её клиенту.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	errorResponse := utils.ErrorToResponse(err)
	level := slog.LevelInfo
	if errorResponse.StatusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.Log(r.Context(), level, "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", errorResponse.StatusCode),
		slog.Any("error", err),
	)
	utils.SendError(w, errorResponse)
}

// writeJSON отправляет ответ и логирует ошибку кодирования.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, statusCode int, payload any) {
	if err := utils.SendJSON(w, statusCode, payload); err != nil {
		logger.Error("failed to encode response", slog.Any("error", err))
	}
}
