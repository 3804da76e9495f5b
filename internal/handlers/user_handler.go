package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/senyabanana/funding-service/internal/models"
	"github.com/senyabanana/funding-service/internal/services"
	"github.com/senyabanana/funding-service/internal/utils"
)

// UserHandler - структура для обработки HTTP-запросов пользователей.
type UserHandler struct {
	Service *services.UserService
	Logger  *slog.Logger
	Timeout time.Duration
}

// NewUserHandler создает новый экземпляр UserHandler.
func NewUserHandler(service *services.UserService, logger *slog.Logger, timeout time.Duration) *UserHandler {
	return &UserHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// RegisterUser обрабатывает запросы для регистрации пользователя.
func (h *UserHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var userReq models.UserRequest
	if err := json.NewDecoder(r.Body).Decode(&userReq); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.Service.RegisterUser(ctx, userReq)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, h.Logger, http.StatusCreated, user)
}

// GetUser обрабатывает запросы для получения пользователя.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	user, err := h.Service.GetUser(ctx, r.PathValue("userId"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, h.Logger, http.StatusOK, user)
}

// DeleteUser обрабатывает запросы для удаления пользователя.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	if err := h.Service.DeleteUser(ctx, r.PathValue("userId")); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
