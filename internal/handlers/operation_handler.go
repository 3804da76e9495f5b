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

// OperationHandler - структура для обработки HTTP-запросов операций.
type OperationHandler struct {
	Service *services.OperationService
	Users   *services.UserService
	Logger  *slog.Logger
	Timeout time.Duration
}

// NewOperationHandler создает новый экземпляр OperationHandler.
func NewOperationHandler(service *services.OperationService, users *services.UserService, logger *slog.Logger, timeout time.Duration) *OperationHandler {
	return &OperationHandler{
		Service: service,
		Users:   users,
		Logger:  logger,
		Timeout: timeout,
	}
}

// CreateOperation обрабатывает запросы для создания операции.
func (h *OperationHandler) CreateOperation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	caller, errorResponse := resolveCaller(ctx, h.Users, r)
	if errorResponse != nil {
		utils.SendError(w, errorResponse)
		return
	}

	var opReq models.OperationRequest
	if err := json.NewDecoder(r.Body).Decode(&opReq); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	op, err := h.Service.CreateOperation(ctx, caller.ID, opReq)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, h.Logger, http.StatusCreated, op)
}

// GetOperations обрабатывает запросы для получения списка активных операций.
func (h *OperationHandler) GetOperations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	operations, err := h.Service.ListActiveOperations(ctx)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, h.Logger, http.StatusOK, operations)
}

// GetOperation обрабатывает запросы для получения операции.
func (h *OperationHandler) GetOperation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	op, err := h.Service.GetOperation(ctx, r.PathValue("operationId"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, h.Logger, http.StatusOK, op)
}

// DeleteOperation обрабатывает запросы для удаления операции.
func (h *OperationHandler) DeleteOperation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	caller, errorResponse := resolveCaller(ctx, h.Users, r)
	if errorResponse != nil {
		utils.SendError(w, errorResponse)
		return
	}

	if err := h.Service.DeleteOperation(ctx, caller.ID, r.PathValue("operationId")); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetOperationBids обрабатывает запросы для получения предложений по операции.
func (h *OperationHandler) GetOperationBids(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	limit, offset, err := utils.ParseLimitOffset(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	if err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	bids, err := h.Service.ListOperationBids(ctx, r.PathValue("operationId"), limit, offset)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, h.Logger, http.StatusOK, bids)
}

// closedResponse - ответ на закрытие просроченных операций.
type closedResponse struct {
	Closed int64 `json:"closed"`
}

// UpdateExpired обрабатывает запросы для закрытия просроченных операций.
func (h *OperationHandler) UpdateExpired(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	caller, errorResponse := resolveCaller(ctx, h.Users, r)
	if errorResponse != nil {
		utils.SendError(w, errorResponse)
		return
	}

	closed, err := h.Service.CloseExpiredOperationsAs(ctx, caller.ID)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, h.Logger, http.StatusOK, closedResponse{Closed: closed})
}
