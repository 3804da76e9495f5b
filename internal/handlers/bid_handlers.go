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

// BidHandler - структура для обработки HTTP-запросов.
type BidHandler struct {
	Service *services.BidService
	Users   *services.UserService
	Logger  *slog.Logger
	Timeout time.Duration
}

// NewBidHandler создает новый экземпляр BidHandler.
func NewBidHandler(service *services.BidService, users *services.UserService, logger *slog.Logger, timeout time.Duration) *BidHandler {
	return &BidHandler{
		Service: service,
		Users:   users,
		Logger:  logger,
		Timeout: timeout,
	}
}

// CreateBid обрабатывает запросы для создания предложения.
func (h *BidHandler) CreateBid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	caller, errorResponse := resolveCaller(ctx, h.Users, r)
	if errorResponse != nil {
		utils.SendError(w, errorResponse)
		return
	}

	var bidReq models.BidRequest
	if err := json.NewDecoder(r.Body).Decode(&bidReq); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	newBid, err := h.Service.SubmitBid(ctx, caller.ID, bidReq)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, h.Logger, http.StatusCreated, newBid)
}

// GetBid обрабатывает запросы для получения предложения.
func (h *BidHandler) GetBid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	bid, err := h.Service.GetBid(ctx, r.PathValue("bidId"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, h.Logger, http.StatusOK, bid)
}
