package handler

import (
	"net/http"
	"strconv"

	"bookorder/internal/model"
	"bookorder/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Initiate handles POST /orders/initiate requests.
func (h *OrderHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var req model.InitiateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	resp, err := h.service.Initiate(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "failed to initiate order", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Verify handles POST /orders/verify requests.
func (h *OrderHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	order, err := h.service.Verify(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "failed to verify order", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// Resend handles POST /orders/resend-code requests.
func (h *OrderHandler) Resend(w http.ResponseWriter, r *http.Request) {
	var req model.ResendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	resp, err := h.service.Resend(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "failed to resend code", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// List handles GET /orders/ requests, optionally filtered by phone_number.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.List(r.Context(), r.URL.Query().Get("phone_number"))
	if err != nil {
		writeServiceError(w, err, "failed to list orders", h.logger)
		return
	}

	if orders == nil {
		orders = []model.ConfirmedOrder{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetByID handles GET /orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || orderID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid order ID format", h.logger)
		return
	}

	order, err := h.service.GetByID(r.Context(), orderID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to retrieve order", h.logger)
		return
	}

	if order == nil {
		writeError(w, http.StatusNotFound, model.ErrOrderNotFound.Message, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}
