package handler

import (
	"net/http"
	"strings"

	"bistro-checkout/internal/model"
	"bistro-checkout/internal/service"

	"github.com/rs/zerolog"
)

// CheckoutHandler handles checkout session HTTP requests.
type CheckoutHandler struct {
	service service.CheckoutService
	logger  zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(service service.CheckoutService, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		logger:  logger.With().Str("handler", "checkout").Logger(),
	}
}

type paymentRequest struct {
	Method string `json:"method"`
}

type cashRequest struct {
	Tendered string `json:"tendered"`
}

// Open handles POST /api/checkout/sessions.
func (h *CheckoutHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req service.OpenRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if req.UserID < 1 {
		badRequest(w, model.ErrCodeMissingField, "userId is required", h.logger)
		return
	}
	req.Token = bearerToken(r)

	view, err := h.service.Open(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, view, h.logger)
}

// Get handles GET /api/checkout/sessions/{sessionID}.
func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r, h.logger)
	if !ok {
		return
	}
	view, err := h.service.View(r.Context(), id)
	h.respond(w, view, err)
}

// Close handles DELETE /api/checkout/sessions/{sessionID}.
func (h *CheckoutHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.service.Close(r.Context(), id); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetFulfillment handles PUT /api/checkout/sessions/{sessionID}/fulfillment.
func (h *CheckoutHandler) SetFulfillment(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r, h.logger)
	if !ok {
		return
	}
	var req service.FulfillmentRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	view, err := h.service.SetFulfillment(r.Context(), id, req)
	h.respond(w, view, err)
}

// AddAddress handles POST /api/checkout/sessions/{sessionID}/addresses.
func (h *CheckoutHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r, h.logger)
	if !ok {
		return
	}
	var in model.AddressInput
	if !decodeJSON(w, r, &in, h.logger) {
		return
	}
	view, err := h.service.AddAddress(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, view, h.logger)
}

// EditAddress handles PUT /api/checkout/sessions/{sessionID}/addresses/{addressID}.
func (h *CheckoutHandler) EditAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r, h.logger)
	if !ok {
		return
	}
	addressID, ok := int64Param(w, r, "addressID", h.logger)
	if !ok {
		return
	}
	var in model.AddressInput
	if !decodeJSON(w, r, &in, h.logger) {
		return
	}
	view, err := h.service.EditAddress(r.Context(), id, addressID, in)
	h.respond(w, view, err)
}

// SetDefaultAddress handles PUT /api/checkout/sessions/{sessionID}/addresses/{addressID}/default.
func (h *CheckoutHandler) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r, h.logger)
	if !ok {
		return
	}
	addressID, ok := int64Param(w, r, "addressID", h.logger)
	if !ok {
		return
	}
	view, err := h.service.SetDefaultAddress(r.Context(), id, addressID)
	h.respond(w, view, err)
}

// SetPaymentMethod handles PUT /api/checkout/sessions/{sessionID}/payment.
func (h *CheckoutHandler) SetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r, h.logger)
	if !ok {
		return
	}
	var req paymentRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	view, err := h.service.SetPaymentMethod(r.Context(), id, req.Method)
	h.respond(w, view, err)
}

// SetCashTendered handles PUT /api/checkout/sessions/{sessionID}/cash.
func (h *CheckoutHandler) SetCashTendered(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r, h.logger)
	if !ok {
		return
	}
	var req cashRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	view, err := h.service.SetCashTendered(r.Context(), id, req.Tendered)
	h.respond(w, view, err)
}

// SetRedemption handles PUT /api/checkout/sessions/{sessionID}/redemption.
func (h *CheckoutHandler) SetRedemption(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r, h.logger)
	if !ok {
		return
	}
	var req service.RedemptionRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	view, err := h.service.SetRedemption(r.Context(), id, req)
	h.respond(w, view, err)
}

// LookupIngredient handles GET /api/checkout/sessions/{sessionID}/ingredients/{ingredientID}.
func (h *CheckoutHandler) LookupIngredient(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r, h.logger)
	if !ok {
		return
	}
	ingredientID, ok := int64Param(w, r, "ingredientID", h.logger)
	if !ok {
		return
	}
	price, err := h.service.LookupIngredient(r.Context(), id, ingredientID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, price, h.logger)
}

// Submit handles POST /api/checkout/sessions/{sessionID}/submit.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r, h.logger)
	if !ok {
		return
	}
	var req model.SubmitRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req, h.logger) {
		return
	}
	result, err := h.service.Submit(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, result, h.logger)
}

func (h *CheckoutHandler) respond(w http.ResponseWriter, view *service.CheckoutView, err error) {
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view, h.logger)
}

// bearerToken returns the token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	const prefix = "bearer "
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
