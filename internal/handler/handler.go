package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"bistro-checkout/internal/checkout"
	"bistro-checkout/internal/fulfillment"
	"bistro-checkout/internal/model"
	"bistro-checkout/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}, logger zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already sent, so encode failures are only logged.
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error().Err(err).Int("status", status).Msg("failed to encode response")
	}
}

// writeError writes an error response with the given status code.
func writeError(w http.ResponseWriter, status int, body model.ErrorResponse, logger zerolog.Logger) {
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("error", body.Error).Str("message", body.Message).Int("status", status).Msg("handler error")
	writeJSON(w, status, body, logger)
}

// badRequest writes a 400 with the given code and message.
func badRequest(w http.ResponseWriter, code, message string, logger zerolog.Logger) {
	writeError(w, http.StatusBadRequest, model.ErrorResponse{Error: code, Message: message}, logger)
}

// writeServiceError maps an error returned by the service layer to a
// response.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var (
		verr *fulfillment.ValidationError
		ce   *model.CheckoutError
		de   *model.DomainError
		re   *model.RemoteError
		ne   *model.NetworkError
		me   *model.MalformedResponseError
	)

	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, model.ErrorResponse{
			Error:    model.ErrCodeInvalidAddress,
			Message:  verr.Error(),
			Category: model.CategoryValidation,
			Fields:   verr.Fields,
		}, logger)

	case service.IsSuperseded(err):
		writeError(w, http.StatusConflict, model.ErrorResponse{
			Error:   model.ErrCodeSuperseded,
			Message: err.Error(),
		}, logger)

	case errors.As(err, &ce):
		writeCheckoutError(w, ce, logger)

	case errors.As(err, &de):
		writeError(w, domainStatus(de), model.ErrorResponse{Error: de.Code, Message: de.Message}, logger)

	case errors.As(err, &re), errors.As(err, &ne), errors.As(err, &me):
		writeCheckoutError(w, checkout.MapError(err), logger)

	default:
		logger.Error().Err(err).Msg("unexpected service error")
		writeError(w, http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.ErrCodeInternalError,
			Message: "internal server error",
		}, logger)
	}
}

func writeCheckoutError(w http.ResponseWriter, ce *model.CheckoutError, logger zerolog.Logger) {
	code := ce.Code
	if code == "" {
		code = model.ErrCodeValidation
	}
	writeError(w, categoryStatus(ce.Category), model.ErrorResponse{
		Error:     code,
		Message:   ce.Message,
		Category:  ce.Category,
		Retryable: ce.Retryable,
	}, logger)
}

func categoryStatus(c model.ErrorCategory) int {
	switch c {
	case model.CategoryValidation, model.CategoryRedemption, model.CategoryBusiness:
		return http.StatusUnprocessableEntity
	case model.CategoryNetwork, model.CategoryServer:
		return http.StatusBadGateway
	case model.CategorySchema:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func domainStatus(de *model.DomainError) int {
	switch de.Code {
	case model.ErrCodeSessionNotFound, model.ErrCodeAddressNotFound:
		return http.StatusNotFound
	case model.ErrCodeSubmitInProgress, model.ErrCodeAlreadySubmitted:
		return http.StatusConflict
	case model.ErrCodeTooManySessions:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

// decodeJSON reads a bounded JSON body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, logger zerolog.Logger) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		badRequest(w, model.ErrCodeInvalidJSON, "invalid request body", logger)
		return false
	}
	return true
}

// sessionID parses the sessionID path parameter, writing a 400 on failure.
func sessionID(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		badRequest(w, model.ErrCodeInvalidID, "invalid session ID format", logger)
		return uuid.Nil, false
	}
	return id, true
}

// int64Param parses a positive integer path parameter, writing a 400 on
// failure.
func int64Param(w http.ResponseWriter, r *http.Request, name string, logger zerolog.Logger) (int64, bool) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || v < 1 {
		badRequest(w, model.ErrCodeInvalidID, "invalid "+name+" format", logger)
		return 0, false
	}
	return v, true
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
