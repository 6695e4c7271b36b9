package handler

import (
	"net/http"

	"bistro-checkout/internal/model"
	"bistro-checkout/internal/service"

	"github.com/rs/zerolog"
)

// SubmissionHandler serves the order submission log.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler creates a new submission log handler.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("handler", "submission").Logger(),
	}
}

// ListByUser handles GET /api/users/{userID}/submissions.
func (h *SubmissionHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "userID", h.logger)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		badRequest(w, model.ErrCodeInvalidID, "limit must be an integer", h.logger)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		badRequest(w, model.ErrCodeInvalidID, "offset must be an integer", h.logger)
		return
	}

	records, err := h.service.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if records == nil {
		records = []model.SubmissionRecord{}
	}
	writeJSON(w, http.StatusOK, records, h.logger)
}
