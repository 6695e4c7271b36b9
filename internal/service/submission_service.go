package service

import (
	"context"
	"fmt"

	"bistro-checkout/internal/model"
	"bistro-checkout/internal/repository"

	"github.com/rs/zerolog"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// submissionService implements SubmissionService.
type submissionService struct {
	repo   repository.SubmissionRepository
	logger zerolog.Logger
}

// NewSubmissionService creates a new submission log service. A nil repo
// serves an empty log.
func NewSubmissionService(repo repository.SubmissionRepository, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		repo:   repo,
		logger: logger.With().Str("service", "submission").Logger(),
	}
}

// ListByUser returns the submission attempts of a user, newest first.
func (s *submissionService) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.SubmissionRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	if s.repo == nil {
		return []model.SubmissionRecord{}, nil
	}

	records, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list submissions")
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return records, nil
}
