package repository

import (
	"context"

	"bistro-checkout/internal/model"
)

// SubmissionRepository defines the interface for the order submission log.
type SubmissionRepository interface {
	// EnsureSchema creates the backing table if needed.
	EnsureSchema(ctx context.Context) error

	// Record stores one submission attempt.
	Record(ctx context.Context, rec model.SubmissionRecord) error

	// ListByUser returns a user's submissions, newest first.
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.SubmissionRecord, error)
}
