package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"bistro-checkout/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const submissionSchema = `
	CREATE TABLE IF NOT EXISTS checkout_submissions (
		id UUID PRIMARY KEY,
		session_id UUID NOT NULL,
		user_id BIGINT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('succeeded', 'failed')),
		draft JSONB NOT NULL,
		total NUMERIC NOT NULL CHECK (total >= 0),
		order_id BIGINT,
		confirmation_code TEXT,
		error_category TEXT,
		error_message TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_checkout_submissions_user_created
		ON checkout_submissions (user_id, created_at DESC);
`

// submissionRepository implements the SubmissionRepository interface using PostgreSQL.
type submissionRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewSubmissionRepository creates a new PostgreSQL-backed submission log.
func NewSubmissionRepository(pool *pgxpool.Pool, logger zerolog.Logger) SubmissionRepository {
	return &submissionRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "submission").Logger(),
	}
}

// EnsureSchema creates the submission table when it does not exist.
func (r *submissionRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, submissionSchema); err != nil {
		r.logger.Error().Err(err).Msg("failed to create submission schema")
		return fmt.Errorf("failed to create submission schema: %w", err)
	}
	return nil
}

// Record inserts one submission attempt.
func (r *submissionRepository) Record(ctx context.Context, rec model.SubmissionRecord) error {
	draft, err := json.Marshal(rec.Draft)
	if err != nil {
		return fmt.Errorf("failed to encode order draft: %w", err)
	}

	var category *string
	if rec.ErrorCategory != nil {
		c := string(*rec.ErrorCategory)
		category = &c
	}

	query := `
		INSERT INTO checkout_submissions (
			id, session_id, user_id, status, draft, total,
			order_id, confirmation_code, error_category, error_message, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10, $11)
	`

	_, err = r.pool.Exec(ctx, query,
		rec.ID,
		rec.SessionID,
		rec.UserID,
		string(rec.Status),
		draft,
		rec.Total.String(),
		rec.OrderID,
		rec.ConfirmationCode,
		category,
		rec.ErrorMessage,
		rec.CreatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("submission_id", rec.ID.String()).
			Str("session_id", rec.SessionID.String()).
			Msg("failed to record submission")
		return fmt.Errorf("failed to record submission: %w", err)
	}

	r.logger.Debug().
		Str("submission_id", rec.ID.String()).
		Str("status", string(rec.Status)).
		Msg("submission recorded")

	return nil
}

// ListByUser returns the submissions of userID, newest first.
func (r *submissionRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.SubmissionRecord, error) {
	query := `
		SELECT id, session_id, user_id, status, draft, total::text,
			order_id, confirmation_code, error_category, error_message, created_at
		FROM checkout_submissions
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to query submissions")
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	records := make([]model.SubmissionRecord, 0)
	for rows.Next() {
		var (
			rec      model.SubmissionRecord
			status   string
			draft    []byte
			total    string
			category *string
		)
		err := rows.Scan(
			&rec.ID,
			&rec.SessionID,
			&rec.UserID,
			&status,
			&draft,
			&total,
			&rec.OrderID,
			&rec.ConfirmationCode,
			&category,
			&rec.ErrorMessage,
			&rec.CreatedAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan submission row")
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}

		rec.Status = model.SubmissionStatus(status)
		if err := json.Unmarshal(draft, &rec.Draft); err != nil {
			return nil, fmt.Errorf("failed to decode order draft of submission %s: %w", rec.ID, err)
		}
		if rec.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("failed to decode total of submission %s: %w", rec.ID, err)
		}
		if category != nil {
			c := model.ErrorCategory(*category)
			rec.ErrorCategory = &c
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating submission rows")
		return nil, fmt.Errorf("error iterating submissions: %w", err)
	}

	return records, nil
}
