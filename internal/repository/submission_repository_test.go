package repository

import (
	"context"
	"testing"
	"time"

	"bistro-checkout/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a PostgreSQL container and returns a pool with the
// submission schema in place.
func setupTestDB(t *testing.T) (SubmissionRepository, *pgxpool.Pool, func()) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	repo := NewSubmissionRepository(pool, zerolog.Nop())
	require.NoError(t, repo.EnsureSchema(ctx))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return repo, pool, cleanup
}

func TestSubmissionRepository_EnsureSchemaIsIdempotent(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	assert.NoError(t, repo.EnsureSchema(context.Background()))
}

func TestSubmissionRepository_RecordAndList(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	sessionID := uuid.New()
	addressID := int64(7)
	orderID := int64(501)
	code := "AB12"
	category := model.CategoryBusiness
	message := "The restaurant is not accepting orders right now."
	base := time.Now().UTC().Truncate(time.Millisecond)

	failed := model.SubmissionRecord{
		ID:        uuid.New(),
		SessionID: sessionID,
		UserID:    42,
		Status:    model.SubmissionFailed,
		Draft: model.OrderDraft{
			FulfillmentMode: model.FulfillmentDelivery,
			AddressID:       &addressID,
			PaymentMethod:   model.PaymentPix,
			UseCart:         true,
		},
		Total:         decimal.RequireFromString("55.50"),
		ErrorCategory: &category,
		ErrorMessage:  &message,
		CreatedAt:     base,
	}
	succeeded := model.SubmissionRecord{
		ID:               uuid.New(),
		SessionID:        sessionID,
		UserID:           42,
		Status:           model.SubmissionSucceeded,
		Draft:            model.OrderDraft{FulfillmentMode: model.FulfillmentPickup, PointsToRedeem: 300, UseCart: true},
		Total:            decimal.RequireFromString("47.125"),
		OrderID:          &orderID,
		ConfirmationCode: &code,
		CreatedAt:        base.Add(time.Minute),
	}
	other := succeeded
	other.ID = uuid.New()
	other.UserID = 43

	require.NoError(t, repo.Record(ctx, failed))
	require.NoError(t, repo.Record(ctx, succeeded))
	require.NoError(t, repo.Record(ctx, other))

	records, err := repo.ListByUser(ctx, 42, 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	latest := records[0]
	assert.Equal(t, succeeded.ID, latest.ID)
	assert.Equal(t, model.SubmissionSucceeded, latest.Status)
	assert.True(t, decimal.RequireFromString("47.125").Equal(latest.Total))
	require.NotNil(t, latest.OrderID)
	assert.Equal(t, orderID, *latest.OrderID)
	assert.Equal(t, int64(300), latest.Draft.PointsToRedeem)
	assert.Nil(t, latest.ErrorCategory)

	first := records[1]
	assert.Equal(t, model.SubmissionFailed, first.Status)
	require.NotNil(t, first.ErrorCategory)
	assert.Equal(t, model.CategoryBusiness, *first.ErrorCategory)
	require.NotNil(t, first.Draft.AddressID)
	assert.Equal(t, addressID, *first.Draft.AddressID)
	assert.Nil(t, first.OrderID)

	page, err := repo.ListByUser(ctx, 42, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, failed.ID, page[0].ID)

	none, err := repo.ListByUser(ctx, 99, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSubmissionRepository_RejectsUnknownStatus(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.Record(context.Background(), model.SubmissionRecord{
		ID:        uuid.New(),
		SessionID: uuid.New(),
		UserID:    1,
		Status:    "pending",
		Total:     decimal.Zero,
		CreatedAt: time.Now(),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record submission")
}

func TestSubmissionRepository_ListAfterPoolClosed(t *testing.T) {
	repo, pool, cleanup := setupTestDB(t)
	defer cleanup()

	pool.Close()

	_, err := repo.ListByUser(context.Background(), 42, 10, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query submissions")
}
