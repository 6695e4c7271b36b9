package service

import (
	"context"
	"errors"
	"testing"

	"bistro-checkout/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSubmissionRepository is a mock implementation of repository.SubmissionRepository.
type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) EnsureSchema(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockSubmissionRepository) Record(ctx context.Context, rec model.SubmissionRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *MockSubmissionRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.SubmissionRecord, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SubmissionRecord), args.Error(1)
}

func TestSubmissionService_ListByUser(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{name: "default limit", limit: 0, offset: 0, wantLimit: 20, wantOffset: 0},
		{name: "limit capped", limit: 500, offset: 10, wantLimit: 100, wantOffset: 10},
		{name: "negative offset", limit: 5, offset: -3, wantLimit: 5, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockSubmissionRepository)
			records := []model.SubmissionRecord{{ID: uuid.New(), UserID: 7, Status: model.SubmissionSucceeded}}
			repo.On("ListByUser", mock.Anything, int64(7), tt.wantLimit, tt.wantOffset).Return(records, nil)

			svc := NewSubmissionService(repo, zerolog.Nop())
			got, err := svc.ListByUser(context.Background(), 7, tt.limit, tt.offset)

			require.NoError(t, err)
			assert.Equal(t, records, got)
			repo.AssertExpectations(t)
		})
	}
}

func TestSubmissionService_ListByUserError(t *testing.T) {
	repo := new(MockSubmissionRepository)
	repo.On("ListByUser", mock.Anything, int64(7), 20, 0).Return(nil, errors.New("connection refused"))

	svc := NewSubmissionService(repo, zerolog.Nop())
	_, err := svc.ListByUser(context.Background(), 7, 0, 0)

	assert.ErrorContains(t, err, "failed to list submissions")
}

func TestSubmissionService_WithoutRepository(t *testing.T) {
	svc := NewSubmissionService(nil, zerolog.Nop())

	got, err := svc.ListByUser(context.Background(), 7, 0, 0)

	require.NoError(t, err)
	assert.Empty(t, got)
}
