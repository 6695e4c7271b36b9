package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("dial tcp: connection refused") }

	tests := []struct {
		name           string
		checks         map[string]HealthCheck
		expectedStatus int
		expected       healthResponse
	}{
		{
			name:           "No dependencies",
			expectedStatus: http.StatusOK,
			expected:       healthResponse{Status: "healthy"},
		},
		{
			name:           "All dependencies up",
			checks:         map[string]HealthCheck{"database": ok, "redis": ok},
			expectedStatus: http.StatusOK,
			expected:       healthResponse{Status: "healthy", Checks: map[string]string{"database": "ok", "redis": "ok"}},
		},
		{
			name:           "One dependency down",
			checks:         map[string]HealthCheck{"database": ok, "redis": down},
			expectedStatus: http.StatusServiceUnavailable,
			expected:       healthResponse{Status: "degraded", Checks: map[string]string{"database": "ok", "redis": "unavailable"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.checks, zerolog.Nop())

			w := httptest.NewRecorder()
			h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			var got healthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.expected, got)
		})
	}
}
