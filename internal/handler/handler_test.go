package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	w := httptest.NewRecorder()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.Empty(t, logs.String())
}

func TestWriteJSON_LogsEncodeFailure(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	w := httptest.NewRecorder()
	writeJSON(w, http.StatusCreated, map[string]any{"bad": make(chan int)}, logger)

	assert.Equal(t, http.StatusCreated, w.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "failed to encode response", entry["message"])
	assert.Equal(t, float64(http.StatusCreated), entry["status"])
	assert.NotEmpty(t, entry["error"])
}
