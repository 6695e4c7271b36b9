package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bistro-checkout/internal/client"
	"bistro-checkout/internal/handler"
	"bistro-checkout/internal/metrics"
	"bistro-checkout/internal/model"
	"bistro-checkout/internal/pricing"
	"bistro-checkout/internal/router"
	"bistro-checkout/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-api-key"

func setupTestServer(t *testing.T, testDB *TestDB, api *FakeRestaurantAPI) http.Handler {
	t.Helper()

	logger := zerolog.Nop()

	remote, err := client.New(api.BaseURL(), logger, client.WithTimeout(5*time.Second))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	checkouts := service.NewCheckoutService(service.CheckoutOptions{
		Remotes:     func(token string) service.Remote { return remote.WithToken(token) },
		Defaults:    pricing.DefaultSettings(),
		Recorder:    testDB.Repo,
		Metrics:     metrics.NewCheckoutMetrics(reg),
		IdleTimeout: time.Minute,
		MaxSessions: 10,
	}, logger)
	t.Cleanup(checkouts.Shutdown)

	return router.New(
		handler.NewCheckoutHandler(checkouts, logger),
		handler.NewSubmissionHandler(service.NewSubmissionService(testDB.Repo, logger), logger),
		handler.NewHealthHandler(map[string]handler.HealthCheck{"database": testDB.Pool.Ping}, logger),
		router.Options{APIKey: testAPIKey, AllowedOrigins: []string{"*"}, Gatherer: reg},
		logger,
	)
}

// call performs an authenticated request and decodes the JSON response.
func call(t *testing.T, h http.Handler, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 && w.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

func field(t *testing.T, m map[string]any, path ...string) any {
	t.Helper()
	var cur any = m
	for _, p := range path {
		obj, ok := cur.(map[string]any)
		require.Truef(t, ok, "%v is not an object at %q", cur, p)
		cur = obj[p]
	}
	return cur
}

func TestCheckoutAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	api := NewFakeRestaurantAPI(t)
	h := setupTestServer(t, testDB, api)

	t.Run("Full checkout with redemption and cash", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		status, view := call(t, h, http.MethodPost, "/api/checkout/sessions", map[string]int64{"userId": 42}, testToken)
		require.Equal(t, http.StatusCreated, status)
		assert.Empty(t, field(t, view, "notices"))
		assert.Equal(t, "delivery", field(t, view, "fulfillment", "mode"))
		assert.Equal(t, "56.00", field(t, view, "totals", "total"))
		base := "/api/checkout/sessions/" + field(t, view, "sessionId").(string)

		status, view = call(t, h, http.MethodPut, base+"/fulfillment", map[string]string{"mode": "pickup"}, "")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "50.00", field(t, view, "totals", "total"))

		status, view = call(t, h, http.MethodPut, base+"/payment", map[string]string{"method": "cash"}, "")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, field(t, view, "payment", "tenderRequired"))

		status, view = call(t, h, http.MethodPut, base+"/redemption", map[string]bool{"enabled": true}, "")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(300), field(t, view, "redemption", "points"))
		assert.Equal(t, "3.00", field(t, view, "totals", "discount"))
		assert.Equal(t, "47.00", field(t, view, "totals", "total"))

		status, view = call(t, h, http.MethodPut, base+"/cash", map[string]string{"tendered": "50,00"}, "")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "3.00", field(t, view, "payment", "change"))

		// The restaurant refuses the first attempt; the checkout can be retried.
		api.FailNextOrder(http.StatusUnprocessableEntity, model.ErrCodeStoreClosed, "closed")
		status, body := call(t, h, http.MethodPost, base+"/submit", model.SubmitRequest{}, "")
		require.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Equal(t, model.ErrCodeStoreClosed, field(t, body, "error"))
		assert.Equal(t, string(model.CategoryBusiness), field(t, body, "category"))

		_, view = call(t, h, http.MethodGet, base, nil, "")
		assert.Equal(t, "idle", field(t, view, "submission", "state"))

		status, body = call(t, h, http.MethodPost, base+"/submit", model.SubmitRequest{Notes: "ring the bell"}, "")
		require.Equal(t, http.StatusCreated, status)
		assert.Equal(t, "succeeded", field(t, body, "checkout", "submission", "state"))
		assert.Empty(t, field(t, body, "checkout", "lines"))

		orders := api.Orders()
		require.Len(t, orders, 1)
		assert.Equal(t, model.FulfillmentPickup, orders[0].FulfillmentMode)
		assert.Nil(t, orders[0].AddressID)
		assert.Equal(t, model.PaymentCash, orders[0].PaymentMethod)
		assert.Equal(t, int64(300), orders[0].PointsToRedeem)
		require.NotNil(t, orders[0].Tendered)
		assert.Equal(t, "50", orders[0].Tendered.String())
		assert.True(t, orders[0].UseCart)
		assert.Equal(t, 0, api.CartSize())

		status, _ = call(t, h, http.MethodPost, base+"/submit", model.SubmitRequest{}, "")
		assert.Equal(t, http.StatusConflict, status)

		req := httptest.NewRequest(http.MethodGet, "/api/users/42/submissions", nil)
		req.Header.Set("X-API-Key", testAPIKey)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var records []model.SubmissionRecord
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
		require.Len(t, records, 2)
		assert.Equal(t, model.SubmissionSucceeded, records[0].Status)
		require.NotNil(t, records[0].OrderID)
		assert.Equal(t, model.SubmissionFailed, records[1].Status)
		require.NotNil(t, records[1].ErrorCategory)
		assert.Equal(t, model.CategoryBusiness, *records[1].ErrorCategory)
	})

	t.Run("Unauthenticated customer gets a degraded checkout", func(t *testing.T) {
		status, view := call(t, h, http.MethodPost, "/api/checkout/sessions", map[string]int64{"userId": 42}, "")
		require.Equal(t, http.StatusCreated, status)

		notices, ok := field(t, view, "notices").([]any)
		require.True(t, ok)
		assert.Len(t, notices, 4)
		assert.Empty(t, field(t, view, "addresses"))
		// Nothing selected yet, so the default delivery fee still applies.
		assert.Equal(t, "5.50", field(t, view, "totals", "total"))

		base := "/api/checkout/sessions/" + field(t, view, "sessionId").(string)
		status, body := call(t, h, http.MethodPost, base+"/submit", model.SubmitRequest{}, "")
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Equal(t, model.ErrCodeFulfillmentRequired, field(t, body, "error"))

		status, _ = call(t, h, http.MethodDelete, base, nil, "")
		assert.Equal(t, http.StatusNoContent, status)
	})

	t.Run("Health reports the database", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"database":"ok"`)
	})
}
