package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"bistro-checkout/internal/config"
	"bistro-checkout/internal/database"
	"bistro-checkout/internal/model"
	"bistro-checkout/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// testToken is the bearer token the fake restaurant API accepts.
const testToken = "customer-token"

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	Repo      repository.SubmissionRepository
}

// SetupTestDB creates a PostgreSQL test container, a pool built the way the
// server builds it, and the submission log schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := postgresContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		Enabled:         true,
		Host:            host,
		Port:            port.Int(),
		User:            "testuser",
		Password:        "testpass",
		Database:        "testdb",
		MaxConnections:  5,
		MinConnections:  1,
		MaxConnLifetime: 300,
	}

	logger := zerolog.Nop()
	pool, err := database.NewPool(ctx, dbConfig, logger)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	repo := repository.NewSubmissionRepository(pool, logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		Repo:      repo,
	}
}

// CleanupDB removes every logged submission.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	if _, err := pool.Exec(context.Background(), "DELETE FROM checkout_submissions"); err != nil {
		t.Logf("failed to clean submission log: %v", err)
	}
}

// FakeRestaurantAPI serves the subset of the restaurant REST API the checkout
// consumes, backed by in-memory state.
type FakeRestaurantAPI struct {
	Server *httptest.Server

	mu          sync.Mutex
	cart        []model.CartItem
	addresses   []model.Address
	balance     int64
	orders      []model.OrderDraft
	nextID      int64
	orderErrors []apiError
}

type apiError struct {
	status int
	code   string
	msg    string
}

// NewFakeRestaurantAPI starts the fake with one cart item worth 50.00, one
// default address and a 300 point balance.
func NewFakeRestaurantAPI(t *testing.T) *FakeRestaurantAPI {
	t.Helper()

	number := "100"
	api := &FakeRestaurantAPI{
		cart: []model.CartItem{{
			ProductID: 1,
			Quantity:  2,
			Extras: []model.CartExtra{
				{IngredientID: 8, Quantity: 1, UnitPrice: decimal.RequireFromString("2.50")},
			},
			ItemSubtotal: decimal.RequireFromString("50.00"),
		}},
		addresses: []model.Address{{
			ID: 1, Street: "Rua da Aurora", Number: &number, Neighborhood: "Boa Vista",
			City: "Recife", State: "PE", PostalCode: "50050000", IsDefault: true,
		}},
		balance: 300,
		nextID:  1000,
	}

	r := chi.NewRouter()
	r.Use(api.requireToken)
	r.Get("/api/cart", func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		defer api.mu.Unlock()
		writeFakeJSON(w, http.StatusOK, map[string]any{"items": api.cart})
	})
	r.Delete("/api/cart", func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.cart = nil
		api.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/api/addresses", func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		defer api.mu.Unlock()
		writeFakeJSON(w, http.StatusOK, api.addresses)
	})
	r.Get("/api/loyalty/{userID}/balance", func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		defer api.mu.Unlock()
		writeFakeJSON(w, http.StatusOK, model.LoyaltyBalance{Balance: api.balance})
	})
	r.Get("/api/settings/{name}", func(w http.ResponseWriter, r *http.Request) {
		values := map[string]string{"delivery-fee": "6.00", "redemption-rate": "100", "earn-rate": "1"}
		v, ok := values[chi.URLParam(r, "name")]
		if !ok {
			writeFakeJSON(w, http.StatusNotFound, map[string]string{"code": "NOT_FOUND", "message": "unknown setting"})
			return
		}
		writeFakeJSON(w, http.StatusOK, map[string]string{"value": v})
	})
	r.Get("/api/ingredients/reference-prices", func(w http.ResponseWriter, r *http.Request) {
		writeFakeJSON(w, http.StatusOK, map[string]any{"prices": []model.IngredientPrice{
			{IngredientID: 8, UnitPrice: decimal.RequireFromString("2.50"), Unit: "un"},
		}})
	})
	r.Post("/api/orders", func(w http.ResponseWriter, r *http.Request) {
		var draft model.OrderDraft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			writeFakeJSON(w, http.StatusBadRequest, map[string]string{"code": "VALIDATION_ERROR", "message": "bad body"})
			return
		}

		api.mu.Lock()
		defer api.mu.Unlock()
		if len(api.orderErrors) > 0 {
			e := api.orderErrors[0]
			api.orderErrors = api.orderErrors[1:]
			writeFakeJSON(w, e.status, map[string]string{"code": e.code, "message": e.msg})
			return
		}
		api.orders = append(api.orders, draft)
		api.nextID++
		api.balance -= draft.PointsToRedeem
		writeFakeJSON(w, http.StatusCreated, model.OrderConfirmation{
			OrderID:          api.nextID,
			ConfirmationCode: fmt.Sprintf("C%d", api.nextID),
		})
	})

	api.Server = httptest.NewServer(r)
	t.Cleanup(api.Server.Close)
	return api
}

// BaseURL is the API root the checkout client should use.
func (a *FakeRestaurantAPI) BaseURL() string {
	return a.Server.URL + "/api"
}

// FailNextOrder makes the next order submission fail with the given response.
func (a *FakeRestaurantAPI) FailNextOrder(status int, code, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.orderErrors = append(a.orderErrors, apiError{status: status, code: code, msg: message})
}

// Orders returns the orders placed so far.
func (a *FakeRestaurantAPI) Orders() []model.OrderDraft {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]model.OrderDraft(nil), a.orders...)
}

// CartSize returns the number of items left in the cart.
func (a *FakeRestaurantAPI) CartSize() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.cart)
}

func (a *FakeRestaurantAPI) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			writeFakeJSON(w, http.StatusUnauthorized, map[string]string{"code": "UNAUTHORIZED", "message": "login required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeFakeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
