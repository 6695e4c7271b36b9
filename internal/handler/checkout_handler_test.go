package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"bistro-checkout/internal/fulfillment"
	"bistro-checkout/internal/ingredient"
	"bistro-checkout/internal/model"
	"bistro-checkout/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCheckoutService is a mock implementation of service.CheckoutService.
type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) view(args mock.Arguments) (*service.CheckoutView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CheckoutView), args.Error(1)
}

func (m *MockCheckoutService) Open(ctx context.Context, req service.OpenRequest) (*service.CheckoutView, error) {
	return m.view(m.Called(ctx, req))
}

func (m *MockCheckoutService) View(ctx context.Context, id uuid.UUID) (*service.CheckoutView, error) {
	return m.view(m.Called(ctx, id))
}

func (m *MockCheckoutService) Close(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCheckoutService) SetFulfillment(ctx context.Context, id uuid.UUID, req service.FulfillmentRequest) (*service.CheckoutView, error) {
	return m.view(m.Called(ctx, id, req))
}

func (m *MockCheckoutService) AddAddress(ctx context.Context, id uuid.UUID, in model.AddressInput) (*service.CheckoutView, error) {
	return m.view(m.Called(ctx, id, in))
}

func (m *MockCheckoutService) EditAddress(ctx context.Context, id uuid.UUID, addressID int64, in model.AddressInput) (*service.CheckoutView, error) {
	return m.view(m.Called(ctx, id, addressID, in))
}

func (m *MockCheckoutService) SetDefaultAddress(ctx context.Context, id uuid.UUID, addressID int64) (*service.CheckoutView, error) {
	return m.view(m.Called(ctx, id, addressID))
}

func (m *MockCheckoutService) SetPaymentMethod(ctx context.Context, id uuid.UUID, method string) (*service.CheckoutView, error) {
	return m.view(m.Called(ctx, id, method))
}

func (m *MockCheckoutService) SetCashTendered(ctx context.Context, id uuid.UUID, tendered string) (*service.CheckoutView, error) {
	return m.view(m.Called(ctx, id, tendered))
}

func (m *MockCheckoutService) SetRedemption(ctx context.Context, id uuid.UUID, req service.RedemptionRequest) (*service.CheckoutView, error) {
	return m.view(m.Called(ctx, id, req))
}

func (m *MockCheckoutService) LookupIngredient(ctx context.Context, id uuid.UUID, ingredientID int64) (model.IngredientPrice, error) {
	args := m.Called(ctx, id, ingredientID)
	return args.Get(0).(model.IngredientPrice), args.Error(1)
}

func (m *MockCheckoutService) Submit(ctx context.Context, id uuid.UUID, req model.SubmitRequest) (*service.SubmitResult, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SubmitResult), args.Error(1)
}

// checkoutRouter mounts h the same way the application router does.
func checkoutRouter(h *CheckoutHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/checkout/sessions", h.Open)
	r.Route("/api/checkout/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Close)
		r.Put("/fulfillment", h.SetFulfillment)
		r.Post("/addresses", h.AddAddress)
		r.Put("/addresses/{addressID}", h.EditAddress)
		r.Put("/addresses/{addressID}/default", h.SetDefaultAddress)
		r.Put("/payment", h.SetPaymentMethod)
		r.Put("/cash", h.SetCashTendered)
		r.Put("/redemption", h.SetRedemption)
		r.Get("/ingredients/{ingredientID}", h.LookupIngredient)
		r.Post("/submit", h.Submit)
	})
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var body model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCheckoutHandler_Open(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name           string
		body           interface{}
		headers        map[string]string
		setupMock      func(*MockCheckoutService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name:    "Success passes the bearer token through",
			body:    map[string]int64{"userId": 42},
			headers: map[string]string{"Authorization": "Bearer abc.def"},
			setupMock: func(m *MockCheckoutService) {
				m.On("Open", mock.Anything, service.OpenRequest{UserID: 42, Token: "abc.def"}).
					Return(&service.CheckoutView{SessionID: id, UserID: 42}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Invalid JSON",
			body:           "{",
			setupMock:      func(m *MockCheckoutService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
		{
			name:           "Missing user id",
			body:           map[string]int64{},
			setupMock:      func(m *MockCheckoutService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeMissingField,
		},
		{
			name: "Registry full",
			body: map[string]int64{"userId": 42},
			setupMock: func(m *MockCheckoutService) {
				m.On("Open", mock.Anything, service.OpenRequest{UserID: 42}).Return(nil, model.ErrTooManySessions)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedCode:   model.ErrCodeTooManySessions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockCheckoutService)
			tt.setupMock(svc)
			h := checkoutRouter(NewCheckoutHandler(svc, zerolog.Nop()))

			w := doRequest(t, h, http.MethodPost, "/api/checkout/sessions", tt.body, tt.headers)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Error)
			} else {
				var view service.CheckoutView
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
				assert.Equal(t, id, view.SessionID)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestCheckoutHandler_Get(t *testing.T) {
	id := uuid.New()

	t.Run("Invalid session ID", func(t *testing.T) {
		svc := new(MockCheckoutService)
		h := checkoutRouter(NewCheckoutHandler(svc, zerolog.Nop()))

		w := doRequest(t, h, http.MethodGet, "/api/checkout/sessions/not-a-uuid", nil, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, model.ErrCodeInvalidID, decodeError(t, w).Error)
		svc.AssertNotCalled(t, "View", mock.Anything, mock.Anything)
	})

	t.Run("Not found", func(t *testing.T) {
		svc := new(MockCheckoutService)
		svc.On("View", mock.Anything, id).Return(nil, model.ErrSessionNotFound)
		h := checkoutRouter(NewCheckoutHandler(svc, zerolog.Nop()))

		w := doRequest(t, h, http.MethodGet, "/api/checkout/sessions/"+id.String(), nil, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, model.ErrCodeSessionNotFound, decodeError(t, w).Error)
	})

	t.Run("Renders money with two decimals", func(t *testing.T) {
		svc := new(MockCheckoutService)
		totals := model.TotalsBreakdown{
			Subtotal: decimal.RequireFromString("50"),
			Total:    decimal.RequireFromString("50"),
		}
		svc.On("View", mock.Anything, id).Return(&service.CheckoutView{SessionID: id, Totals: totals.View()}, nil)
		h := checkoutRouter(NewCheckoutHandler(svc, zerolog.Nop()))

		w := doRequest(t, h, http.MethodGet, "/api/checkout/sessions/"+id.String(), nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"total":"50.00"`)
	})
}

func TestCheckoutHandler_Close(t *testing.T) {
	id := uuid.New()
	svc := new(MockCheckoutService)
	svc.On("Close", mock.Anything, id).Return(nil).Once()
	svc.On("Close", mock.Anything, id).Return(model.ErrSessionNotFound).Once()
	h := checkoutRouter(NewCheckoutHandler(svc, zerolog.Nop()))

	w := doRequest(t, h, http.MethodDelete, "/api/checkout/sessions/"+id.String(), nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, h, http.MethodDelete, "/api/checkout/sessions/"+id.String(), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckoutHandler_Mutations(t *testing.T) {
	id := uuid.New()
	base := "/api/checkout/sessions/" + id.String()
	ok := &service.CheckoutView{SessionID: id}
	points := int64(150)

	tests := []struct {
		name           string
		method         string
		path           string
		body           interface{}
		setupMock      func(*MockCheckoutService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name:   "Select pickup",
			method: http.MethodPut,
			path:   base + "/fulfillment",
			body:   map[string]string{"mode": "pickup"},
			setupMock: func(m *MockCheckoutService) {
				m.On("SetFulfillment", mock.Anything, id, service.FulfillmentRequest{Mode: model.FulfillmentPickup}).Return(ok, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "Unknown address",
			method: http.MethodPut,
			path:   base + "/fulfillment",
			body:   map[string]interface{}{"mode": "delivery", "addressId": 9},
			setupMock: func(m *MockCheckoutService) {
				m.On("SetFulfillment", mock.Anything, id, service.FulfillmentRequest{Mode: model.FulfillmentDelivery, AddressID: 9}).
					Return(nil, model.ErrAddressNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   model.ErrCodeAddressNotFound,
		},
		{
			name:   "Invalid address entry",
			method: http.MethodPost,
			path:   base + "/addresses",
			body:   model.AddressInput{Street: "Rua A"},
			setupMock: func(m *MockCheckoutService) {
				m.On("AddAddress", mock.Anything, id, model.AddressInput{Street: "Rua A"}).
					Return(nil, &fulfillment.ValidationError{Fields: map[string]string{"postalCode": "is required"}})
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidAddress,
		},
		{
			name:   "Address service unreachable",
			method: http.MethodPut,
			path:   base + "/addresses/3",
			body:   model.AddressInput{Street: "Rua A"},
			setupMock: func(m *MockCheckoutService) {
				m.On("EditAddress", mock.Anything, id, int64(3), model.AddressInput{Street: "Rua A"}).
					Return(nil, fmt.Errorf("failed to update address: %w", &model.NetworkError{Op: "update address", Err: context.DeadlineExceeded}))
			},
			expectedStatus: http.StatusBadGateway,
			expectedCode:   model.ErrCodeNetwork,
		},
		{
			name:   "Set default address",
			method: http.MethodPut,
			path:   base + "/addresses/3/default",
			setupMock: func(m *MockCheckoutService) {
				m.On("SetDefaultAddress", mock.Anything, id, int64(3)).Return(ok, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Invalid address ID",
			method:         http.MethodPut,
			path:           base + "/addresses/abc/default",
			setupMock:      func(m *MockCheckoutService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidID,
		},
		{
			name:   "Invalid payment method",
			method: http.MethodPut,
			path:   base + "/payment",
			body:   map[string]string{"method": "boleto"},
			setupMock: func(m *MockCheckoutService) {
				m.On("SetPaymentMethod", mock.Anything, id, "boleto").Return(nil, model.ErrInvalidPayment)
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidPayment,
		},
		{
			name:   "Cash tendered",
			method: http.MethodPut,
			path:   base + "/cash",
			body:   map[string]string{"tendered": "100,00"},
			setupMock: func(m *MockCheckoutService) {
				m.On("SetCashTendered", mock.Anything, id, "100,00").Return(ok, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "Redeem points",
			method: http.MethodPut,
			path:   base + "/redemption",
			body:   map[string]interface{}{"enabled": true, "points": 150},
			setupMock: func(m *MockCheckoutService) {
				m.On("SetRedemption", mock.Anything, id, service.RedemptionRequest{Enabled: true, Points: &points}).Return(ok, nil)
			},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockCheckoutService)
			tt.setupMock(svc)
			h := checkoutRouter(NewCheckoutHandler(svc, zerolog.Nop()))

			w := doRequest(t, h, tt.method, tt.path, tt.body, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Error)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestCheckoutHandler_AddAddressFields(t *testing.T) {
	id := uuid.New()
	svc := new(MockCheckoutService)
	svc.On("AddAddress", mock.Anything, id, mock.Anything).
		Return(nil, &fulfillment.ValidationError{Fields: map[string]string{"postalCode": "must be 8 digits"}})
	h := checkoutRouter(NewCheckoutHandler(svc, zerolog.Nop()))

	w := doRequest(t, h, http.MethodPost, "/api/checkout/sessions/"+id.String()+"/addresses", model.AddressInput{}, nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, model.CategoryValidation, body.Category)
	assert.Equal(t, "must be 8 digits", body.Fields["postalCode"])
}

func TestCheckoutHandler_LookupIngredient(t *testing.T) {
	id := uuid.New()
	path := "/api/checkout/sessions/" + id.String() + "/ingredients/8"

	t.Run("Success", func(t *testing.T) {
		svc := new(MockCheckoutService)
		svc.On("LookupIngredient", mock.Anything, id, int64(8)).
			Return(model.IngredientPrice{IngredientID: 8, UnitPrice: decimal.RequireFromString("1.5"), Unit: "un"}, nil)
		h := checkoutRouter(NewCheckoutHandler(svc, zerolog.Nop()))

		w := doRequest(t, h, http.MethodGet, path, nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"ingredientId":8`)
	})

	t.Run("Superseded", func(t *testing.T) {
		svc := new(MockCheckoutService)
		svc.On("LookupIngredient", mock.Anything, id, int64(8)).Return(model.IngredientPrice{}, ingredient.ErrSuperseded)
		h := checkoutRouter(NewCheckoutHandler(svc, zerolog.Nop()))

		w := doRequest(t, h, http.MethodGet, path, nil, nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, model.ErrCodeSuperseded, decodeError(t, w).Error)
	})
}

func TestCheckoutHandler_Submit(t *testing.T) {
	id := uuid.New()
	path := "/api/checkout/sessions/" + id.String() + "/submit"
	cpf := "529.982.247-25"

	tests := []struct {
		name            string
		body            interface{}
		setupMock       func(*MockCheckoutService)
		expectedStatus  int
		expectedCode    string
		expectRetryable bool
	}{
		{
			name: "Success",
			body: model.SubmitRequest{CPF: &cpf, Notes: "no onions"},
			setupMock: func(m *MockCheckoutService) {
				m.On("Submit", mock.Anything, id, model.SubmitRequest{CPF: &cpf, Notes: "no onions"}).
					Return(&service.SubmitResult{Confirmation: model.OrderConfirmation{OrderID: 10, ConfirmationCode: "K9"}}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "Empty body",
			setupMock: func(m *MockCheckoutService) {
				m.On("Submit", mock.Anything, id, model.SubmitRequest{}).
					Return(&service.SubmitResult{Confirmation: model.OrderConfirmation{OrderID: 11}}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "Local validation failure",
			body: model.SubmitRequest{},
			setupMock: func(m *MockCheckoutService) {
				m.On("Submit", mock.Anything, id, model.SubmitRequest{}).Return(nil, model.ValidationError(model.ErrEmptyCart))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   model.ErrCodeEmptyCart,
		},
		{
			name: "Store closed",
			body: model.SubmitRequest{},
			setupMock: func(m *MockCheckoutService) {
				m.On("Submit", mock.Anything, id, model.SubmitRequest{}).Return(nil, &model.CheckoutError{
					Category: model.CategoryBusiness,
					Code:     model.ErrCodeStoreClosed,
					Message:  "The restaurant is closed right now",
				})
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   model.ErrCodeStoreClosed,
		},
		{
			name: "Network failure is retryable",
			body: model.SubmitRequest{},
			setupMock: func(m *MockCheckoutService) {
				m.On("Submit", mock.Anything, id, model.SubmitRequest{}).Return(nil, &model.CheckoutError{
					Category:  model.CategoryNetwork,
					Code:      model.ErrCodeNetwork,
					Message:   "connection problem",
					Retryable: true,
				})
			},
			expectedStatus:  http.StatusBadGateway,
			expectedCode:    model.ErrCodeNetwork,
			expectRetryable: true,
		},
		{
			name: "Unreadable confirmation is not retryable",
			body: model.SubmitRequest{},
			setupMock: func(m *MockCheckoutService) {
				m.On("Submit", mock.Anything, id, model.SubmitRequest{}).
					Return(nil, &model.MalformedResponseError{Op: "POST /orders", Err: errors.New("unexpected EOF")})
			},
			expectedStatus: http.StatusBadGateway,
			expectedCode:   model.ErrCodeOrderUnknown,
		},
		{
			name: "Schema failure",
			body: model.SubmitRequest{},
			setupMock: func(m *MockCheckoutService) {
				m.On("Submit", mock.Anything, id, model.SubmitRequest{}).Return(nil, &model.CheckoutError{
					Category: model.CategorySchema,
					Code:     model.ErrCodeSchema,
					Message:  "maintenance",
				})
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedCode:   model.ErrCodeSchema,
		},
		{
			name: "Double submit",
			body: model.SubmitRequest{},
			setupMock: func(m *MockCheckoutService) {
				m.On("Submit", mock.Anything, id, model.SubmitRequest{}).Return(nil, model.ErrSubmitInProgress)
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   model.ErrCodeSubmitInProgress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockCheckoutService)
			tt.setupMock(svc)
			h := checkoutRouter(NewCheckoutHandler(svc, zerolog.Nop()))

			w := doRequest(t, h, http.MethodPost, path, tt.body, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				body := decodeError(t, w)
				assert.Equal(t, tt.expectedCode, body.Error)
				assert.Equal(t, tt.expectRetryable, body.Retryable)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{header: "Bearer abc", want: "abc"},
		{header: "bearer  abc ", want: "abc"},
		{header: "Basic abc", want: ""},
		{header: "Bearer", want: ""},
		{header: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", tt.header)
			assert.Equal(t, tt.want, bearerToken(req))
		})
	}
}
