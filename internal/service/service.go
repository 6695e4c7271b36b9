package service

import (
	"context"

	"bistro-checkout/internal/checkout"
	"bistro-checkout/internal/fulfillment"
	"bistro-checkout/internal/ingredient"
	"bistro-checkout/internal/model"

	"github.com/google/uuid"
)

// Remote is everything a checkout session consumes from the restaurant API.
type Remote interface {
	checkout.CartClient
	checkout.LoyaltyClient
	checkout.OrderClient
	checkout.SettingsClient
	fulfillment.AddressStore
	ingredient.PriceFetcher
}

// RemoteFactory returns a Remote acting on behalf of the bearer of token.
type RemoteFactory func(token string) Remote

// OpenRequest starts a checkout.
type OpenRequest struct {
	UserID int64  `json:"userId"`
	Token  string `json:"-"`
}

// FulfillmentRequest selects delivery to a saved address or pickup.
type FulfillmentRequest struct {
	Mode      model.FulfillmentMode `json:"mode"`
	AddressID int64                 `json:"addressId"`
}

// RedemptionRequest toggles point redemption. A nil Points asks for the
// largest redeemable amount.
type RedemptionRequest struct {
	Enabled bool   `json:"enabled"`
	Points  *int64 `json:"points"`
}

// CheckoutService defines operations on screen-scoped checkout sessions.
type CheckoutService interface {
	// Open creates a session seeded from the cart, addresses, balance and settings.
	Open(ctx context.Context, req OpenRequest) (*CheckoutView, error)

	// View returns the current state of a session.
	View(ctx context.Context, id uuid.UUID) (*CheckoutView, error)

	// Close discards a session.
	Close(ctx context.Context, id uuid.UUID) error

	SetFulfillment(ctx context.Context, id uuid.UUID, req FulfillmentRequest) (*CheckoutView, error)
	AddAddress(ctx context.Context, id uuid.UUID, in model.AddressInput) (*CheckoutView, error)
	EditAddress(ctx context.Context, id uuid.UUID, addressID int64, in model.AddressInput) (*CheckoutView, error)
	SetDefaultAddress(ctx context.Context, id uuid.UUID, addressID int64) (*CheckoutView, error)
	SetPaymentMethod(ctx context.Context, id uuid.UUID, method string) (*CheckoutView, error)
	SetCashTendered(ctx context.Context, id uuid.UUID, tendered string) (*CheckoutView, error)
	SetRedemption(ctx context.Context, id uuid.UUID, req RedemptionRequest) (*CheckoutView, error)

	// LookupIngredient resolves the ingredient selected in a form field. A
	// newer lookup on the same session supersedes this one.
	LookupIngredient(ctx context.Context, id uuid.UUID, ingredientID int64) (model.IngredientPrice, error)

	// Submit places the order.
	Submit(ctx context.Context, id uuid.UUID, req model.SubmitRequest) (*SubmitResult, error)
}

// SubmissionService exposes the submission log.
type SubmissionService interface {
	// ListByUser returns the submission attempts of a user, newest first.
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.SubmissionRecord, error)
}
