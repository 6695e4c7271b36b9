// Package checkout keeps the state of one checkout screen consistent and
// submits the final order.
package checkout

import (
	"context"

	"bistro-checkout/internal/model"

	"github.com/shopspring/decimal"
)

// CartClient reads and clears the customer's cart.
type CartClient interface {
	FetchCart(ctx context.Context) (model.CartSnapshot, error)
	ClearCart(ctx context.Context) error
}

// LoyaltyClient reads point balances.
type LoyaltyClient interface {
	FetchLoyaltyBalance(ctx context.Context, userID int64) (model.LoyaltyBalance, error)
}

// OrderClient places orders.
type OrderClient interface {
	SubmitOrder(ctx context.Context, draft model.OrderDraft) (model.OrderConfirmation, error)
}

// SettingsClient reads system settings.
type SettingsClient interface {
	FetchDeliveryFee(ctx context.Context) (decimal.Decimal, error)
	FetchRedemptionRate(ctx context.Context) (decimal.Decimal, error)
	FetchEarnRate(ctx context.Context) (decimal.Decimal, error)
}

// SubmissionRecorder keeps a log of submission attempts.
type SubmissionRecorder interface {
	Record(ctx context.Context, rec model.SubmissionRecord) error
}
