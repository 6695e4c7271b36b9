// Package loyalty validates loyalty-point redemptions against the customer's
// balance and the value of the order.
package loyalty

import (
	"fmt"

	"bistro-checkout/internal/model"

	"github.com/shopspring/decimal"
)

// Reason explains why a redemption request was rejected.
type Reason string

const (
	ReasonInsufficientBalance Reason = "insufficient_balance"
	ReasonExceedsOrderCap     Reason = "exceeds_order_cap"
)

// Rejection is returned when the requested points cannot be redeemed as-is.
// SuggestedMax is the largest request that would be approved.
type Rejection struct {
	Reason       Reason
	Requested    int64
	SuggestedMax int64
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("redemption of %d points rejected (%s), maximum is %d", r.Requested, r.Reason, r.SuggestedMax)
}

// Approval is an accepted redemption and its cash-equivalent discount.
type Approval struct {
	Points   int64
	Discount decimal.Decimal
}

// Validate checks requested against balance first, then against the order
// cap derived from preDiscountTotal. rate is points per currency unit.
func Validate(balance, requested int64, preDiscountTotal, rate decimal.Decimal) (Approval, error) {
	if requested < 0 {
		return Approval{}, model.ErrInvalidPoints
	}

	if requested > balance {
		return Approval{}, &Rejection{
			Reason:       ReasonInsufficientBalance,
			Requested:    requested,
			SuggestedMax: max(balance, 0),
		}
	}

	orderCap := MaxRedeemableByOrder(preDiscountTotal, rate)
	if requested > orderCap {
		return Approval{}, &Rejection{
			Reason:       ReasonExceedsOrderCap,
			Requested:    requested,
			SuggestedMax: orderCap,
		}
	}

	return Approval{
		Points:   requested,
		Discount: DiscountFor(requested, rate),
	}, nil
}

// MaxRedeemableByOrder is floor(preDiscountTotal × rate).
func MaxRedeemableByOrder(preDiscountTotal, rate decimal.Decimal) int64 {
	if !preDiscountTotal.IsPositive() || !rate.IsPositive() {
		return 0
	}
	return preDiscountTotal.Mul(rate).Floor().IntPart()
}

// Cap is the largest redeemable point count for balance and order value.
func Cap(balance int64, preDiscountTotal, rate decimal.Decimal) int64 {
	return max(min(balance, MaxRedeemableByOrder(preDiscountTotal, rate)), 0)
}

// DiscountFor converts points into their cash equivalent.
func DiscountFor(points int64, rate decimal.Decimal) decimal.Decimal {
	if points <= 0 || !rate.IsPositive() {
		return decimal.Zero
	}
	return decimal.NewFromInt(points).Div(rate)
}
