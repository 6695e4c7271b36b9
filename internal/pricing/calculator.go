package pricing

import (
	"bistro-checkout/internal/model"

	"github.com/shopspring/decimal"
)

// Input is everything the calculator reads.
type Input struct {
	Items       []model.CartItem
	Fulfillment model.FulfillmentSelection

	// Discount is the cash equivalent of the approved redemption.
	Discount decimal.Decimal

	// PointsRedeemed is the approved point count behind Discount.
	PointsRedeemed int64
}

// Calculate turns cart, fulfillment and redemption into a totals breakdown.
// It is pure: the same input and settings always produce the same output.
func Calculate(in Input, settings Settings) model.TotalsBreakdown {
	subtotal := Subtotal(in.Items)
	fee := DeliveryFee(in.Fulfillment, settings)
	preDiscount := subtotal.Add(fee)

	discount := in.Discount
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	discount = decimal.Min(discount, preDiscount)

	total := preDiscount.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	points := in.PointsRedeemed
	if discount.IsZero() {
		points = 0
	}

	return model.TotalsBreakdown{
		Subtotal:         subtotal,
		DeliveryFee:      fee,
		Discount:         discount,
		Total:            total,
		PointsRedeemed:   points,
		PointsToBeEarned: PointsEarned(subtotal, preDiscount, discount, settings.EarnRate),
	}
}

// Subtotal sums the server-computed item subtotals.
func Subtotal(items []model.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.ItemSubtotal)
	}
	return sum
}

// DeliveryFee is zero for pickup and the system fee otherwise.
func DeliveryFee(sel model.FulfillmentSelection, settings Settings) decimal.Decimal {
	if sel.IsPickup() {
		return decimal.Zero
	}
	return settings.DeliveryFee
}

// PointsEarned applies the earn rate to the subtotal after removing the share
// of the discount that falls on the subtotal. The delivery fee never earns
// points.
func PointsEarned(subtotal, preDiscount, discount, earnRate decimal.Decimal) int64 {
	if !earnRate.IsPositive() {
		return 0
	}

	subtotalDiscount := decimal.Zero
	if preDiscount.IsPositive() {
		subtotalDiscount = discount.Mul(subtotal).Div(preDiscount)
	}

	base := subtotal.Sub(subtotalDiscount)
	if !base.IsPositive() {
		return 0
	}

	return base.Div(earnRate).Floor().IntPart()
}
