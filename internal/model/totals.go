package model

import "github.com/shopspring/decimal"

// TotalsBreakdown is the derived pricing of a checkout. Values are kept at
// full precision and rounded only when presented.
type TotalsBreakdown struct {
	Subtotal         decimal.Decimal
	DeliveryFee      decimal.Decimal
	Discount         decimal.Decimal
	Total            decimal.Decimal
	PointsRedeemed   int64
	PointsToBeEarned int64
}

// PreDiscountTotal is the subtotal plus delivery fee.
func (t TotalsBreakdown) PreDiscountTotal() decimal.Decimal {
	return t.Subtotal.Add(t.DeliveryFee)
}

// PaidByPoints reports whether a redemption covers the whole order.
func (t TotalsBreakdown) PaidByPoints() bool {
	return t.PointsRedeemed > 0 && t.Total.IsZero()
}

// TotalsView is the presented form of a TotalsBreakdown.
type TotalsView struct {
	Subtotal         Money `json:"subtotal"`
	DeliveryFee      Money `json:"deliveryFee"`
	Discount         Money `json:"discount"`
	Total            Money `json:"total"`
	PointsRedeemed   int64 `json:"pointsRedeemed"`
	PointsToBeEarned int64 `json:"pointsToBeEarned"`
	PaidByPoints     bool  `json:"paidByPoints"`
}

// View rounds the breakdown for presentation.
func (t TotalsBreakdown) View() TotalsView {
	return TotalsView{
		Subtotal:         NewMoney(t.Subtotal),
		DeliveryFee:      NewMoney(t.DeliveryFee),
		Discount:         NewMoney(t.Discount),
		Total:            NewMoney(t.Total),
		PointsRedeemed:   t.PointsRedeemed,
		PointsToBeEarned: t.PointsToBeEarned,
		PaidByPoints:     t.PaidByPoints(),
	}
}
