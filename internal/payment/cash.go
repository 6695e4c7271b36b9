// Package payment holds the cash-change and invoice-document rules used at
// checkout.
package payment

import (
	"strings"

	"bistro-checkout/internal/model"

	"github.com/shopspring/decimal"
)

// TenderRequired reports whether a cash tender must be collected: only for
// cash payments with something left to pay.
func TenderRequired(method model.PaymentMethod, total decimal.Decimal) bool {
	return method == model.PaymentCash && total.IsPositive()
}

// Change returns tendered minus total. It fails when tendered is not positive
// or does not cover total.
func Change(tendered, total decimal.Decimal) (decimal.Decimal, error) {
	if !tendered.IsPositive() {
		return decimal.Zero, model.ErrInvalidTender
	}
	if tendered.LessThan(total) {
		return decimal.Zero, model.ErrInsufficientTender
	}
	return tendered.Sub(total), nil
}

// ParseTender parses a customer-entered cash amount. Both "60.00" and the
// local "60,00" forms are accepted.
func ParseTender(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, model.ErrInvalidTender
	}
	if strings.Contains(raw, ",") {
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.ReplaceAll(raw, ",", ".")
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, model.ErrInvalidTender
	}
	return amount, nil
}
