package model

import "github.com/shopspring/decimal"

// Money presents an amount rounded to cents. Arithmetic stays on
// decimal.Decimal; Money is only used in responses.
type Money struct {
	decimal.Decimal
}

// NewMoney wraps d for presentation.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// MoneyPtr wraps d, returning nil when d is nil.
func MoneyPtr(d *decimal.Decimal) *Money {
	if d == nil {
		return nil
	}
	m := NewMoney(*d)
	return &m
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.StringFixed(2) + `"`), nil
}
