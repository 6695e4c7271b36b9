package model

import "github.com/shopspring/decimal"

// PaymentMethod is how the customer pays on delivery or pickup.
type PaymentMethod string

const (
	PaymentPix  PaymentMethod = "pix"
	PaymentCard PaymentMethod = "card"
	PaymentCash PaymentMethod = "cash"
)

// ParsePaymentMethod validates a raw payment method.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	switch m := PaymentMethod(raw); m {
	case PaymentPix, PaymentCard, PaymentCash:
		return m, nil
	default:
		return "", ErrInvalidPayment
	}
}

// PaymentSelection is the chosen payment method. Tendered and Change are only
// set for cash.
type PaymentSelection struct {
	Method   PaymentMethod    `json:"method,omitempty"`
	Tendered *decimal.Decimal `json:"tendered,omitempty"`
	Change   *decimal.Decimal `json:"change,omitempty"`
}
