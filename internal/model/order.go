package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderDraft is the payload sent to the remote order service.
type OrderDraft struct {
	FulfillmentMode FulfillmentMode  `json:"fulfillmentMode"`
	AddressID       *int64           `json:"addressId,omitempty"`
	PaymentMethod   PaymentMethod    `json:"paymentMethod,omitempty"`
	PointsToRedeem  int64            `json:"pointsToRedeem"`
	Tendered        *decimal.Decimal `json:"tendered,omitempty"`
	InvoiceCPF      *string          `json:"invoiceCpf,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	UseCart         bool             `json:"useCart"`
}

// OrderConfirmation is returned by the remote order service on success.
type OrderConfirmation struct {
	OrderID          int64  `json:"orderId"`
	ConfirmationCode string `json:"confirmationCode"`
}

// SubmitRequest carries the fields captured only at confirmation time.
type SubmitRequest struct {
	CPF   *string `json:"cpf,omitempty"`
	Notes string  `json:"notes,omitempty"`
}

// SubmissionStatus is the outcome of one submission attempt.
type SubmissionStatus string

const (
	SubmissionSucceeded SubmissionStatus = "succeeded"
	SubmissionFailed    SubmissionStatus = "failed"
)

// SubmissionRecord is a logged submission attempt.
type SubmissionRecord struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	SessionID        uuid.UUID        `json:"sessionId" db:"session_id"`
	UserID           int64            `json:"userId" db:"user_id"`
	Status           SubmissionStatus `json:"status" db:"status"`
	Draft            OrderDraft       `json:"draft" db:"draft"`
	Total            decimal.Decimal  `json:"total" db:"total"`
	OrderID          *int64           `json:"orderId,omitempty" db:"order_id"`
	ConfirmationCode *string          `json:"confirmationCode,omitempty" db:"confirmation_code"`
	ErrorCategory    *ErrorCategory   `json:"errorCategory,omitempty" db:"error_category"`
	ErrorMessage     *string          `json:"errorMessage,omitempty" db:"error_message"`
	CreatedAt        time.Time        `json:"createdAt" db:"created_at"`
}
