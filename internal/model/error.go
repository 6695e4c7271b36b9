package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Category  ErrorCategory     `json:"category,omitempty"`
	Retryable bool              `json:"retryable,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeMissingField        = "MISSING_FIELD"
	ErrCodeInvalidID           = "INVALID_ID"
	ErrCodeSessionNotFound     = "SESSION_NOT_FOUND"
	ErrCodeAddressNotFound     = "ADDRESS_NOT_FOUND"
	ErrCodeInvalidAddress      = "INVALID_ADDRESS"
	ErrCodeFulfillmentRequired = "FULFILLMENT_REQUIRED"
	ErrCodeEmptyCart           = "EMPTY_CART"
	ErrCodeInvalidCPF          = "INVALID_CPF"
	ErrCodePaymentRequired     = "PAYMENT_METHOD_REQUIRED"
	ErrCodeInvalidPayment      = "INVALID_PAYMENT_METHOD"
	ErrCodeInvalidTender       = "INVALID_TENDER"
	ErrCodeInsufficientTender  = "INSUFFICIENT_TENDER"
	ErrCodeInvalidPoints       = "INVALID_POINTS"
	ErrCodeSubmitInProgress    = "SUBMISSION_IN_PROGRESS"
	ErrCodeAlreadySubmitted    = "ALREADY_SUBMITTED"
	ErrCodeTooManySessions     = "TOO_MANY_SESSIONS"
	ErrCodeSuperseded          = "LOOKUP_SUPERSEDED"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeInternalError       = "INTERNAL_ERROR"

	// Codes sent by the remote order service.
	ErrCodeStoreClosed     = "STORE_CLOSED"
	ErrCodeInvalidDiscount = "INVALID_DISCOUNT"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeNetwork         = "NETWORK_ERROR"
	ErrCodeSchema          = "SCHEMA_ERROR"
	ErrCodeServer          = "SERVER_ERROR"
	ErrCodeOrderUnknown    = "ORDER_STATUS_UNKNOWN"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrSessionNotFound     = NewDomainError(ErrCodeSessionNotFound, "Checkout session not found")
	ErrAddressNotFound     = NewDomainError(ErrCodeAddressNotFound, "Address not found")
	ErrFulfillmentRequired = NewDomainError(ErrCodeFulfillmentRequired, "Select a delivery address or pickup")
	ErrEmptyCart           = NewDomainError(ErrCodeEmptyCart, "Your cart is empty")
	ErrInvalidCPF          = NewDomainError(ErrCodeInvalidCPF, "Invoice CPF is invalid")
	ErrPaymentRequired     = NewDomainError(ErrCodePaymentRequired, "Select a payment method")
	ErrInvalidPayment      = NewDomainError(ErrCodeInvalidPayment, "Payment method must be pix, card or cash")
	ErrInvalidTender       = NewDomainError(ErrCodeInvalidTender, "Cash amount must be a positive value")
	ErrTenderRequired      = NewDomainError(ErrCodeInvalidTender, "Enter the cash amount you will pay with")
	ErrTenderNotCash       = NewDomainError(ErrCodeInvalidTender, "Cash amount only applies to cash payments")
	ErrInsufficientTender  = NewDomainError(ErrCodeInsufficientTender, "Cash amount is lower than the order total")
	ErrInvalidPoints       = NewDomainError(ErrCodeInvalidPoints, "Points to redeem cannot be negative")
	ErrSubmitInProgress    = NewDomainError(ErrCodeSubmitInProgress, "Order submission already in progress")
	ErrAlreadySubmitted    = NewDomainError(ErrCodeAlreadySubmitted, "Order was already placed for this checkout")
	ErrTooManySessions     = NewDomainError(ErrCodeTooManySessions, "Too many open checkouts, try again shortly")
)

// ErrorCategory groups checkout failures by how they are surfaced.
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryRedemption ErrorCategory = "redemption"
	CategoryNetwork    ErrorCategory = "network"
	CategoryBusiness   ErrorCategory = "business"
	CategorySchema     ErrorCategory = "schema"
	CategoryServer     ErrorCategory = "server"
)

// CheckoutError is a failure mapped to a user-facing outcome.
type CheckoutError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
}

func (e *CheckoutError) Error() string {
	return e.Message
}

func (e *CheckoutError) Unwrap() error {
	return e.Cause
}

// ValidationError wraps a local domain error as a validation failure.
func ValidationError(err *DomainError) *CheckoutError {
	return &CheckoutError{
		Category: CategoryValidation,
		Code:     err.Code,
		Message:  err.Message,
		Cause:    err,
	}
}

// CategoryOf returns the category of err, or "" when err is not a CheckoutError.
func CategoryOf(err error) ErrorCategory {
	var ce *CheckoutError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return ""
}
