package checkout

import (
	"errors"
	"net/http"
	"strings"

	"bistro-checkout/internal/model"
)

var businessMessages = map[string]string{
	model.ErrCodeStoreClosed:     "The restaurant is not accepting orders right now.",
	model.ErrCodeEmptyCart:       "Your cart is empty.",
	model.ErrCodeInvalidAddress:  "The delivery address was rejected. Check it and try again.",
	model.ErrCodeInvalidCPF:      "The invoice CPF was rejected.",
	model.ErrCodeInvalidDiscount: "The points discount is no longer valid. Review your redemption.",
	model.ErrCodeValidation:      "Some order details are invalid. Review them and try again.",
}

const (
	networkMessage = "Could not reach the restaurant. Check your connection and try again."
	schemaMessage  = "The order service is being updated. Please try again in a few minutes."
	serverMessage  = "The order service failed to process the order. Please try again."
	genericMessage = "The order could not be placed."
	unknownMessage = "The restaurant may have received your order. Check your orders before trying again."
)

var schemaSignatures = []string{"does not exist", "missing column"}

// MapError turns an error from a remote call into a categorized failure.
func MapError(err error) *model.CheckoutError {
	if err == nil {
		return nil
	}

	var ce *model.CheckoutError
	if errors.As(err, &ce) {
		return ce
	}

	var de *model.DomainError
	if errors.As(err, &de) {
		return model.ValidationError(de)
	}

	// A 2xx that could not be read may still have placed the order.
	var me *model.MalformedResponseError
	if errors.As(err, &me) {
		return &model.CheckoutError{
			Category: model.CategoryServer,
			Code:     model.ErrCodeOrderUnknown,
			Message:  unknownMessage,
			Cause:    err,
		}
	}

	var re *model.RemoteError
	if !errors.As(err, &re) {
		return &model.CheckoutError{
			Category:  model.CategoryNetwork,
			Code:      model.ErrCodeNetwork,
			Message:   networkMessage,
			Retryable: true,
			Cause:     err,
		}
	}

	if re.StatusCode >= http.StatusInternalServerError {
		if isSchemaFailure(re) {
			return &model.CheckoutError{
				Category: model.CategorySchema,
				Code:     model.ErrCodeSchema,
				Message:  schemaMessage,
				Cause:    err,
			}
		}
		return &model.CheckoutError{
			Category:  model.CategoryServer,
			Code:      codeOr(re.Code, model.ErrCodeServer),
			Message:   serverMessage,
			Retryable: true,
			Cause:     err,
		}
	}

	message, ok := businessMessages[re.Code]
	if !ok {
		message = re.Message
	}
	if message == "" {
		message = genericMessage
	}
	return &model.CheckoutError{
		Category: model.CategoryBusiness,
		Code:     re.Code,
		Message:  message,
		Cause:    err,
	}
}

func isSchemaFailure(re *model.RemoteError) bool {
	body := strings.ToLower(re.Message + " " + re.Detail)
	if !strings.Contains(body, "column") {
		return false
	}
	for _, sig := range schemaSignatures {
		if strings.Contains(body, sig) {
			return true
		}
	}
	return false
}

func codeOr(code, fallback string) string {
	if code == "" {
		return fallback
	}
	return code
}
