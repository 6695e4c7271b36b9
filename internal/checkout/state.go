package checkout

import (
	"bistro-checkout/internal/model"
	"bistro-checkout/internal/payment"

	"github.com/google/uuid"
)

// State is a consistent copy of a session taken under its lock.
type State struct {
	SessionID   uuid.UUID
	UserID      int64
	Cart        model.CartSnapshot
	Balance     model.LoyaltyBalance
	Fulfillment model.FulfillmentSelection
	Payment     model.PaymentSelection
	Redemption  model.RedemptionRequest
	Totals      model.TotalsBreakdown

	// TenderError is set when the stored cash tender does not cover the total.
	TenderError error
}

// Draft builds the order payload. The server reads items from the live cart.
func (s State) Draft() model.OrderDraft {
	draft := model.OrderDraft{
		FulfillmentMode: s.Fulfillment.Mode,
		PaymentMethod:   s.Payment.Method,
		PointsToRedeem:  s.Totals.PointsRedeemed,
		UseCart:         true,
	}
	if s.Fulfillment.Mode == model.FulfillmentDelivery && s.Fulfillment.Address != nil {
		id := s.Fulfillment.Address.ID
		draft.AddressID = &id
	}
	if payment.TenderRequired(s.Payment.Method, s.Totals.Total) && s.Payment.Tendered != nil {
		tendered := *s.Payment.Tendered
		draft.Tendered = &tendered
	}
	return draft
}

// ExtraDetail is an extra ingredient of a line with its unit price. UnitPrice
// is nil while the reference price is still being fetched.
type ExtraDetail struct {
	IngredientID int64        `json:"ingredientId"`
	Quantity     int          `json:"quantity"`
	UnitPrice    *model.Money `json:"unitPrice"`
}

// ModificationDetail is a base ingredient change. Removals carry no price.
type ModificationDetail struct {
	IngredientID int64        `json:"ingredientId"`
	Delta        int          `json:"delta"`
	UnitPrice    *model.Money `json:"unitPrice"`
}

// LineDetail describes one cart line for the order summary.
type LineDetail struct {
	ProductID     int64                `json:"productId"`
	Quantity      int                  `json:"quantity"`
	Note          string               `json:"note,omitempty"`
	ItemSubtotal  model.Money          `json:"itemSubtotal"`
	Extras        []ExtraDetail        `json:"extras"`
	Modifications []ModificationDetail `json:"modifications"`
}
