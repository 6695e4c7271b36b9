package service

import (
	"bistro-checkout/internal/checkout"
	"bistro-checkout/internal/loyalty"
	"bistro-checkout/internal/model"
	"bistro-checkout/internal/payment"

	"github.com/google/uuid"
)

// CheckoutView is everything the payment screen renders.
type CheckoutView struct {
	SessionID   uuid.UUID                  `json:"sessionId"`
	UserID      int64                      `json:"userId"`
	Fulfillment model.FulfillmentSelection `json:"fulfillment"`
	Addresses   []model.Address            `json:"addresses"`
	Payment     PaymentView                `json:"payment"`
	Redemption  RedemptionView             `json:"redemption"`
	Totals      model.TotalsView           `json:"totals"`
	Lines       []checkout.LineDetail      `json:"lines"`
	Notices     []checkout.Notice          `json:"notices"`
	Submission  checkout.SubmitStatus      `json:"submission"`
}

// PaymentView is the payment section of the screen.
type PaymentView struct {
	Method         model.PaymentMethod `json:"method,omitempty"`
	TenderRequired bool                `json:"tenderRequired"`
	Tendered       *model.Money        `json:"tendered,omitempty"`
	Change         *model.Money        `json:"change,omitempty"`
	TenderError    string              `json:"tenderError,omitempty"`
}

// RedemptionView is the loyalty section of the screen.
type RedemptionView struct {
	Enabled       bool  `json:"enabled"`
	Points        int64 `json:"points"`
	Balance       int64 `json:"balance"`
	MaxRedeemable int64 `json:"maxRedeemable"`
}

// SubmitResult is returned by a successful submission.
type SubmitResult struct {
	Confirmation model.OrderConfirmation `json:"confirmation"`
	Checkout     *CheckoutView           `json:"checkout"`
}

func (e *entry) view() *CheckoutView {
	state := e.session.State()
	settings := e.session.Settings()

	pay := PaymentView{
		Method:         state.Payment.Method,
		TenderRequired: payment.TenderRequired(state.Payment.Method, state.Totals.Total),
		Tendered:       model.MoneyPtr(state.Payment.Tendered),
		Change:         model.MoneyPtr(state.Payment.Change),
	}
	if state.TenderError != nil {
		pay.TenderError = state.TenderError.Error()
	}

	notices := e.session.TakeNotices()
	if notices == nil {
		notices = []checkout.Notice{}
	}

	return &CheckoutView{
		SessionID:   state.SessionID,
		UserID:      state.UserID,
		Fulfillment: state.Fulfillment,
		Addresses:   e.selector.Addresses(),
		Payment:     pay,
		Redemption: RedemptionView{
			Enabled:       state.Redemption.Enabled,
			Points:        state.Redemption.Points,
			Balance:       state.Balance.Balance,
			MaxRedeemable: loyalty.Cap(state.Balance.Balance, state.Totals.PreDiscountTotal(), settings.RedemptionRate),
		},
		Totals:     state.Totals.View(),
		Lines:      e.session.LineDetails(),
		Notices:    notices,
		Submission: e.submitter.Status(),
	}
}
