package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"bistro-checkout/internal/metrics"
	"bistro-checkout/internal/model"
	"bistro-checkout/internal/payment"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SubmitState is the lifecycle of an order submission.
type SubmitState string

const (
	StateIdle       SubmitState = "idle"
	StateSubmitting SubmitState = "submitting"
	StateSucceeded  SubmitState = "succeeded"
	StateFailed     SubmitState = "failed"
)

// SubmitStatus is the presented submission state.
type SubmitStatus struct {
	State        SubmitState              `json:"state"`
	Confirmation *model.OrderConfirmation `json:"confirmation,omitempty"`
	LastError    *model.ErrorResponse     `json:"lastError,omitempty"`
}

// SubmitterParams wires a Submitter.
type SubmitterParams struct {
	Session  *Session
	Orders   OrderClient
	Cart     CartClient
	Loyalty  LoyaltyClient
	Recorder SubmissionRecorder
	Metrics  *metrics.CheckoutMetrics
	Logger   zerolog.Logger

	// AfterSuccess runs once an order is placed, e.g. to invalidate cached
	// addresses. Failures are logged only.
	AfterSuccess []func(ctx context.Context) error
}

// Submitter places the order for a session exactly once.
type Submitter struct {
	mu           sync.Mutex
	state        SubmitState
	confirmation *model.OrderConfirmation
	lastErr      *model.CheckoutError

	session      *Session
	orders       OrderClient
	cart         CartClient
	loyalty      LoyaltyClient
	recorder     SubmissionRecorder
	metrics      *metrics.CheckoutMetrics
	afterSuccess []func(ctx context.Context) error
	logger       zerolog.Logger
	now          func() time.Time
}

// NewSubmitter creates an idle submitter.
func NewSubmitter(p SubmitterParams) *Submitter {
	return &Submitter{
		state:        StateIdle,
		session:      p.Session,
		orders:       p.Orders,
		cart:         p.Cart,
		loyalty:      p.Loyalty,
		recorder:     p.Recorder,
		metrics:      p.Metrics,
		afterSuccess: p.AfterSuccess,
		logger:       p.Logger.With().Str("component", "order-submitter").Str("session_id", p.Session.ID().String()).Logger(),
		now:          time.Now,
	}
}

// Status returns the current submission state.
func (s *Submitter) Status() SubmitStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := SubmitStatus{State: s.state, Confirmation: s.confirmation}
	if s.lastErr != nil {
		status.LastError = &model.ErrorResponse{
			Error:     s.lastErr.Code,
			Message:   s.lastErr.Message,
			Category:  s.lastErr.Category,
			Retryable: s.lastErr.Retryable,
		}
	}
	return status
}

// Submit validates the session and places the order. A call made while
// another is in flight returns ErrSubmitInProgress without contacting the
// remote API.
func (s *Submitter) Submit(ctx context.Context, req model.SubmitRequest) (model.OrderConfirmation, error) {
	if err := s.begin(); err != nil {
		return model.OrderConfirmation{}, err
	}

	state := s.session.State()
	draft, verr := Validate(state, req)
	if verr != nil {
		s.fail(verr)
		s.metrics.IncSubmission(string(verr.Category))
		s.logger.Info().Str("code", verr.Code).Msg("order rejected before submission")
		return model.OrderConfirmation{}, verr
	}

	s.logger.Info().
		Str("fulfillment", string(draft.FulfillmentMode)).
		Str("payment_method", string(draft.PaymentMethod)).
		Int64("points", draft.PointsToRedeem).
		Msg("submitting order")

	confirmation, err := s.orders.SubmitOrder(ctx, draft)
	if err != nil {
		mapped := MapError(err)
		s.fail(mapped)
		s.metrics.IncSubmission(string(mapped.Category))
		s.logger.Error().
			Err(err).
			Str("category", string(mapped.Category)).
			Str("code", mapped.Code).
			Msg("order submission failed")
		s.record(context.WithoutCancel(ctx), state, draft, nil, mapped)
		return model.OrderConfirmation{}, mapped
	}

	s.mu.Lock()
	s.state = StateSucceeded
	s.confirmation = &confirmation
	s.lastErr = nil
	s.mu.Unlock()

	s.metrics.IncSubmission(string(model.SubmissionSucceeded))
	s.logger.Info().
		Int64("order_id", confirmation.OrderID).
		Str("confirmation_code", confirmation.ConfirmationCode).
		Msg("order placed")

	s.refreshAfterSuccess(context.WithoutCancel(ctx), state, draft, confirmation)
	return confirmation, nil
}

// Validate runs the pre-submission checks in order and returns the draft to
// send. CPF is normalized to digits only.
func Validate(state State, req model.SubmitRequest) (model.OrderDraft, *model.CheckoutError) {
	if !state.Fulfillment.IsResolved() {
		return model.OrderDraft{}, model.ValidationError(model.ErrFulfillmentRequired)
	}
	if state.Cart.IsEmpty() {
		return model.OrderDraft{}, model.ValidationError(model.ErrEmptyCart)
	}

	var cpf *string
	if req.CPF != nil && strings.TrimSpace(*req.CPF) != "" {
		normalized, err := payment.NormalizeCPF(*req.CPF)
		if err != nil {
			return model.OrderDraft{}, model.ValidationError(model.ErrInvalidCPF)
		}
		cpf = &normalized
	}

	if state.Payment.Method == "" && !state.Totals.PaidByPoints() {
		return model.OrderDraft{}, model.ValidationError(model.ErrPaymentRequired)
	}

	if payment.TenderRequired(state.Payment.Method, state.Totals.Total) {
		if state.Payment.Tendered == nil {
			return model.OrderDraft{}, model.ValidationError(model.ErrTenderRequired)
		}
		if _, err := payment.Change(*state.Payment.Tendered, state.Totals.Total); err != nil {
			var de *model.DomainError
			if errors.As(err, &de) {
				return model.OrderDraft{}, model.ValidationError(de)
			}
			return model.OrderDraft{}, model.ValidationError(model.ErrInvalidTender)
		}
	}

	draft := state.Draft()
	draft.InvoiceCPF = cpf
	draft.Notes = req.Notes
	return draft, nil
}

func (s *Submitter) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateSubmitting:
		return model.ErrSubmitInProgress
	case StateSucceeded:
		return model.ErrAlreadySubmitted
	}
	s.state = StateSubmitting
	s.lastErr = nil
	return nil
}

// fail passes through the failed state back to idle so the customer can fix
// the problem and confirm again.
func (s *Submitter) fail(err *model.CheckoutError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateFailed
	s.lastErr = err
	s.state = StateIdle
}

func (s *Submitter) refreshAfterSuccess(ctx context.Context, state State, draft model.OrderDraft, confirmation model.OrderConfirmation) {
	s.session.AddNotice(Notice{
		Code:    NoticeOrderPlaced,
		Message: "Order placed. Confirmation code " + confirmation.ConfirmationCode + ".",
	})

	if s.loyalty != nil {
		balance, err := s.loyalty.FetchLoyaltyBalance(ctx, state.UserID)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to refresh loyalty balance after order")
		} else {
			s.session.SetBalance(balance)
		}
	}

	if s.cart != nil {
		if err := s.cart.ClearCart(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("failed to clear cart after order")
		}
		s.session.SetCart(model.CartSnapshot{})
	}

	for _, fn := range s.afterSuccess {
		if err := fn(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("post-order refresh failed")
		}
	}

	s.record(ctx, state, draft, &confirmation, nil)
}

func (s *Submitter) record(ctx context.Context, state State, draft model.OrderDraft, confirmation *model.OrderConfirmation, failure *model.CheckoutError) {
	if s.recorder == nil {
		return
	}

	rec := model.SubmissionRecord{
		ID:        uuid.New(),
		SessionID: state.SessionID,
		UserID:    state.UserID,
		Status:    model.SubmissionSucceeded,
		Draft:     draft,
		Total:     state.Totals.Total,
		CreatedAt: s.now().UTC(),
	}
	if confirmation != nil {
		orderID := confirmation.OrderID
		code := confirmation.ConfirmationCode
		rec.OrderID = &orderID
		rec.ConfirmationCode = &code
	}
	if failure != nil {
		category := failure.Category
		message := failure.Message
		rec.Status = model.SubmissionFailed
		rec.ErrorCategory = &category
		rec.ErrorMessage = &message
	}

	if err := s.recorder.Record(ctx, rec); err != nil {
		s.logger.Warn().Err(err).Str("status", string(rec.Status)).Msg("failed to record submission")
	}
}
