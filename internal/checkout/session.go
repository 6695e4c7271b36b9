package checkout

import (
	"errors"
	"fmt"
	"sync"

	"bistro-checkout/internal/loyalty"
	"bistro-checkout/internal/metrics"
	"bistro-checkout/internal/model"
	"bistro-checkout/internal/payment"
	"bistro-checkout/internal/pricing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PriceSource resolves cached ingredient reference prices.
type PriceSource interface {
	Price(id int64) (model.IngredientPrice, bool)
}

// SessionParams seeds a new session.
type SessionParams struct {
	ID       uuid.UUID
	UserID   int64
	Cart     model.CartSnapshot
	Balance  model.LoyaltyBalance
	Settings pricing.Settings
	Prices   PriceSource
	Metrics  *metrics.CheckoutMetrics
	Logger   zerolog.Logger
}

// Session is the state of one checkout screen. Every setter recomputes the
// totals before returning, and setters never run concurrently.
type Session struct {
	mu sync.Mutex

	id       uuid.UUID
	userID   int64
	settings pricing.Settings
	prices   PriceSource
	metrics  *metrics.CheckoutMetrics
	logger   zerolog.Logger

	cart        model.CartSnapshot
	balance     model.LoyaltyBalance
	fulfillment model.FulfillmentSelection
	method      model.PaymentMethod
	tendered    *decimal.Decimal
	change      *decimal.Decimal
	tenderErr   error
	redemption  model.RedemptionRequest
	totals      model.TotalsBreakdown
	notices     []Notice
}

// NewSession creates a session and computes its initial totals.
func NewSession(p SessionParams) *Session {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Balance.Balance = p.Settings.ClampBalance(p.Balance.Balance)

	s := &Session{
		id:       p.ID,
		userID:   p.UserID,
		settings: p.Settings,
		prices:   p.Prices,
		metrics:  p.Metrics,
		logger:   p.Logger.With().Str("session_id", p.ID.String()).Logger(),
		cart:     p.Cart,
		balance:  p.Balance,
	}
	s.recompute()
	return s
}

// ID returns the session id.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// UserID returns the customer the session belongs to.
func (s *Session) UserID() int64 {
	return s.userID
}

// Settings returns the pricing settings in effect.
func (s *Session) Settings() pricing.Settings {
	return s.settings
}

// SetFulfillment changes between delivery and pickup.
func (s *Session) SetFulfillment(sel model.FulfillmentSelection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fulfillment = sel
	s.recompute()
}

// SetPaymentMethod selects how the customer pays. Leaving cash discards the
// stored tender.
func (s *Session) SetPaymentMethod(method model.PaymentMethod) error {
	if _, err := model.ParsePaymentMethod(string(method)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.method = method
	if method != model.PaymentCash {
		s.tendered = nil
	}
	s.recompute()
	return nil
}

// SetRedemption enables or disables point redemption. A nil points value
// requests the largest redeemable amount. Requests above the allowed maximum
// are clamped and reported as a notice instead of failing.
func (s *Session) SetRedemption(enabled bool, points *int64) error {
	if points != nil && *points < 0 {
		return model.ErrInvalidPoints
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !enabled {
		s.redemption = model.RedemptionRequest{}
		s.recompute()
		return nil
	}

	requested := int64(0)
	if points != nil {
		requested = *points
	} else {
		preDiscount := pricing.Calculate(s.pricingInput(decimal.Zero, 0), s.settings).PreDiscountTotal()
		requested = loyalty.Cap(s.balance.Balance, preDiscount, s.settings.RedemptionRate)
	}

	s.redemption = model.RedemptionRequest{Enabled: true, Points: requested}
	s.recompute()
	return nil
}

// SetCashTendered stores the cash the customer will hand over. It is ignored
// when nothing is left to pay. A tender below the total is kept and reported
// through State.TenderError.
func (s *Session) SetCashTendered(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return model.ErrInvalidTender
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.method != model.PaymentCash {
		return model.ErrTenderNotCash
	}

	s.tendered = &amount
	s.recompute()
	return nil
}

// SetCart replaces the cart, e.g. after it was cleared by a placed order.
func (s *Session) SetCart(cart model.CartSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart = cart
	s.recompute()
}

// SetBalance replaces the loyalty balance.
func (s *Session) SetBalance(balance model.LoyaltyBalance) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance.Balance = s.settings.ClampBalance(balance.Balance)
	s.balance = balance
	s.recompute()
}

// Totals returns the current breakdown.
func (s *Session) Totals() model.TotalsBreakdown {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals
}

// Draft returns the order payload for the current state.
func (s *Session) Draft() model.OrderDraft {
	return s.State().Draft()
}

// State returns a consistent copy of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := model.CartSnapshot{Items: make([]model.CartItem, len(s.cart.Items))}
	copy(cart.Items, s.cart.Items)

	return State{
		SessionID:   s.id,
		UserID:      s.userID,
		Cart:        cart,
		Balance:     s.balance,
		Fulfillment: s.fulfillment,
		Payment: model.PaymentSelection{
			Method:   s.method,
			Tendered: copyDecimal(s.tendered),
			Change:   copyDecimal(s.change),
		},
		Redemption:  s.redemption,
		Totals:      s.totals,
		TenderError: s.tenderErr,
	}
}

// AddNotice queues a notice for the customer.
func (s *Session) AddNotice(n Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addNotice(n)
}

// TakeNotices returns the queued notices and clears the queue.
func (s *Session) TakeNotices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()

	notices := s.notices
	s.notices = nil
	return notices
}

// LineDetails lists the cart lines with the unit price of every extra and
// added ingredient. Prices not yet known are left nil.
func (s *Session) LineDetails() []LineDetail {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]LineDetail, 0, len(s.cart.Items))
	for _, item := range s.cart.Items {
		line := LineDetail{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			Note:          item.Note,
			ItemSubtotal:  model.NewMoney(item.ItemSubtotal),
			Extras:        make([]ExtraDetail, 0, len(item.Extras)),
			Modifications: make([]ModificationDetail, 0, len(item.BaseModifications)),
		}
		for _, extra := range item.Extras {
			var price *decimal.Decimal
			if extra.UnitPrice.IsPositive() {
				p := extra.UnitPrice
				price = &p
			} else {
				price = s.referencePrice(extra.IngredientID)
			}
			line.Extras = append(line.Extras, ExtraDetail{
				IngredientID: extra.IngredientID,
				Quantity:     extra.Quantity,
				UnitPrice:    model.MoneyPtr(price),
			})
		}
		for _, mod := range item.BaseModifications {
			var price *decimal.Decimal
			if mod.Delta > 0 {
				price = mod.UnitPrice
				if price == nil {
					price = s.referencePrice(mod.IngredientID)
				}
			}
			line.Modifications = append(line.Modifications, ModificationDetail{
				IngredientID: mod.IngredientID,
				Delta:        mod.Delta,
				UnitPrice:    model.MoneyPtr(price),
			})
		}
		lines = append(lines, line)
	}
	return lines
}

// recompute runs pricing, then redemption, then cash. Must be called with mu
// held.
func (s *Session) recompute() {
	base := pricing.Calculate(s.pricingInput(decimal.Zero, 0), s.settings)

	var approval loyalty.Approval
	if s.redemption.Enabled && s.redemption.Points > 0 {
		approval = s.approveRedemption(base.PreDiscountTotal())
	}

	s.totals = pricing.Calculate(s.pricingInput(approval.Discount, approval.Points), s.settings)

	s.change = nil
	s.tenderErr = nil
	if s.method != model.PaymentCash {
		return
	}
	if !payment.TenderRequired(s.method, s.totals.Total) {
		s.tendered = nil
		return
	}
	if s.tendered == nil {
		return
	}
	change, err := payment.Change(*s.tendered, s.totals.Total)
	if err != nil {
		s.tenderErr = err
		return
	}
	s.change = &change
}

// approveRedemption validates the stored request, clamping it to the
// suggested maximum when rejected.
func (s *Session) approveRedemption(preDiscount decimal.Decimal) loyalty.Approval {
	rate := s.settings.RedemptionRate

	approval, err := loyalty.Validate(s.balance.Balance, s.redemption.Points, preDiscount, rate)
	if err == nil {
		return approval
	}

	var rejection *loyalty.Rejection
	if !errors.As(err, &rejection) {
		s.logger.Error().Err(err).Msg("unexpected redemption failure")
		s.redemption.Points = 0
		return loyalty.Approval{}
	}

	s.redemption.Points = rejection.SuggestedMax
	s.metrics.IncRedemptionClamp(string(rejection.Reason))
	s.addNotice(Notice{
		Code:     NoticeRedemptionAdjusted,
		Category: model.CategoryRedemption,
		Message:  redemptionMessage(rejection),
	})
	s.logger.Info().
		Str("reason", string(rejection.Reason)).
		Int64("requested", rejection.Requested).
		Int64("adjusted", rejection.SuggestedMax).
		Msg("redemption adjusted")

	return loyalty.Approval{
		Points:   rejection.SuggestedMax,
		Discount: loyalty.DiscountFor(rejection.SuggestedMax, rate),
	}
}

func (s *Session) pricingInput(discount decimal.Decimal, points int64) pricing.Input {
	return pricing.Input{
		Items:          s.cart.Items,
		Fulfillment:    s.fulfillment,
		Discount:       discount,
		PointsRedeemed: points,
	}
}

func (s *Session) referencePrice(id int64) *decimal.Decimal {
	if s.prices == nil {
		return nil
	}
	p, ok := s.prices.Price(id)
	if !ok {
		return nil
	}
	price := p.UnitPrice
	return &price
}

func (s *Session) addNotice(n Notice) {
	s.notices = append(s.notices, n)
	if len(s.notices) > maxNotices {
		s.notices = s.notices[len(s.notices)-maxNotices:]
	}
}

func redemptionMessage(r *loyalty.Rejection) string {
	switch r.Reason {
	case loyalty.ReasonInsufficientBalance:
		return fmt.Sprintf("You only have %d points. Redemption adjusted to %d points.", r.SuggestedMax, r.SuggestedMax)
	default:
		return fmt.Sprintf("Redemption is limited to the order value. Adjusted to %d points.", r.SuggestedMax)
	}
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
