package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"bistro-checkout/internal/checkout"
	"bistro-checkout/internal/fulfillment"
	"bistro-checkout/internal/ingredient"
	"bistro-checkout/internal/metrics"
	"bistro-checkout/internal/model"
	"bistro-checkout/internal/payment"
	"bistro-checkout/internal/pricing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const warmTimeout = 15 * time.Second

// entry is one open checkout and the components bound to it.
type entry struct {
	session     *checkout.Session
	selector    *fulfillment.Selector
	prices      *ingredient.PriceCache
	lookup      *ingredient.Lookup
	submitter   *checkout.Submitter
	unsubscribe func()
	lastSeen    time.Time
}

func (e *entry) close() {
	e.lookup.Cancel()
	e.unsubscribe()
	e.selector.Close()
}

// CheckoutOptions configures the checkout service.
type CheckoutOptions struct {
	Remotes     RemoteFactory
	Defaults    pricing.Settings
	PriceStore  ingredient.PriceStore
	Recorder    checkout.SubmissionRecorder
	Metrics     *metrics.CheckoutMetrics
	IdleTimeout time.Duration
	MaxSessions int
}

// CheckoutRegistry implements CheckoutService by keeping the open sessions
// in memory.
type CheckoutRegistry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entry

	opts   CheckoutOptions
	now    func() time.Time
	logger zerolog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(opts CheckoutOptions, logger zerolog.Logger) *CheckoutRegistry {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 30 * time.Minute
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 10000
	}
	return &CheckoutRegistry{
		sessions: make(map[uuid.UUID]*entry),
		opts:     opts,
		now:      time.Now,
		logger:   logger.With().Str("service", "checkout").Logger(),
	}
}

// Open creates a session. Failed seed fetches degrade to defaults and leave a
// notice on the session instead of failing the call.
func (s *CheckoutRegistry) Open(ctx context.Context, req OpenRequest) (*CheckoutView, error) {
	if err := s.reserve(); err != nil {
		return nil, err
	}

	remote := s.opts.Remotes(req.Token)
	id := uuid.New()
	logger := s.logger.With().Str("session_id", id.String()).Int64("user_id", req.UserID).Logger()

	selector := fulfillment.NewSelector(remote, logger)

	var (
		wg               sync.WaitGroup
		cart             model.CartSnapshot
		cartErr          error
		balance          model.LoyaltyBalance
		balanceErr       error
		addressErr       error
		settings         pricing.Settings
		settingsDegraded bool
	)
	wg.Go(func() { cart, cartErr = remote.FetchCart(ctx) })
	wg.Go(func() { balance, balanceErr = remote.FetchLoyaltyBalance(ctx, req.UserID) })
	wg.Go(func() { addressErr = selector.Load(ctx) })
	wg.Go(func() {
		settings, settingsDegraded = resolveSettings(ctx, remote, s.opts.Defaults, s.opts.Metrics, logger)
	})
	wg.Wait()

	var notices []checkout.Notice
	degrade := func(collaborator, message string, err error) {
		s.opts.Metrics.IncDegradedFetch(collaborator)
		logger.Warn().Err(err).Str("collaborator", collaborator).Msg("seed fetch failed")
		notices = append(notices, checkout.Notice{
			Code:     checkout.NoticeDegraded,
			Category: model.CategoryNetwork,
			Message:  message,
		})
	}
	if cartErr != nil {
		cart = model.CartSnapshot{}
		degrade("cart", "Could not load your cart. Reload the page to try again.", cartErr)
	}
	if balanceErr != nil {
		balance = model.LoyaltyBalance{}
		degrade("loyalty", "Could not load your points balance. Redemption is unavailable for now.", balanceErr)
	}
	if addressErr != nil {
		degrade("addresses", "Could not load your saved addresses. You can still add one or choose pickup.", addressErr)
	}
	if settingsDegraded {
		notices = append(notices, checkout.Notice{
			Code:     checkout.NoticeDegraded,
			Category: model.CategoryNetwork,
			Message:  "Some store settings could not be loaded. Standard values are shown.",
		})
	}

	prices := ingredient.NewPriceCache(remote, s.opts.PriceStore, logger)
	session := checkout.NewSession(checkout.SessionParams{
		ID:       id,
		UserID:   req.UserID,
		Cart:     cart,
		Balance:  balance,
		Settings: settings,
		Prices:   prices,
		Metrics:  s.opts.Metrics,
		Logger:   logger,
	})
	for _, n := range notices {
		session.AddNotice(n)
	}

	e := &entry{
		session:     session,
		selector:    selector,
		prices:      prices,
		lookup:      ingredient.NewLookup(remote, prices),
		unsubscribe: selector.OnChange(session.SetFulfillment),
		lastSeen:    s.now(),
	}
	e.submitter = checkout.NewSubmitter(checkout.SubmitterParams{
		Session:  session,
		Orders:   remote,
		Cart:     remote,
		Loyalty:  remote,
		Recorder: s.opts.Recorder,
		Metrics:  s.opts.Metrics,
		Logger:   logger,
		AfterSuccess: []func(context.Context) error{
			selector.Refresh,
		},
	})
	selector.SelectDefault()

	if ids := cart.IngredientIDs(); len(ids) > 0 {
		go s.warm(context.WithoutCancel(ctx), prices, ids, logger)
	}

	s.mu.Lock()
	s.sessions[id] = e
	s.mu.Unlock()
	s.opts.Metrics.SessionOpened()

	logger.Info().Int("items", len(cart.Items)).Msg("checkout opened")
	return e.view(), nil
}

func (s *CheckoutRegistry) warm(ctx context.Context, prices *ingredient.PriceCache, ids []int64, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, warmTimeout)
	defer cancel()

	if err := prices.Warm(ctx, ids); err != nil {
		s.opts.Metrics.IncDegradedFetch("ingredients")
		logger.Warn().Err(err).Msg("ingredient prices unavailable")
	}
}

// View returns the current state of a session.
func (s *CheckoutRegistry) View(ctx context.Context, id uuid.UUID) (*CheckoutView, error) {
	e, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return e.view(), nil
}

// Close discards a session.
func (s *CheckoutRegistry) Close(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	e, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return model.ErrSessionNotFound
	}
	e.close()
	s.opts.Metrics.SessionClosed()
	s.logger.Info().Str("session_id", id.String()).Msg("checkout closed")
	return nil
}

// SetFulfillment selects pickup or delivery to a saved address.
func (s *CheckoutRegistry) SetFulfillment(ctx context.Context, id uuid.UUID, req FulfillmentRequest) (*CheckoutView, error) {
	e, err := s.get(id)
	if err != nil {
		return nil, err
	}

	switch req.Mode {
	case model.FulfillmentPickup:
		e.selector.SelectPickup()
	case model.FulfillmentDelivery:
		if err := e.selector.SelectAddress(req.AddressID); err != nil {
			return nil, err
		}
	default:
		return nil, model.ErrFulfillmentRequired
	}
	return e.view(), nil
}

// AddAddress saves a new address and selects it.
func (s *CheckoutRegistry) AddAddress(ctx context.Context, id uuid.UUID, in model.AddressInput) (*CheckoutView, error) {
	e, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if _, err := e.selector.AddAddress(ctx, in); err != nil {
		return nil, err
	}
	return e.view(), nil
}

// EditAddress updates a saved address.
func (s *CheckoutRegistry) EditAddress(ctx context.Context, id uuid.UUID, addressID int64, in model.AddressInput) (*CheckoutView, error) {
	e, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if _, err := e.selector.EditAddress(ctx, addressID, in); err != nil {
		return nil, err
	}
	return e.view(), nil
}

// SetDefaultAddress marks a saved address as the default.
func (s *CheckoutRegistry) SetDefaultAddress(ctx context.Context, id uuid.UUID, addressID int64) (*CheckoutView, error) {
	e, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if err := e.selector.SetDefault(ctx, addressID); err != nil {
		return nil, err
	}
	return e.view(), nil
}

// SetPaymentMethod selects pix, card or cash.
func (s *CheckoutRegistry) SetPaymentMethod(ctx context.Context, id uuid.UUID, method string) (*CheckoutView, error) {
	e, err := s.get(id)
	if err != nil {
		return nil, err
	}
	m, err := model.ParsePaymentMethod(method)
	if err != nil {
		return nil, err
	}
	if err := e.session.SetPaymentMethod(m); err != nil {
		return nil, err
	}
	return e.view(), nil
}

// SetCashTendered stores the cash amount entered by the customer.
func (s *CheckoutRegistry) SetCashTendered(ctx context.Context, id uuid.UUID, tendered string) (*CheckoutView, error) {
	e, err := s.get(id)
	if err != nil {
		return nil, err
	}
	amount, err := payment.ParseTender(tendered)
	if err != nil {
		return nil, err
	}
	if err := e.session.SetCashTendered(amount); err != nil {
		return nil, err
	}
	return e.view(), nil
}

// SetRedemption toggles loyalty point redemption.
func (s *CheckoutRegistry) SetRedemption(ctx context.Context, id uuid.UUID, req RedemptionRequest) (*CheckoutView, error) {
	e, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if err := e.session.SetRedemption(req.Enabled, req.Points); err != nil {
		return nil, err
	}
	return e.view(), nil
}

// LookupIngredient resolves one ingredient for a form field.
func (s *CheckoutRegistry) LookupIngredient(ctx context.Context, id uuid.UUID, ingredientID int64) (model.IngredientPrice, error) {
	e, err := s.get(id)
	if err != nil {
		return model.IngredientPrice{}, err
	}
	return e.lookup.Select(ctx, ingredientID)
}

// Submit places the order for the session.
func (s *CheckoutRegistry) Submit(ctx context.Context, id uuid.UUID, req model.SubmitRequest) (*SubmitResult, error) {
	e, err := s.get(id)
	if err != nil {
		return nil, err
	}

	confirmation, err := e.submitter.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{Confirmation: confirmation, Checkout: e.view()}, nil
}

// Run evicts idle sessions until ctx is done.
func (s *CheckoutRegistry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.evictIdle(); n > 0 {
				s.logger.Info().Int("evicted", n).Msg("idle checkouts discarded")
			}
		}
	}
}

// Shutdown closes every open session.
func (s *CheckoutRegistry) Shutdown() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[uuid.UUID]*entry)
	s.mu.Unlock()

	for _, e := range sessions {
		e.close()
		s.opts.Metrics.SessionClosed()
	}
}

func (s *CheckoutRegistry) evictIdle() int {
	cutoff := s.now().Add(-s.opts.IdleTimeout)

	s.mu.Lock()
	var idle []*entry
	for id, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			idle = append(idle, e)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, e := range idle {
		e.close()
		s.opts.Metrics.SessionClosed()
	}
	return len(idle)
}

// reserve fails when the registry is full even after evicting idle sessions.
func (s *CheckoutRegistry) reserve() error {
	s.mu.Lock()
	full := len(s.sessions) >= s.opts.MaxSessions
	s.mu.Unlock()
	if !full {
		return nil
	}

	s.evictIdle()

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) >= s.opts.MaxSessions {
		s.logger.Warn().Int("sessions", len(s.sessions)).Msg("checkout registry full")
		return model.ErrTooManySessions
	}
	return nil
}

func (s *CheckoutRegistry) get(id uuid.UUID) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	e.lastSeen = s.now()
	return e, nil
}

// IsSuperseded reports whether err comes from a lookup replaced by a newer one.
func IsSuperseded(err error) bool {
	return errors.Is(err, ingredient.ErrSuperseded)
}
