// Package fulfillment owns the customer's saved addresses and the choice
// between delivery and pickup for one checkout session.
package fulfillment

import (
	"context"
	"fmt"
	"sync"

	"bistro-checkout/internal/model"

	"github.com/rs/zerolog"
)

// AddressStore persists addresses on the remote API.
type AddressStore interface {
	FetchAddresses(ctx context.Context) ([]model.Address, error)
	CreateAddress(ctx context.Context, in model.AddressInput) (model.Address, error)
	UpdateAddress(ctx context.Context, id int64, in model.AddressInput) (model.Address, error)
	SetDefaultAddress(ctx context.Context, id int64) error
}

// Listener is called with the new selection after every change.
type Listener func(model.FulfillmentSelection)

type listenerEntry struct {
	id int
	fn Listener
}

// Selector holds the address list and the current fulfillment selection.
//
// Mutations are serialized by applyMu and listeners run after mu is released,
// in registration order, so they observe changes in the order they happened.
type Selector struct {
	applyMu sync.Mutex
	mu      sync.Mutex

	store     AddressStore
	addresses []model.Address
	loaded    bool
	selection model.FulfillmentSelection
	listeners []listenerEntry
	nextID    int
	logger    zerolog.Logger
}

// NewSelector creates a selector backed by store.
func NewSelector(store AddressStore, logger zerolog.Logger) *Selector {
	return &Selector{
		store:  store,
		logger: logger.With().Str("component", "fulfillment-selector").Logger(),
	}
}

// Load fetches the address list once. A failed fetch leaves an empty list
// and returns the error so the caller can surface a notice.
func (s *Selector) Load(ctx context.Context) error {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if loaded {
		return nil
	}
	return s.Refresh(ctx)
}

// Refresh refetches the address list, keeping the current selection when its
// address still exists.
func (s *Selector) Refresh(ctx context.Context) error {
	addresses, err := s.store.FetchAddresses(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to fetch addresses")
		addresses = nil
	}

	s.apply(func() bool {
		s.addresses = addresses
		s.loaded = true

		if s.selection.Mode != model.FulfillmentDelivery {
			return false
		}
		if addr, ok := s.find(s.selection.Address.ID); ok {
			s.selection = model.Delivery(addr)
		} else {
			s.selection = model.FulfillmentSelection{}
		}
		return true
	})

	if err != nil {
		return fmt.Errorf("failed to fetch addresses: %w", err)
	}
	return nil
}

// Addresses returns a copy of the saved addresses.
func (s *Selector) Addresses() []model.Address {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Address, len(s.addresses))
	copy(out, s.addresses)
	return out
}

// Selection returns the current fulfillment selection.
func (s *Selector) Selection() model.FulfillmentSelection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// SelectDefault selects the default address, if any. It is used to seed a
// new checkout.
func (s *Selector) SelectDefault() bool {
	selected := false
	s.apply(func() bool {
		for _, addr := range s.addresses {
			if addr.IsDefault {
				s.selection = model.Delivery(addr)
				selected = true
				return true
			}
		}
		return false
	})
	return selected
}

// SelectAddress switches to delivery to the saved address id.
func (s *Selector) SelectAddress(id int64) error {
	var err error
	s.apply(func() bool {
		addr, ok := s.find(id)
		if !ok {
			err = model.ErrAddressNotFound
			return false
		}
		s.selection = model.Delivery(addr)
		return true
	})
	return err
}

// SelectPickup switches to pickup.
func (s *Selector) SelectPickup() {
	s.apply(func() bool {
		s.selection = model.Pickup()
		return true
	})
}

// AddAddress validates and persists a new address, merges it into the list
// and selects it.
func (s *Selector) AddAddress(ctx context.Context, in model.AddressInput) (model.Address, error) {
	in, err := NormalizeAddress(in)
	if err != nil {
		return model.Address{}, err
	}

	created, err := s.store.CreateAddress(ctx, in)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create address")
		return model.Address{}, fmt.Errorf("failed to create address: %w", err)
	}

	s.apply(func() bool {
		s.merge(created)
		s.selection = model.Delivery(created)
		return true
	})

	s.logger.Info().Int64("address_id", created.ID).Msg("address created")
	return created, nil
}

// EditAddress validates and persists changes to address id. The selection is
// refreshed when it points at the edited address.
func (s *Selector) EditAddress(ctx context.Context, id int64, in model.AddressInput) (model.Address, error) {
	s.mu.Lock()
	_, known := s.find(id)
	s.mu.Unlock()
	if !known {
		return model.Address{}, model.ErrAddressNotFound
	}

	in, err := NormalizeAddress(in)
	if err != nil {
		return model.Address{}, err
	}

	updated, err := s.store.UpdateAddress(ctx, id, in)
	if err != nil {
		s.logger.Error().Err(err).Int64("address_id", id).Msg("failed to update address")
		return model.Address{}, fmt.Errorf("failed to update address: %w", err)
	}

	s.apply(func() bool {
		isNew := s.merge(updated)
		selected := s.selection.Mode == model.FulfillmentDelivery && s.selection.Address.ID == updated.ID
		if isNew || selected {
			s.selection = model.Delivery(updated)
			return true
		}
		return false
	})

	return updated, nil
}

// SetDefault marks address id as the default on the remote API and locally.
func (s *Selector) SetDefault(ctx context.Context, id int64) error {
	s.mu.Lock()
	_, known := s.find(id)
	s.mu.Unlock()
	if !known {
		return model.ErrAddressNotFound
	}

	if err := s.store.SetDefaultAddress(ctx, id); err != nil {
		s.logger.Error().Err(err).Int64("address_id", id).Msg("failed to set default address")
		return fmt.Errorf("failed to set default address: %w", err)
	}

	s.apply(func() bool {
		for i := range s.addresses {
			s.addresses[i].IsDefault = s.addresses[i].ID == id
		}
		if s.selection.Mode != model.FulfillmentDelivery {
			return false
		}
		if addr, ok := s.find(s.selection.Address.ID); ok {
			s.selection = model.Delivery(addr)
		}
		return true
	})
	return nil
}

// OnChange registers fn and returns a func that removes it.
func (s *Selector) OnChange(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Close removes every listener.
func (s *Selector) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = nil
}

// apply runs mutate under the lock and notifies listeners when it reports a
// selection change.
func (s *Selector) apply(mutate func() bool) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	changed := mutate()
	selection := s.selection
	listeners := make([]listenerEntry, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, l := range listeners {
		l.fn(selection)
	}
}

// find must be called with mu held.
func (s *Selector) find(id int64) (model.Address, bool) {
	for _, addr := range s.addresses {
		if addr.ID == id {
			return addr, true
		}
	}
	return model.Address{}, false
}

// merge replaces or appends addr and reports whether it was appended. A new
// default clears the flag on the others. Must be called with mu held.
func (s *Selector) merge(addr model.Address) bool {
	if addr.IsDefault {
		for i := range s.addresses {
			s.addresses[i].IsDefault = false
		}
	}
	for i := range s.addresses {
		if s.addresses[i].ID == addr.ID {
			s.addresses[i] = addr
			return false
		}
	}
	s.addresses = append(s.addresses, addr)
	return true
}
