// Package ingredient caches ingredient reference prices for a checkout
// session and resolves per-field ingredient lookups.
package ingredient

import (
	"context"
	"fmt"
	"sync"

	"bistro-checkout/internal/model"

	"github.com/rs/zerolog"
)

// PriceFetcher reads reference prices from the remote API.
type PriceFetcher interface {
	FetchIngredientReferencePrices(ctx context.Context, ids []int64) ([]model.IngredientPrice, error)
	FetchIngredientReferencePrice(ctx context.Context, id int64) (model.IngredientPrice, error)
}

// PriceStore is a cache shared between sessions.
type PriceStore interface {
	GetPrices(ctx context.Context, ids []int64) (map[int64]model.IngredientPrice, error)
	PutPrices(ctx context.Context, prices []model.IngredientPrice) error
}

// PriceCache holds the reference prices of one checkout session. Prices are
// fetched at most once per id; until a fetch completes the price is unset.
type PriceCache struct {
	mu      sync.RWMutex
	prices  map[int64]model.IngredientPrice
	pending map[int64]struct{}

	fetcher PriceFetcher
	store   PriceStore
	logger  zerolog.Logger
}

// NewPriceCache creates a session cache. store may be nil.
func NewPriceCache(fetcher PriceFetcher, store PriceStore, logger zerolog.Logger) *PriceCache {
	return &PriceCache{
		prices:  make(map[int64]model.IngredientPrice),
		pending: make(map[int64]struct{}),
		fetcher: fetcher,
		store:   store,
		logger:  logger.With().Str("component", "ingredient-cache").Logger(),
	}
}

// Warm fetches the prices of ids that are neither cached nor already being
// fetched. The shared store is consulted before the remote API.
func (c *PriceCache) Warm(ctx context.Context, ids []int64) error {
	missing := c.claim(ids)
	if len(missing) == 0 {
		return nil
	}
	defer c.release(missing)

	found := make(map[int64]model.IngredientPrice, len(missing))
	if c.store != nil {
		shared, err := c.store.GetPrices(ctx, missing)
		if err != nil {
			c.logger.Warn().Err(err).Msg("shared price store unavailable")
		}
		for id, p := range shared {
			found[id] = p
		}
	}

	var remote []int64
	for _, id := range missing {
		if _, ok := found[id]; !ok {
			remote = append(remote, id)
		}
	}

	var fetchErr error
	if len(remote) > 0 {
		prices, err := c.fetcher.FetchIngredientReferencePrices(ctx, remote)
		if err != nil {
			c.logger.Warn().Err(err).Int("count", len(remote)).Msg("failed to fetch ingredient prices")
			fetchErr = fmt.Errorf("failed to fetch ingredient prices: %w", err)
		} else {
			for _, p := range prices {
				found[p.IngredientID] = p
			}
			if c.store != nil && len(prices) > 0 {
				if err := c.store.PutPrices(ctx, prices); err != nil {
					c.logger.Warn().Err(err).Msg("failed to share ingredient prices")
				}
			}
		}
	}

	c.mu.Lock()
	for id, p := range found {
		c.prices[id] = p
	}
	c.mu.Unlock()

	return fetchErr
}

// Price returns the cached price of id. ok is false while the price is
// pending or unknown.
func (c *PriceCache) Price(id int64) (model.IngredientPrice, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.prices[id]
	return p, ok
}

// Put records a price fetched elsewhere.
func (c *PriceCache) Put(p model.IngredientPrice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[p.IngredientID] = p
}

func (c *PriceCache) claim(ids []int64) []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var missing []int64
	for _, id := range ids {
		if _, ok := c.prices[id]; ok {
			continue
		}
		if _, ok := c.pending[id]; ok {
			continue
		}
		c.pending[id] = struct{}{}
		missing = append(missing, id)
	}
	return missing
}

func (c *PriceCache) release(ids []int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.pending, id)
	}
}
