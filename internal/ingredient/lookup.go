package ingredient

import (
	"context"
	"errors"
	"sync"

	"bistro-checkout/internal/model"
)

// ErrSuperseded is returned to a lookup whose result arrived after a newer
// lookup was started.
var ErrSuperseded = errors.New("ingredient lookup superseded by a newer selection")

// Lookup resolves the ingredient currently selected in a form field. Starting
// a lookup cancels the one in flight, and only the latest result is kept.
type Lookup struct {
	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	current    *model.IngredientPrice

	fetcher PriceFetcher
	cache   *PriceCache
}

// NewLookup creates a lookup. cache may be nil.
func NewLookup(fetcher PriceFetcher, cache *PriceCache) *Lookup {
	return &Lookup{fetcher: fetcher, cache: cache}
}

// Select starts a lookup for id.
func (l *Lookup) Select(ctx context.Context, id int64) (model.IngredientPrice, error) {
	l.mu.Lock()
	l.generation++
	gen := l.generation
	if l.cancel != nil {
		l.cancel()
	}
	l.current = nil
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.mu.Unlock()
	defer cancel()

	var (
		price model.IngredientPrice
		err   error
	)
	if cached, ok := l.cachedPrice(id); ok {
		price = cached
	} else {
		price, err = l.fetcher.FetchIngredientReferencePrice(ctx, id)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.generation {
		return model.IngredientPrice{}, ErrSuperseded
	}
	l.cancel = nil
	if err != nil {
		return model.IngredientPrice{}, err
	}

	l.current = &price
	if l.cache != nil {
		l.cache.Put(price)
	}
	return price, nil
}

// Current returns the result of the latest completed lookup.
func (l *Lookup) Current() (model.IngredientPrice, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil {
		return model.IngredientPrice{}, false
	}
	return *l.current, true
}

// Cancel aborts the lookup in flight, if any.
func (l *Lookup) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generation++
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

func (l *Lookup) cachedPrice(id int64) (model.IngredientPrice, bool) {
	if l.cache == nil {
		return model.IngredientPrice{}, false
	}
	return l.cache.Price(id)
}
