// Package selection tracks which catalogue items the buyer has chosen and
// derives the cart from that choice.
package selection

import (
	"sync"

	"bookorder/internal/catalog"
	"bookorder/internal/model"

	"github.com/rs/zerolog"
)

// Aggregator holds the chosen flag per catalogue item. The cart is always
// derived from the flags, never stored.
type Aggregator struct {
	store  *catalog.Store
	logger zerolog.Logger

	mu     sync.RWMutex
	chosen map[string]bool
}

// New creates an empty selection over store.
func New(store *catalog.Store, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		store:  store,
		logger: logger.With().Str("component", "selection").Logger(),
		chosen: make(map[string]bool),
	}
}

// Toggle flips the chosen flag for itemID. Ids not in the catalogue are
// ignored: they come from stale references, not user error.
func (a *Aggregator) Toggle(itemID string) {
	if !a.store.Contains(itemID) {
		a.logger.Debug().Str("item_id", itemID).Msg("ignoring toggle of unknown item")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.chosen[itemID] {
		delete(a.chosen, itemID)
		return
	}
	a.chosen[itemID] = true
}

// Selected reports whether itemID is currently chosen.
func (a *Aggregator) Selected(itemID string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.chosen[itemID]
}

// Count returns the number of chosen items.
func (a *Aggregator) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.chosen)
}

// Cart returns a fresh snapshot of the chosen items in catalogue order.
func (a *Aggregator) Cart() model.Cart {
	a.mu.RLock()
	defer a.mu.RUnlock()

	cart := model.Cart{Items: make([]model.CatalogItem, 0, len(a.chosen))}
	for _, item := range a.store.Items() {
		if a.chosen[item.ID] {
			cart.Items = append(cart.Items, item)
			cart.Total += item.Price
		}
	}
	return cart
}

// Reset clears every chosen flag.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.chosen = make(map[string]bool)
}
