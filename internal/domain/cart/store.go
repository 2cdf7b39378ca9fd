// internal/domain/cart/store.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/your-org/template-store/internal/domain/catalog"
	"github.com/your-org/template-store/internal/domain/pricing"
)

// Store is the in-memory cart ledger. Every method is atomic with respect to
// the others; failed operations leave the cart untouched.
type Store struct {
	lookup   catalog.Lookup
	resolver *pricing.Resolver

	mu       sync.RWMutex
	items    []LineItem
	index    map[Key]int
	total    decimal.Decimal
	revision uint64
}

// NewStore creates an empty cart
func NewStore(lookup catalog.Lookup, resolver *pricing.Resolver) *Store {
	return &Store{
		lookup:   lookup,
		resolver: resolver,
		index:    make(map[Key]int),
		total:    decimal.Zero,
	}
}

// AddItem adds one unit of (productID, tier). An existing line keeps the unit
// price it was created with.
func (s *Store) AddItem(ctx context.Context, productID string, tier pricing.Tier) error {
	template, err := s.lookup.Lookup(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return &ProductNotFoundError{ProductID: productID, Err: err}
		}
		return fmt.Errorf("failed to look up template %s: %w", productID, err)
	}
	if template == nil {
		return &ProductNotFoundError{ProductID: productID}
	}

	price, err := s.resolver.PriceFor(template, tier)
	if err != nil {
		return err
	}

	key := Key{ProductID: productID, Tier: tier}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[key]; ok {
		s.items[i].Quantity++
		s.total = s.total.Add(s.items[i].UnitPrice)
	} else {
		product := productFrom(template)
		product.ID = productID
		s.items = append(s.items, LineItem{
			Product:   product,
			Tier:      tier,
			Quantity:  1,
			UnitPrice: price,
		})
		s.index[key] = len(s.items) - 1
		s.total = s.total.Add(price)
	}
	s.revision++
	return nil
}

// RemoveItem deletes the whole line regardless of its quantity.
// It reports whether a line was removed; removing a missing line is a no-op.
func (s *Store) RemoveItem(productID string, tier pricing.Tier) bool {
	key := Key{ProductID: productID, Tier: tier}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[key]
	if !ok {
		return false
	}

	s.total = s.total.Sub(s.items[i].Subtotal())
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.reindex()
	s.revision++
	return true
}

// UpdateQuantity sets the quantity of an existing line. Quantities below 1
// are rejected without touching the cart; use RemoveItem to delete a line.
func (s *Store) UpdateQuantity(productID string, tier pricing.Tier, quantity int) bool {
	if quantity < 1 {
		return false
	}
	key := Key{ProductID: productID, Tier: tier}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[key]
	if !ok {
		return false
	}

	item := &s.items[i]
	if item.Quantity == quantity {
		return false
	}
	diff := decimal.NewFromInt(int64(quantity - item.Quantity))
	s.total = s.total.Add(item.UnitPrice.Mul(diff))
	item.Quantity = quantity
	s.revision++
	return true
}

// Clear empties the cart
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.index = make(map[Key]int)
	s.total = decimal.Zero
	s.revision++
}

// Items returns the lines in insertion order
func (s *Store) Items() []LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]LineItem(nil), s.items...)
}

// Total returns the running total
func (s *Store) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.total
}

// Summary returns line count, unit count and total
func (s *Store) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.summary()
}

// View returns the lines and their summary from the same state
func (s *Store) View() ([]LineItem, Summary) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]LineItem(nil), s.items...), s.summary()
}

func (s *Store) summary() Summary {
	summary := Summary{ItemCount: len(s.items), Total: s.total}
	for _, item := range s.items {
		summary.TotalQuantity += item.Quantity
	}
	return summary
}

// Revision increases by one on every state change
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.revision
}

// Snapshot captures the current state for persistence
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Version:  SnapshotVersion,
		Revision: s.revision,
		Items:    append([]LineItem(nil), s.items...),
		Total:    s.total,
	}
}

// Hydrate replaces the cart contents with a validated snapshot. The total is
// recomputed from the lines; the persisted total is ignored.
func (s *Store) Hydrate(snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	items := append([]LineItem(nil), snap.Items...)
	index := make(map[Key]int, len(items))
	total := decimal.Zero
	for i, item := range items {
		index[item.Key()] = i
		total = total.Add(item.Subtotal())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = items
	s.index = index
	s.total = total
	if snap.Revision > s.revision {
		s.revision = snap.Revision
	}
	return nil
}

func (s *Store) reindex() {
	for k := range s.index {
		delete(s.index, k)
	}
	for i, item := range s.items {
		s.index[item.Key()] = i
	}
}
