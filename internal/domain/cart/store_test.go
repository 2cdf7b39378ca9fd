package cart

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/template-store/internal/domain/catalog"
	"github.com/your-org/template-store/internal/domain/pricing"
)

// stubLookup serves prices from a map that tests can change between calls
type stubLookup struct {
	mu     sync.Mutex
	prices map[string]float64
	err    error
	calls  int
}

func newStubLookup(prices map[string]float64) *stubLookup {
	return &stubLookup{prices: prices}
}

func (s *stubLookup) Lookup(ctx context.Context, id string) (*catalog.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	price, ok := s.prices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", catalog.ErrNotFound, id)
	}
	return &catalog.Template{ID: id, Title: "Template " + id, Category: catalog.CategoryNotion, Price: price}, nil
}

func (s *stubLookup) setPrice(id string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[id] = price
}

func newTestStore(prices map[string]float64) (*Store, *stubLookup) {
	lookup := newStubLookup(prices)
	return NewStore(lookup, pricing.NewResolver(pricing.DefaultSurcharges())), lookup
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func assertTotalConsistent(t *testing.T, s *Store) {
	t.Helper()

	sum := decimal.Zero
	seen := map[Key]bool{}
	for _, item := range s.Items() {
		assert.False(t, seen[item.Key()], "duplicate line %s", item.Key())
		seen[item.Key()] = true
		assert.GreaterOrEqual(t, item.Quantity, 1)
		sum = sum.Add(item.Subtotal())
	}
	assert.True(t, sum.Equal(s.Total()), "total %s, lines sum to %s", s.Total(), sum)
}

func TestStore_Walkthrough(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(map[string]float64{"A": 100})

	// 1. first add
	require.NoError(t, s.AddItem(ctx, "A", pricing.TierBase))
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
	assert.True(t, dec("100").Equal(items[0].UnitPrice))
	assert.True(t, dec("100").Equal(s.Total()))

	// 2. same key increments
	require.NoError(t, s.AddItem(ctx, "A", pricing.TierBase))
	items = s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, dec("200").Equal(s.Total()))

	// 3. other tier is a separate line
	require.NoError(t, s.AddItem(ctx, "A", pricing.TierCustomized))
	items = s.Items()
	require.Len(t, items, 2)
	assert.True(t, dec("199").Equal(items[1].UnitPrice))
	assert.True(t, dec("399").Equal(s.Total()))

	// 4. set quantity
	assert.True(t, s.UpdateQuantity("A", pricing.TierBase, 5))
	assert.Equal(t, 5, s.Items()[0].Quantity)
	assert.True(t, dec("699").Equal(s.Total()))

	// 5. remove
	assert.True(t, s.RemoveItem("A", pricing.TierBase))
	items = s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, pricing.TierCustomized, items[0].Tier)
	assert.True(t, dec("199").Equal(s.Total()))

	// 6. unknown template
	err := s.AddItem(ctx, "B", pricing.TierBase)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProductNotFound))
	assert.Equal(t, Result{Success: false, Error: "Template not found: B"}, ResultOf(err))
	assert.Len(t, s.Items(), 1)
	assert.True(t, dec("199").Equal(s.Total()))

	// 7. clear
	s.Clear()
	assert.Empty(t, s.Items())
	assert.True(t, s.Total().IsZero())
}

func TestStore_AddItemFailuresLeaveCartUntouched(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		prices  map[string]float64
		id      string
		tier    pricing.Tier
		wantErr error
	}{
		{"unknown tier", map[string]float64{"A": 100}, "A", pricing.Tier("platinum"), pricing.ErrUnknownTier},
		{"negative price", map[string]float64{"A": -1}, "A", pricing.TierBase, pricing.ErrInvalidPricingInput},
		{"missing template", map[string]float64{}, "A", pricing.TierBase, ErrProductNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(tt.prices)
			rev := s.Revision()

			err := s.AddItem(ctx, tt.id, tt.tier)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, s.Items())
			assert.True(t, s.Total().IsZero())
			assert.Equal(t, rev, s.Revision())
		})
	}
}

func TestStore_AddItemLookupError(t *testing.T) {
	s, lookup := newTestStore(map[string]float64{"A": 100})
	lookup.err = errors.New("connection refused")

	err := s.AddItem(context.Background(), "A", pricing.TierBase)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrProductNotFound))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Empty(t, s.Items())
}

func TestStore_PriceFixedAtLineCreation(t *testing.T) {
	ctx := context.Background()
	s, lookup := newTestStore(map[string]float64{"A": 100})

	require.NoError(t, s.AddItem(ctx, "A", pricing.TierFullService))
	lookup.setPrice("A", 250)
	require.NoError(t, s.AddItem(ctx, "A", pricing.TierFullService))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, dec("399").Equal(items[0].UnitPrice))
	assert.True(t, dec("798").Equal(s.Total()))

	// A new tier line picks up the new price
	require.NoError(t, s.AddItem(ctx, "A", pricing.TierBase))
	assert.True(t, dec("250").Equal(s.Items()[1].UnitPrice))
	assertTotalConsistent(t, s)
}

func TestStore_RemoveMissingIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(map[string]float64{"A": 100})
	require.NoError(t, s.AddItem(ctx, "A", pricing.TierBase))

	before := s.Snapshot()
	assert.False(t, s.RemoveItem("A", pricing.TierCustomized))
	assert.False(t, s.RemoveItem("A", pricing.TierCustomized))
	assert.Equal(t, before, s.Snapshot())
}

func TestStore_UpdateQuantityFloor(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(map[string]float64{"A": 100})
	require.NoError(t, s.AddItem(ctx, "A", pricing.TierBase))
	require.NoError(t, s.AddItem(ctx, "A", pricing.TierBase))

	for _, qty := range []int{0, -1, -100} {
		assert.False(t, s.UpdateQuantity("A", pricing.TierBase, qty))
		assert.Equal(t, 2, s.Items()[0].Quantity)
		assert.True(t, dec("200").Equal(s.Total()))
	}

	assert.False(t, s.UpdateQuantity("missing", pricing.TierBase, 3))
	assert.False(t, s.UpdateQuantity("A", pricing.TierBase, 2))
	assert.True(t, s.UpdateQuantity("A", pricing.TierBase, 1))
	assert.True(t, dec("100").Equal(s.Total()))
}

func TestStore_DecimalTotalsStayExact(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(map[string]float64{"A": 0.1, "B": 0.2})

	for i := 0; i < 10; i++ {
		require.NoError(t, s.AddItem(ctx, "A", pricing.TierBase))
		require.NoError(t, s.AddItem(ctx, "B", pricing.TierBase))
	}
	assert.Equal(t, "3", s.Total().String())
}

func TestStore_ItemsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(map[string]float64{"A": 100})
	require.NoError(t, s.AddItem(ctx, "A", pricing.TierBase))

	items := s.Items()
	items[0].Quantity = 42
	assert.Equal(t, 1, s.Items()[0].Quantity)
}

func TestStore_RandomOperationsKeepInvariants(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))
	ids := []string{"A", "B", "C", "missing"}
	tiers := []pricing.Tier{pricing.TierBase, pricing.TierCustomized, pricing.TierFullService, "bogus"}

	for run := 0; run < 20; run++ {
		s, lookup := newTestStore(map[string]float64{"A": 100, "B": 49.99, "C": 0})
		prices := map[Key]decimal.Decimal{}

		for step := 0; step < 200; step++ {
			id := ids[rng.Intn(len(ids))]
			tier := tiers[rng.Intn(len(tiers))]
			key := Key{ProductID: id, Tier: tier}

			switch rng.Intn(6) {
			case 0, 1:
				if id != "missing" {
					lookup.setPrice(id, float64(rng.Intn(500)))
				}
				if err := s.AddItem(ctx, id, tier); err == nil {
					if _, ok := prices[key]; !ok {
						prices[key] = s.Items()[len(s.Items())-1].UnitPrice
					}
				}
			case 2:
				s.RemoveItem(id, tier)
				delete(prices, key)
			case 3:
				qty := rng.Intn(7) - 2
				var before int
				for _, item := range s.Items() {
					if item.Key() == key {
						before = item.Quantity
					}
				}
				total := s.Total()
				s.UpdateQuantity(id, tier, qty)
				if qty < 1 {
					assert.True(t, total.Equal(s.Total()))
					for _, item := range s.Items() {
						if item.Key() == key {
							assert.Equal(t, before, item.Quantity)
						}
					}
				}
			case 4:
				before := s.Snapshot()
				s.RemoveItem("never-added", pricing.TierBase)
				assert.Equal(t, before, s.Snapshot())
			case 5:
				if rng.Intn(10) == 0 {
					s.Clear()
					prices = map[Key]decimal.Decimal{}
				}
			}

			assertTotalConsistent(t, s)
			for _, item := range s.Items() {
				assert.True(t, prices[item.Key()].Equal(item.UnitPrice), "unit price of %s changed", item.Key())
			}
		}
	}
}

func TestStore_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(map[string]float64{"A": 10})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AddItem(ctx, "A", pricing.TierBase)
		}()
	}
	wg.Wait()

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 50, items[0].Quantity)
	assert.True(t, dec("500").Equal(s.Total()))
}

func TestStore_ViewMatchesSummaryUnderWrites(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(map[string]float64{"A": 10, "B": 3})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = s.AddItem(ctx, "A", pricing.TierBase)
			_ = s.AddItem(ctx, "B", pricing.TierCustomized)
			if i%10 == 0 {
				s.RemoveItem("B", pricing.TierCustomized)
			}
		}
	}()

	for i := 0; i < 200; i++ {
		items, summary := s.View()
		sum := decimal.Zero
		quantity := 0
		for _, item := range items {
			sum = sum.Add(item.Subtotal())
			quantity += item.Quantity
		}
		require.True(t, sum.Equal(summary.Total), "lines %s, summary %s", sum, summary.Total)
		require.Equal(t, len(items), summary.ItemCount)
		require.Equal(t, quantity, summary.TotalQuantity)
	}
	wg.Wait()
}

func TestStore_Summary(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(map[string]float64{"A": 100, "B": 20})
	require.NoError(t, s.AddItem(ctx, "A", pricing.TierBase))
	require.NoError(t, s.AddItem(ctx, "A", pricing.TierBase))
	require.NoError(t, s.AddItem(ctx, "B", pricing.TierCustomized))

	summary := s.Summary()
	assert.Equal(t, 2, summary.ItemCount)
	assert.Equal(t, 3, summary.TotalQuantity)
	assert.True(t, dec("319").Equal(summary.Total))
}

func TestNewKey(t *testing.T) {
	key, err := NewKey(" notion-crm ", "Full-Service")
	require.NoError(t, err)
	assert.Equal(t, Key{ProductID: "notion-crm", Tier: pricing.TierFullService}, key)
	assert.Equal(t, "notion-crm/full-service", key.String())

	_, err = NewKey("", "template")
	assert.Error(t, err)

	_, err = NewKey("notion-crm", "gold")
	assert.ErrorIs(t, err, pricing.ErrUnknownTier)
}

func TestResultOf(t *testing.T) {
	assert.Equal(t, Result{Success: true}, ResultOf(nil))
	assert.Equal(t, Result{Error: "boom"}, ResultOf(errors.New("boom")))
}
