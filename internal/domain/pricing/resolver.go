// internal/domain/pricing/resolver.go
package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Messages are shown to shoppers as-is.
var (
	// ErrInvalidPricingInput is returned when a product has no usable base price
	ErrInvalidPricingInput = errors.New("Invalid template or price")
	// ErrUnknownTier is returned for tiers outside the surcharge table
	ErrUnknownTier = errors.New("Invalid tier")
)

// Listing is anything with a base price that can be quoted per tier
type Listing interface {
	BasePrice() float64
}

// SurchargeTable maps each tier to the fixed amount added to the base price
type SurchargeTable map[Tier]decimal.Decimal

// DefaultSurcharges returns the 0 / 99 / 299 table
func DefaultSurcharges() SurchargeTable {
	return SurchargeTable{
		TierBase:        decimal.Zero,
		TierCustomized:  decimal.NewFromInt(99),
		TierFullService: decimal.NewFromInt(299),
	}
}

// NewSurchargeTable parses decimal strings for each tier
func NewSurchargeTable(base, customized, fullService string) (SurchargeTable, error) {
	table := SurchargeTable{}
	for tier, raw := range map[Tier]string{
		TierBase:        base,
		TierCustomized:  customized,
		TierFullService: fullService,
	} {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("surcharge for tier %s: %w", tier, err)
		}
		if amount.IsNegative() {
			return nil, fmt.Errorf("surcharge for tier %s must not be negative", tier)
		}
		table[tier] = amount
	}
	return table, nil
}

// Resolver prices a listing at a tier. It holds no mutable state.
type Resolver struct {
	surcharges SurchargeTable
}

// NewResolver creates a resolver over a copy of the given table
func NewResolver(surcharges SurchargeTable) *Resolver {
	table := make(SurchargeTable, len(surcharges))
	for tier, amount := range surcharges {
		table[tier] = amount
	}
	return &Resolver{surcharges: table}
}

// Surcharge returns the amount added for tier
func (r *Resolver) Surcharge(tier Tier) (decimal.Decimal, error) {
	amount, ok := r.surcharges[tier]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrUnknownTier, tier)
	}
	return amount, nil
}

// PriceFor returns base price + surcharge(tier)
func (r *Resolver) PriceFor(listing Listing, tier Tier) (decimal.Decimal, error) {
	if listing == nil {
		return decimal.Decimal{}, ErrInvalidPricingInput
	}

	base := listing.BasePrice()
	if math.IsNaN(base) || math.IsInf(base, 0) || base < 0 {
		return decimal.Decimal{}, ErrInvalidPricingInput
	}

	surcharge, err := r.Surcharge(tier)
	if err != nil {
		return decimal.Decimal{}, err
	}

	return decimal.NewFromFloat(base).Add(surcharge), nil
}
