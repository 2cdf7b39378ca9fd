// internal/domain/pricing/tier.go
package pricing

import (
	"fmt"
	"strings"
)

// Tier is the fulfillment level a template is purchased at
type Tier string

const (
	TierBase        Tier = "template"
	TierCustomized  Tier = "customized"
	TierFullService Tier = "full-service"
)

// Tiers lists every tier in display order
func Tiers() []Tier {
	return []Tier{TierBase, TierCustomized, TierFullService}
}

// Valid reports whether t is one of the known tiers
func (t Tier) Valid() bool {
	switch t {
	case TierBase, TierCustomized, TierFullService:
		return true
	}
	return false
}

func (t Tier) String() string {
	return string(t)
}

// ParseTier converts external input into a Tier
func ParseTier(value string) (Tier, error) {
	tier := Tier(strings.ToLower(strings.TrimSpace(value)))
	if !tier.Valid() {
		return "", fmt.Errorf("%w: %s", ErrUnknownTier, value)
	}
	return tier, nil
}
