// internal/domain/cart/snapshot.go
package cart

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SnapshotVersion is the current snapshot schema
const SnapshotVersion = 1

// Snapshot is the serialized form of a cart
type Snapshot struct {
	Version  int             `json:"version"`
	Revision uint64          `json:"revision"`
	Items    []LineItem      `json:"items"`
	Total    decimal.Decimal `json:"total"` // Informational; recomputed on load
	SavedAt  time.Time       `json:"saved_at"`
}

// Validate checks the invariants a snapshot must hold before it is trusted
func (s Snapshot) Validate() error {
	if s.Version > SnapshotVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, s.Version)
	}

	seen := make(map[Key]struct{}, len(s.Items))
	for i, item := range s.Items {
		if item.Product.ID == "" {
			return fmt.Errorf("%w: line %d has no template id", ErrInvalidSnapshot, i)
		}
		if !item.Tier.Valid() {
			return fmt.Errorf("%w: line %d has unknown tier %q", ErrInvalidSnapshot, i, item.Tier)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: line %d has quantity %d", ErrInvalidSnapshot, i, item.Quantity)
		}
		if item.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: line %d has negative price", ErrInvalidSnapshot, i)
		}
		key := item.Key()
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate line %s", ErrInvalidSnapshot, key)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// MarshalSnapshot encodes a snapshot for storage
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cart snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot decodes a stored snapshot
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return &s, nil
}
