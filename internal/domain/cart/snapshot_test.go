package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/template-store/internal/domain/pricing"
)

func line(id string, tier pricing.Tier, qty int, price string) LineItem {
	return LineItem{
		Product:   Product{ID: id, Title: id},
		Tier:      tier,
		Quantity:  qty,
		UnitPrice: dec(price),
	}
}

func TestSnapshot_Validate(t *testing.T) {
	tests := []struct {
		name    string
		snap    Snapshot
		wantErr bool
	}{
		{"empty", Snapshot{Version: SnapshotVersion}, false},
		{"valid lines", Snapshot{Version: 1, Items: []LineItem{
			line("A", pricing.TierBase, 2, "100"),
			line("A", pricing.TierCustomized, 1, "199"),
		}}, false},
		{"future version", Snapshot{Version: SnapshotVersion + 1}, true},
		{"missing id", Snapshot{Version: 1, Items: []LineItem{line("", pricing.TierBase, 1, "1")}}, true},
		{"unknown tier", Snapshot{Version: 1, Items: []LineItem{line("A", "gold", 1, "1")}}, true},
		{"zero quantity", Snapshot{Version: 1, Items: []LineItem{line("A", pricing.TierBase, 0, "1")}}, true},
		{"negative price", Snapshot{Version: 1, Items: []LineItem{line("A", pricing.TierBase, 1, "-5")}}, true},
		{"duplicate key", Snapshot{Version: 1, Items: []LineItem{
			line("A", pricing.TierBase, 1, "100"),
			line("A", pricing.TierBase, 3, "100"),
		}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.snap.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSnapshot)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSnapshot_EncodingKeepsPrices(t *testing.T) {
	snap := Snapshot{
		Version:  SnapshotVersion,
		Revision: 9,
		Items:    []LineItem{line("A", pricing.TierFullService, 3, "348.99")},
		Total:    dec("1046.97"),
	}

	data, err := MarshalSnapshot(snap)
	require.NoError(t, err)

	decoded, err := UnmarshalSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), decoded.Revision)
	require.Len(t, decoded.Items, 1)
	assert.Equal(t, "348.99", decoded.Items[0].UnitPrice.String())
	assert.Equal(t, pricing.TierFullService, decoded.Items[0].Tier)
}

func TestUnmarshalSnapshot_Garbage(t *testing.T) {
	_, err := UnmarshalSnapshot([]byte("{not json"))
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestStore_HydrateRecomputesTotal(t *testing.T) {
	s, _ := newTestStore(map[string]float64{"A": 100})

	err := s.Hydrate(Snapshot{
		Version:  SnapshotVersion,
		Revision: 4,
		Items: []LineItem{
			line("A", pricing.TierBase, 2, "100"),
			line("B", pricing.TierCustomized, 1, "128"),
		},
		Total: dec("1"),
	})
	require.NoError(t, err)

	assert.True(t, dec("328").Equal(s.Total()))
	assert.Equal(t, uint64(4), s.Revision())

	// Hydrated lines are addressable by key
	require.NoError(t, s.AddItem(context.Background(), "A", pricing.TierBase))
	assert.Equal(t, 3, s.Items()[0].Quantity)
	assertTotalConsistent(t, s)
}

func TestStore_HydrateRejectsInvalid(t *testing.T) {
	s, _ := newTestStore(map[string]float64{"A": 100})
	require.NoError(t, s.AddItem(context.Background(), "A", pricing.TierBase))

	err := s.Hydrate(Snapshot{Version: 1, Items: []LineItem{line("A", pricing.TierBase, -1, "100")}})
	assert.ErrorIs(t, err, ErrInvalidSnapshot)

	require.Len(t, s.Items(), 1)
	assert.True(t, dec("100").Equal(s.Total()))
}
