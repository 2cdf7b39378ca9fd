// internal/domain/cart/entity.go
package cart

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/your-org/template-store/internal/domain/catalog"
	"github.com/your-org/template-store/internal/domain/pricing"
)

// Key identifies a cart line. Two lines are the same line iff their keys match.
type Key struct {
	ProductID string       `json:"template_id"`
	Tier      pricing.Tier `json:"tier"`
}

// NewKey validates raw input from outside the process
func NewKey(productID, tier string) (Key, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Key{}, fmt.Errorf("template id is required")
	}
	t, err := pricing.ParseTier(tier)
	if err != nil {
		return Key{}, err
	}
	return Key{ProductID: productID, Tier: t}, nil
}

func (k Key) String() string {
	return k.ProductID + "/" + string(k.Tier)
}

// Product is the copy of a catalog listing taken when a line is created.
// Later catalog changes do not reach it.
type Product struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Category catalog.Category `json:"category"`
	Image    string           `json:"image,omitempty"`
	Price    float64          `json:"price"`
}

func productFrom(t *catalog.Template) Product {
	return Product{
		ID:       t.ID,
		Title:    t.Title,
		Category: t.Category,
		Image:    t.Image,
		Price:    t.Price,
	}
}

// LineItem is one (template, tier) selection
type LineItem struct {
	Product   Product         `json:"template"`
	Tier      pricing.Tier    `json:"tier"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"` // Fixed when the line is created
}

// Key returns the line identity
func (li LineItem) Key() Key {
	return Key{ProductID: li.Product.ID, Tier: li.Tier}
}

// Subtotal is unit price times quantity
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Summary represents calculated cart totals
type Summary struct {
	ItemCount     int             `json:"item_count"`     // Number of lines
	TotalQuantity int             `json:"total_quantity"` // Sum of all quantities
	Total         decimal.Decimal `json:"total"`
}
