// internal/domain/catalog/service.go
package catalog

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/your-org/template-store/internal/domain/pricing"
)

// Service handles catalog browsing for the storefront
type Service struct {
	reader   Reader
	resolver *pricing.Resolver
}

// NewService creates a new catalog service
func NewService(reader Reader, resolver *pricing.Resolver) *Service {
	return &Service{
		reader:   reader,
		resolver: resolver,
	}
}

// TierQuote is one purchase option shown on a template page
type TierQuote struct {
	Tier        pricing.Tier    `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Features    []string        `json:"features"`
}

// CategoryPage is a category listing
type CategoryPage struct {
	Category  Category   `json:"category"`
	Title     string     `json:"title"`
	Templates []Template `json:"templates"`
}

// TemplateDetail is a template with its tier quotes
type TemplateDetail struct {
	Template Template    `json:"template"`
	Preview  string      `json:"preview"`
	Tiers    []TierQuote `json:"tiers"`
}

type tierCopy struct {
	name        string
	description string
	features    []string
}

var tierCopies = map[pricing.Tier]tierCopy{
	pricing.TierBase: {
		name:        "Template Only",
		description: "Get instant access to the template",
		features:    []string{"Full template access", "Basic documentation", "30-day support", "Future updates"},
	},
	pricing.TierCustomized: {
		name:        "Customized Template",
		description: "Template customized to your needs",
		features:    []string{"Everything in Template Only", "Customization consultation", "Branded elements", "60-day support"},
	},
	pricing.TierFullService: {
		name:        "Full Service Setup",
		description: "Complete setup and implementation",
		features: []string{"Everything in Customized", "Full implementation", "Team training session",
			"90-day priority support", "Workflow optimization"},
	},
}

// ListTemplates returns every active template
func (s *Service) ListTemplates(ctx context.Context) ([]Template, error) {
	return s.reader.List(ctx)
}

// GetCategoryPage returns the templates of a known category
func (s *Service) GetCategoryPage(ctx context.Context, category Category) (*CategoryPage, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: category %s", ErrNotFound, category)
	}

	templates, err := s.reader.ListByCategory(ctx, category)
	if err != nil {
		return nil, err
	}

	return &CategoryPage{
		Category:  category,
		Title:     category.Title(),
		Templates: templates,
	}, nil
}

// GetTemplateDetail returns a template and its tier quotes.
// A template requested under the wrong category is treated as missing.
func (s *Service) GetTemplateDetail(ctx context.Context, category Category, id string) (*TemplateDetail, error) {
	t, err := s.reader.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if category != "" && t.Category != category {
		return nil, fmt.Errorf("%w: %s in category %s", ErrNotFound, id, category)
	}

	quotes, err := s.TierQuotes(t)
	if err != nil {
		return nil, err
	}

	return &TemplateDetail{
		Template: *t,
		Preview:  t.PreviewImage(),
		Tiers:    quotes,
	}, nil
}

// TierQuotes prices a template at every tier
func (s *Service) TierQuotes(t *Template) ([]TierQuote, error) {
	quotes := make([]TierQuote, 0, len(pricing.Tiers()))
	for _, tier := range pricing.Tiers() {
		price, err := s.resolver.PriceFor(t, tier)
		if err != nil {
			return nil, fmt.Errorf("failed to price %s at tier %s: %w", t.ID, tier, err)
		}
		text := tierCopies[tier]
		quotes = append(quotes, TierQuote{
			Tier:        tier,
			Name:        text.name,
			Description: text.description,
			Price:       price,
			Features:    append([]string(nil), text.features...),
		})
	}
	return quotes, nil
}
