// internal/domain/catalog/entity.go
package catalog

import (
	"math"
	"time"
)

// Category groups templates by the automation tool they target
type Category string

const (
	CategoryNotion  Category = "notion"
	CategoryN8N     Category = "n8n"
	CategoryMake    Category = "make"
	CategoryZapier  Category = "zapier"
	CategoryChatGPT Category = "chatgpt"
)

var categoryTitles = map[Category]string{
	CategoryNotion:  "Notion Templates",
	CategoryN8N:     "n8n Workflows",
	CategoryMake:    "Make Scenarios",
	CategoryZapier:  "Zapier Zaps",
	CategoryChatGPT: "ChatGPT Prompts",
}

// Categories returns every category in display order
func Categories() []Category {
	return []Category{CategoryNotion, CategoryN8N, CategoryMake, CategoryZapier, CategoryChatGPT}
}

// Title returns the display title, empty for unknown categories
func (c Category) Title() string {
	return categoryTitles[c]
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	_, ok := categoryTitles[c]
	return ok
}

// Template is a sellable digital template
type Template struct {
	ID             string    `gorm:"primaryKey;size:100" json:"id" yaml:"id"`
	Title          string    `gorm:"not null;size:255" json:"title" yaml:"title"`
	Description    string    `gorm:"type:text" json:"description" yaml:"description"`
	Category       Category  `gorm:"not null;size:50;index" json:"category" yaml:"category"`
	Price          float64   `gorm:"not null" json:"price" yaml:"price"` // Base price in dollars
	Image          string    `gorm:"size:500" json:"image" yaml:"image"`
	Preview        string    `gorm:"size:500" json:"preview,omitempty" yaml:"preview"`
	Features       []string  `gorm:"type:text;serializer:json" json:"features" yaml:"features"`
	RecommendedFor []string  `gorm:"type:text;serializer:json" json:"recommended_for" yaml:"recommended_for"`
	IsActive       bool      `gorm:"default:true" json:"-" yaml:"-"`
	CreatedAt      time.Time `json:"-" yaml:"-"`
	UpdatedAt      time.Time `json:"-" yaml:"-"`
}

// TableName overrides the table name
func (Template) TableName() string {
	return "templates"
}

// BasePrice returns the listed price. A nil template has no price.
func (t *Template) BasePrice() float64 {
	if t == nil {
		return math.NaN()
	}
	return t.Price
}

// PreviewImage falls back to the card image when no preview is set
func (t *Template) PreviewImage() string {
	if t.Preview != "" {
		return t.Preview
	}
	return t.Image
}
