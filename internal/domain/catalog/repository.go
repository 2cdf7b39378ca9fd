// internal/domain/catalog/repository.go
package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Repository reads templates from the database
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new template repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Lookup retrieves an active template by id
func (r *Repository) Lookup(ctx context.Context, id string) (*Template, error) {
	var t Template
	err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to retrieve template: %w", err)
	}
	return &t, nil
}

// List retrieves all active templates
func (r *Repository) List(ctx context.Context) ([]Template, error) {
	var templates []Template
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("category ASC, created_at ASC, id ASC").
		Find(&templates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve templates: %w", err)
	}
	return templates, nil
}

// ListByCategory retrieves active templates in a category, cheapest first
func (r *Repository) ListByCategory(ctx context.Context, category Category) ([]Template, error) {
	var templates []Template
	err := r.db.WithContext(ctx).
		Where("category = ? AND is_active = ?", category, true).
		Order("price ASC, id ASC").
		Find(&templates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve templates for category %s: %w", category, err)
	}
	return templates, nil
}

// Save creates or updates a template
func (r *Repository) Save(ctx context.Context, t *Template) error {
	if !t.Category.Valid() {
		return fmt.Errorf("unknown category %q", t.Category)
	}
	if err := r.db.WithContext(ctx).Save(t).Error; err != nil {
		return fmt.Errorf("failed to save template %s: %w", t.ID, err)
	}
	return nil
}
