// internal/domain/catalog/catalog.go
package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a template id is not in the catalog
var ErrNotFound = errors.New("template not found")

// Lookup resolves a template id to its current listing.
// Implementations must not have side effects visible to callers.
type Lookup interface {
	Lookup(ctx context.Context, id string) (*Template, error)
}

// Reader is the read surface the storefront needs on top of Lookup
type Reader interface {
	Lookup
	List(ctx context.Context) ([]Template, error)
	ListByCategory(ctx context.Context, category Category) ([]Template, error)
}
