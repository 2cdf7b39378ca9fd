// internal/domain/catalog/memory.go
package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

type seedFile struct {
	Templates []Template `yaml:"templates"`
}

// MemoryCatalog serves templates from process memory
type MemoryCatalog struct {
	mu        sync.RWMutex
	templates map[string]Template
	order     []string
}

// NewMemoryCatalog creates a catalog holding the given templates
func NewMemoryCatalog(templates ...Template) *MemoryCatalog {
	c := &MemoryCatalog{templates: make(map[string]Template)}
	for _, t := range templates {
		c.Upsert(t)
	}
	return c
}

// LoadSeed parses a YAML seed document
func LoadSeed(data []byte) ([]Template, error) {
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse catalog seed: %w", err)
	}

	seen := make(map[string]struct{}, len(seed.Templates))
	for i := range seed.Templates {
		t := &seed.Templates[i]
		if t.ID == "" {
			return nil, fmt.Errorf("catalog seed entry %d has no id", i)
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("catalog seed has duplicate id %q", t.ID)
		}
		if !t.Category.Valid() {
			return nil, fmt.Errorf("template %q has unknown category %q", t.ID, t.Category)
		}
		seen[t.ID] = struct{}{}
		t.IsActive = true
	}
	return seed.Templates, nil
}

// DefaultTemplates returns the embedded starter catalog
func DefaultTemplates() ([]Template, error) {
	return LoadSeed(defaultSeed)
}

// LoadTemplates reads the seed at path, or the embedded seed when path is empty
func LoadTemplates(path string) ([]Template, error) {
	if path == "" {
		return DefaultTemplates()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog seed %s: %w", path, err)
	}
	return LoadSeed(data)
}

// Upsert adds or replaces a template, keeping first-insert order
func (c *MemoryCatalog) Upsert(t Template) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.templates[t.ID]; !exists {
		c.order = append(c.order, t.ID)
	}
	c.templates[t.ID] = cloneTemplate(t)
}

// Lookup returns a copy of the template with the given id
func (c *MemoryCatalog) Lookup(ctx context.Context, id string) (*Template, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	copied := cloneTemplate(t)
	return &copied, nil
}

// List returns every template in insertion order
func (c *MemoryCatalog) List(ctx context.Context) ([]Template, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Template, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, cloneTemplate(c.templates[id]))
	}
	return out, nil
}

// ListByCategory returns templates in one category, cheapest first
func (c *MemoryCatalog) ListByCategory(ctx context.Context, category Category) ([]Template, error) {
	all, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	out := all[:0]
	for _, t := range all {
		if t.Category == category {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out, nil
}

func cloneTemplate(t Template) Template {
	t.Features = append([]string(nil), t.Features...)
	t.RecommendedFor = append([]string(nil), t.RecommendedFor...)
	return t
}
