// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/template-store/internal/domain/catalog"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db  *gorm.DB
	log *logrus.Entry
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, log *logrus.Logger) *Migration {
	return &Migration{
		db:  db,
		log: log.WithField("component", "migration"),
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.log.Info("Running database auto-migrations")

	models := []interface{}{
		&catalog.Template{},
		&CartSnapshot{},
	}

	for _, model := range models {
		m.log.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.log.Info("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		// Template indexes
		"CREATE INDEX IF NOT EXISTS idx_templates_category_active ON templates(category, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_templates_price ON templates(price)",

		// Cart snapshot indexes
		"CREATE INDEX IF NOT EXISTS idx_cart_snapshots_updated_at ON cart_snapshots(updated_at)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.log.WithError(err).Warn("Failed to create index")
			failCount++
		} else {
			successCount++
		}
	}

	m.log.WithFields(logrus.Fields{"created": successCount, "failed": failCount}).Info("Created indexes")
	return nil
}

// SeedTemplates inserts catalog templates that are not in the database yet.
// Existing rows are left alone so edits made in the database survive restarts.
func (m *Migration) SeedTemplates(ctx context.Context, templates []catalog.Template) error {
	repo := catalog.NewRepository(m.db)
	created := 0
	for i := range templates {
		t := templates[i]

		var existing catalog.Template
		err := m.db.WithContext(ctx).Where("id = ?", t.ID).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check template %s: %w", t.ID, err)
		}

		if err := repo.Save(ctx, &t); err != nil {
			return fmt.Errorf("failed to seed template %s: %w", t.ID, err)
		}
		created++
	}

	m.log.WithFields(logrus.Fields{"created": created, "total": len(templates)}).Info("Seeded templates")
	return nil
}
