package postgres

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/template-store/internal/domain/cart"
	"github.com/your-org/template-store/internal/domain/catalog"
	"github.com/your-org/template-store/internal/domain/pricing"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)
	require.NoError(t, NewMigration(db, log).RunAutoMigrations())
	return db
}

func sampleSnapshot(rev uint64, qty int) cart.Snapshot {
	return cart.Snapshot{
		Version:  cart.SnapshotVersion,
		Revision: rev,
		Items: []cart.LineItem{{
			Product:   cart.Product{ID: "n8n-lead-enrichment", Title: "Lead Enrichment"},
			Tier:      pricing.TierFullService,
			Quantity:  qty,
			UnitPrice: decimal.RequireFromString("378"),
		}},
	}
}

func TestCartSnapshotRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := NewCartSnapshotRepository(setupTestDB(t), time.Hour)
	sink := repo.Sink("session-1")

	snap, err := sink.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap)

	require.NoError(t, sink.Save(ctx, sampleSnapshot(1, 1)))
	require.NoError(t, sink.Save(ctx, sampleSnapshot(2, 4)))

	snap, err = sink.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, uint64(2), snap.Revision)
	assert.Equal(t, 4, snap.Items[0].Quantity)
	assert.Equal(t, "378", snap.Items[0].UnitPrice.String())

	var count int64
	require.NoError(t, repo.db.Model(&CartSnapshot{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	other, err := repo.Sink("session-2").Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestCartSnapshotRepository_Remove(t *testing.T) {
	ctx := context.Background()
	repo := NewCartSnapshotRepository(setupTestDB(t), time.Hour)
	keep := repo.Sink("keep")
	drop := repo.Sink("drop")

	require.NoError(t, keep.Save(ctx, sampleSnapshot(1, 1)))
	require.NoError(t, drop.Save(ctx, sampleSnapshot(1, 2)))

	remover, ok := drop.(cart.Remover)
	require.True(t, ok)
	require.NoError(t, remover.Remove(ctx))
	require.NoError(t, remover.Remove(ctx))

	snap, err := drop.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap)

	snap, err = keep.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, snap)
}

func TestCartSnapshotRepository_Expiry(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewCartSnapshotRepository(db, time.Hour)

	require.NoError(t, repo.Save(ctx, "fresh", sampleSnapshot(1, 1)))
	require.NoError(t, db.Create(&CartSnapshot{
		SessionID: "stale",
		Revision:  1,
		Payload:   `{"version":1,"revision":1,"items":[]}`,
		UpdatedAt: time.Now().UTC().Add(-2 * time.Hour),
	}).Error)

	snap, err := repo.Load(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, snap)

	removed, err := repo.PruneExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	snap, err = repo.Load(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, snap)
}

func TestCartSnapshotRepository_CorruptPayload(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewCartSnapshotRepository(db, 0)

	require.NoError(t, db.Create(&CartSnapshot{SessionID: "bad", Payload: "{", UpdatedAt: time.Now().UTC()}).Error)
	_, err := repo.Load(ctx, "bad")
	assert.ErrorIs(t, err, cart.ErrInvalidSnapshot)
}

func TestMigration_SeedTemplatesIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	log := logrus.New()
	log.SetOutput(io.Discard)
	m := NewMigration(db, log)

	templates, err := catalog.DefaultTemplates()
	require.NoError(t, err)
	require.NoError(t, m.SeedTemplates(ctx, templates))

	// Edits made in the database survive a second seed
	require.NoError(t, db.Model(&catalog.Template{}).Where("id = ?", templates[0].ID).Update("price", 1).Error)
	require.NoError(t, m.SeedTemplates(ctx, templates))

	var count int64
	require.NoError(t, db.Model(&catalog.Template{}).Count(&count).Error)
	assert.Equal(t, int64(len(templates)), count)

	got, err := catalog.NewRepository(db).Lookup(ctx, templates[0].ID)
	require.NoError(t, err)
	assert.Equal(t, float64(1), got.Price)
}

func TestMigration_SeedTemplatesRejectsUnknownCategory(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	m := NewMigration(setupTestDB(t), log)

	err := m.SeedTemplates(context.Background(), []catalog.Template{{ID: "sheet", Category: "excel", Price: 5}})
	assert.ErrorContains(t, err, "unknown category")
}

func TestMigration_CreateIndexes(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	assert.NoError(t, NewMigration(setupTestDB(t), log).CreateIndexes())
}
