package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/your-org/template-store/internal/domain/cart"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartSnapshot is the latest persisted cart for a session
type CartSnapshot struct {
	SessionID string    `gorm:"primaryKey;size:64" json:"session_id"`
	Revision  uint64    `gorm:"not null" json:"revision"`
	Payload   string    `gorm:"type:text;not null" json:"payload"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for CartSnapshot
func (CartSnapshot) TableName() string {
	return "cart_snapshots"
}

// CartSnapshotRepository reads and writes cart snapshots
type CartSnapshotRepository struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewCartSnapshotRepository creates a repository; snapshots older than ttl
// are treated as absent. A zero ttl keeps them forever.
func NewCartSnapshotRepository(db *gorm.DB, ttl time.Duration) *CartSnapshotRepository {
	return &CartSnapshotRepository{db: db, ttl: ttl}
}

// Sink returns the sink for one session
func (r *CartSnapshotRepository) Sink(sessionID string) cart.Sink {
	return &CartSink{repo: r, sessionID: sessionID}
}

// Save upserts the snapshot for sessionID
func (r *CartSnapshotRepository) Save(ctx context.Context, sessionID string, snap cart.Snapshot) error {
	data, err := cart.MarshalSnapshot(snap)
	if err != nil {
		return err
	}

	row := CartSnapshot{
		SessionID: sessionID,
		Revision:  snap.Revision,
		Payload:   string(data),
		UpdatedAt: time.Now().UTC(),
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"revision", "payload", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save cart snapshot: %w", err)
	}
	return nil
}

// Load returns the snapshot for sessionID, nil when absent or expired
func (r *CartSnapshotRepository) Load(ctx context.Context, sessionID string) (*cart.Snapshot, error) {
	var row CartSnapshot
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load cart snapshot: %w", err)
	}
	if r.ttl > 0 && row.UpdatedAt.Before(time.Now().Add(-r.ttl)) {
		return nil, nil
	}
	return cart.UnmarshalSnapshot([]byte(row.Payload))
}

// Delete removes the snapshot for sessionID. Deleting a missing row succeeds.
func (r *CartSnapshotRepository) Delete(ctx context.Context, sessionID string) error {
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&CartSnapshot{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete cart snapshot: %w", err)
	}
	return nil
}

// PruneExpired deletes snapshots not written within the ttl
func (r *CartSnapshotRepository) PruneExpired(ctx context.Context) (int64, error) {
	if r.ttl <= 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("updated_at < ?", time.Now().UTC().Add(-r.ttl)).
		Delete(&CartSnapshot{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune cart snapshots: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// CartSink binds the repository to one session
type CartSink struct {
	repo      *CartSnapshotRepository
	sessionID string
}

// Save writes the snapshot
func (s *CartSink) Save(ctx context.Context, snap cart.Snapshot) error {
	return s.repo.Save(ctx, s.sessionID, snap)
}

// Load reads the snapshot
func (s *CartSink) Load(ctx context.Context) (*cart.Snapshot, error) {
	return s.repo.Load(ctx, s.sessionID)
}

// Remove drops the session's row
func (s *CartSink) Remove(ctx context.Context) error {
	return s.repo.Delete(ctx, s.sessionID)
}
