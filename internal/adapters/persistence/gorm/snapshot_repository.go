// Package gormpersistence holds the relational adapters backing the
// collaboration core's ports. The rest of the platform owns these
// tables; this layer only reads course data and writes snapshots.
package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/domain"
)

// SnapshotRepository implements core.SnapshotStore over gorm.
type SnapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	if db == nil {
		panic("database connection cannot be nil for SnapshotRepository")
	}
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) Save(ctx context.Context, snap *domain.Snapshot) error {
	if err := r.db.WithContext(ctx).Create(snap).Error; err != nil {
		return fmt.Errorf("gorm: save snapshot for room %s: %w", snap.RoomID, err)
	}
	return nil
}

func (r *SnapshotRepository) Latest(ctx context.Context, roomID domain.RoomID) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	err := r.db.WithContext(ctx).
		Where("room_id = ?", string(roomID)).
		Order("saved_at DESC").
		First(&snap).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no snapshot for room %s: %w", roomID, core.ErrNotFound)
		}
		return nil, fmt.Errorf("gorm: latest snapshot for room %s: %w", roomID, err)
	}
	return &snap, nil
}

func (r *SnapshotRepository) ListByRoom(ctx context.Context, roomID domain.RoomID, limit int) ([]domain.Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	var snaps []domain.Snapshot
	err := r.db.WithContext(ctx).
		Where("room_id = ?", string(roomID)).
		Order("saved_at DESC").
		Limit(limit).
		Find(&snaps).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list snapshots for room %s: %w", roomID, err)
	}
	return snaps, nil
}
