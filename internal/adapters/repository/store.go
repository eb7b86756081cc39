// Package repository retains finalized match timelines: a bounded,
// recency-ordered set backed by a pluggable blob backend.
package repository

import (
	"context"

	"github.com/okian/arena/internal/domain/model"
)

// Store provides read/write access to retained timelines. Returned timelines
// are shared and must be treated as read-only.
type Store interface {
	// Save decimates and retains tl as the most recent entry, evicting the
	// oldest entries beyond capacity. Persistence failures degrade the
	// retained set and are never returned.
	Save(ctx context.Context, tl *model.Timeline) error

	// List returns retained timelines, most recent first.
	List(ctx context.Context) ([]*model.Timeline, error)

	// Get returns the timeline with id or ErrNotFound.
	Get(ctx context.Context, id string) (*model.Timeline, error)

	// Delete removes the timeline with id. Unknown ids are ignored.
	Delete(ctx context.Context, id string) error

	// Count returns the number of retained timelines.
	Count(ctx context.Context) int
}
