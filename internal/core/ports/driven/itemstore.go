package driven

import (
	"context"

	"github.com/custodia-labs/casetrack/internal/core/domain"
)

// ItemStore holds the in-memory work item model. It is rebuildable
// from a fresh scan at any time and is never persisted.
//
// Implementations must be safe for concurrent use; operations on
// different item IDs must not serialise against each other beyond a
// map-level lock.
type ItemStore interface {
	// Save stores or replaces an item.
	Save(ctx context.Context, item domain.WorkItem) error

	// Get retrieves an item by ID. Returns domain.ErrNotFound when
	// the item is not in the model.
	Get(ctx context.Context, id string) (*domain.WorkItem, error)

	// Delete removes an item. Deleting an absent item is a no-op.
	Delete(ctx context.Context, id string) error

	// ReplaceAll swaps the entire model for a fresh scan result.
	ReplaceAll(ctx context.Context, items []domain.WorkItem) error

	// List returns a snapshot of all items.
	List(ctx context.Context) ([]domain.WorkItem, error)
}
