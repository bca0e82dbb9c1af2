package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/casetrack/internal/core/domain"
	"github.com/custodia-labs/casetrack/internal/core/ports/driven"
)

// Ensure ItemStore implements the interface.
var _ driven.ItemStore = (*ItemStore)(nil)

// ItemStore is the in-memory work item model. A map-level RWMutex
// keeps writers exclusive while reads on different keys proceed
// concurrently.
type ItemStore struct {
	mu    sync.RWMutex
	items map[string]domain.WorkItem
}

// NewItemStore creates an empty in-memory item model.
func NewItemStore() *ItemStore {
	return &ItemStore{
		items: make(map[string]domain.WorkItem),
	}
}

// Save stores or replaces an item.
func (s *ItemStore) Save(_ context.Context, item domain.WorkItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
	return nil
}

// Get retrieves an item by ID.
func (s *ItemStore) Get(_ context.Context, id string) (*domain.WorkItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &item, nil
}

// Delete removes an item. Absent items are a no-op.
func (s *ItemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// ReplaceAll swaps the whole model for a fresh scan result.
func (s *ItemStore) ReplaceAll(_ context.Context, items []domain.WorkItem) error {
	fresh := make(map[string]domain.WorkItem, len(items))
	for i := range items {
		fresh[items[i].ID] = items[i]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = fresh
	return nil
}

// List returns a snapshot of all items.
func (s *ItemStore) List(_ context.Context) ([]domain.WorkItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.WorkItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	return out, nil
}
