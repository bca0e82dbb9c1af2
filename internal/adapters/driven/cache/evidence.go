// Package cache provides the TTL-bounded evidence document cache.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/casetrack/internal/core/domain"
	"github.com/custodia-labs/casetrack/internal/core/ports/driven"
)

// Ensure EvidenceCache implements the interface.
var _ driven.EvidenceCache = (*EvidenceCache)(nil)

type entry struct {
	fetchedAt time.Time
	docs      []domain.EvidenceDocument
}

// EvidenceCache caches each work item's evidence document listing for
// a bounded TTL. An entry older than the TTL is logically absent and
// refetched on the next Get. Concurrent Gets for the same item may
// duplicate a fetch; the last write wins and the map stays consistent.
type EvidenceCache struct {
	remote driven.RemoteStore
	ttl    time.Duration

	// now is injected for TTL tests.
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
}

// New creates an evidence cache with the given TTL. A non-positive
// TTL takes the default; values below the floor are clamped up.
func New(remote driven.RemoteStore, ttl time.Duration) *EvidenceCache {
	if ttl <= 0 {
		ttl = domain.DefaultCacheTTL
	}
	if ttl < domain.MinCacheTTL {
		ttl = domain.MinCacheTTL
	}
	return &EvidenceCache{
		remote:  remote,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Get returns the item's evidence documents, served from cache while
// the entry is fresh unless forceRefresh is set.
func (c *EvidenceCache) Get(ctx context.Context, itemID string, forceRefresh bool) ([]domain.EvidenceDocument, error) {
	if !forceRefresh {
		c.mu.RLock()
		e, ok := c.entries[itemID]
		c.mu.RUnlock()
		if ok && c.now().Sub(e.fetchedAt) < c.ttl {
			return e.docs, nil
		}
	}

	nodes, err := c.remote.ListChildren(ctx, itemID)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.EvidenceDocument, 0, len(nodes))
	for i := range nodes {
		if nodes[i].Folder {
			continue
		}
		docs = append(docs, domain.EvidenceFromNode(&nodes[i]))
	}

	c.mu.Lock()
	c.entries[itemID] = entry{fetchedAt: c.now(), docs: docs}
	c.mu.Unlock()

	return docs, nil
}

// Invalidate drops any cached entry for the item.
func (c *EvidenceCache) Invalidate(itemID string) {
	c.mu.Lock()
	delete(c.entries, itemID)
	c.mu.Unlock()
}

// Clear drops all cached entries.
func (c *EvidenceCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}
