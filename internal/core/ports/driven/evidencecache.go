package driven

import (
	"context"

	"github.com/custodia-labs/casetrack/internal/core/domain"
)

// EvidenceCache is a TTL-bounded cache of each work item's evidence
// documents, used to derive per-item metrics without refetching the
// file listing on every pass.
//
// Concurrent Gets for different item IDs must not block each other.
// Concurrent Gets for the same ID may duplicate a fetch but must not
// corrupt the cache.
type EvidenceCache interface {
	// Get returns the item's evidence documents, from cache when the
	// entry is younger than the TTL and forceRefresh is false,
	// otherwise fetched fresh from the remote store.
	Get(ctx context.Context, itemID string, forceRefresh bool) ([]domain.EvidenceDocument, error)

	// Invalidate drops any cached entry for the item.
	Invalidate(itemID string)

	// Clear drops all cached entries.
	Clear()
}
