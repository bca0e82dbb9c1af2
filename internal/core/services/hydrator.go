package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/casetrack/internal/core/domain"
	"github.com/custodia-labs/casetrack/internal/core/ports/driven"
	"github.com/custodia-labs/casetrack/internal/logger"
)

// Hydrator derives per-item metrics (unread evidence count, failure
// flag) from cached evidence listings. Work runs in a bounded pool so
// a large inventory cannot overwhelm the remote store.
type Hydrator struct {
	cache       driven.EvidenceCache
	concurrency int
}

// NewHydrator creates a hydrator over the given evidence cache.
// concurrency is clamped to sane bounds; it is never unbounded.
func NewHydrator(cache driven.EvidenceCache, concurrency int) *Hydrator {
	if concurrency <= 0 {
		concurrency = domain.DefaultHydrateConcurrency
	}
	if concurrency > domain.MaxHydrateConcurrency {
		concurrency = domain.MaxHydrateConcurrency
	}
	return &Hydrator{cache: cache, concurrency: concurrency}
}

// Hydrate fills in metrics for every item in place. A failed fetch
// degrades that one item to zero/false metrics and is logged; it never
// aborts the batch.
func (h *Hydrator) Hydrate(ctx context.Context, items []domain.WorkItem) {
	if len(items) == 0 {
		return
	}

	sem := make(chan struct{}, h.concurrency)
	var wg sync.WaitGroup

	for i := range items {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(item *domain.WorkItem) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := h.HydrateOne(ctx, item); err != nil {
				logger.Debug("Hydrate: %s degraded to zero metrics: %v", item.ID, err)
			}
		}(&items[i])
	}

	wg.Wait()
}

// HydrateOne computes metrics for a single item. On failure the
// metrics are reset to their safe defaults and the error is returned
// for the caller to log.
func (h *Hydrator) HydrateOne(ctx context.Context, item *domain.WorkItem) error {
	docs, err := h.cache.Get(ctx, item.ID, false)
	if err != nil {
		item.UnreadEvidence = 0
		item.HasFailureFlag = false
		return err
	}
	item.UnreadEvidence = domain.CountUnread(docs)
	item.HasFailureFlag = domain.HasFailure(docs)
	return nil
}
