package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/casetrack/internal/core/domain"
	"github.com/custodia-labs/casetrack/internal/core/ports/driven"
	"github.com/custodia-labs/casetrack/internal/core/ports/driving"
	"github.com/custodia-labs/casetrack/internal/logger"
)

// Ensure Tracker implements the interfaces.
var (
	_ driving.Tracker = (*Tracker)(nil)
	_ EventSink       = (*Tracker)(nil)
)

// Tracker is the engine facade handed to the UI layer. It assembles
// the scanner, hydrator, synchroniser, classifier, write coordinator
// and poller around one explicitly injected remote store client. No
// hidden global state; the assembler owns every lifecycle.
type Tracker struct {
	remote driven.RemoteStore
	items  driven.ItemStore
	cache  driven.EvidenceCache

	settings domain.Settings
	poller   *Poller
	writer   *WriteCoordinator

	subMu sync.RWMutex
	subs  map[string]driving.Listener

	wg     sync.WaitGroup
	stopMu sync.Mutex
	closed bool
}

// NewTracker assembles the sync engine. The caller provides the
// driven adapters; everything else is constructed here.
func NewTracker(
	remote driven.RemoteStore,
	items driven.ItemStore,
	cache driven.EvidenceCache,
	tokens driven.TokenStore,
	settings domain.Settings,
) *Tracker {
	settings = settings.Normalized()

	t := &Tracker{
		remote:   remote,
		items:    items,
		cache:    cache,
		settings: settings,
		subs:     make(map[string]driving.Listener),
	}

	scanner := NewInventoryScanner(remote, settings)
	hydrator := NewHydrator(cache, settings.HydrateConcurrency)
	syncer := NewSynchronizer(remote)
	classifier := NewClassifier(remote, items, cache, t)

	t.writer = NewWriteCoordinator(remote, items)
	t.poller = NewPoller(remote, scanner, hydrator, syncer, classifier, items, tokens, cache, settings)

	return t
}

// Poller exposes the polling loop for the composition root to start.
func (t *Tracker) Poller() driving.Poller {
	return t.poller
}

// Initialize performs the blocking first population: full scan,
// hydration and change token setup. Progress is reported through the
// callback, which also serves later scans the poller triggers.
func (t *Tracker) Initialize(ctx context.Context, progress driving.ProgressFunc) ([]domain.WorkItem, error) {
	t.poller.SetProgress(progress)
	return t.poller.Initialize(ctx, progress)
}

// Snapshot returns the current in-memory inventory.
func (t *Tracker) Snapshot(ctx context.Context) ([]domain.WorkItem, error) {
	return t.items.List(ctx)
}

// Subscribe registers a listener for model change notifications.
func (t *Tracker) Subscribe(l driving.Listener) string {
	id := uuid.NewString()
	t.subMu.Lock()
	t.subs[id] = l
	t.subMu.Unlock()
	return id
}

// Unsubscribe removes a listener.
func (t *Tracker) Unsubscribe(id string) {
	t.subMu.Lock()
	delete(t.subs, id)
	t.subMu.Unlock()
}

// MutateItem applies the field changes optimistically and settles the
// write against the remote store in the background. The outcome is
// delivered through opts.OnOutcome.
func (t *Tracker) MutateItem(ctx context.Context, itemID string, fields map[string]string, opts driving.MutateOptions) (string, error) {
	t.stopMu.Lock()
	if t.closed {
		t.stopMu.Unlock()
		return "", domain.ErrShutdown
	}
	t.wg.Add(1)
	t.stopMu.Unlock()

	if len(fields) == 0 {
		t.wg.Done()
		return "", fmt.Errorf("mutate %s: no field changes", itemID)
	}

	req := MutationRequest{
		MutationID: uuid.NewString(),
		ItemID:     itemID,
		Fields:     fields,
		Actor:      t.settings.Editor,
		Confirm:    opts.ConfirmOverride,
	}

	go func() {
		defer t.wg.Done()
		outcome := t.writer.Apply(ctx, req)
		if outcome.Err != nil {
			logger.Warn("Mutate %s: %v", itemID, outcome.Err)
		}
		if opts.OnOutcome != nil {
			opts.OnOutcome(outcome)
		}
	}()

	return req.MutationID, nil
}

// GetItemFiles returns the item's evidence documents.
func (t *Tracker) GetItemFiles(ctx context.Context, itemID string, forceRefresh bool) ([]domain.EvidenceDocument, error) {
	return t.cache.Get(ctx, itemID, forceRefresh)
}

// InvalidateItemFiles drops the item's cached evidence listing.
func (t *Tracker) InvalidateItemFiles(itemID string) {
	t.cache.Invalidate(itemID)
}

// Shutdown stops the poller and waits for in-flight mutations.
func (t *Tracker) Shutdown() error {
	t.stopMu.Lock()
	if t.closed {
		t.stopMu.Unlock()
		return nil
	}
	t.closed = true
	t.stopMu.Unlock()

	err := t.poller.Stop()
	t.wg.Wait()
	return err
}

// ItemAdded implements EventSink.
func (t *Tracker) ItemAdded(item domain.WorkItem) {
	for _, l := range t.listeners() {
		if l.OnItemAdded != nil {
			l.OnItemAdded(item)
		}
	}
}

// ItemUpdated implements EventSink.
func (t *Tracker) ItemUpdated(item domain.WorkItem) {
	for _, l := range t.listeners() {
		if l.OnItemUpdated != nil {
			l.OnItemUpdated(item)
		}
	}
}

// ItemRemoved implements EventSink.
func (t *Tracker) ItemRemoved(itemID string) {
	for _, l := range t.listeners() {
		if l.OnItemRemoved != nil {
			l.OnItemRemoved(itemID)
		}
	}
}

// MetricChanged implements EventSink.
func (t *Tracker) MetricChanged(itemID string, unread int) {
	for _, l := range t.listeners() {
		if l.OnMetricChanged != nil {
			l.OnMetricChanged(itemID, unread)
		}
	}
}

// listeners snapshots the subscriber set so callbacks run without
// holding the lock.
func (t *Tracker) listeners() []driving.Listener {
	t.subMu.RLock()
	defer t.subMu.RUnlock()
	out := make([]driving.Listener, 0, len(t.subs))
	for _, l := range t.subs {
		out = append(out, l)
	}
	return out
}
