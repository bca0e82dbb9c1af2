package driving

import (
	"context"

	"github.com/custodia-labs/casetrack/internal/core/domain"
)

// ProgressFunc reports scan progress: steps completed, total steps and
// an estimated number of seconds remaining.
type ProgressFunc func(done, total int, etaSeconds float64)

// Listener receives model change notifications. Nil callbacks are
// skipped. Callbacks run on engine goroutines and must not block.
type Listener struct {
	OnItemAdded     func(item domain.WorkItem)
	OnItemUpdated   func(item domain.WorkItem)
	OnItemRemoved   func(itemID string)
	OnMetricChanged func(itemID string, unread int)
}

// MutationResult is the terminal state of an optimistic write.
type MutationResult string

const (
	// MutationAccepted means the remote store took the conditional
	// write; local state is authoritative.
	MutationAccepted MutationResult = "accepted"

	// MutationForceAccepted means the conditional write conflicted and
	// the unconditional retry landed (last writer wins).
	MutationForceAccepted MutationResult = "force-accepted"

	// MutationRolledBack means the write failed hard and the local
	// optimistic state was overwritten with the remote truth.
	MutationRolledBack MutationResult = "rolled back"

	// MutationConfirmationRequired means the item is held by another
	// editor and no confirmation decision was supplied; nothing was
	// written, locally or remotely.
	MutationConfirmationRequired MutationResult = "confirmation required"
)

// MutationOutcome is delivered to the caller when an optimistic write
// completes.
type MutationOutcome struct {
	// MutationID correlates the outcome with the MutateItem call.
	MutationID string

	// ItemID is the mutated work item.
	ItemID string

	// Result is the terminal state.
	Result MutationResult

	// Current is the item's latest known state, when available. For
	// MutationConfirmationRequired it carries the remote state that
	// blocked the write.
	Current *domain.WorkItem

	// Err is set for rolled-back writes; it includes the operation
	// and item context needed to retry manually.
	Err error
}

// MutateOptions tunes a single MutateItem call.
type MutateOptions struct {
	// ConfirmOverride decides whether to proceed when the item is
	// held "in progress" by a different editor. Nil defers the write
	// with MutationConfirmationRequired instead of deciding.
	ConfirmOverride func(current domain.WorkItem) bool

	// OnOutcome receives the terminal outcome. Nil means the caller
	// does not care.
	OnOutcome func(outcome MutationOutcome)
}

// Tracker is the engine facade consumed by the UI layer. Initialize is
// a blocking call intended to run off the UI thread; MutateItem
// returns immediately and reports through MutateOptions.OnOutcome.
type Tracker interface {
	// Initialize performs the full scan + hydrate + token setup and
	// returns the initial inventory snapshot.
	Initialize(ctx context.Context, progress ProgressFunc) ([]domain.WorkItem, error)

	// Snapshot returns the current in-memory inventory.
	Snapshot(ctx context.Context) ([]domain.WorkItem, error)

	// Subscribe registers a listener and returns its ID.
	Subscribe(l Listener) string

	// Unsubscribe removes a listener.
	Unsubscribe(id string)

	// MutateItem applies field changes optimistically and pushes them
	// to the remote store in the background. The returned mutation ID
	// appears in the delivered outcome.
	MutateItem(ctx context.Context, itemID string, fields map[string]string, opts MutateOptions) (string, error)

	// GetItemFiles returns the item's evidence documents, optionally
	// bypassing the cache.
	GetItemFiles(ctx context.Context, itemID string, forceRefresh bool) ([]domain.EvidenceDocument, error)

	// InvalidateItemFiles drops the item's cached evidence listing.
	InvalidateItemFiles(itemID string)

	// Shutdown cooperatively stops all background workers and waits
	// for in-flight mutations to settle.
	Shutdown() error
}
