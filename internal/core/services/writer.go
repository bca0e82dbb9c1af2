package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/casetrack/internal/core/domain"
	"github.com/custodia-labs/casetrack/internal/core/ports/driven"
	"github.com/custodia-labs/casetrack/internal/core/ports/driving"
	"github.com/custodia-labs/casetrack/internal/logger"
)

// MutationRequest describes one optimistic write.
type MutationRequest struct {
	// MutationID correlates the outcome with the originating call.
	MutationID string

	// ItemID is the work item to mutate.
	ItemID string

	// Fields are the attribute changes to apply.
	Fields map[string]string

	// Actor is the editor performing the write.
	Actor string

	// Confirm decides whether to proceed when the item is held "in
	// progress" by a different editor. Nil defers the write.
	Confirm func(current domain.WorkItem) bool
}

// WriteCoordinator applies local mutations immediately and reconciles
// them with the remote store using version-token optimistic
// concurrency. On conflict it retries once unconditionally (last
// writer wins); on hard failure it rolls the local model back to the
// remote truth. Every write terminates in exactly one of: accepted,
// force-accepted, rolled back, or confirmation required. Never a
// silent no-op.
type WriteCoordinator struct {
	remote driven.RemoteStore
	items  driven.ItemStore
}

// NewWriteCoordinator creates a coordinator over the given stores.
func NewWriteCoordinator(remote driven.RemoteStore, items driven.ItemStore) *WriteCoordinator {
	return &WriteCoordinator{remote: remote, items: items}
}

// Apply runs one mutation to completion. The local model is updated
// before any network call, so callers read their own writes
// immediately; the remote round-trip settles afterwards.
func (w *WriteCoordinator) Apply(ctx context.Context, req MutationRequest) driving.MutationOutcome {
	outcome := driving.MutationOutcome{MutationID: req.MutationID, ItemID: req.ItemID}

	item, err := w.items.Get(ctx, req.ItemID)
	if err != nil {
		outcome.Result = driving.MutationRolledBack
		outcome.Err = fmt.Errorf("mutate %s: %w", req.ItemID, err)
		return outcome
	}

	// Ownership guard: taking someone else's in-progress item into a
	// different state needs an explicit decision from the caller.
	if w.needsOwnershipCheck(item, req.Fields) {
		current, blocked := w.checkOwnership(ctx, item, &req)
		if blocked {
			outcome.Result = driving.MutationConfirmationRequired
			outcome.Current = current
			return outcome
		}
		if current != nil {
			// Guard against the freshest observed version.
			item = current
		}
	}

	// Optimistic local apply, before the network round-trip.
	updated := *item
	updated.ApplyFields(req.Fields)
	if req.Actor != "" {
		updated.Editor = req.Actor
	}
	if err := w.items.Save(ctx, updated); err != nil {
		outcome.Result = driving.MutationRolledBack
		outcome.Err = fmt.Errorf("mutate %s: %w", req.ItemID, err)
		return outcome
	}

	patch := make(map[string]string, len(req.Fields)+1)
	for k, v := range req.Fields {
		patch[k] = v
	}
	if req.Actor != "" {
		patch[domain.FieldEditor] = req.Actor
	}

	node, err := w.remote.PatchFields(ctx, req.ItemID, patch, item.ETag)
	switch {
	case err == nil:
		updated.ETag = node.ETag
		if serr := w.items.Save(ctx, updated); serr != nil {
			logger.Warn("Mutate: saving fresh version token for %s: %v", req.ItemID, serr)
		}
		outcome.Result = driving.MutationAccepted
		outcome.Current = &updated
		return outcome

	case errors.Is(err, domain.ErrVersionConflict):
		return w.forceWrite(ctx, outcome, updated, patch)

	default:
		return w.rollback(ctx, outcome, err)
	}
}

// needsOwnershipCheck reports whether the change moves an item out of
// another editor's in-progress state.
func (w *WriteCoordinator) needsOwnershipCheck(item *domain.WorkItem, fields map[string]string) bool {
	newStatus, ok := fields[domain.FieldStatus]
	if !ok || newStatus == item.Status {
		return false
	}
	return item.Open()
}

// checkOwnership re-reads the item's live status and editor. When the
// item is held in progress by a different actor than expected, the
// request's Confirm hook decides; with no hook the write is deferred.
// Returns the freshest item view and whether the write is blocked.
func (w *WriteCoordinator) checkOwnership(ctx context.Context, item *domain.WorkItem, req *MutationRequest) (*domain.WorkItem, bool) {
	node, err := w.remote.GetItem(ctx, item.ID)
	if err != nil {
		// Can't establish ownership; let the version guard decide.
		logger.Debug("Mutate: ownership read for %s failed: %v", item.ID, err)
		return nil, false
	}

	fresh := *item
	fresh.ETag = node.ETag
	fresh.ApplyFields(node.Fields)

	heldByOther := fresh.Open() && fresh.Editor != "" && fresh.Editor != req.Actor
	surprised := fresh.Status != item.Status || fresh.Editor != item.Editor
	if heldByOther && surprised {
		if req.Confirm == nil || !req.Confirm(fresh) {
			return &fresh, true
		}
	}
	return &fresh, false
}

// forceWrite is the single unconditional retry after a version
// conflict, followed by a re-read to capture the fresh version token.
func (w *WriteCoordinator) forceWrite(ctx context.Context, outcome driving.MutationOutcome, updated domain.WorkItem, patch map[string]string) driving.MutationOutcome {
	logger.Debug("Mutate: version conflict on %s, forcing write", updated.ID)

	if _, err := w.remote.PatchFields(ctx, updated.ID, patch, ""); err != nil {
		return w.rollback(ctx, outcome, fmt.Errorf("force write: %w", err))
	}

	node, err := w.remote.GetItem(ctx, updated.ID)
	if err != nil {
		return w.rollback(ctx, outcome, fmt.Errorf("re-read after force write: %w", err))
	}

	updated.ETag = node.ETag
	updated.ApplyFields(node.Fields)
	if serr := w.items.Save(ctx, updated); serr != nil {
		logger.Warn("Mutate: saving forced state for %s: %v", updated.ID, serr)
	}

	outcome.Result = driving.MutationForceAccepted
	outcome.Current = &updated
	return outcome
}

// rollback overwrites the local optimistic state with the remote
// truth and surfaces a user-visible error.
func (w *WriteCoordinator) rollback(ctx context.Context, outcome driving.MutationOutcome, cause error) driving.MutationOutcome {
	outcome.Result = driving.MutationRolledBack
	outcome.Err = fmt.Errorf("mutate %s: %w", outcome.ItemID, cause)

	node, err := w.remote.GetItem(ctx, outcome.ItemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// The item vanished remotely; drop it locally too.
			if derr := w.items.Delete(ctx, outcome.ItemID); derr != nil {
				logger.Warn("Mutate: rollback delete for %s: %v", outcome.ItemID, derr)
			}
			return outcome
		}
		logger.Warn("Mutate: rollback re-read for %s failed: %v", outcome.ItemID, err)
		return outcome
	}

	item, gerr := w.items.Get(ctx, outcome.ItemID)
	if gerr != nil {
		return outcome
	}
	restored := *item
	restored.Name = node.Name
	restored.ETag = node.ETag
	restored.ApplyFields(node.Fields)
	if serr := w.items.Save(ctx, restored); serr != nil {
		logger.Warn("Mutate: rollback save for %s: %v", outcome.ItemID, serr)
	}
	outcome.Current = &restored
	return outcome
}
