package services

import (
	"context"
	"errors"

	"github.com/custodia-labs/casetrack/internal/core/domain"
	"github.com/custodia-labs/casetrack/internal/core/ports/driven"
	"github.com/custodia-labs/casetrack/internal/logger"
)

// EventSink receives model change notifications from the classifier.
// The tracker facade implements this and fans out to subscribers.
type EventSink interface {
	ItemAdded(item domain.WorkItem)
	ItemUpdated(item domain.WorkItem)
	ItemRemoved(itemID string)
	MetricChanged(itemID string, unread int)
}

// Classifier applies change-feed events to the in-memory model.
// Application is idempotent: replaying a batch yields the same final
// state, and deletes of already-removed items are no-ops.
type Classifier struct {
	remote driven.RemoteStore
	items  driven.ItemStore
	cache  driven.EvidenceCache
	sink   EventSink
}

// NewClassifier creates a classifier writing into the given model.
func NewClassifier(remote driven.RemoteStore, items driven.ItemStore, cache driven.EvidenceCache, sink EventSink) *Classifier {
	return &Classifier{remote: remote, items: items, cache: cache, sink: sink}
}

// looksLikeWorkItem is the heuristic separating real work items from
// partition folders: a folder carrying any recognisable status,
// priority or category metadata is a work item. The remote schema has
// no stronger discriminator; keep this predicate as the single place
// to swap in one if the schema ever grows a marker field.
func looksLikeWorkItem(n *domain.Node) bool {
	return n.Field(domain.FieldStatus) != "" ||
		n.Field(domain.FieldPriority) != "" ||
		n.Field(domain.FieldCategory) != ""
}

// Apply classifies and applies a batch of events. cycleRootIDs maps
// each root name to its tracked cycle folder ID, used to ignore
// self-referencing folder events. activeCycle names the cycle new
// items are attributed to. Per-event failures are logged and skipped.
func (c *Classifier) Apply(ctx context.Context, events []domain.ChangeEvent, cycleRootIDs map[string]string, activeCycle string) error {
	for i := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.applyOne(ctx, &events[i], cycleRootIDs, activeCycle); err != nil {
			logger.Warn("Classify: skipping event %s/%s: %v", events[i].Root, events[i].ItemID, err)
		}
	}
	return nil
}

func (c *Classifier) applyOne(ctx context.Context, ev *domain.ChangeEvent, cycleRootIDs map[string]string, activeCycle string) error {
	known, err := c.items.Get(ctx, ev.ItemID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	switch {
	case ev.Type == domain.ChangeDeleted:
		if known == nil {
			return nil // Already gone.
		}
		if err := c.items.Delete(ctx, ev.ItemID); err != nil {
			return err
		}
		c.cache.Invalidate(ev.ItemID)
		c.sink.ItemRemoved(ev.ItemID)
		return nil

	case ev.Folder && known != nil:
		return c.refreshItem(ctx, known)

	case ev.Folder:
		if ev.ItemID == cycleRootIDs[ev.Root] {
			return nil // The tracked cycle folder itself, not an item.
		}
		return c.maybeAddItem(ctx, ev, cycleRootIDs[ev.Root], activeCycle)

	default:
		// File change: only meaningful when it belongs to a known item.
		parent, err := c.items.Get(ctx, ev.ParentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		}
		return c.refreshMetrics(ctx, parent)
	}
}

// refreshItem re-reads a single item's fields rather than rescanning.
// A vanished item is treated as deleted.
func (c *Classifier) refreshItem(ctx context.Context, item *domain.WorkItem) error {
	node, err := c.remote.GetItem(ctx, item.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			if derr := c.items.Delete(ctx, item.ID); derr != nil {
				return derr
			}
			c.cache.Invalidate(item.ID)
			c.sink.ItemRemoved(item.ID)
			return nil
		}
		return err
	}

	updated := *item
	updated.Name = node.Name
	updated.ETag = node.ETag
	updated.ApplyFields(node.Fields)

	if err := c.items.Save(ctx, updated); err != nil {
		return err
	}
	c.sink.ItemUpdated(updated)
	return nil
}

// maxAncestorHops bounds the parent walk when placing an unknown
// folder. Tracked items sit at most a partition below the cycle
// folder; a chain deeper than this belongs to another tree.
const maxAncestorHops = 4

// maybeAddItem fetches an unknown folder and adds it when it passes
// the work item heuristic and lives under the tracked cycle folder.
// The change feed covers the whole account, so folders from untracked
// cycles or unrelated trees land here too; anything whose ancestry
// does not reach the cycle folder for the event's root is dropped.
// Partition folders are silently ignored.
func (c *Classifier) maybeAddItem(ctx context.Context, ev *domain.ChangeEvent, cycleRootID, activeCycle string) error {
	node, err := c.remote.GetItem(ctx, ev.ItemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil // Created and deleted between polls.
		}
		return err
	}

	if !looksLikeWorkItem(node) {
		logger.Debug("Classify: folder %s has no item metadata, ignoring", node.ID)
		return nil
	}

	partition, tracked := c.ancestry(ctx, node, cycleRootID)
	if !tracked {
		logger.Debug("Classify: folder %s is outside the tracked subtree, ignoring", node.ID)
		return nil
	}

	item := domain.ItemFromNode(node, ev.Root, activeCycle, partition)

	if err := c.items.Save(ctx, item); err != nil {
		return err
	}
	c.sink.ItemAdded(item)

	// Hydrate the newcomer's metrics in line; failure degrades to zero.
	return c.refreshMetrics(ctx, &item)
}

// ancestry walks the folder's parent chain looking for the tracked
// cycle folder, returning the direct parent's name as the partition
// (empty for items sitting directly under the cycle folder). An
// unreadable or exhausted chain means the folder is foreign.
func (c *Classifier) ancestry(ctx context.Context, node *domain.Node, cycleRootID string) (partition string, tracked bool) {
	if cycleRootID == "" {
		return "", false
	}

	parentID := node.ParentID
	for hop := 0; parentID != "" && hop < maxAncestorHops; hop++ {
		if parentID == cycleRootID {
			return partition, true
		}
		parent, err := c.remote.GetItem(ctx, parentID)
		if err != nil {
			return "", false
		}
		if hop == 0 {
			partition = parent.Name
		}
		parentID = parent.ParentID
	}
	return "", false
}

// refreshMetrics refetches the item's evidence listing and re-derives
// its metrics. An increased unread count is notification-worthy.
func (c *Classifier) refreshMetrics(ctx context.Context, item *domain.WorkItem) error {
	c.cache.Invalidate(item.ID)
	docs, err := c.cache.Get(ctx, item.ID, true)
	if err != nil {
		return err
	}

	updated := *item
	updated.UnreadEvidence = domain.CountUnread(docs)
	updated.HasFailureFlag = domain.HasFailure(docs)

	if err := c.items.Save(ctx, updated); err != nil {
		return err
	}
	if updated.UnreadEvidence > item.UnreadEvidence {
		c.sink.MetricChanged(updated.ID, updated.UnreadEvidence)
	}
	return nil
}
