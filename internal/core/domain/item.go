package domain

import "strings"

// Canonical metadata field keys carried on a work item's remote folder.
const (
	FieldStatus          = "status"
	FieldPriority        = "priority"
	FieldCategory        = "category"
	FieldReplyDeadline   = "reply_deadline"
	FieldResolveDeadline = "resolve_deadline"
	FieldEditor          = "editor"
)

// WorkItem is a trackable unit of business work, represented remotely
// as a folder with metadata fields. It is identified by an opaque
// remote ID and carries a version token (ETag) used as the optimistic
// concurrency guard for writes.
type WorkItem struct {
	// ID is the opaque remote identifier.
	ID string

	// Name is the folder name.
	Name string

	// Status is free-form; see IsOpenStatus for the derived to-do state.
	Status string

	Priority string
	Category string

	// ReplyDeadline and ResolveDeadline are opaque deadline values.
	// Formatting and interpretation belong to the presentation layer.
	ReplyDeadline   string
	ResolveDeadline string

	// Partition is the sub-location folder the item was found under.
	Partition string

	// Cycle is the 8-digit date code of the cycle folder.
	Cycle string

	// Root names the collection root the item belongs to. Items from
	// different roots are never reconciled against each other.
	Root string

	// ETag is the version token from the last read or write.
	ETag string

	// Editor is the last known mutator of the item.
	Editor string

	// UnreadEvidence is the derived count of unreviewed message files.
	UnreadEvidence int

	// HasFailureFlag is true when any evidence document carries a
	// failure marker.
	HasFailureFlag bool
}

// openStatuses are the status values that count as "to do".
var openStatuses = map[string]struct{}{
	"in progress": {},
	"pending":     {},
}

// IsOpenStatus reports whether a status value falls into the derived
// "in progress/pending" to-do category.
func IsOpenStatus(status string) bool {
	_, ok := openStatuses[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

// Open reports whether the item is in the derived to-do state.
func (w *WorkItem) Open() bool {
	return IsOpenStatus(w.Status)
}

// ApplyFields overwrites the item's mutable attributes from a field map.
// Unknown keys are ignored.
func (w *WorkItem) ApplyFields(fields map[string]string) {
	for key, value := range fields {
		switch key {
		case FieldStatus:
			w.Status = value
		case FieldPriority:
			w.Priority = value
		case FieldCategory:
			w.Category = value
		case FieldReplyDeadline:
			w.ReplyDeadline = value
		case FieldResolveDeadline:
			w.ResolveDeadline = value
		case FieldEditor:
			w.Editor = value
		}
	}
}

// Fields returns the item's mutable attributes as a field map, suitable
// for a remote patch.
func (w *WorkItem) Fields() map[string]string {
	return map[string]string{
		FieldStatus:          w.Status,
		FieldPriority:        w.Priority,
		FieldCategory:        w.Category,
		FieldReplyDeadline:   w.ReplyDeadline,
		FieldResolveDeadline: w.ResolveDeadline,
		FieldEditor:          w.Editor,
	}
}

// ItemFromNode builds a WorkItem from a remote folder node.
// Root, cycle and partition describe where the node was found.
func ItemFromNode(n *Node, root, cycle, partition string) WorkItem {
	item := WorkItem{
		ID:        n.ID,
		Name:      n.Name,
		Partition: partition,
		Cycle:     cycle,
		Root:      root,
		ETag:      n.ETag,
	}
	item.ApplyFields(n.Fields)
	return item
}
