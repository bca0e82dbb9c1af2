package domain

import "time"

// ChangeType discriminates change-feed events.
type ChangeType string

const (
	// ChangeCreated indicates a newly created entry.
	ChangeCreated ChangeType = "created"
	// ChangeUpdated indicates a modified entry. Producers that cannot
	// distinguish creation from modification report ChangeUpdated; the
	// classifier treats both identically.
	ChangeUpdated ChangeType = "updated"
	// ChangeDeleted indicates a removed entry.
	ChangeDeleted ChangeType = "deleted"
)

// ChangeEvent is one record from a collection root's change feed.
type ChangeEvent struct {
	// Type discriminates created/updated/deleted.
	Type ChangeType

	// ItemID is the remote identifier of the changed entry.
	ItemID string

	// ParentID identifies the containing folder, when the feed
	// provides it. Used to attribute file changes to work items.
	ParentID string

	// Folder is true for folder entries, false for files.
	Folder bool

	// Root names the collection root the event originated from.
	// Events from different roots carry no ordering relationship.
	Root string

	// Name is the entry name, when the feed provides it.
	Name string

	// Time is the remote change timestamp.
	Time time.Time
}

// ChangePage is one page of a change feed. Exactly one of
// NextPageToken and NewToken is set: NextPageToken when more pages
// follow, NewToken when the feed is drained and a fresh cursor has
// been issued.
type ChangePage struct {
	Events        []ChangeEvent
	NextPageToken string
	NewToken      string
}
