package domain

import "time"

// Node is a single entry in the remote hierarchical store: a folder
// (cycle, partition or work item) or a file (evidence document).
// It is the raw shape returned by the remote store client before any
// domain classification is applied.
type Node struct {
	// ID is the opaque remote identifier.
	ID string

	// Name is the entry name.
	Name string

	// Folder is true for folders, false for files.
	Folder bool

	// ParentID identifies the containing folder, when known.
	ParentID string

	// ETag is the version token accompanying this read.
	ETag string

	CreatedAt  time.Time
	ModifiedAt time.Time

	// Fields holds the entry's metadata key-value pairs.
	Fields map[string]string
}

// Field returns the named metadata value, or "" when absent.
func (n *Node) Field(key string) string {
	if n.Fields == nil {
		return ""
	}
	return n.Fields[key]
}
