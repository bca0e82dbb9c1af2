package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Review status values for evidence documents.
const (
	ReviewPending = "to review"
	ReviewSeen    = "seen"
)

// Metadata field keys on evidence document files.
const (
	FieldReviewStatus = "review_status"
	FieldFailureFlag  = "failure"
)

// messageExtensions are the file extensions recognised as inbound
// messages for the unread count.
var messageExtensions = map[string]struct{}{
	".eml": {},
	".msg": {},
}

// EvidenceDocument is a file nested under a work item, such as an
// inbound message. It is owned by its work item and only ever held in
// the evidence cache, never persisted independently.
type EvidenceDocument struct {
	ID   string
	Name string

	// ReviewStatus is ReviewPending or ReviewSeen.
	ReviewStatus string

	CreatedAt time.Time

	// FailureFlag is true when the document carries a failure marker.
	FailureFlag bool
}

// IsMessageFile reports whether a file name has one of the recognised
// message extensions.
func IsMessageFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	_, ok := messageExtensions[ext]
	return ok
}

// Unread reports whether the document counts towards the unread
// evidence metric: a message file still marked for review.
func (d *EvidenceDocument) Unread() bool {
	return d.ReviewStatus == ReviewPending && IsMessageFile(d.Name)
}

// CountUnread returns the number of unread message documents.
func CountUnread(docs []EvidenceDocument) int {
	count := 0
	for i := range docs {
		if docs[i].Unread() {
			count++
		}
	}
	return count
}

// HasFailure reports whether any document carries a failure marker.
func HasFailure(docs []EvidenceDocument) bool {
	for i := range docs {
		if docs[i].FailureFlag {
			return true
		}
	}
	return false
}

// EvidenceFromNode builds an EvidenceDocument from a remote file node.
// A file without an explicit review status is treated as unreviewed.
func EvidenceFromNode(n *Node) EvidenceDocument {
	status := n.Field(FieldReviewStatus)
	if status == "" {
		status = ReviewPending
	}
	return EvidenceDocument{
		ID:           n.ID,
		Name:         n.Name,
		ReviewStatus: status,
		CreatedAt:    n.CreatedAt,
		FailureFlag:  n.Field(FieldFailureFlag) != "",
	}
}
