package driven

import (
	"context"

	"github.com/custodia-labs/casetrack/internal/core/domain"
)

// RemoteStore is the transport-level client for the remote
// hierarchical document store. Authentication and HTTP signing live
// behind this interface; the core only sees nodes, fields, version
// tokens and change pages.
//
// Implementations map transport failures onto the domain error
// taxonomy (domain.ErrNotFound, domain.ErrVersionConflict,
// domain.ErrTokenExpired, domain.ErrPermissionDenied,
// domain.ErrTransient).
type RemoteStore interface {
	// Validate performs a lightweight liveness/session check.
	Validate(ctx context.Context) error

	// ListChildren returns the immediate children of a folder.
	ListChildren(ctx context.Context, parentID string) ([]domain.Node, error)

	// GetItem fetches a single entry with its fields and version token.
	GetItem(ctx context.Context, id string) (*domain.Node, error)

	// PatchFields updates an entry's metadata fields. A non-empty
	// expectedETag makes the write conditional: a stale token yields
	// domain.ErrVersionConflict. An empty expectedETag writes
	// unconditionally (force write). Returns the entry as stored,
	// including its fresh version token.
	PatchFields(ctx context.Context, id string, fields map[string]string, expectedETag string) (*domain.Node, error)

	// CreateItem creates a folder or file under a parent.
	CreateItem(ctx context.Context, parentID, name string, folder bool, fields map[string]string) (*domain.Node, error)

	// GetChangeToken returns the latest change cursor for a folder's
	// subtree. Changes after this point are visible to PollChanges.
	GetChangeToken(ctx context.Context, folderID string) (string, error)

	// PollChanges returns one page of the change feed after the given
	// cursor. An expired cursor yields domain.ErrTokenExpired.
	PollChanges(ctx context.Context, token string) (*domain.ChangePage, error)

	// DownloadContent fetches the raw content of a file entry.
	DownloadContent(ctx context.Context, id string) ([]byte, error)
}
