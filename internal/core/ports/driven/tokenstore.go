package driven

import "context"

// TokenStore persists per-root change tokens. Tokens are opaque and
// strictly per-root: values from different roots are never compared
// or merged. Losing the store is harmless; a full scan re-derives
// everything.
type TokenStore interface {
	// Save stores or replaces the token for a root.
	Save(ctx context.Context, root, token string) error

	// Get returns the token for a root, or domain.ErrNotFound.
	Get(ctx context.Context, root string) (string, error)

	// All returns the tokens of every tracked root.
	All(ctx context.Context) (map[string]string, error)

	// Delete removes the token for a root.
	Delete(ctx context.Context, root string) error

	// Clear removes all tokens. Used on fatal reset.
	Clear(ctx context.Context) error
}
