package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/casetrack/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreSaveGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "main", "t1"))
	token, err := store.Get(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, "t1", token)

	// Upsert replaces.
	require.NoError(t, store.Save(ctx, "main", "t2"))
	token, err = store.Get(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, "t2", token)
}

func TestStoreGetMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStoreAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "main", "t1"))
	require.NoError(t, store.Save(ctx, "archive", "t2"))

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"main": "t1", "archive": "t2"}, all)
}

func TestStoreDeleteAndClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "main", "t1"))
	require.NoError(t, store.Save(ctx, "archive", "t2"))

	require.NoError(t, store.Delete(ctx, "main"))
	_, err := store.Get(ctx, "main")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.Clear(ctx))
	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "main", "t1"))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	token, err := reopened.Get(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, "t1", token)
	assert.Equal(t, filepath.Join(dir, "tokens.db"), reopened.Path())
}
