package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/casetrack/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/casetrack/internal/core/domain"
)

type pollerFixture struct {
	remote *fakeRemote
	items  *memory.ItemStore
	tokens *memory.TokenStore
	cache  *fakeCache
	sink   *recordingSink
	p      *Poller
}

// newPollerFixture builds an engine over one root with a single cycle
// holding one item, and a change feed ready at token "t1".
func newPollerFixture(t *testing.T) *pollerFixture {
	t.Helper()

	remote := newFakeRemote()
	remote.children["root1"] = []domain.Node{
		folderNode("c1", "20260102", nil),
	}
	remote.children["c1"] = []domain.Node{
		folderNode("p1", "alpha", nil),
	}
	remote.children["p1"] = []domain.Node{
		folderNode("i1", "case-001", itemFields("pending")),
	}
	remote.startTokens["c1"] = "t1"
	remote.pages["t1"] = &domain.ChangePage{NewToken: "t1"}

	f := &pollerFixture{
		remote: remote,
		items:  memory.NewItemStore(),
		tokens: memory.NewTokenStore(),
		cache:  newFakeCache(),
		sink:   newRecordingSink(),
	}

	settings := domain.Settings{
		Roots: []domain.CollectionRoot{{Name: "main", FolderID: "root1"}},
	}
	scanner := NewInventoryScanner(remote, settings)
	hydrator := NewHydrator(f.cache, 2)
	syncer := NewSynchronizer(remote)
	classifier := NewClassifier(remote, f.items, f.cache, f.sink)

	f.p = NewPoller(remote, scanner, hydrator, syncer, classifier, f.items, f.tokens, f.cache, settings)
	return f
}

func TestPollerInitializePopulatesModelAndTokens(t *testing.T) {
	f := newPollerFixture(t)

	items, err := f.p.Initialize(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "i1", items[0].ID)

	stored, err := f.items.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	token, err := f.tokens.Get(context.Background(), "main")
	require.NoError(t, err)
	assert.Equal(t, "t1", token)
}

func TestPollerInitializeReusesPersistedToken(t *testing.T) {
	f := newPollerFixture(t)
	require.NoError(t, f.tokens.Save(context.Background(), "main", "t0"))

	_, err := f.p.Initialize(context.Background(), nil)
	require.NoError(t, err)

	// The stored cursor survives so downtime changes are replayed.
	token, err := f.tokens.Get(context.Background(), "main")
	require.NoError(t, err)
	assert.Equal(t, "t0", token)
}

func TestPollerPollAppliesChanges(t *testing.T) {
	f := newPollerFixture(t)
	_, err := f.p.Initialize(context.Background(), nil)
	require.NoError(t, err)

	f.remote.nodes["i1"] = &domain.Node{
		ID: "i1", Name: "case-001", Folder: true, ETag: "2",
		Fields: itemFields("in progress"),
	}
	f.remote.pages["t1"] = &domain.ChangePage{
		Events:   []domain.ChangeEvent{{Type: domain.ChangeUpdated, ItemID: "i1", Folder: true}},
		NewToken: "t2",
	}

	require.NoError(t, f.p.pollOnce(context.Background()))

	stored, err := f.items.Get(context.Background(), "i1")
	require.NoError(t, err)
	assert.Equal(t, "in progress", stored.Status)

	token, err := f.tokens.Get(context.Background(), "main")
	require.NoError(t, err)
	assert.Equal(t, "t2", token)
	require.Len(t, f.sink.updated, 1)
}

func TestPollerExpiredTokenTriggersFullResync(t *testing.T) {
	f := newPollerFixture(t)
	_, err := f.p.Initialize(context.Background(), nil)
	require.NoError(t, err)

	// The feed expired; the rescan finds a different inventory.
	f.remote.pageErr["t1"] = domain.ErrTokenExpired
	f.remote.children["p1"] = []domain.Node{
		folderNode("i2", "case-002", itemFields("pending")),
	}
	f.remote.startTokens["c1"] = "t9"

	require.NoError(t, f.p.pollOnce(context.Background()))

	assert.True(t, f.cache.cleared)

	stored, err := f.items.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "i2", stored[0].ID)

	token, err := f.tokens.Get(context.Background(), "main")
	require.NoError(t, err)
	assert.Equal(t, "t9", token)
}

func TestPollerResolveActiveCycleFromScan(t *testing.T) {
	f := newPollerFixture(t)

	items := []domain.WorkItem{
		{ID: "a", Cycle: "20260101"},
		{ID: "b", Cycle: "20260103"},
		{ID: "c", Cycle: "20260102"},
	}
	assert.Equal(t, "20260103", f.p.resolveActiveCycle(items))

	f.p.settings.ActiveCycle = "20250101"
	assert.Equal(t, "20250101", f.p.resolveActiveCycle(items))
}

func TestPollerStartStop(t *testing.T) {
	f := newPollerFixture(t)

	done := make(chan error, 1)
	go func() {
		done <- f.p.Start(context.Background())
	}()

	// Let the first pass run, then stop cooperatively.
	deadline := time.After(5 * time.Second)
	for {
		if _, err := f.tokens.Get(context.Background(), "main"); err == nil {
			break
		}
		select {
		case <-deadline:
			t.Fatal("poller never completed its first pass")
		case <-time.After(10 * time.Millisecond):
		}
	}

	require.NoError(t, f.p.Stop())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Stop")
	}

	// Stopping again is a no-op.
	assert.NoError(t, f.p.Stop())
}

func TestPollerSkipsPassWhenRemoteUnavailable(t *testing.T) {
	f := newPollerFixture(t)
	f.remote.validateErr = domain.ErrTransient

	f.p.runCycle(context.Background())

	stored, err := f.items.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
}
