package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/casetrack/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/casetrack/internal/core/domain"
	"github.com/custodia-labs/casetrack/internal/core/ports/driving"
)

type writerFixture struct {
	remote *fakeRemote
	items  *memory.ItemStore
	w      *WriteCoordinator
}

func newWriterFixture(t *testing.T, seed domain.WorkItem) *writerFixture {
	t.Helper()
	f := &writerFixture{
		remote: newFakeRemote(),
		items:  memory.NewItemStore(),
	}
	f.w = NewWriteCoordinator(f.remote, f.items)
	require.NoError(t, f.items.Save(context.Background(), seed))
	f.remote.nodes[seed.ID] = &domain.Node{
		ID: seed.ID, Name: seed.Name, Folder: true, ETag: seed.ETag,
		Fields: seed.Fields(),
	}
	return f
}

func baseItem() domain.WorkItem {
	return domain.WorkItem{
		ID: "i1", Name: "case-001", Status: "pending", ETag: "5",
		Cycle: "20260102", Root: "main",
	}
}

func TestWriteAccepted(t *testing.T) {
	f := newWriterFixture(t, baseItem())

	outcome := f.w.Apply(context.Background(), MutationRequest{
		MutationID: "m1",
		ItemID:     "i1",
		Fields:     map[string]string{domain.FieldPriority: "high"},
		Actor:      "alice",
	})

	assert.Equal(t, driving.MutationAccepted, outcome.Result)
	assert.NoError(t, outcome.Err)
	require.NotNil(t, outcome.Current)
	assert.Equal(t, "high", outcome.Current.Priority)
	assert.Equal(t, "alice", outcome.Current.Editor)

	// The conditional write carried the known version token and the
	// acting editor.
	calls := f.remote.patchCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "5", calls[0].etag)
	assert.Equal(t, "alice", calls[0].fields[domain.FieldEditor])

	// Local model holds the fresh version token.
	stored, err := f.items.Get(context.Background(), "i1")
	require.NoError(t, err)
	assert.Equal(t, "high", stored.Priority)
	assert.Equal(t, "5'", stored.ETag)
}

func TestWriteConflictForcesOnce(t *testing.T) {
	f := newWriterFixture(t, baseItem())
	f.remote.patchErrs = []error{domain.ErrVersionConflict, nil}

	outcome := f.w.Apply(context.Background(), MutationRequest{
		MutationID: "m1",
		ItemID:     "i1",
		Fields:     map[string]string{domain.FieldCategory: "billing"},
		Actor:      "alice",
	})

	assert.Equal(t, driving.MutationForceAccepted, outcome.Result)
	assert.NoError(t, outcome.Err)

	calls := f.remote.patchCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "5", calls[0].etag)
	assert.Empty(t, calls[1].etag) // the single unconditional retry

	stored, err := f.items.Get(context.Background(), "i1")
	require.NoError(t, err)
	assert.Equal(t, "billing", stored.Category)
}

func TestWriteHardFailureRollsBack(t *testing.T) {
	f := newWriterFixture(t, baseItem())
	f.remote.patchErrs = []error{domain.ErrPermissionDenied}
	// Remote truth diverged while we were editing.
	f.remote.nodes["i1"].Fields[domain.FieldStatus] = "closed"
	f.remote.nodes["i1"].ETag = "9"

	outcome := f.w.Apply(context.Background(), MutationRequest{
		MutationID: "m1",
		ItemID:     "i1",
		Fields:     map[string]string{domain.FieldStatus: "resolved"},
		Actor:      "alice",
	})

	assert.Equal(t, driving.MutationRolledBack, outcome.Result)
	assert.ErrorIs(t, outcome.Err, domain.ErrPermissionDenied)

	// The optimistic local change was overwritten with remote truth.
	stored, err := f.items.Get(context.Background(), "i1")
	require.NoError(t, err)
	assert.Equal(t, "closed", stored.Status)
	assert.Equal(t, "9", stored.ETag)
}

func TestWriteRollbackDropsVanishedItem(t *testing.T) {
	f := newWriterFixture(t, baseItem())
	f.remote.patchErrs = []error{domain.ErrTransient}
	delete(f.remote.nodes, "i1")

	outcome := f.w.Apply(context.Background(), MutationRequest{
		MutationID: "m1",
		ItemID:     "i1",
		Fields:     map[string]string{domain.FieldStatus: "resolved"},
	})

	assert.Equal(t, driving.MutationRolledBack, outcome.Result)

	_, err := f.items.Get(context.Background(), "i1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWriteUnknownItem(t *testing.T) {
	f := newWriterFixture(t, baseItem())

	outcome := f.w.Apply(context.Background(), MutationRequest{
		MutationID: "m1",
		ItemID:     "nope",
		Fields:     map[string]string{domain.FieldStatus: "resolved"},
	})

	assert.Equal(t, driving.MutationRolledBack, outcome.Result)
	assert.ErrorIs(t, outcome.Err, domain.ErrNotFound)
	assert.Empty(t, f.remote.patchCalls())
}

// rendezvousItemStore delays reads until two writers hold the same
// snapshot, forcing a genuine version race on the write path.
type rendezvousItemStore struct {
	*memory.ItemStore

	mu    sync.Mutex
	reads int
	ready chan struct{}
}

func (s *rendezvousItemStore) Get(ctx context.Context, id string) (*domain.WorkItem, error) {
	item, err := s.ItemStore.Get(ctx, id)
	s.mu.Lock()
	s.reads++
	if s.reads == 2 {
		close(s.ready)
	}
	s.mu.Unlock()
	<-s.ready
	return item, err
}

func TestWriteConcurrentWritersConverge(t *testing.T) {
	remote := newFakeRemote()
	remote.enforceETags = true
	items := &rendezvousItemStore{ItemStore: memory.NewItemStore(), ready: make(chan struct{})}
	w := NewWriteCoordinator(remote, items)

	seed := baseItem()
	require.NoError(t, items.ItemStore.Save(context.Background(), seed))
	remote.nodes[seed.ID] = &domain.Node{
		ID: seed.ID, Name: seed.Name, Folder: true, ETag: seed.ETag,
		Fields: seed.Fields(),
	}

	outcomes := make(chan driving.MutationOutcome, 2)
	for _, req := range []MutationRequest{
		{MutationID: "m1", ItemID: "i1", Fields: map[string]string{domain.FieldPriority: "high"}, Actor: "alice"},
		{MutationID: "m2", ItemID: "i1", Fields: map[string]string{domain.FieldCategory: "billing"}, Actor: "bob"},
	} {
		go func(req MutationRequest) {
			outcomes <- w.Apply(context.Background(), req)
		}(req)
	}

	results := make(map[driving.MutationResult]int)
	for i := 0; i < 2; i++ {
		outcome := <-outcomes
		assert.NoError(t, outcome.Err)
		results[outcome.Result]++
	}

	// Both writers started from the same version token, so exactly
	// one write matched it and the loser took the force path.
	assert.Equal(t, 1, results[driving.MutationAccepted])
	assert.Equal(t, 1, results[driving.MutationForceAccepted])

	// Neither edit was lost: the remote copy carries both fields and
	// the token advanced once per write.
	node, err := remote.GetItem(context.Background(), "i1")
	require.NoError(t, err)
	assert.Equal(t, "high", node.Fields[domain.FieldPriority])
	assert.Equal(t, "billing", node.Fields[domain.FieldCategory])
	assert.Equal(t, "5''", node.ETag)
}

// heldItem is an open item whose remote copy is held by another editor.
func heldItem() domain.WorkItem {
	item := baseItem()
	item.Status = "in progress"
	item.Editor = "alice"
	return item
}

func TestWriteDeferredWhenHeldByOtherEditor(t *testing.T) {
	f := newWriterFixture(t, heldItem())
	// Remotely, bob took the item over since our last sync.
	f.remote.nodes["i1"].Fields[domain.FieldEditor] = "bob"
	f.remote.nodes["i1"].ETag = "6"

	outcome := f.w.Apply(context.Background(), MutationRequest{
		MutationID: "m1",
		ItemID:     "i1",
		Fields:     map[string]string{domain.FieldStatus: "resolved"},
		Actor:      "alice",
	})

	assert.Equal(t, driving.MutationConfirmationRequired, outcome.Result)
	require.NotNil(t, outcome.Current)
	assert.Equal(t, "bob", outcome.Current.Editor)

	// Nothing was written, locally or remotely.
	assert.Empty(t, f.remote.patchCalls())
	stored, err := f.items.Get(context.Background(), "i1")
	require.NoError(t, err)
	assert.Equal(t, "in progress", stored.Status)
}

func TestWriteProceedsWithConfirmation(t *testing.T) {
	f := newWriterFixture(t, heldItem())
	f.remote.nodes["i1"].Fields[domain.FieldEditor] = "bob"
	f.remote.nodes["i1"].ETag = "6"

	var asked bool
	outcome := f.w.Apply(context.Background(), MutationRequest{
		MutationID: "m1",
		ItemID:     "i1",
		Fields:     map[string]string{domain.FieldStatus: "resolved"},
		Actor:      "alice",
		Confirm: func(current domain.WorkItem) bool {
			asked = true
			assert.Equal(t, "bob", current.Editor)
			return true
		},
	})

	assert.True(t, asked)
	assert.Equal(t, driving.MutationAccepted, outcome.Result)

	// The write was guarded against the freshest observed version.
	calls := f.remote.patchCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "6", calls[0].etag)
}

func TestWriteNoOwnershipCheckForOwnItem(t *testing.T) {
	f := newWriterFixture(t, heldItem())
	// Remote copy agrees that alice holds the item.

	outcome := f.w.Apply(context.Background(), MutationRequest{
		MutationID: "m1",
		ItemID:     "i1",
		Fields:     map[string]string{domain.FieldStatus: "resolved"},
		Actor:      "alice",
	})

	assert.Equal(t, driving.MutationAccepted, outcome.Result)
}

func TestWriteNonStatusChangeSkipsOwnershipCheck(t *testing.T) {
	f := newWriterFixture(t, heldItem())
	f.remote.nodes["i1"].Fields[domain.FieldEditor] = "bob"

	outcome := f.w.Apply(context.Background(), MutationRequest{
		MutationID: "m1",
		ItemID:     "i1",
		Fields:     map[string]string{domain.FieldPriority: "low"},
		Actor:      "alice",
	})

	// Priority edits never contend for ownership.
	assert.Equal(t, driving.MutationAccepted, outcome.Result)
}
