package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/casetrack/internal/core/domain"
	"github.com/custodia-labs/casetrack/internal/core/ports/driven"
)

// --- Shared fakes for the services tests ---

// patchCall records one PatchFields invocation.
type patchCall struct {
	id     string
	fields map[string]string
	etag   string
}

// fakeRemote is a scriptable driven.RemoteStore. Behaviour is driven
// by maps keyed on entry ID or cursor; unscripted lookups return
// domain.ErrNotFound.
type fakeRemote struct {
	mu sync.Mutex

	validateErr error

	children    map[string][]domain.Node
	childrenErr map[string]error

	nodes   map[string]*domain.Node
	nodeErr map[string]error

	// patchErrs is consumed one per PatchFields call; nil means success.
	patchErrs []error
	patches   []patchCall

	// enforceETags makes PatchFields behave like the real guard:
	// a non-empty expected token that mismatches the stored node is
	// rejected with a version conflict.
	enforceETags bool

	startTokens   map[string]string
	startTokenErr error

	pages   map[string]*domain.ChangePage
	pageErr map[string]error

	downloads map[string][]byte
}

var _ driven.RemoteStore = (*fakeRemote)(nil)

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		children:    make(map[string][]domain.Node),
		childrenErr: make(map[string]error),
		nodes:       make(map[string]*domain.Node),
		nodeErr:     make(map[string]error),
		startTokens: make(map[string]string),
		pages:       make(map[string]*domain.ChangePage),
		pageErr:     make(map[string]error),
		downloads:   make(map[string][]byte),
	}
}

func (f *fakeRemote) Validate(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateErr
}

func (f *fakeRemote) ListChildren(_ context.Context, parentID string) ([]domain.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.childrenErr[parentID]; err != nil {
		return nil, err
	}
	return f.children[parentID], nil
}

func (f *fakeRemote) GetItem(_ context.Context, id string) (*domain.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.nodeErr[id]; err != nil {
		return nil, err
	}
	node, ok := f.nodes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *node
	return &copied, nil
}

func (f *fakeRemote) PatchFields(_ context.Context, id string, fields map[string]string, expectedETag string) (*domain.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.patches = append(f.patches, patchCall{id: id, fields: fields, etag: expectedETag})

	if len(f.patchErrs) > 0 {
		err := f.patchErrs[0]
		f.patchErrs = f.patchErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	node, ok := f.nodes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if f.enforceETags && expectedETag != "" && expectedETag != node.ETag {
		return nil, domain.ErrVersionConflict
	}
	if node.Fields == nil {
		node.Fields = make(map[string]string)
	}
	for k, v := range fields {
		node.Fields[k] = v
	}
	node.ETag = node.ETag + "'"
	copied := *node
	return &copied, nil
}

func (f *fakeRemote) CreateItem(_ context.Context, parentID, name string, folder bool, fields map[string]string) (*domain.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	node := &domain.Node{
		ID:       "created-" + name,
		Name:     name,
		Folder:   folder,
		ParentID: parentID,
		ETag:     "1",
		Fields:   fields,
	}
	f.nodes[node.ID] = node
	copied := *node
	return &copied, nil
}

func (f *fakeRemote) GetChangeToken(_ context.Context, folderID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startTokenErr != nil {
		return "", f.startTokenErr
	}
	token, ok := f.startTokens[folderID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return token, nil
}

func (f *fakeRemote) PollChanges(_ context.Context, token string) (*domain.ChangePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.pageErr[token]; err != nil {
		return nil, err
	}
	page, ok := f.pages[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return page, nil
}

func (f *fakeRemote) DownloadContent(_ context.Context, id string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.downloads[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (f *fakeRemote) patchCalls() []patchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]patchCall, len(f.patches))
	copy(out, f.patches)
	return out
}

// fakeCache is a scriptable driven.EvidenceCache.
type fakeCache struct {
	mu sync.Mutex

	docs map[string][]domain.EvidenceDocument
	errs map[string]error

	gets        int
	invalidated []string
	cleared     bool
}

var _ driven.EvidenceCache = (*fakeCache)(nil)

func newFakeCache() *fakeCache {
	return &fakeCache{
		docs: make(map[string][]domain.EvidenceDocument),
		errs: make(map[string]error),
	}
}

func (f *fakeCache) Get(_ context.Context, itemID string, _ bool) ([]domain.EvidenceDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if err := f.errs[itemID]; err != nil {
		return nil, err
	}
	return f.docs[itemID], nil
}

func (f *fakeCache) Invalidate(itemID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, itemID)
}

func (f *fakeCache) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = true
}

// recordingSink captures classifier notifications.
type recordingSink struct {
	mu      sync.Mutex
	added   []domain.WorkItem
	updated []domain.WorkItem
	removed []string
	metrics map[string]int
}

var _ EventSink = (*recordingSink)(nil)

func newRecordingSink() *recordingSink {
	return &recordingSink{metrics: make(map[string]int)}
}

func (s *recordingSink) ItemAdded(item domain.WorkItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.added = append(s.added, item)
}

func (s *recordingSink) ItemUpdated(item domain.WorkItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updated = append(s.updated, item)
}

func (s *recordingSink) ItemRemoved(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, itemID)
}

func (s *recordingSink) MetricChanged(itemID string, unread int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics[itemID] = unread
}

// folderNode builds a folder node with optional metadata fields.
func folderNode(id, name string, fields map[string]string) domain.Node {
	return domain.Node{ID: id, Name: name, Folder: true, ETag: "1", Fields: fields}
}

// fileNode builds a file node with optional metadata fields.
func fileNode(id, name string, fields map[string]string) domain.Node {
	return domain.Node{ID: id, Name: name, ETag: "1", Fields: fields}
}

// itemFields is a convenience for work item folder metadata.
func itemFields(status string) map[string]string {
	return map[string]string{domain.FieldStatus: status}
}
