package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/custodia-labs/casetrack/internal/core/domain"
	"github.com/custodia-labs/casetrack/internal/core/ports/driven"
)

// MimeTypeFolder is the Drive folder MIME type.
const MimeTypeFolder = "application/vnd.google-apps.folder"

// MaxContentSize bounds evidence downloads (5MB).
const MaxContentSize = 5 * 1024 * 1024

// listPageSize is the page size for folder listings.
const listPageSize = 200

// nodeFields selects the file attributes every read needs.
const nodeFields = "id, name, mimeType, parents, appProperties, createdTime, modifiedTime, version, trashed"

// callTimeout bounds every individual Drive call.
const callTimeout = 30 * time.Second

// Ensure Store implements the interface.
var _ driven.RemoteStore = (*Store)(nil)

// Store is the Drive-backed remote store client. It is constructed
// explicitly and shared by reference between the scanner,
// synchroniser, cache and write coordinator.
type Store struct {
	svc     *drive.Service
	limiter *RateLimiter
}

// New creates a Drive client using the given token source.
func New(ctx context.Context, ts oauth2.TokenSource) (*Store, error) {
	svc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &Store{svc: svc, limiter: NewRateLimiter()}, nil
}

// NewWithService wraps an existing Drive service. Used in tests and
// by callers that configure the service themselves.
func NewWithService(svc *drive.Service) *Store {
	return &Store{svc: svc, limiter: NewRateLimiter()}
}

// Validate performs a lightweight session check.
func (s *Store) Validate(ctx context.Context) error {
	ctx, cancel := s.callContext(ctx)
	defer cancel()
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := s.svc.About.Get().Fields("user").Context(ctx).Do()
	return s.classify(err)
}

// ListChildren returns the immediate, non-trashed children of a folder.
func (s *Store) ListChildren(ctx context.Context, parentID string) ([]domain.Node, error) {
	var nodes []domain.Node
	pageToken := ""

	for {
		cctx, cancel := s.callContext(ctx)
		if err := s.limiter.Wait(cctx); err != nil {
			cancel()
			return nil, err
		}

		call := s.svc.Files.List().
			Q(fmt.Sprintf("'%s' in parents and trashed = false", parentID)).
			Fields(googleapi.Field("nextPageToken, files(" + nodeFields + ")")).
			PageSize(listPageSize).
			Context(cctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		list, err := call.Do()
		cancel()
		if err != nil {
			return nil, fmt.Errorf("list children of %s: %w", parentID, s.classify(err))
		}

		for _, f := range list.Files {
			nodes = append(nodes, nodeFromFile(f))
		}

		if list.NextPageToken == "" {
			return nodes, nil
		}
		pageToken = list.NextPageToken
	}
}

// GetItem fetches a single entry with its fields and version token.
func (s *Store) GetItem(ctx context.Context, id string) (*domain.Node, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	f, err := s.svc.Files.Get(id).Fields(googleapi.Field(nodeFields)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", id, s.classify(err))
	}

	node := nodeFromFile(f)
	return &node, nil
}

// PatchFields updates an entry's appProperties. Drive metadata writes
// carry no conditional header, so the version guard is emulated with
// a read-and-compare before the update; the distinction is invisible
// above this interface.
func (s *Store) PatchFields(ctx context.Context, id string, fields map[string]string, expectedETag string) (*domain.Node, error) {
	if expectedETag != "" {
		current, err := s.GetItem(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.ETag != expectedETag {
			return nil, fmt.Errorf("patch %s: %w", id, domain.ErrVersionConflict)
		}
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	f, err := s.svc.Files.Update(id, &drive.File{AppProperties: fields}).
		Fields(googleapi.Field(nodeFields)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("patch %s: %w", id, s.classify(err))
	}

	node := nodeFromFile(f)
	return &node, nil
}

// CreateItem creates a folder or file under a parent.
func (s *Store) CreateItem(ctx context.Context, parentID, name string, folder bool, fields map[string]string) (*domain.Node, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	f := &drive.File{
		Name:          name,
		Parents:       []string{parentID},
		AppProperties: fields,
	}
	if folder {
		f.MimeType = MimeTypeFolder
	}

	created, err := s.svc.Files.Create(f).Fields(googleapi.Field(nodeFields)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("create %s under %s: %w", name, parentID, s.classify(err))
	}

	node := nodeFromFile(created)
	return &node, nil
}

// GetChangeToken returns the latest change cursor. The Drive change
// feed is account-wide rather than per-subtree; the folder is checked
// for existence and the classifier filters events down to known items
// and their parents.
func (s *Store) GetChangeToken(ctx context.Context, folderID string) (string, error) {
	if _, err := s.GetItem(ctx, folderID); err != nil {
		return "", err
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	token, err := s.svc.Changes.GetStartPageToken().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get change token: %w", s.classify(err))
	}
	return token.StartPageToken, nil
}

// PollChanges returns one page of the change feed after the cursor.
func (s *Store) PollChanges(ctx context.Context, token string) (*domain.ChangePage, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	list, err := s.svc.Changes.List(token).
		Fields(googleapi.Field("newStartPageToken, nextPageToken, changes(fileId, removed, time, file(" + nodeFields + "))")).
		IncludeRemoved(true).
		PageSize(listPageSize).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("poll changes: %w", s.classify(err))
	}

	page := &domain.ChangePage{
		NextPageToken: list.NextPageToken,
		NewToken:      list.NewStartPageToken,
	}

	for _, c := range list.Changes {
		page.Events = append(page.Events, eventFromChange(c))
	}
	return page, nil
}

// DownloadContent fetches the raw content of a file entry.
func (s *Store) DownloadContent(ctx context.Context, id string) ([]byte, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := s.svc.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", id, s.classify(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxContentSize))
	if err != nil {
		return nil, fmt.Errorf("read content of %s: %w", id, domain.ErrTransient)
	}
	return data, nil
}

// classify maps an API failure onto the domain taxonomy and feeds the
// limiter's backoff on throttles.
func (s *Store) classify(err error) error {
	mapped := wrapErr(err)
	if errors.Is(mapped, domain.ErrRateLimited) {
		s.limiter.RecordThrottle(0)
	}
	return mapped
}

func (s *Store) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, callTimeout)
}

// nodeFromFile converts a Drive file to a domain node. The file
// version number serves as the opaque version token.
func nodeFromFile(f *drive.File) domain.Node {
	created, _ := time.Parse(time.RFC3339, f.CreatedTime)
	modified, _ := time.Parse(time.RFC3339, f.ModifiedTime)

	parentID := ""
	if len(f.Parents) > 0 {
		parentID = f.Parents[0]
	}

	return domain.Node{
		ID:         f.Id,
		Name:       f.Name,
		Folder:     f.MimeType == MimeTypeFolder,
		ParentID:   parentID,
		ETag:       strconv.FormatInt(f.Version, 10),
		CreatedAt:  created,
		ModifiedAt: modified,
		Fields:     f.AppProperties,
	}
}

// eventFromChange converts a Drive change record. Trashed files count
// as deletions; Drive does not distinguish created from updated, so
// live entries report ChangeUpdated and the classifier resolves
// creation by item identity.
func eventFromChange(c *drive.Change) domain.ChangeEvent {
	when, _ := time.Parse(time.RFC3339, c.Time)

	ev := domain.ChangeEvent{
		Type:   domain.ChangeUpdated,
		ItemID: c.FileId,
		Time:   when,
	}

	if c.Removed || (c.File != nil && c.File.Trashed) {
		ev.Type = domain.ChangeDeleted
		return ev
	}

	if c.File != nil {
		ev.Name = c.File.Name
		ev.Folder = c.File.MimeType == MimeTypeFolder
		if len(c.File.Parents) > 0 {
			ev.ParentID = c.File.Parents[0]
		}
	}
	return ev
}
