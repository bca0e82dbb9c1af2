package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/casetrack/internal/core/domain"
	"github.com/custodia-labs/casetrack/internal/core/ports/driven"
	"github.com/custodia-labs/casetrack/internal/logger"
)

// maxChangePages bounds a single poll so a runaway feed cannot wedge
// the loop. A feed deeper than this is drained on the next poll.
const maxChangePages = 50

// Synchronizer manages the per-root change token lifecycle and turns
// change-feed pages into a flat, root-tagged event list.
//
// Token state machine per root: Uninitialized -> Tracking ->
// (Expired -> Uninitialized). Expiry of any one root invalidates the
// whole inventory; cross-root identity cannot be reconciled cheaply,
// so partial per-root resync is not attempted.
type Synchronizer struct {
	remote driven.RemoteStore
}

// NewSynchronizer creates a synchronizer over the given remote store.
func NewSynchronizer(remote driven.RemoteStore) *Synchronizer {
	return &Synchronizer{remote: remote}
}

// PollResult is the outcome of one poll across all tracked roots.
type PollResult struct {
	// Tokens maps each still-tracked root to its newest cursor.
	Tokens map[string]string

	// Events are the collected changes, ordered per root as the
	// remote store returned them. No ordering across roots.
	Events []domain.ChangeEvent

	// FatalReset is true when any root's cursor expired. The caller
	// must discard the entire inventory and rescan from scratch.
	FatalReset bool
}

// InitToken resolves the named cycle folder under a root and requests
// the latest change cursor for its subtree. A root that does not
// contain the cycle is skipped for tracking: folderID and token come
// back empty with no error.
func (s *Synchronizer) InitToken(ctx context.Context, root domain.CollectionRoot, cycleName string) (folderID, token string, err error) {
	children, err := s.remote.ListChildren(ctx, root.FolderID)
	if err != nil {
		return "", "", fmt.Errorf("list root %s: %w", root.Name, err)
	}

	for i := range children {
		if children[i].Folder && children[i].Name == cycleName {
			folderID = children[i].ID
			break
		}
	}
	if folderID == "" {
		logger.Debug("Sync: root %s has no cycle %s, not tracking", root.Name, cycleName)
		return "", "", nil
	}

	token, err = s.remote.GetChangeToken(ctx, folderID)
	if err != nil {
		return "", "", fmt.Errorf("get change token for %s: %w", root.Name, err)
	}
	return folderID, token, nil
}

// Poll follows each tracked root's change feed to its terminal cursor.
// A transient failure on one root keeps its old token and moves on; an
// expired cursor on any root flips FatalReset.
func (s *Synchronizer) Poll(ctx context.Context, tokens map[string]string) (*PollResult, error) {
	result := &PollResult{Tokens: make(map[string]string, len(tokens))}

	for root, token := range tokens {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		newToken, events, err := s.pollRoot(ctx, root, token)
		if err != nil {
			if errors.Is(err, domain.ErrTokenExpired) {
				logger.Warn("Sync: token expired for root %s, full resync required", root)
				result.FatalReset = true
				return result, nil
			}
			// Transient: keep the old cursor, retry next poll.
			logger.Debug("Sync: poll failed for root %s, keeping cursor: %v", root, err)
			result.Tokens[root] = token
			continue
		}

		result.Tokens[root] = newToken
		result.Events = append(result.Events, events...)
	}

	return result, nil
}

// pollRoot pages one root's feed until the store issues a fresh
// terminal cursor.
func (s *Synchronizer) pollRoot(ctx context.Context, root, token string) (string, []domain.ChangeEvent, error) {
	var events []domain.ChangeEvent
	cursor := token

	for page := 0; page < maxChangePages; page++ {
		cp, err := s.remote.PollChanges(ctx, cursor)
		if err != nil {
			return "", nil, err
		}

		for i := range cp.Events {
			ev := cp.Events[i]
			ev.Root = root
			events = append(events, ev)
		}

		if cp.NewToken != "" {
			return cp.NewToken, events, nil
		}
		if cp.NextPageToken == "" {
			return "", nil, fmt.Errorf("change page for root %s carries neither cursor: %w", root, domain.ErrMalformed)
		}
		cursor = cp.NextPageToken
	}

	// Too deep for one poll; resume from the last page cursor next time.
	return cursor, events, nil
}
