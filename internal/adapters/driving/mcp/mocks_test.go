package mcp

import (
	"context"

	"github.com/custodia-labs/casetrack/internal/core/domain"
	"github.com/custodia-labs/casetrack/internal/core/ports/driving"
)

// mockTracker is a mock implementation of driving.Tracker.
type mockTracker struct {
	items   []domain.WorkItem
	docs    []domain.EvidenceDocument
	err     error
	outcome driving.MutationOutcome

	mutatedID     string
	mutatedFields map[string]string
	forced        bool
}

var _ driving.Tracker = (*mockTracker)(nil)

func (m *mockTracker) Initialize(_ context.Context, _ driving.ProgressFunc) ([]domain.WorkItem, error) {
	return m.items, m.err
}

func (m *mockTracker) Snapshot(_ context.Context) ([]domain.WorkItem, error) {
	return m.items, m.err
}

func (m *mockTracker) Subscribe(driving.Listener) string { return "sub-1" }

func (m *mockTracker) Unsubscribe(string) {}

func (m *mockTracker) MutateItem(_ context.Context, itemID string, fields map[string]string, opts driving.MutateOptions) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.mutatedID = itemID
	m.mutatedFields = fields
	m.forced = opts.ConfirmOverride != nil && opts.ConfirmOverride(domain.WorkItem{})
	if opts.OnOutcome != nil {
		opts.OnOutcome(m.outcome)
	}
	return m.outcome.MutationID, nil
}

func (m *mockTracker) GetItemFiles(_ context.Context, _ string, _ bool) ([]domain.EvidenceDocument, error) {
	return m.docs, m.err
}

func (m *mockTracker) InvalidateItemFiles(string) {}

func (m *mockTracker) Shutdown() error { return nil }
