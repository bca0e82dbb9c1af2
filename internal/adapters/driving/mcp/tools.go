package mcp

import (
	"context"
	"sort"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/casetrack/internal/core/domain"
	"github.com/custodia-labs/casetrack/internal/core/ports/driving"
)

// ListItemsInput is the input schema for the list_items tool.
type ListItemsInput struct {
	OpenOnly bool   `json:"open_only,omitempty" jsonschema:"return only items in an open status"`
	Cycle    string `json:"cycle,omitempty" jsonschema:"restrict to a single cycle folder name"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of items to return (default 50)"`
}

// ListItemsOutput is the output schema for the list_items tool.
type ListItemsOutput struct {
	Items []ItemOutput `json:"items"`
	Count int          `json:"count"`
}

// ItemOutput represents a single work item.
type ItemOutput struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Status          string `json:"status"`
	Priority        string `json:"priority,omitempty"`
	Category        string `json:"category,omitempty"`
	ReplyDeadline   string `json:"reply_deadline,omitempty"`
	ResolveDeadline string `json:"resolve_deadline,omitempty"`
	Editor          string `json:"editor,omitempty"`
	Root            string `json:"root"`
	Cycle           string `json:"cycle"`
	Partition       string `json:"partition,omitempty"`
	UnreadEvidence  int    `json:"unread_evidence"`
	HasFailureFlag  bool   `json:"has_failure_flag"`
}

// UpdateItemInput is the input schema for the update_item tool.
type UpdateItemInput struct {
	ItemID string            `json:"item_id" jsonschema:"identifier of the work item to change"`
	Fields map[string]string `json:"fields" jsonschema:"property changes to apply, e.g. status or priority"`
	Force  bool              `json:"force,omitempty" jsonschema:"override an item held in progress by another editor"`
}

// UpdateItemOutput is the output schema for the update_item tool.
type UpdateItemOutput struct {
	ItemID string      `json:"item_id"`
	Result string      `json:"result"`
	Item   *ItemOutput `json:"item,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// ListFilesInput is the input schema for the list_item_files tool.
type ListFilesInput struct {
	ItemID  string `json:"item_id" jsonschema:"identifier of the work item"`
	Refresh bool   `json:"refresh,omitempty" jsonschema:"bypass the cached listing"`
}

// ListFilesOutput is the output schema for the list_item_files tool.
type ListFilesOutput struct {
	Files []FileOutput `json:"files"`
	Count int          `json:"count"`
}

// FileOutput represents a single evidence document.
type FileOutput struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ReviewStatus string `json:"review_status"`
	Unread       bool   `json:"unread"`
	FailureFlag  bool   `json:"failure_flag"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_items",
		Description: "List tracked work items, optionally filtered to open ones",
	}, s.handleListItems)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "update_item",
		Description: "Change a work item's properties, reconciling with the remote store",
	}, s.handleUpdateItem)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_item_files",
		Description: "List a work item's evidence documents and their review state",
	}, s.handleListFiles)
}

// handleListItems handles the list_items tool invocation.
func (s *Server) handleListItems(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListItemsInput,
) (*mcp.CallToolResult, ListItemsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}

	items, err := s.ports.Tracker.Snapshot(ctx)
	if err != nil {
		return nil, ListItemsOutput{}, err
	}

	var filtered []domain.WorkItem
	for _, item := range items {
		if input.OpenOnly && !item.Open() {
			continue
		}
		if input.Cycle != "" && item.Cycle != input.Cycle {
			continue
		}
		filtered = append(filtered, item)
	}

	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].Cycle != filtered[j].Cycle {
			return filtered[i].Cycle > filtered[j].Cycle
		}
		return filtered[i].Name < filtered[j].Name
	})
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	output := ListItemsOutput{
		Items: make([]ItemOutput, len(filtered)),
		Count: len(filtered),
	}
	for i := range filtered {
		output.Items[i] = itemOutput(filtered[i])
	}

	return nil, output, nil
}

// handleUpdateItem handles the update_item tool invocation. The write
// pipeline is asynchronous; the handler waits for the terminal outcome
// so the assistant sees whether the change landed.
func (s *Server) handleUpdateItem(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UpdateItemInput,
) (*mcp.CallToolResult, UpdateItemOutput, error) {
	done := make(chan driving.MutationOutcome, 1)
	opts := driving.MutateOptions{
		OnOutcome: func(outcome driving.MutationOutcome) { done <- outcome },
	}
	if input.Force {
		opts.ConfirmOverride = func(domain.WorkItem) bool { return true }
	}

	if _, err := s.ports.Tracker.MutateItem(ctx, input.ItemID, input.Fields, opts); err != nil {
		return nil, UpdateItemOutput{}, err
	}

	var outcome driving.MutationOutcome
	select {
	case outcome = <-done:
	case <-ctx.Done():
		return nil, UpdateItemOutput{}, ctx.Err()
	case <-time.After(60 * time.Second):
		return nil, UpdateItemOutput{}, context.DeadlineExceeded
	}

	output := UpdateItemOutput{
		ItemID: input.ItemID,
		Result: string(outcome.Result),
	}
	if outcome.Current != nil {
		out := itemOutput(*outcome.Current)
		output.Item = &out
	}
	if outcome.Err != nil {
		output.Error = outcome.Err.Error()
	}

	return nil, output, nil
}

// handleListFiles handles the list_item_files tool invocation.
func (s *Server) handleListFiles(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListFilesInput,
) (*mcp.CallToolResult, ListFilesOutput, error) {
	docs, err := s.ports.Tracker.GetItemFiles(ctx, input.ItemID, input.Refresh)
	if err != nil {
		return nil, ListFilesOutput{}, err
	}

	output := ListFilesOutput{
		Files: make([]FileOutput, len(docs)),
		Count: len(docs),
	}
	for i := range docs {
		output.Files[i] = FileOutput{
			ID:           docs[i].ID,
			Name:         docs[i].Name,
			ReviewStatus: docs[i].ReviewStatus,
			Unread:       docs[i].Unread(),
			FailureFlag:  docs[i].FailureFlag,
		}
	}

	return nil, output, nil
}

func itemOutput(item domain.WorkItem) ItemOutput {
	return ItemOutput{
		ID:              item.ID,
		Name:            item.Name,
		Status:          item.Status,
		Priority:        item.Priority,
		Category:        item.Category,
		ReplyDeadline:   item.ReplyDeadline,
		ResolveDeadline: item.ResolveDeadline,
		Editor:          item.Editor,
		Root:            item.Root,
		Cycle:           item.Cycle,
		Partition:       item.Partition,
		UnreadEvidence:  item.UnreadEvidence,
		HasFailureFlag:  item.HasFailureFlag,
	}
}
