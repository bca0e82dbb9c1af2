package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for casetrack resources.
	uriScheme = "casetrack://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for the full inventory.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "items",
		Name:        "items",
		Description: "All tracked work items",
		MIMEType:    "application/json",
	}, s.handleItemsResource)

	// Template for an item's evidence documents.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "items/{itemId}/files",
		Name:        "item-files",
		Description: "Evidence documents of a specific work item",
		MIMEType:    "application/json",
	}, s.handleItemFilesResource)
}

// handleItemsResource returns the current inventory snapshot.
func (s *Server) handleItemsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	items, err := s.ports.Tracker.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	infos := make([]ItemOutput, len(items))
	for i := range items {
		infos[i] = itemOutput(items[i])
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling items: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleItemFilesResource returns the evidence documents of one item.
func (s *Server) handleItemFilesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	itemID := extractItemID(req.Params.URI)
	if itemID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docs, err := s.ports.Tracker.GetItemFiles(ctx, itemID, false)
	if err != nil {
		return nil, fmt.Errorf("listing item files: %w", err)
	}

	infos := make([]FileOutput, len(docs))
	for i := range docs {
		infos[i] = FileOutput{
			ID:           docs[i].ID,
			Name:         docs[i].Name,
			ReviewStatus: docs[i].ReviewStatus,
			Unread:       docs[i].Unread(),
			FailureFlag:  docs[i].FailureFlag,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling item files: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractItemID extracts the item ID from a URI like casetrack://items/{itemId}/files.
func extractItemID(uri string) string {
	const prefix = uriScheme + "items/"
	const suffix = "/files"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
