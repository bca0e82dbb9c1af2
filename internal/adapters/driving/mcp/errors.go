// Package mcp provides an MCP (Model Context Protocol) server adapter
// for casetrack. It lets AI assistants inspect and edit the tracked
// work item inventory.
package mcp

import "errors"

// ErrMissingTracker is returned when the tracker service is not provided.
var ErrMissingTracker = errors.New("mcp: tracker service is required")
