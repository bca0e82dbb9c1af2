package mcp

import (
	"github.com/custodia-labs/casetrack/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Tracker exposes the work item inventory and mutation pipeline.
	Tracker driving.Tracker
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Tracker == nil {
		return ErrMissingTracker
	}
	return nil
}
