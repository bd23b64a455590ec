package mcp

import (
	"github.com/custodia-labs/rememba-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retriever assembles context and manages memories.
	Retriever driving.ContextRetriever

	// Audit runs on-demand conversation audits.
	Audit driving.AuditService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retriever == nil {
		return ErrMissingRetriever
	}
	// Audit is optional
	return nil
}
