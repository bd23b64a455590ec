// Package driving provides interfaces for application entry points (primary/inbound ports).
package driving

import (
	"context"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
)

// ContextRetriever is the engine's one logical operation: assemble a
// bounded, relevance-ranked context window for a query. It never fails
// under normal operation - the worst case is a degraded, possibly empty
// context.
type ContextRetriever interface {
	// RetrieveContext classifies the query, plans and executes
	// retrieval, and packs the result into the token budget.
	// A tokenBudget of 0 uses the configured default.
	RetrieveContext(ctx context.Context, query domain.Query, tokenBudget int) (*domain.AssembledContext, error)

	// Remember explicitly saves a memory for the user.
	Remember(ctx context.Context, userID, threadID, content string, tier domain.Tier, priority float64) (*domain.Memory, error)

	// ListMemories returns the user's live memories, newest first.
	ListMemories(ctx context.Context, userID string, limit int) ([]domain.Memory, error)

	// Forget tombstones a memory by ID.
	Forget(ctx context.Context, id string) error
}

// AuditService drives the background summarisation job.
type AuditService interface {
	// AuditThread recomputes a thread's importance and refreshes its
	// summary if due. Returns the refreshed summary, or nil when the
	// run was debounced or nothing was due.
	AuditThread(ctx context.Context, threadID string) (*domain.ConversationSummary, error)

	// AuditAll audits every recently active thread. Returns the number
	// of threads whose summaries were refreshed.
	AuditAll(ctx context.Context) (int, error)
}

// Scheduler manages background task execution.
type Scheduler interface {
	// Start begins the scheduler loop. Blocks until Stop is called or
	// the context is cancelled.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the scheduler.
	Stop() error
}
