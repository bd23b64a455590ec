// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
)

// MemoryStore persists conversational memories.
// Memories are soft-deleted only; tombstoned rows stay queryable by ID.
type MemoryStore interface {
	// SaveMemory stores a new memory.
	SaveMemory(ctx context.Context, mem *domain.Memory) error

	// GetMemory retrieves a memory by ID, including tombstoned rows.
	GetMemory(ctx context.Context, id string) (*domain.Memory, error)

	// SearchMemories returns live memories for the user matching any of
	// the keywords, optionally scoped to a thread (empty threadID means
	// all threads). Results are capped at limit.
	SearchMemories(ctx context.Context, userID, threadID string, keywords []string, limit int) ([]domain.Memory, error)

	// ListMemories returns all live memories for a user, newest first.
	ListMemories(ctx context.Context, userID string, limit int) ([]domain.Memory, error)

	// DeleteMemory tombstones a memory. Idempotent.
	DeleteMemory(ctx context.Context, id string, at time.Time) error
}

// HistoryStore persists raw conversation turns.
type HistoryStore interface {
	// AppendTurn records a turn at the end of a thread.
	AppendTurn(ctx context.Context, turn *domain.ConversationTurn) error

	// RecentTurns returns the newest n turns of a thread in
	// chronological order. n <= 0 returns all turns.
	RecentTurns(ctx context.Context, threadID string, n int) ([]domain.ConversationTurn, error)

	// ThreadStats returns the audit counters for a thread.
	ThreadStats(ctx context.Context, threadID string) (*domain.ThreadStats, error)

	// ActiveThreads returns threads with activity since the cutoff.
	ActiveThreads(ctx context.Context, since time.Time) ([]string, error)
}

// SummaryStore persists rolling conversation summaries.
// The audit job only ever upserts rows here; it never blocks readers.
type SummaryStore interface {
	// UpsertSummary inserts or replaces the summary for a thread.
	UpsertSummary(ctx context.Context, summary *domain.ConversationSummary) error

	// GetSummary retrieves the summary for a thread.
	GetSummary(ctx context.Context, threadID string) (*domain.ConversationSummary, error)

	// RecentSummaries returns up to n summaries, newest first.
	RecentSummaries(ctx context.Context, n int) ([]domain.ConversationSummary, error)
}
