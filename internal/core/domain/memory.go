package domain

import (
	"strings"
	"time"
)

// Memory is a persisted conversational fact. Memories are never hard
// deleted, only tombstoned via DeletedAt.
type Memory struct {
	// ID is the unique identifier.
	ID string

	// UserID is the owning user.
	UserID string

	// ThreadID is the conversation thread the fact came from.
	ThreadID string

	// Content is the fact text.
	Content string

	// Tier is the importance classification.
	Tier Tier

	// Priority is a 0-1 importance weight.
	Priority float64

	// CreatedAt is when the memory was saved.
	CreatedAt time.Time

	// DeletedAt is the tombstone time. Zero means the memory is live.
	DeletedAt time.Time
}

// Deleted reports whether the memory has been tombstoned.
func (m *Memory) Deleted() bool {
	return !m.DeletedAt.IsZero()
}

// ConversationTurn is a single message in a thread's history.
type ConversationTurn struct {
	// ThreadID is the conversation thread.
	ThreadID string

	// Role is "user" or "assistant".
	Role string

	// Content is the message text.
	Content string

	// CreatedAt is when the turn happened.
	CreatedAt time.Time
}

// ConversationSummary is a rolling summary of a thread, refreshed by the
// background audit job at a frequency proportional to importance.
type ConversationSummary struct {
	// ThreadID is the summarised thread.
	ThreadID string

	// SummaryText is the bounded-length summary. More important
	// threads are allowed longer summaries.
	SummaryText string

	// ImportanceScore estimates how much the thread matters, in [0,1].
	ImportanceScore float64

	// GeneratedAt is when the summary was produced.
	GeneratedAt time.Time

	// NextDueAt is when the summary should be refreshed. Derived from
	// importance: higher importance means a shorter interval.
	NextDueAt time.Time
}

// Stale reports whether the summary is past its refresh due time.
func (s *ConversationSummary) Stale(now time.Time) bool {
	return now.After(s.NextDueAt)
}

// ThreadStats are the per-thread counters the audit job triggers on.
type ThreadStats struct {
	// ThreadID is the thread.
	ThreadID string

	// MessageCount is the number of turns recorded.
	MessageCount int

	// TokenCount is the estimated token total of all turns.
	TokenCount int

	// MemoryCount is the number of live memories from this thread.
	MemoryCount int

	// HighTierMemoryCount is the number of live tier1/tier2 memories.
	HighTierMemoryCount int

	// LastActivityAt is the newest turn's timestamp.
	LastActivityAt time.Time
}

// ContextBlockKind tags a context block's provenance.
type ContextBlockKind string

// Available block kinds.
const (
	// BlockConversation is a raw recent turn.
	BlockConversation ContextBlockKind = "conversation"

	// BlockMemory is a persisted or retrieved candidate.
	BlockMemory ContextBlockKind = "memory"

	// BlockWeb is a live web result.
	BlockWeb ContextBlockKind = "web"

	// BlockSummary is a rolling conversation summary.
	BlockSummary ContextBlockKind = "summary"
)

// ContextBlock is one provenance-tagged piece of assembled context.
type ContextBlock struct {
	// Kind is the provenance tag.
	Kind ContextBlockKind

	// Text is the block content.
	Text string

	// Tokens is the conservative token estimate for the block.
	Tokens int
}

// AssembledContext is the final token-budgeted payload handed to the
// caller, ordered for model consumption.
type AssembledContext struct {
	// Blocks are the context blocks in priority order.
	Blocks []ContextBlock

	// TotalTokens is the summed conservative estimate. Always at or
	// under the configured budget.
	TotalTokens int

	// Result is the retrieval result the context was assembled from.
	Result HybridResult
}

// Render joins the blocks into a single tagged string, one block per
// paragraph, for callers that want flat text.
func (a *AssembledContext) Render() string {
	var b strings.Builder
	for i, block := range a.Blocks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("[" + string(block.Kind) + "] " + block.Text)
	}
	return b.String()
}
