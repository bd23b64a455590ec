package domain

import "time"

// Query is a single retrieval request as submitted by the caller.
// It is immutable once constructed.
type Query struct {
	// Text is the raw query text.
	Text string

	// ThreadID identifies the conversation thread.
	ThreadID string

	// UserID identifies the requesting user.
	UserID string

	// SubmittedAt is when the query was received.
	SubmittedAt time.Time
}

// QueryIntent classifies what the user is asking for.
type QueryIntent string

// Recognised query intents.
const (
	// IntentFactual is a question answerable from knowledge or memory.
	IntentFactual QueryIntent = "factual"

	// IntentCorrection is the user correcting a previous response.
	IntentCorrection QueryIntent = "correction"

	// IntentMemorySave is an explicit request to remember something.
	IntentMemorySave QueryIntent = "memory_save"

	// IntentMemoryList asks what the assistant remembers.
	IntentMemoryList QueryIntent = "memory_list"

	// IntentWebSearch explicitly or implicitly requires live web results.
	IntentWebSearch QueryIntent = "web_search"

	// IntentConversational is small talk with no retrieval need.
	IntentConversational QueryIntent = "conversational"

	// IntentComplexReasoning requires synthesis across sources.
	IntentComplexReasoning QueryIntent = "complex_reasoning"
)

// IsValid returns true if the intent is recognised.
func (i QueryIntent) IsValid() bool {
	switch i {
	case IntentFactual, IntentCorrection, IntentMemorySave, IntentMemoryList,
		IntentWebSearch, IntentConversational, IntentComplexReasoning:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (i QueryIntent) String() string {
	return string(i)
}

// Complexity grades how much work a query needs.
type Complexity string

// Available complexity tiers.
const (
	// ComplexitySimple is a short, single-clause query.
	ComplexitySimple Complexity = "simple"

	// ComplexityModerate has several content terms or clauses.
	ComplexityModerate Complexity = "moderate"

	// ComplexityComplex is long, comparative or multi-part.
	ComplexityComplex Complexity = "complex"
)

// IsValid returns true if the complexity tier is recognised.
func (c Complexity) IsValid() bool {
	switch c {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex:
		return true
	default:
		return false
	}
}

// QueryClassification is the analyzer's verdict on a query.
// It is scoped to a single request and never persisted.
type QueryClassification struct {
	// Intent is the classified intent.
	Intent QueryIntent

	// Complexity is the graded complexity tier.
	Complexity Complexity

	// Keywords are stemmed, stop-word-filtered content terms in query order.
	Keywords []string

	// Comparative is set when the query compares alternatives.
	Comparative bool

	// Freshness is the web recency window this query calls for.
	// Zero value means the configured default applies.
	Freshness FreshnessWindow
}

// FreshnessWindow is the recency constraint for a web search.
type FreshnessWindow string

// Available freshness windows, tightest first.
const (
	// FreshnessDay restricts results to the past day.
	FreshnessDay FreshnessWindow = "day"

	// FreshnessWeek restricts results to the past week.
	FreshnessWeek FreshnessWindow = "week"

	// FreshnessMonth restricts results to the past month.
	FreshnessMonth FreshnessWindow = "month"

	// FreshnessAny applies no recency constraint.
	FreshnessAny FreshnessWindow = "any"
)

// Duration returns the window length. FreshnessAny returns zero.
func (f FreshnessWindow) Duration() time.Duration {
	switch f {
	case FreshnessDay:
		return 24 * time.Hour
	case FreshnessWeek:
		return 7 * 24 * time.Hour
	case FreshnessMonth:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

// Widen returns the next larger window, used as the fallback when a
// freshness filter would otherwise produce zero results.
func (f FreshnessWindow) Widen() FreshnessWindow {
	switch f {
	case FreshnessDay:
		return FreshnessWeek
	case FreshnessWeek:
		return FreshnessMonth
	default:
		return FreshnessAny
	}
}
