package domain

import "time"

// SourceType identifies a retrieval source.
type SourceType string

// Available retrieval sources.
const (
	// SourceMemory is persisted conversational memory.
	SourceMemory SourceType = "memory"

	// SourceVector is the vector-indexed knowledge corpus.
	SourceVector SourceType = "vector"

	// SourceWeb is live web search.
	SourceWeb SourceType = "web"
)

// IsValid returns true if the source type is recognised.
func (s SourceType) IsValid() bool {
	switch s {
	case SourceMemory, SourceVector, SourceWeb:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s SourceType) String() string {
	return string(s)
}

// TiebreakRank orders sources for stable sorting when scores tie.
// Lower rank wins: memory beats web beats vector.
func (s SourceType) TiebreakRank() int {
	switch s {
	case SourceMemory:
		return 0
	case SourceWeb:
		return 1
	case SourceVector:
		return 2
	default:
		return 3
	}
}

// MergeStrategy defines how results from multiple sources are combined.
type MergeStrategy string

// Available merge strategies.
const (
	// StrategyWeighted ranks purely by enhanced relevance score.
	StrategyWeighted MergeStrategy = "weighted"

	// StrategyRecencyWeighted favours fresher candidates.
	StrategyRecencyWeighted MergeStrategy = "recency_weighted"

	// StrategyComprehensive keeps broad coverage across all sources.
	StrategyComprehensive MergeStrategy = "comprehensive"

	// StrategyAgenticSynthesis retrieves from every source for
	// multi-step reasoning downstream.
	StrategyAgenticSynthesis MergeStrategy = "agentic_synthesis"
)

// IsValid returns true if the merge strategy is recognised.
func (m MergeStrategy) IsValid() bool {
	switch m {
	case StrategyWeighted, StrategyRecencyWeighted, StrategyComprehensive, StrategyAgenticSynthesis:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m MergeStrategy) String() string {
	return string(m)
}

// RetrievalPlan tells the orchestrator which sources to race and how to
// merge whatever comes back. Produced per query by the strategy planner
// and consumed immediately.
type RetrievalPlan struct {
	// Sources are the retrieval sources to execute.
	Sources []SourceType

	// Strategy is the merge strategy for combined results.
	Strategy MergeStrategy

	// PerSourceDeadline bounds each individual source executor.
	PerSourceDeadline time.Duration

	// OverallDeadline caps total retrieval latency regardless of
	// how many sources were selected.
	OverallDeadline time.Duration

	// MemoryBoosted marks plans where memory results carry extra
	// weight (corrections and explicit memory queries).
	MemoryBoosted bool

	// Freshness is the web recency window for this plan.
	Freshness FreshnessWindow
}

// Includes reports whether the plan selects the given source.
func (p *RetrievalPlan) Includes(source SourceType) bool {
	for _, s := range p.Sources {
		if s == source {
			return true
		}
	}
	return false
}
