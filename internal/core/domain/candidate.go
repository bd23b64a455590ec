package domain

import "time"

// Tier is an authority/importance classification. Tier1 is the most
// authoritative. Memories carry a persisted tier, web hosts derive one
// from the domain-authority table, vector hits default to tier3.
type Tier string

// Available tiers.
const (
	// Tier1 is the most authoritative or important.
	Tier1 Tier = "tier1"

	// Tier2 is moderately authoritative.
	Tier2 Tier = "tier2"

	// Tier3 is the default, unverified tier.
	Tier3 Tier = "tier3"
)

// IsValid returns true if the tier is recognised.
func (t Tier) IsValid() bool {
	switch t {
	case Tier1, Tier2, Tier3:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t Tier) String() string {
	return string(t)
}

// Candidate is a single retrieved item before scoring, tagged with the
// source it came from.
type Candidate struct {
	// Source is where the candidate was retrieved from.
	Source SourceType

	// Text is the retrieved content.
	Text string

	// RawScore is the source-native similarity or relevance in [0,1].
	RawScore float64

	// Tier is the authority classification. Always set.
	Tier Tier

	// Priority is a 0-1 importance weight, meaningful for memory
	// candidates only.
	Priority float64

	// Timestamp is when the underlying item was created or published.
	// Zero when the source provides none.
	Timestamp time.Time

	// OriginHost is the host a web candidate came from. Empty for
	// other sources.
	OriginHost string

	// Correction marks a candidate that captures a user correction.
	// Correction candidates are never dropped by the assembler.
	Correction bool
}

// ScoredCandidate is a candidate with its composite relevance score.
type ScoredCandidate struct {
	Candidate

	// EnhancedScore is the boosted composite score, capped at 1.0.
	EnhancedScore float64
}

// HybridResult is the orchestrator's unified answer for one query.
type HybridResult struct {
	// Candidates are fully sorted scored candidates, best first.
	Candidates []ScoredCandidate

	// LayerBreakdown counts candidates per source.
	LayerBreakdown map[SourceType]int

	// Confidence estimates how trustworthy the result set is, in [0,1].
	// Zero candidates always means zero confidence.
	Confidence float64

	// ElapsedMs is wall-clock retrieval time in milliseconds.
	ElapsedMs int64
}
