package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
)

func TestScoreNeverExceedsOne(t *testing.T) {
	s := NewRelevanceScorer(domain.DefaultBoosts())
	now := time.Now()

	// Every boost fires at once: exact phrase at position zero, tier1,
	// high priority memory, seen within the last day.
	candidates := []domain.Candidate{{
		Source:    domain.SourceMemory,
		Text:      "favorite color is teal",
		RawScore:  0.95,
		Tier:      domain.Tier1,
		Priority:  1.0,
		Timestamp: now.Add(-time.Hour),
	}}

	scored := s.Score(candidates, "favorite color", domain.StrategyWeighted, now)

	require.Len(t, scored, 1)
	assert.Equal(t, 1.0, scored[0].EnhancedScore)
}

func TestScoreExactPhraseOutranksPartialOverlap(t *testing.T) {
	s := NewRelevanceScorer(domain.DefaultBoosts())
	now := time.Now()

	candidates := []domain.Candidate{
		{Source: domain.SourceVector, Text: "a note that mentions color once", RawScore: 0.5, Tier: domain.Tier3},
		{Source: domain.SourceVector, Text: "favorite color preferences logged", RawScore: 0.5, Tier: domain.Tier3},
	}

	scored := s.Score(candidates, "favorite color", domain.StrategyWeighted, now)

	require.Len(t, scored, 2)
	assert.Equal(t, "favorite color preferences logged", scored[0].Text)
	assert.Greater(t, scored[0].EnhancedScore, scored[1].EnhancedScore)
}

func TestScoreEarlyMatchOutranksLateMatch(t *testing.T) {
	s := NewRelevanceScorer(domain.DefaultBoosts())
	now := time.Now()

	early := "deadline moved to Friday, confirmed by the whole team in standup today"
	late := "the whole team met in standup today and after a long discussion confirmed that we move the deadline"

	// Raw scores low enough that the cap never flattens the ordering.
	candidates := []domain.Candidate{
		{Source: domain.SourceVector, Text: late, RawScore: 0.3, Tier: domain.Tier3},
		{Source: domain.SourceVector, Text: early, RawScore: 0.3, Tier: domain.Tier3},
	}

	scored := s.Score(candidates, "deadline", domain.StrategyWeighted, now)

	require.Len(t, scored, 2)
	assert.Equal(t, early, scored[0].Text)
}

func TestScoreTiebreakPrefersMemoryThenWebThenVector(t *testing.T) {
	s := NewRelevanceScorer(domain.DefaultBoosts())
	now := time.Now()

	// Identical text and raw score, no boosts distinguish them.
	candidates := []domain.Candidate{
		{Source: domain.SourceVector, Text: "same text", RawScore: 0.5, Tier: domain.Tier3},
		{Source: domain.SourceWeb, Text: "same text", RawScore: 0.5, Tier: domain.Tier3},
		{Source: domain.SourceMemory, Text: "same text", RawScore: 0.5, Tier: domain.Tier3},
	}

	scored := s.Score(candidates, "unrelated query terms", domain.StrategyWeighted, now)

	require.Len(t, scored, 3)
	assert.Equal(t, domain.SourceMemory, scored[0].Source)
	assert.Equal(t, domain.SourceWeb, scored[1].Source)
	assert.Equal(t, domain.SourceVector, scored[2].Source)
}

func TestScoreTierBoostOrdersAuthorities(t *testing.T) {
	s := NewRelevanceScorer(domain.DefaultBoosts())
	now := time.Now()

	candidates := []domain.Candidate{
		{Source: domain.SourceWeb, Text: "result", RawScore: 0.5, Tier: domain.Tier3},
		{Source: domain.SourceWeb, Text: "result", RawScore: 0.5, Tier: domain.Tier1},
		{Source: domain.SourceWeb, Text: "result", RawScore: 0.5, Tier: domain.Tier2},
	}

	scored := s.Score(candidates, "unrelated", domain.StrategyWeighted, now)

	require.Len(t, scored, 3)
	assert.Equal(t, domain.Tier1, scored[0].Tier)
	assert.Equal(t, domain.Tier2, scored[1].Tier)
	assert.Equal(t, domain.Tier3, scored[2].Tier)
}

func TestScorePriorityBoostMemoryOnly(t *testing.T) {
	s := NewRelevanceScorer(domain.DefaultBoosts())
	now := time.Now()

	candidates := []domain.Candidate{
		{Source: domain.SourceWeb, Text: "result", RawScore: 0.5, Tier: domain.Tier3, Priority: 1.0},
		{Source: domain.SourceMemory, Text: "result", RawScore: 0.5, Tier: domain.Tier3, Priority: 1.0},
	}

	scored := s.Score(candidates, "unrelated", domain.StrategyWeighted, now)

	require.Len(t, scored, 2)
	// The web candidate's priority field is ignored.
	assert.Equal(t, domain.SourceMemory, scored[0].Source)
	assert.Greater(t, scored[0].EnhancedScore, scored[1].EnhancedScore)
}

func TestScoreRecencyBoost(t *testing.T) {
	s := NewRelevanceScorer(domain.DefaultBoosts())
	now := time.Now()

	candidates := []domain.Candidate{
		{Source: domain.SourceWeb, Text: "result", RawScore: 0.5, Tier: domain.Tier3, Timestamp: now.Add(-30 * 24 * time.Hour)},
		{Source: domain.SourceWeb, Text: "result", RawScore: 0.5, Tier: domain.Tier3, Timestamp: now.Add(-2 * time.Hour)},
		{Source: domain.SourceWeb, Text: "result", RawScore: 0.5, Tier: domain.Tier3, Timestamp: now.Add(-3 * 24 * time.Hour)},
	}

	scored := s.Score(candidates, "unrelated", domain.StrategyWeighted, now)

	require.Len(t, scored, 3)
	assert.Equal(t, now.Add(-2*time.Hour), scored[0].Timestamp)
	assert.Equal(t, now.Add(-3*24*time.Hour), scored[1].Timestamp)
	assert.Equal(t, now.Add(-30*24*time.Hour), scored[2].Timestamp)
}

func TestScoreRecencyWeightedStrategyAmplifiesFreshness(t *testing.T) {
	s := NewRelevanceScorer(domain.DefaultBoosts())
	now := time.Now()

	fresh := domain.Candidate{Source: domain.SourceWeb, Text: "result", RawScore: 0.5, Tier: domain.Tier3, Timestamp: now.Add(-2 * time.Hour)}
	stale := domain.Candidate{Source: domain.SourceWeb, Text: "result", RawScore: 0.5, Tier: domain.Tier3, Timestamp: now.Add(-30 * 24 * time.Hour)}
	candidates := []domain.Candidate{stale, fresh}

	weighted := s.Score(candidates, "unrelated", domain.StrategyWeighted, now)
	recency := s.Score(candidates, "unrelated", domain.StrategyRecencyWeighted, now)

	require.Len(t, weighted, 2)
	require.Len(t, recency, 2)

	// The fresh candidate wins under both, but recency weighting
	// widens its lead; the stale candidate is unaffected.
	assert.Equal(t, fresh.Timestamp, recency[0].Timestamp)
	assert.Greater(t, recency[0].EnhancedScore, weighted[0].EnhancedScore)
	assert.Equal(t, weighted[1].EnhancedScore, recency[1].EnhancedScore)
	assert.Greater(t,
		recency[0].EnhancedScore-recency[1].EnhancedScore,
		weighted[0].EnhancedScore-weighted[1].EnhancedScore)
}

func TestScoreDeterministic(t *testing.T) {
	s := NewRelevanceScorer(domain.DefaultBoosts())
	now := time.Now()

	candidates := []domain.Candidate{
		{Source: domain.SourceMemory, Text: "favorite color is teal", RawScore: 0.7, Tier: domain.Tier2, Priority: 0.8},
		{Source: domain.SourceWeb, Text: "colors of the season", RawScore: 0.6, Tier: domain.Tier3},
	}

	first := s.Score(candidates, "favorite color", domain.StrategyWeighted, now)
	second := s.Score(candidates, "favorite color", domain.StrategyWeighted, now)

	assert.Equal(t, first, second)
}
