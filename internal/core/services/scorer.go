package services

import (
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
	"github.com/custodia-labs/rememba-cli/internal/lexicon"
)

// RelevanceScorer computes composite relevance scores. It is pure and
// deterministic: identical inputs always yield identical scores.
type RelevanceScorer struct {
	boosts domain.BoostSettings
}

// NewRelevanceScorer creates a scorer with the given boost table.
func NewRelevanceScorer(boosts domain.BoostSettings) *RelevanceScorer {
	return &RelevanceScorer{boosts: boosts}
}

// Score computes enhanced scores for all candidates and returns them
// fully sorted: enhanced score descending, ties broken by source
// priority (memory > web > vector), then by recency. The merge strategy
// tunes the blend: recency_weighted amplifies the freshness multiplier.
func (s *RelevanceScorer) Score(candidates []domain.Candidate, query string, strategy domain.MergeStrategy, now time.Time) []domain.ScoredCandidate {
	scored := make([]domain.ScoredCandidate, len(candidates))
	for i, c := range candidates {
		scored[i] = domain.ScoredCandidate{
			Candidate:     c,
			EnhancedScore: s.enhance(c, query, strategy, now),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].EnhancedScore != scored[j].EnhancedScore {
			return scored[i].EnhancedScore > scored[j].EnhancedScore
		}
		ri, rj := scored[i].Source.TiebreakRank(), scored[j].Source.TiebreakRank()
		if ri != rj {
			return ri < rj
		}
		return scored[i].Timestamp.After(scored[j].Timestamp)
	})

	return scored
}

// enhance computes rawScore x phrase x position x tier x priority x
// recency, capped at 1.0.
func (s *RelevanceScorer) enhance(c domain.Candidate, query string, strategy domain.MergeStrategy, now time.Time) float64 {
	recency := s.recencyBoost(c.Timestamp, now)
	if strategy == domain.StrategyRecencyWeighted {
		// Freshness counts twice when the plan asks for recent
		// material, so newer candidates pull further ahead.
		recency *= recency
	}

	score := c.RawScore *
		s.phraseBoost(c.Text, query) *
		s.positionBoost(c.Text, query) *
		s.tierBoost(c.Tier) *
		s.priorityBoost(c) *
		recency

	if score > 1.0 {
		return 1.0
	}
	return score
}

// phraseBoost rewards exact phrase containment, then word overlap.
func (s *RelevanceScorer) phraseBoost(text, query string) float64 {
	textLower := strings.ToLower(text)
	queryLower := strings.ToLower(strings.TrimSpace(query))

	if queryLower != "" && strings.Contains(textLower, queryLower) {
		return s.boosts.PhraseExact
	}

	queryWords := lexicon.Tokenize(queryLower)
	if len(queryWords) == 0 {
		return 1.0
	}

	matched := 0
	for _, w := range queryWords {
		if strings.Contains(textLower, w) {
			matched++
		}
	}
	overlap := float64(matched) / float64(len(queryWords))

	switch {
	case overlap >= 0.8:
		return s.boosts.PhraseStrong
	case overlap >= 0.5:
		return s.boosts.PhrasePartial
	default:
		return 1.0
	}
}

// positionBoost rewards matches early in the text - salient information
// tends to appear first.
func (s *RelevanceScorer) positionBoost(text, query string) float64 {
	textLower := strings.ToLower(text)
	if len(textLower) == 0 {
		return 1.0
	}

	pos := s.earliestMatch(textLower, query)
	if pos < 0 {
		return 1.0
	}

	relative := float64(pos) / float64(len(textLower))
	switch {
	case relative < 0.2:
		return s.boosts.PositionEarly
	case relative < 0.5:
		return s.boosts.PositionMid
	default:
		return 1.0
	}
}

// earliestMatch returns the first offset where any query term matches,
// or -1 when nothing matches.
func (s *RelevanceScorer) earliestMatch(textLower, query string) int {
	queryLower := strings.ToLower(strings.TrimSpace(query))
	if queryLower != "" {
		if pos := strings.Index(textLower, queryLower); pos >= 0 {
			return pos
		}
	}

	best := -1
	for _, w := range lexicon.Tokenize(queryLower) {
		if lexicon.IsStopWord(w, lexicon.ModeQuestion) {
			continue
		}
		if pos := strings.Index(textLower, w); pos >= 0 && (best < 0 || pos < best) {
			best = pos
		}
	}
	return best
}

func (s *RelevanceScorer) tierBoost(tier domain.Tier) float64 {
	switch tier {
	case domain.Tier1:
		return s.boosts.Tier1
	case domain.Tier2:
		return s.boosts.Tier2
	default:
		return 1.0
	}
}

// priorityBoost applies to memory candidates only.
func (s *RelevanceScorer) priorityBoost(c domain.Candidate) float64 {
	if c.Source != domain.SourceMemory {
		return 1.0
	}
	switch {
	case c.Priority >= 0.9:
		return s.boosts.PriorityHigh
	case c.Priority >= 0.8:
		return s.boosts.PriorityMedium
	case c.Priority >= 0.7:
		return s.boosts.PriorityLow
	default:
		return 1.0
	}
}

func (s *RelevanceScorer) recencyBoost(ts time.Time, now time.Time) float64 {
	if ts.IsZero() {
		return 1.0
	}
	age := now.Sub(ts)
	switch {
	case age <= 24*time.Hour:
		return s.boosts.RecencyDay
	case age <= 7*24*time.Hour:
		return s.boosts.RecencyWeek
	default:
		return 1.0
	}
}
