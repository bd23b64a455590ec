package domain

import (
	"fmt"
	"time"
)

// Settings is the full configuration surface of the retrieval engine.
// It is constructed once at startup, validated, and passed by injection
// into every component - nothing reads ambient global state.
type Settings struct {
	// PerSourceDeadline bounds each individual source executor.
	PerSourceDeadline time.Duration

	// OverallDeadline caps total retrieval latency per query.
	OverallDeadline time.Duration

	// MaxCandidates truncates the merged result set.
	MaxCandidates int

	// TokenBudget is the hard ceiling for assembled context.
	TokenBudget int

	// RecentTurns is how many raw turns the assembler considers.
	RecentTurns int

	// MinRecentTurns is the floor of raw turns that are never trimmed.
	MinRecentTurns int

	// MaxSummaries bounds how many rolling summaries are considered.
	MaxSummaries int

	// TopK is the nearest-neighbour count for vector retrieval.
	TopK int

	// SimilarityThreshold drops vector hits below this similarity.
	SimilarityThreshold float64

	// MemoryPrefilterThreshold drops memory hits below this relevance
	// before they leave the memory executor.
	MemoryPrefilterThreshold float64

	// DefaultFreshness is the web recency window when the query gives
	// no recency signal.
	DefaultFreshness FreshnessWindow

	// PositiveCacheTTL is the lifetime of cached candidate lists.
	PositiveCacheTTL time.Duration

	// NegativeCacheTTL is the lifetime of cached empty results.
	NegativeCacheTTL time.Duration

	// Audit configures the background summarisation job.
	Audit AuditSettings

	// Boosts are the relevance scorer multipliers.
	Boosts BoostSettings
}

// AuditSettings configures when the background audit job fires and how
// summary refresh cadence scales with importance.
type AuditSettings struct {
	// MessageThreshold triggers an audit after this many new turns.
	MessageThreshold int

	// TokenThreshold triggers an audit after this many new tokens.
	TokenThreshold int

	// ElapsedThreshold triggers an audit after this much wall time.
	ElapsedThreshold time.Duration

	// Debounce is the floor between consecutive runs for one thread.
	Debounce time.Duration

	// MinRefreshInterval is the refresh cadence at importance 1.0.
	MinRefreshInterval time.Duration

	// MaxRefreshInterval is the refresh cadence at importance 0.0.
	MaxRefreshInterval time.Duration

	// BaseSummaryLength is the summary length budget, in tokens, at
	// importance 0.0. Important threads are allowed up to double.
	BaseSummaryLength int
}

// BoostSettings are the relevance scorer multipliers. The numeric values
// are tunable; the scorer relies only on their relative ordering, with
// phrase matches boosting the most and recency the least.
type BoostSettings struct {
	// PhraseExact applies on exact phrase containment.
	PhraseExact float64
	// PhraseStrong applies at >=80% query word overlap.
	PhraseStrong float64
	// PhrasePartial applies at >=50% query word overlap.
	PhrasePartial float64

	// PositionEarly applies when the match falls in the first 20% of
	// the text.
	PositionEarly float64
	// PositionMid applies in the next 30%.
	PositionMid float64

	// Tier1 and Tier2 apply per authority tier; tier3 is neutral.
	Tier1 float64
	Tier2 float64

	// PriorityHigh applies at memory priority >=0.9, PriorityMedium at
	// >=0.8, PriorityLow at >=0.7.
	PriorityHigh   float64
	PriorityMedium float64
	PriorityLow    float64

	// RecencyDay applies within 24h, RecencyWeek within 7 days.
	RecencyDay  float64
	RecencyWeek float64
}

// DefaultSettings returns the engine defaults.
func DefaultSettings() Settings {
	return Settings{
		PerSourceDeadline:        300 * time.Millisecond,
		OverallDeadline:          800 * time.Millisecond,
		MaxCandidates:            12,
		TokenBudget:              4000,
		RecentTurns:              10,
		MinRecentTurns:           4,
		MaxSummaries:             3,
		TopK:                     8,
		SimilarityThreshold:      0.65,
		MemoryPrefilterThreshold: 0.3,
		DefaultFreshness:         FreshnessWeek,
		PositiveCacheTTL:         5 * time.Minute,
		NegativeCacheTTL:         1 * time.Minute,
		Audit: AuditSettings{
			MessageThreshold:   10,
			TokenThreshold:     2000,
			ElapsedThreshold:   30 * time.Minute,
			Debounce:           2 * time.Minute,
			MinRefreshInterval: 15 * time.Minute,
			MaxRefreshInterval: 1 * time.Hour,
			BaseSummaryLength:  150,
		},
		Boosts: DefaultBoosts(),
	}
}

// DefaultBoosts returns the default scorer multipliers.
func DefaultBoosts() BoostSettings {
	return BoostSettings{
		PhraseExact:    2.0,
		PhraseStrong:   1.5,
		PhrasePartial:  1.2,
		PositionEarly:  1.5,
		PositionMid:    1.2,
		Tier1:          1.2,
		Tier2:          1.1,
		PriorityHigh:   1.2,
		PriorityMedium: 1.1,
		PriorityLow:    1.05,
		RecencyDay:     1.1,
		RecencyWeek:    1.05,
	}
}

// Validate checks the settings for consistency. Called once at startup;
// components may assume a validated Settings afterwards.
func (s *Settings) Validate() error {
	if s.PerSourceDeadline <= 0 {
		return fmt.Errorf("%w: per-source deadline must be positive", ErrInvalidSettings)
	}
	if s.OverallDeadline < s.PerSourceDeadline {
		return fmt.Errorf("%w: overall deadline %v is shorter than per-source deadline %v",
			ErrInvalidSettings, s.OverallDeadline, s.PerSourceDeadline)
	}
	if s.MaxCandidates <= 0 {
		return fmt.Errorf("%w: max candidates must be positive", ErrInvalidSettings)
	}
	if s.TokenBudget <= 0 {
		return fmt.Errorf("%w: token budget must be positive", ErrInvalidSettings)
	}
	if s.MinRecentTurns < 0 || s.MinRecentTurns > s.RecentTurns {
		return fmt.Errorf("%w: min recent turns %d must be within [0, %d]",
			ErrInvalidSettings, s.MinRecentTurns, s.RecentTurns)
	}
	if s.TopK <= 0 {
		return fmt.Errorf("%w: top-k must be positive", ErrInvalidSettings)
	}
	if s.SimilarityThreshold < 0 || s.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity threshold must be in [0,1]", ErrInvalidSettings)
	}
	if s.MemoryPrefilterThreshold < 0 || s.MemoryPrefilterThreshold > 1 {
		return fmt.Errorf("%w: memory prefilter threshold must be in [0,1]", ErrInvalidSettings)
	}
	if s.PositiveCacheTTL <= 0 || s.NegativeCacheTTL <= 0 {
		return fmt.Errorf("%w: cache TTLs must be positive", ErrInvalidSettings)
	}
	if err := s.Audit.validate(); err != nil {
		return err
	}
	return s.Boosts.validate()
}

func (a *AuditSettings) validate() error {
	if a.MessageThreshold <= 0 && a.TokenThreshold <= 0 && a.ElapsedThreshold <= 0 {
		return fmt.Errorf("%w: at least one audit trigger threshold is required", ErrInvalidSettings)
	}
	if a.MinRefreshInterval <= 0 || a.MaxRefreshInterval < a.MinRefreshInterval {
		return fmt.Errorf("%w: audit refresh intervals must satisfy 0 < min <= max", ErrInvalidSettings)
	}
	if a.Debounce < 0 {
		return fmt.Errorf("%w: audit debounce must not be negative", ErrInvalidSettings)
	}
	if a.BaseSummaryLength <= 0 {
		return fmt.Errorf("%w: base summary length must be positive", ErrInvalidSettings)
	}
	return nil
}

func (b *BoostSettings) validate() error {
	for name, v := range map[string]float64{
		"phrase_exact":    b.PhraseExact,
		"phrase_strong":   b.PhraseStrong,
		"phrase_partial":  b.PhrasePartial,
		"position_early":  b.PositionEarly,
		"position_mid":    b.PositionMid,
		"tier1":           b.Tier1,
		"tier2":           b.Tier2,
		"priority_high":   b.PriorityHigh,
		"priority_medium": b.PriorityMedium,
		"priority_low":    b.PriorityLow,
		"recency_day":     b.RecencyDay,
		"recency_week":    b.RecencyWeek,
	} {
		if v < 1.0 {
			return fmt.Errorf("%w: boost %s must be >= 1.0", ErrInvalidSettings, name)
		}
	}
	// Relative ordering: phrase boosts the most, recency the least.
	if b.PhraseExact < b.PositionEarly || b.PositionEarly < b.RecencyDay {
		return fmt.Errorf("%w: boost ordering must keep phrase >= position >= recency", ErrInvalidSettings)
	}
	return nil
}
