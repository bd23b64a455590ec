package services

import (
	"github.com/custodia-labs/rememba-cli/internal/core/domain"
	"github.com/custodia-labs/rememba-cli/internal/logger"
)

// StrategyPlanner maps a query classification to a retrieval plan.
// It is a pure mapping: it never blocks and never calls external systems.
type StrategyPlanner struct {
	settings domain.Settings
}

// NewStrategyPlanner creates a planner with the given settings.
func NewStrategyPlanner(settings domain.Settings) *StrategyPlanner {
	return &StrategyPlanner{settings: settings}
}

// Plan produces the retrieval plan for a classified query.
func (p *StrategyPlanner) Plan(c domain.QueryClassification) domain.RetrievalPlan {
	plan := domain.RetrievalPlan{
		PerSourceDeadline: p.settings.PerSourceDeadline,
		OverallDeadline:   p.settings.OverallDeadline,
		Freshness:         c.Freshness,
	}
	if plan.Freshness == "" {
		plan.Freshness = p.settings.DefaultFreshness
	}

	switch {
	case c.Intent == domain.IntentCorrection:
		plan.Sources = []domain.SourceType{domain.SourceMemory}
		plan.Strategy = domain.StrategyWeighted
		plan.MemoryBoosted = true

	case c.Intent == domain.IntentMemorySave, c.Intent == domain.IntentMemoryList:
		plan.Sources = []domain.SourceType{domain.SourceMemory}
		plan.Strategy = domain.StrategyWeighted

	case c.Intent == domain.IntentComplexReasoning:
		plan.Sources = []domain.SourceType{domain.SourceMemory, domain.SourceVector, domain.SourceWeb}
		plan.Strategy = domain.StrategyAgenticSynthesis

	case c.Comparative:
		plan.Sources = []domain.SourceType{domain.SourceMemory, domain.SourceVector, domain.SourceWeb}
		plan.Strategy = domain.StrategyComprehensive

	case c.Intent == domain.IntentWebSearch:
		plan.Sources = []domain.SourceType{domain.SourceVector, domain.SourceWeb}
		plan.Strategy = domain.StrategyRecencyWeighted

	case c.Intent == domain.IntentConversational:
		plan.Sources = []domain.SourceType{domain.SourceMemory, domain.SourceVector}
		plan.Strategy = domain.StrategyWeighted

	default: // factual
		plan.Sources = []domain.SourceType{domain.SourceVector, domain.SourceWeb}
		plan.Strategy = domain.StrategyWeighted
		// Personal questions also consult memory.
		if mentionsUser(c.Keywords) {
			plan.Sources = append([]domain.SourceType{domain.SourceMemory}, plan.Sources...)
		}
	}

	logger.Debug("Plan: sources=%v strategy=%s freshness=%s", plan.Sources, plan.Strategy, plan.Freshness)
	return plan
}

// mentionsUser reports whether the keywords suggest a personal query.
// Possessives survive question-mode filtering as content terms ("my"
// does not, but "favorite"/"name"/"birthday" style personal nouns do).
func mentionsUser(keywords []string) bool {
	personal := map[string]bool{
		"favorite": true, "favourite": true, "name": true, "birthday": true,
		"address": true, "preference": true, "allergy": true, "allergi": true,
	}
	for _, k := range keywords {
		if personal[k] {
			return true
		}
	}
	return false
}
