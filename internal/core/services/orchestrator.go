package services

import (
	"context"
	"time"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
	"github.com/custodia-labs/rememba-cli/internal/logger"
)

// Orchestrator races the selected source executors against the overall
// deadline and merges whatever returns in time into one ranked result.
// Tasks still outstanding at the deadline are abandoned and contribute
// nothing; the join never blocks on a hung source.
type Orchestrator struct {
	executors map[domain.SourceType]SourceExecutor
	scorer    *RelevanceScorer
	settings  domain.Settings
}

// NewOrchestrator creates an orchestrator over the given executors.
func NewOrchestrator(executors []SourceExecutor, scorer *RelevanceScorer, settings domain.Settings) *Orchestrator {
	byType := make(map[domain.SourceType]SourceExecutor, len(executors))
	for _, ex := range executors {
		byType[ex.Source()] = ex
	}
	return &Orchestrator{
		executors: byType,
		scorer:    scorer,
		settings:  settings,
	}
}

// sourceResult is one executor's contribution to the join.
type sourceResult struct {
	source     domain.SourceType
	candidates []domain.Candidate
}

// Execute runs the plan and returns the unified result. It always
// returns within roughly the overall deadline; partial and even empty
// results are normal outcomes, not errors.
func (o *Orchestrator) Execute(ctx context.Context, query domain.Query, c domain.QueryClassification, plan domain.RetrievalPlan) domain.HybridResult {
	logger.Section("Retrieval Execution")
	started := time.Now()

	selected := make([]SourceExecutor, 0, len(plan.Sources))
	for _, source := range plan.Sources {
		if ex, ok := o.executors[source]; ok {
			selected = append(selected, ex)
		} else {
			logger.Debug("No executor registered for source %s", source)
		}
	}

	// Buffered so abandoned tasks can still send and terminate.
	results := make(chan sourceResult, len(selected))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, ex := range selected {
		go func(ex SourceExecutor) {
			results <- sourceResult{
				source:     ex.Source(),
				candidates: ex.Retrieve(runCtx, query, c, plan),
			}
		}(ex)
	}

	breakdown := make(map[domain.SourceType]int, len(selected))
	for _, ex := range selected {
		breakdown[ex.Source()] = 0
	}

	var all []domain.Candidate
	deadline := time.NewTimer(plan.OverallDeadline)
	defer deadline.Stop()

	received := 0
collect:
	for received < len(selected) {
		select {
		case res := <-results:
			received++
			breakdown[res.source] = len(res.candidates)
			all = append(all, res.candidates...)
		case <-deadline.C:
			logger.Warn("Overall deadline %v hit with %d/%d sources reporting",
				plan.OverallDeadline, received, len(selected))
			break collect
		case <-ctx.Done():
			logger.Warn("Retrieval cancelled: %v", ctx.Err())
			break collect
		}
	}

	scored := o.scorer.Score(all, query.Text, plan.Strategy, time.Now())
	if len(scored) > o.settings.MaxCandidates {
		scored = scored[:o.settings.MaxCandidates]
	}

	result := domain.HybridResult{
		Candidates:     scored,
		LayerBreakdown: breakdown,
		Confidence:     o.confidence(scored, breakdown),
		ElapsedMs:      time.Since(started).Milliseconds(),
	}

	logger.Info("Retrieval: %d candidates, confidence %.2f, %dms",
		len(result.Candidates), result.Confidence, result.ElapsedMs)
	return result
}

// confidence estimates result trustworthiness from candidate volume,
// score quality and source corroboration. No candidates means zero.
func (o *Orchestrator) confidence(scored []domain.ScoredCandidate, breakdown map[domain.SourceType]int) float64 {
	if len(scored) == 0 {
		return 0
	}

	// Volume: saturates at five candidates.
	volume := float64(len(scored)) / 5.0
	if volume > 1 {
		volume = 1
	}

	// Quality: mean enhanced score.
	var sum float64
	for _, s := range scored {
		sum += s.EnhancedScore
	}
	quality := sum / float64(len(scored))

	// Corroboration: fraction of selected sources that produced
	// at least one candidate.
	nonEmpty, total := 0, 0
	for _, count := range breakdown {
		total++
		if count > 0 {
			nonEmpty++
		}
	}
	corroboration := 1.0
	if total > 0 {
		corroboration = float64(nonEmpty) / float64(total)
	}

	confidence := 0.3*volume + 0.5*quality + 0.2*corroboration
	if confidence > 1 {
		return 1
	}
	return confidence
}
