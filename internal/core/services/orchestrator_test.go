package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
)

func testPlan(deadline time.Duration, sources ...domain.SourceType) domain.RetrievalPlan {
	return domain.RetrievalPlan{
		Sources:           sources,
		Strategy:          domain.StrategyWeighted,
		PerSourceDeadline: deadline,
		OverallDeadline:   deadline,
	}
}

func TestExecuteMergesAllSources(t *testing.T) {
	memory := &stubExecutor{source: domain.SourceMemory, candidates: []domain.Candidate{
		{Source: domain.SourceMemory, Text: "from memory", RawScore: 0.9, Tier: domain.Tier2},
	}}
	vector := &stubExecutor{source: domain.SourceVector, candidates: []domain.Candidate{
		{Source: domain.SourceVector, Text: "from vector", RawScore: 0.7, Tier: domain.Tier3},
	}}
	web := &stubExecutor{source: domain.SourceWeb, candidates: []domain.Candidate{
		{Source: domain.SourceWeb, Text: "from web", RawScore: 0.5, Tier: domain.Tier3},
	}}

	o := NewOrchestrator(
		[]SourceExecutor{memory, vector, web},
		NewRelevanceScorer(domain.DefaultBoosts()),
		domain.DefaultSettings(),
	)

	result := o.Execute(context.Background(), domain.Query{Text: "q"}, domain.QueryClassification{},
		testPlan(time.Second, domain.SourceMemory, domain.SourceVector, domain.SourceWeb))

	require.Len(t, result.Candidates, 3)
	assert.Equal(t, 1, result.LayerBreakdown[domain.SourceMemory])
	assert.Equal(t, 1, result.LayerBreakdown[domain.SourceVector])
	assert.Equal(t, 1, result.LayerBreakdown[domain.SourceWeb])
	assert.Greater(t, result.Confidence, 0.0)
}

func TestExecuteHungSourceDoesNotBlockJoin(t *testing.T) {
	memory := &stubExecutor{source: domain.SourceMemory, delay: 10 * time.Millisecond, candidates: []domain.Candidate{
		{Source: domain.SourceMemory, Text: "from memory", RawScore: 0.9, Tier: domain.Tier2},
	}}
	web := &stubExecutor{source: domain.SourceWeb, delay: 20 * time.Millisecond, candidates: []domain.Candidate{
		{Source: domain.SourceWeb, Text: "from web", RawScore: 0.6, Tier: domain.Tier3},
	}}
	// Hangs well past the overall deadline.
	vector := &stubExecutor{source: domain.SourceVector, delay: 5 * time.Second, candidates: []domain.Candidate{
		{Source: domain.SourceVector, Text: "never arrives", RawScore: 0.9, Tier: domain.Tier3},
	}}

	o := NewOrchestrator(
		[]SourceExecutor{memory, vector, web},
		NewRelevanceScorer(domain.DefaultBoosts()),
		domain.DefaultSettings(),
	)

	started := time.Now()
	result := o.Execute(context.Background(), domain.Query{Text: "q"}, domain.QueryClassification{},
		testPlan(150*time.Millisecond, domain.SourceMemory, domain.SourceVector, domain.SourceWeb))
	elapsed := time.Since(started)

	// The join returned at the deadline, not after five seconds.
	assert.Less(t, elapsed, time.Second)

	require.Len(t, result.Candidates, 2)
	for _, c := range result.Candidates {
		assert.NotEqual(t, domain.SourceVector, c.Source)
	}
	assert.Equal(t, 0, result.LayerBreakdown[domain.SourceVector])
	assert.Equal(t, 1, result.LayerBreakdown[domain.SourceMemory])
	assert.Equal(t, 1, result.LayerBreakdown[domain.SourceWeb])
}

func TestExecuteAllSourcesEmptyMeansZeroConfidence(t *testing.T) {
	memory := &stubExecutor{source: domain.SourceMemory}
	vector := &stubExecutor{source: domain.SourceVector}

	o := NewOrchestrator(
		[]SourceExecutor{memory, vector},
		NewRelevanceScorer(domain.DefaultBoosts()),
		domain.DefaultSettings(),
	)

	result := o.Execute(context.Background(), domain.Query{Text: "q"}, domain.QueryClassification{},
		testPlan(time.Second, domain.SourceMemory, domain.SourceVector))

	assert.Empty(t, result.Candidates)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestExecuteTruncatesToMaxCandidates(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.MaxCandidates = 3

	var many []domain.Candidate
	for i := 0; i < 10; i++ {
		many = append(many, domain.Candidate{
			Source: domain.SourceVector, Text: "hit", RawScore: 0.5, Tier: domain.Tier3,
		})
	}
	vector := &stubExecutor{source: domain.SourceVector, candidates: many}

	o := NewOrchestrator([]SourceExecutor{vector}, NewRelevanceScorer(domain.DefaultBoosts()), settings)

	result := o.Execute(context.Background(), domain.Query{Text: "q"}, domain.QueryClassification{},
		testPlan(time.Second, domain.SourceVector))

	assert.Len(t, result.Candidates, 3)
	// The breakdown reports the pre-truncation count.
	assert.Equal(t, 10, result.LayerBreakdown[domain.SourceVector])
}

func TestExecuteSkipsUnregisteredSources(t *testing.T) {
	memory := &stubExecutor{source: domain.SourceMemory, candidates: []domain.Candidate{
		{Source: domain.SourceMemory, Text: "from memory", RawScore: 0.9, Tier: domain.Tier2},
	}}

	o := NewOrchestrator([]SourceExecutor{memory}, NewRelevanceScorer(domain.DefaultBoosts()), domain.DefaultSettings())

	// The plan asks for web but no web executor exists.
	result := o.Execute(context.Background(), domain.Query{Text: "q"}, domain.QueryClassification{},
		testPlan(time.Second, domain.SourceMemory, domain.SourceWeb))

	require.Len(t, result.Candidates, 1)
	assert.Equal(t, domain.SourceMemory, result.Candidates[0].Source)
	_, reported := result.LayerBreakdown[domain.SourceWeb]
	assert.False(t, reported)
}

func TestExecuteCancelledContextReturnsEarly(t *testing.T) {
	vector := &stubExecutor{source: domain.SourceVector, delay: 5 * time.Second}

	o := NewOrchestrator([]SourceExecutor{vector}, NewRelevanceScorer(domain.DefaultBoosts()), domain.DefaultSettings())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	started := time.Now()
	result := o.Execute(ctx, domain.Query{Text: "q"}, domain.QueryClassification{},
		testPlan(10*time.Second, domain.SourceVector))

	assert.Less(t, time.Since(started), time.Second)
	assert.Empty(t, result.Candidates)
}
