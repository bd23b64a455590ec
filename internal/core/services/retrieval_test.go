package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
)

type retrievalFixture struct {
	svc       *RetrievalService
	memories  *fakeMemoryStore
	history   *fakeHistoryStore
	summaries *fakeSummaryStore
	vectors   *fakeVectorIndex
}

func newRetrievalFixture(t *testing.T) *retrievalFixture {
	return newRetrievalFixtureWith(t, domain.DefaultSettings())
}

func newRetrievalFixtureWith(t *testing.T, settings domain.Settings) *retrievalFixture {
	t.Helper()

	memories := newFakeMemoryStore()
	history := newFakeHistoryStore()
	summaries := newFakeSummaryStore()
	vectors := newFakeVectorIndex()
	embedder := &fakeEmbedder{}

	executors := []SourceExecutor{
		NewMemoryExecutor(memories, embedder, settings),
		NewVectorExecutor(vectors, embedder, settings),
		NewWebExecutor(nil, settings),
	}
	orchestrator := NewOrchestrator(executors, NewRelevanceScorer(settings.Boosts), settings)
	assembler := NewContextAssembler(history, summaries, settings)
	audit := NewAuditService(history, summaries, nil, settings.Audit)

	svc := NewRetrievalService(
		NewQueryAnalyzer(),
		NewStrategyPlanner(settings),
		orchestrator,
		assembler,
		memories,
		history,
		vectors,
		embedder,
		audit,
		settings,
	)

	return &retrievalFixture{
		svc:       svc,
		memories:  memories,
		history:   history,
		summaries: summaries,
		vectors:   vectors,
	}
}

func TestRetrieveContextFavoriteColorScenario(t *testing.T) {
	f := newRetrievalFixture(t)
	ctx := context.Background()

	_, err := f.svc.Remember(ctx, "alice", "t1", "favorite color is teal", domain.Tier2, 0.8)
	require.NoError(t, err)

	query := domain.Query{Text: "What's my favorite color?", UserID: "alice", ThreadID: "t1"}
	out, err := f.svc.RetrieveContext(ctx, query, 0)
	require.NoError(t, err)

	require.NotEmpty(t, out.Result.Candidates)
	top := out.Result.Candidates[0]
	assert.Equal(t, "favorite color is teal", top.Text)
	assert.Equal(t, domain.SourceMemory, top.Source)
	assert.Contains(t, out.Render(), "favorite color is teal")

	// Boosts must remain visible: the enhanced score strictly exceeds
	// the raw score, which stays below the 1.0 cap.
	assert.Less(t, top.RawScore, 1.0)
	assert.Greater(t, top.EnhancedScore, top.RawScore)
}

func TestRetrieveContextRecordsTurn(t *testing.T) {
	f := newRetrievalFixture(t)
	ctx := context.Background()

	query := domain.Query{Text: "how are you doing today", UserID: "alice", ThreadID: "t1"}
	_, err := f.svc.RetrieveContext(ctx, query, 0)
	require.NoError(t, err)

	turns, err := f.history.RecentTurns(ctx, "t1", 0)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "user", turns[0].Role)
	assert.Equal(t, "how are you doing today", turns[0].Content)
}

func TestRetrieveContextCorrectionSavesBoostedMemory(t *testing.T) {
	f := newRetrievalFixture(t)
	ctx := context.Background()

	query := domain.Query{Text: "No, my favorite color is teal", UserID: "alice", ThreadID: "t1"}
	out, err := f.svc.RetrieveContext(ctx, query, 0)
	require.NoError(t, err)

	// The correction was persisted at the highest tier and priority.
	saved, err := f.memories.ListMemories(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "my favorite color is teal", saved[0].Content)
	assert.Equal(t, domain.Tier1, saved[0].Tier)
	assert.Equal(t, 1.0, saved[0].Priority)

	// And it is already visible to this very query, flagged so the
	// assembler cannot drop it.
	require.NotEmpty(t, out.Result.Candidates)
	assert.Equal(t, "my favorite color is teal", out.Result.Candidates[0].Text)
	assert.True(t, out.Result.Candidates[0].Correction)
}

func TestRetrieveContextCorrectionSurvivesTinyBudget(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.MinRecentTurns = 0
	f := newRetrievalFixtureWith(t, settings)
	ctx := context.Background()

	query := domain.Query{
		Text:     "No, that's wrong, my favorite color is actually deep turquoise, not cyan",
		UserID:   "alice",
		ThreadID: "t1",
	}
	out, err := f.svc.RetrieveContext(ctx, query, 10)
	require.NoError(t, err)

	require.NotEmpty(t, out.Result.Candidates)
	assert.True(t, out.Result.Candidates[0].Correction)

	// A budget too small for the raw turn or the full fact still
	// carries the corrected fact, truncated rather than dropped.
	render := out.Render()
	require.NotEmpty(t, render)
	assert.Contains(t, render, "my favorite color")
	assert.LessOrEqual(t, out.TotalTokens, 10)
}

func TestRetrieveContextMemorySaveIntent(t *testing.T) {
	f := newRetrievalFixture(t)
	ctx := context.Background()

	query := domain.Query{Text: "Remember this: I am allergic to peanuts", UserID: "alice", ThreadID: "t1"}
	_, err := f.svc.RetrieveContext(ctx, query, 0)
	require.NoError(t, err)

	saved, err := f.memories.ListMemories(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "I am allergic to peanuts", saved[0].Content)
	assert.Equal(t, domain.Tier2, saved[0].Tier)
}

func TestRetrieveContextEmptyQueryRejected(t *testing.T) {
	f := newRetrievalFixture(t)

	_, err := f.svc.RetrieveContext(context.Background(), domain.Query{Text: "   "}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRememberIndexesForVectorSearch(t *testing.T) {
	f := newRetrievalFixture(t)
	ctx := context.Background()

	mem, err := f.svc.Remember(ctx, "alice", "t1", "birthday is March 3rd", domain.Tier2, 0.8)
	require.NoError(t, err)

	payload, ok := f.vectors.added[mem.ID]
	require.True(t, ok)
	assert.Equal(t, "birthday is March 3rd", payload.Text)
	assert.Equal(t, domain.Tier2.String(), payload.Tier)
}

func TestRememberValidatesInput(t *testing.T) {
	f := newRetrievalFixture(t)
	ctx := context.Background()

	_, err := f.svc.Remember(ctx, "alice", "t1", "   ", domain.Tier2, 0.8)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.Remember(ctx, "", "t1", "a fact", domain.Tier2, 0.8)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRememberNormalisesTierAndPriority(t *testing.T) {
	f := newRetrievalFixture(t)
	ctx := context.Background()

	mem, err := f.svc.Remember(ctx, "alice", "t1", "a fact", domain.Tier("bogus"), 7)
	require.NoError(t, err)

	assert.Equal(t, domain.Tier3, mem.Tier)
	assert.Equal(t, 0.5, mem.Priority)
}

func TestForgetTombstonesAndDeindexes(t *testing.T) {
	f := newRetrievalFixture(t)
	ctx := context.Background()

	mem, err := f.svc.Remember(ctx, "alice", "t1", "favorite color is teal", domain.Tier2, 0.8)
	require.NoError(t, err)

	require.NoError(t, f.svc.Forget(ctx, mem.ID))

	// Tombstoned: gone from listings, still resolvable by ID.
	live, err := f.svc.ListMemories(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Empty(t, live)

	stored, err := f.memories.GetMemory(ctx, mem.ID)
	require.NoError(t, err)
	assert.True(t, stored.Deleted())

	assert.Equal(t, []string{mem.ID}, f.vectors.deleted)
}

func TestForgetMissingIDRejected(t *testing.T) {
	f := newRetrievalFixture(t)

	err := f.svc.Forget(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrieveContextDefaultsSubmittedAt(t *testing.T) {
	f := newRetrievalFixture(t)
	ctx := context.Background()

	before := time.Now()
	_, err := f.svc.RetrieveContext(ctx, domain.Query{Text: "hello there", UserID: "alice", ThreadID: "t1"}, 0)
	require.NoError(t, err)

	turns, err := f.history.RecentTurns(ctx, "t1", 0)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.False(t, turns[0].CreatedAt.Before(before))
}
