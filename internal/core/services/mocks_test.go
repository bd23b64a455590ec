package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
	"github.com/custodia-labs/rememba-cli/internal/core/ports/driven"
)

// In-memory fakes for the driven ports, shared by the service tests.

type fakeMemoryStore struct {
	mu       sync.Mutex
	memories map[string]*domain.Memory
	searches int
	saveErr  error
	listErr  error
}

func newFakeMemoryStore() *fakeMemoryStore {
	return &fakeMemoryStore{memories: make(map[string]*domain.Memory)}
}

func (s *fakeMemoryStore) SaveMemory(_ context.Context, mem *domain.Memory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	copied := *mem
	s.memories[mem.ID] = &copied
	return nil
}

func (s *fakeMemoryStore) GetMemory(_ context.Context, id string) (*domain.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mem, ok := s.memories[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *mem
	return &copied, nil
}

func (s *fakeMemoryStore) SearchMemories(_ context.Context, userID, threadID string, keywords []string, limit int) ([]domain.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches++
	var out []domain.Memory
	for _, mem := range s.memories {
		if mem.UserID != userID || mem.Deleted() {
			continue
		}
		if threadID != "" && mem.ThreadID != threadID {
			continue
		}
		if matchesAny(mem.Content, keywords) {
			out = append(out, *mem)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *fakeMemoryStore) ListMemories(_ context.Context, userID string, limit int) ([]domain.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.Memory
	for _, mem := range s.memories {
		if mem.UserID != userID || mem.Deleted() {
			continue
		}
		out = append(out, *mem)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *fakeMemoryStore) DeleteMemory(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mem, ok := s.memories[id]; ok && mem.DeletedAt.IsZero() {
		mem.DeletedAt = at
	}
	return nil
}

func matchesAny(content string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	lower := strings.ToLower(content)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

type fakeHistoryStore struct {
	mu       sync.Mutex
	turns    map[string][]domain.ConversationTurn
	stats    map[string]*domain.ThreadStats
	turnsErr error
}

func newFakeHistoryStore() *fakeHistoryStore {
	return &fakeHistoryStore{
		turns: make(map[string][]domain.ConversationTurn),
		stats: make(map[string]*domain.ThreadStats),
	}
}

func (s *fakeHistoryStore) AppendTurn(_ context.Context, turn *domain.ConversationTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[turn.ThreadID] = append(s.turns[turn.ThreadID], *turn)
	return nil
}

func (s *fakeHistoryStore) RecentTurns(_ context.Context, threadID string, n int) ([]domain.ConversationTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.turnsErr != nil {
		return nil, s.turnsErr
	}
	turns := s.turns[threadID]
	if n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	out := make([]domain.ConversationTurn, len(turns))
	copy(out, turns)
	return out, nil
}

func (s *fakeHistoryStore) ThreadStats(_ context.Context, threadID string) (*domain.ThreadStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stats, ok := s.stats[threadID]; ok {
		copied := *stats
		return &copied, nil
	}
	stats := &domain.ThreadStats{ThreadID: threadID, MessageCount: len(s.turns[threadID])}
	for _, turn := range s.turns[threadID] {
		stats.TokenCount += EstimateTokens(turn.Content)
		if turn.CreatedAt.After(stats.LastActivityAt) {
			stats.LastActivityAt = turn.CreatedAt
		}
	}
	return stats, nil
}

func (s *fakeHistoryStore) ActiveThreads(_ context.Context, since time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for threadID, turns := range s.turns {
		for _, turn := range turns {
			if turn.CreatedAt.After(since) {
				out = append(out, threadID)
				break
			}
		}
	}
	for threadID := range s.stats {
		if _, ok := s.turns[threadID]; !ok {
			out = append(out, threadID)
		}
	}
	return out, nil
}

type fakeSummaryStore struct {
	mu        sync.Mutex
	summaries map[string]*domain.ConversationSummary
	upserts   int
}

func newFakeSummaryStore() *fakeSummaryStore {
	return &fakeSummaryStore{summaries: make(map[string]*domain.ConversationSummary)}
}

func (s *fakeSummaryStore) UpsertSummary(_ context.Context, summary *domain.ConversationSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *summary
	s.summaries[summary.ThreadID] = &copied
	s.upserts++
	return nil
}

func (s *fakeSummaryStore) GetSummary(_ context.Context, threadID string) (*domain.ConversationSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary, ok := s.summaries[threadID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *summary
	return &copied, nil
}

func (s *fakeSummaryStore) RecentSummaries(_ context.Context, n int) ([]domain.ConversationSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ConversationSummary
	for _, summary := range s.summaries {
		out = append(out, *summary)
		if n > 0 && len(out) >= n {
			break
		}
	}
	return out, nil
}

type fakeEmbedder struct {
	embedErr error
	calls    int
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls++
	if e.embedErr != nil {
		return nil, e.embedErr
	}
	// Deterministic toy embedding keyed on length.
	return []float32{float32(len(text)), 1, 0}, nil
}

func (e *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *fakeEmbedder) Dimensions() int { return 3 }

func (e *fakeEmbedder) ModelName() string { return "fake-embed" }

func (e *fakeEmbedder) Ping(_ context.Context) error { return nil }

func (e *fakeEmbedder) Close() error { return nil }

type fakeVectorIndex struct {
	mu      sync.Mutex
	hits    []driven.VectorHit
	added   map[string]driven.VectorPayload
	deleted []string
	err     error
	delay   time.Duration
}

func newFakeVectorIndex() *fakeVectorIndex {
	return &fakeVectorIndex{added: make(map[string]driven.VectorPayload)}
}

func (v *fakeVectorIndex) Add(_ context.Context, id string, _ []float32, payload driven.VectorPayload) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.added[id] = payload
	return nil
}

func (v *fakeVectorIndex) Delete(_ context.Context, id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.deleted = append(v.deleted, id)
	return nil
}

func (v *fakeVectorIndex) Search(ctx context.Context, _ []float32, _ int) ([]driven.VectorHit, error) {
	if v.delay > 0 {
		select {
		case <-time.After(v.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if v.err != nil {
		return nil, v.err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]driven.VectorHit, len(v.hits))
	copy(out, v.hits)
	return out, nil
}

func (v *fakeVectorIndex) Close() error { return nil }

type fakeWebSearch struct {
	mu       sync.Mutex
	results  map[domain.FreshnessWindow][]driven.WebResult
	fallback []driven.WebResult
	calls    []domain.FreshnessWindow
	err      error
}

func newFakeWebSearch() *fakeWebSearch {
	return &fakeWebSearch{results: make(map[domain.FreshnessWindow][]driven.WebResult)}
}

func (w *fakeWebSearch) Search(_ context.Context, _ string, freshness domain.FreshnessWindow, _ int) ([]driven.WebResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, freshness)
	if w.err != nil {
		return nil, w.err
	}
	if results, ok := w.results[freshness]; ok {
		return results, nil
	}
	return w.fallback, nil
}

func (w *fakeWebSearch) Close() error { return nil }

type fakeCache struct {
	mu      sync.Mutex
	entries map[driven.CacheKey]*driven.CacheEntry
	getErr  error
	gets    int
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[driven.CacheKey]*driven.CacheEntry)}
}

func (c *fakeCache) Get(_ context.Context, key driven.CacheKey) (*driven.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, c.getErr
	}
	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.ExpiresAt) {
		return nil, domain.ErrNotFound
	}
	return entry, nil
}

func (c *fakeCache) Set(_ context.Context, key driven.CacheKey, candidates []domain.Candidate, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[key] = &driven.CacheEntry{
		Candidates: candidates,
		ExpiresAt:  time.Now().Add(ttl),
	}
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key driven.CacheKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

type fakeSummariser struct {
	text  string
	err   error
	calls int
}

func (s *fakeSummariser) Summarise(_ context.Context, _ string, _ int) (string, error) {
	s.calls++
	return s.text, s.err
}

func (s *fakeSummariser) ModelName() string { return "fake-summary" }

func (s *fakeSummariser) Ping(_ context.Context) error { return nil }

func (s *fakeSummariser) Close() error { return nil }

// stubExecutor is a scriptable source executor for orchestrator tests.
type stubExecutor struct {
	source     domain.SourceType
	candidates []domain.Candidate
	delay      time.Duration
	mu         sync.Mutex
	calls      int
}

func (e *stubExecutor) Source() domain.SourceType { return e.source }

func (e *stubExecutor) Retrieve(ctx context.Context, _ domain.Query, _ domain.QueryClassification, _ domain.RetrievalPlan) []domain.Candidate {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil
		}
	}
	return e.candidates
}

func (e *stubExecutor) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}
