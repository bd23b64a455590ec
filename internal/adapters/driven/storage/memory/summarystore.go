package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
	"github.com/custodia-labs/rememba-cli/internal/core/ports/driven"
)

// Ensure SummaryStore implements the interface.
var _ driven.SummaryStore = (*SummaryStore)(nil)

// SummaryStore is an in-memory implementation of driven.SummaryStore.
type SummaryStore struct {
	mu        sync.RWMutex
	summaries map[string]domain.ConversationSummary
}

// NewSummaryStore creates a new in-memory summary store.
func NewSummaryStore() *SummaryStore {
	return &SummaryStore{
		summaries: make(map[string]domain.ConversationSummary),
	}
}

// UpsertSummary inserts or replaces the summary for a thread.
func (s *SummaryStore) UpsertSummary(_ context.Context, summary *domain.ConversationSummary) error {
	if summary == nil || summary.ThreadID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[summary.ThreadID] = *summary
	return nil
}

// GetSummary retrieves the summary for a thread.
func (s *SummaryStore) GetSummary(_ context.Context, threadID string) (*domain.ConversationSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, ok := s.summaries[threadID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &summary, nil
}

// RecentSummaries returns up to n summaries, newest first.
func (s *SummaryStore) RecentSummaries(_ context.Context, n int) ([]domain.ConversationSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]domain.ConversationSummary, 0, len(s.summaries))
	for _, summary := range s.summaries {
		results = append(results, summary)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].GeneratedAt.After(results[j].GeneratedAt)
	})
	if n > 0 && len(results) > n {
		results = results[:n]
	}
	return results, nil
}
