package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
	"github.com/custodia-labs/rememba-cli/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

// HistoryStore is an in-memory implementation of driven.HistoryStore.
// ThreadStats memory counters are derived from an optional MemoryStore
// sharing the same process.
type HistoryStore struct {
	mu       sync.RWMutex
	turns    map[string][]domain.ConversationTurn
	memories *MemoryStore
}

// NewHistoryStore creates a new in-memory history store. memories may be
// nil, in which case ThreadStats reports zero memory counts.
func NewHistoryStore(memories *MemoryStore) *HistoryStore {
	return &HistoryStore{
		turns:    make(map[string][]domain.ConversationTurn),
		memories: memories,
	}
}

// AppendTurn records a turn at the end of a thread.
func (s *HistoryStore) AppendTurn(_ context.Context, turn *domain.ConversationTurn) error {
	if turn == nil || turn.ThreadID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	s.turns[turn.ThreadID] = append(s.turns[turn.ThreadID], *turn)
	return nil
}

// RecentTurns returns the newest n turns in chronological order.
// n <= 0 returns all turns.
func (s *HistoryStore) RecentTurns(_ context.Context, threadID string, n int) ([]domain.ConversationTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.turns[threadID]
	if n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}

	out := make([]domain.ConversationTurn, len(turns))
	copy(out, turns)
	return out, nil
}

// ThreadStats returns the audit counters for a thread.
func (s *HistoryStore) ThreadStats(_ context.Context, threadID string) (*domain.ThreadStats, error) {
	s.mu.RLock()
	turns := s.turns[threadID]
	stats := &domain.ThreadStats{
		ThreadID:     threadID,
		MessageCount: len(turns),
	}
	var contentLength int
	for _, turn := range turns {
		contentLength += len(turn.Content)
		if turn.CreatedAt.After(stats.LastActivityAt) {
			stats.LastActivityAt = turn.CreatedAt
		}
	}
	s.mu.RUnlock()

	// Conservative token estimate, matching the assembler's arithmetic.
	if contentLength > 0 {
		stats.TokenCount = contentLength/3 + stats.MessageCount
	}

	if s.memories != nil {
		s.memories.mu.RLock()
		for _, mem := range s.memories.memories {
			if mem.ThreadID != threadID || mem.Deleted() {
				continue
			}
			stats.MemoryCount++
			if mem.Tier == domain.Tier1 || mem.Tier == domain.Tier2 {
				stats.HighTierMemoryCount++
			}
		}
		s.memories.mu.RUnlock()
	}

	return stats, nil
}

// ActiveThreads returns threads with activity since the cutoff.
func (s *HistoryStore) ActiveThreads(_ context.Context, since time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var threads []string
	for threadID, turns := range s.turns {
		for _, turn := range turns {
			if turn.CreatedAt.After(since) {
				threads = append(threads, threadID)
				break
			}
		}
	}
	return threads, nil
}
