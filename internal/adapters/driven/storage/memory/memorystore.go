package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
	"github.com/custodia-labs/rememba-cli/internal/core/ports/driven"
)

// Ensure MemoryStore implements the interface.
var _ driven.MemoryStore = (*MemoryStore)(nil)

// MemoryStore is an in-memory implementation of driven.MemoryStore.
type MemoryStore struct {
	mu       sync.RWMutex
	memories map[string]domain.Memory
}

// NewMemoryStore creates a new in-memory memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		memories: make(map[string]domain.Memory),
	}
}

// SaveMemory stores a new memory.
func (s *MemoryStore) SaveMemory(_ context.Context, mem *domain.Memory) error {
	if mem == nil || mem.ID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.memories[mem.ID]; exists {
		return domain.ErrAlreadyExists
	}
	if mem.CreatedAt.IsZero() {
		mem.CreatedAt = time.Now().UTC()
	}
	s.memories[mem.ID] = *mem
	return nil
}

// GetMemory retrieves a memory by ID, including tombstoned rows.
func (s *MemoryStore) GetMemory(_ context.Context, id string) (*domain.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mem, ok := s.memories[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &mem, nil
}

// SearchMemories returns live memories matching any keyword, capped at limit.
func (s *MemoryStore) SearchMemories(_ context.Context, userID, threadID string, keywords []string, limit int) ([]domain.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []domain.Memory
	for _, mem := range s.memories {
		if mem.UserID != userID || mem.Deleted() {
			continue
		}
		if threadID != "" && mem.ThreadID != threadID {
			continue
		}
		if len(keywords) > 0 && !matchesAnyKeyword(mem.Content, keywords) {
			continue
		}
		results = append(results, mem)
	}

	sortNewestFirst(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ListMemories returns all live memories for a user, newest first.
func (s *MemoryStore) ListMemories(_ context.Context, userID string, limit int) ([]domain.Memory, error) {
	return s.SearchMemories(context.Background(), userID, "", nil, limit)
}

// DeleteMemory tombstones a memory. Idempotent.
func (s *MemoryStore) DeleteMemory(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mem, ok := s.memories[id]
	if !ok || mem.Deleted() {
		return nil
	}
	mem.DeletedAt = at
	s.memories[id] = mem
	return nil
}

func matchesAnyKeyword(content string, keywords []string) bool {
	lowered := strings.ToLower(content)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func sortNewestFirst(memories []domain.Memory) {
	sort.SliceStable(memories, func(i, j int) bool {
		return memories[i].CreatedAt.After(memories[j].CreatedAt)
	})
}
