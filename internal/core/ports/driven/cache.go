package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
)

// CacheService fronts the source executors with a keyed TTL cache.
// Entries are content-addressed by (source, normalised query, scope), so
// concurrent writes for the same key are harmless last-writer-wins.
// A failing cache must degrade to a transparent pass-through, never block
// retrieval.
type CacheService interface {
	// Get returns the cached entry for the key. A hit may carry an
	// empty candidate list: that is a negative entry and valid.
	// Returns domain.ErrNotFound on a miss.
	Get(ctx context.Context, key CacheKey) (*CacheEntry, error)

	// Set stores candidates under the key with the given TTL. A nil or
	// empty candidate slice records a negative entry.
	Set(ctx context.Context, key CacheKey, candidates []domain.Candidate, ttl time.Duration) error

	// Delete removes an entry. Idempotent.
	Delete(ctx context.Context, key CacheKey) error
}

// CacheKey addresses one executor's results for one normalised query.
type CacheKey struct {
	// Source is the executor's source type.
	Source domain.SourceType

	// Query is the normalised query text.
	Query string

	// Scope carries user/thread identifiers where results are scoped.
	Scope string
}

// CacheEntry is a cached candidate list with its expiry.
type CacheEntry struct {
	// Candidates is the cached result. Empty means a negative entry:
	// the upstream is known to have nothing for this key.
	Candidates []domain.Candidate

	// ExpiresAt is when the entry lapses.
	ExpiresAt time.Time
}

// Negative reports whether the entry records an empty upstream result.
func (e *CacheEntry) Negative() bool {
	return len(e.Candidates) == 0
}
