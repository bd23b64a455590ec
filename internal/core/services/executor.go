package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
	"github.com/custodia-labs/rememba-cli/internal/core/ports/driven"
	"github.com/custodia-labs/rememba-cli/internal/lexicon"
	"github.com/custodia-labs/rememba-cli/internal/logger"
)

// SourceExecutor retrieves candidates from one source. Implementations
// must return within the plan's per-source deadline and must recover
// every failure as an empty list - retrieval degrades, it never fails.
type SourceExecutor interface {
	// Source identifies the executor.
	Source() domain.SourceType

	// Retrieve returns candidates for the query. Never returns an
	// error: timeouts and upstream failures yield an empty list.
	Retrieve(ctx context.Context, query domain.Query, c domain.QueryClassification, plan domain.RetrievalPlan) []domain.Candidate
}

// cachedExecutor wraps a SourceExecutor with read-through caching.
// A hit - including a negative entry - short-circuits the upstream call
// entirely. A failing cache degrades to a transparent pass-through.
type cachedExecutor struct {
	inner       SourceExecutor
	cache       driven.CacheService
	positiveTTL time.Duration
	negativeTTL time.Duration
}

// WithCache wraps an executor with read-through caching. A nil cache
// returns the executor unchanged.
func WithCache(inner SourceExecutor, cache driven.CacheService, positiveTTL, negativeTTL time.Duration) SourceExecutor {
	if cache == nil {
		return inner
	}
	return &cachedExecutor{
		inner:       inner,
		cache:       cache,
		positiveTTL: positiveTTL,
		negativeTTL: negativeTTL,
	}
}

func (e *cachedExecutor) Source() domain.SourceType {
	return e.inner.Source()
}

func (e *cachedExecutor) Retrieve(ctx context.Context, query domain.Query, c domain.QueryClassification, plan domain.RetrievalPlan) []domain.Candidate {
	key := driven.CacheKey{
		Source: e.inner.Source(),
		Query:  NormalizeQuery(query.Text),
		Scope:  cacheScope(e.inner.Source(), query),
	}

	entry, err := e.cache.Get(ctx, key)
	switch {
	case err == nil:
		if entry.Negative() {
			logger.Debug("Cache hit (negative): %s %q", key.Source, key.Query)
			return nil
		}
		logger.Debug("Cache hit: %s %q (%d candidates)", key.Source, key.Query, len(entry.Candidates))
		return entry.Candidates
	case errors.Is(err, domain.ErrNotFound):
		// Miss, fall through to upstream.
	default:
		// Cache trouble is never fatal - go straight to upstream.
		logger.Warn("Cache unavailable for %s, passing through: %v", key.Source, err)
	}

	candidates := e.inner.Retrieve(ctx, query, c, plan)

	ttl := e.positiveTTL
	if len(candidates) == 0 {
		ttl = e.negativeTTL
	}
	if setErr := e.cache.Set(ctx, key, candidates, ttl); setErr != nil {
		logger.Warn("Cache write failed for %s: %v", key.Source, setErr)
	}

	return candidates
}

// NormalizeQuery canonicalises query text for cache addressing:
// lowercased, whitespace collapsed, trailing punctuation stripped.
func NormalizeQuery(text string) string {
	fields := strings.Fields(strings.ToLower(text))
	joined := strings.Join(fields, " ")
	return strings.TrimRight(joined, "?!. ")
}

// cacheScope derives the scope identifiers for a source. Memory results
// are user-scoped; vector and web results are shared across users.
func cacheScope(source domain.SourceType, query domain.Query) string {
	if source == domain.SourceMemory {
		return query.UserID + "/" + query.ThreadID
	}
	return ""
}

// runWithDeadline executes fn under the per-source deadline and recovers
// any failure as an empty result. This is the single place where the
// executor failure domain is enforced.
func runWithDeadline(ctx context.Context, source domain.SourceType, deadline time.Duration, fn func(context.Context) ([]domain.Candidate, error)) []domain.Candidate {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	candidates, err := fn(ctx)
	if err != nil {
		err = classifyFailure(err, deadline)
		if errors.Is(err, domain.ErrSourceTimeout) {
			logger.Warn("Source %s: %v", source, err)
		} else {
			logger.Warn("Source %s upstream failure: %v", source, err)
		}
		return nil
	}
	return candidates
}

// classifyFailure maps a context deadline error onto the domain timeout
// sentinel so recovery logging names the failure class.
func classifyFailure(err error, deadline time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %v", domain.ErrSourceTimeout, deadline)
	}
	return err
}

// queryTerms extracts match terms, preferring the classified keywords
// and falling back to tokenising the raw text.
func queryTerms(query domain.Query, c domain.QueryClassification) []string {
	if len(c.Keywords) > 0 {
		return c.Keywords
	}
	return lexicon.Filter(lexicon.Tokenize(query.Text), lexicon.ModeQuestion)
}
