package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
	"github.com/custodia-labs/rememba-cli/internal/core/ports/driven"
)

func testKey(query string) driven.CacheKey {
	return driven.CacheKey{
		Source: domain.SourceWeb,
		Query:  query,
		Scope:  "alice",
	}
}

func TestCache_SetAndGet(t *testing.T) {
	cache := NewCache(0)
	defer cache.Close()
	ctx := context.Background()

	candidates := []domain.Candidate{{Source: domain.SourceWeb, Text: "result"}}
	require.NoError(t, cache.Set(ctx, testKey("q"), candidates, time.Minute))

	entry, err := cache.Get(ctx, testKey("q"))
	require.NoError(t, err)
	require.Len(t, entry.Candidates, 1)
	assert.Equal(t, "result", entry.Candidates[0].Text)
	assert.False(t, entry.Negative())
}

func TestCache_MissReturnsNotFound(t *testing.T) {
	cache := NewCache(0)
	defer cache.Close()

	_, err := cache.Get(context.Background(), testKey("absent"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCache_NegativeEntry(t *testing.T) {
	cache := NewCache(0)
	defer cache.Close()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, testKey("q"), nil, time.Minute))

	entry, err := cache.Get(ctx, testKey("q"))
	require.NoError(t, err)
	assert.True(t, entry.Negative())
}

func TestCache_ExpiredEntryIsMiss(t *testing.T) {
	cache := NewCache(0)
	defer cache.Close()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, testKey("q"), []domain.Candidate{{Text: "result"}}, time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := cache.Get(ctx, testKey("q"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, cache.Len())
}

func TestCache_KeysAreScoped(t *testing.T) {
	cache := NewCache(0)
	defer cache.Close()
	ctx := context.Background()

	alice := testKey("q")
	bob := testKey("q")
	bob.Scope = "bob"

	require.NoError(t, cache.Set(ctx, alice, []domain.Candidate{{Text: "a"}}, time.Minute))

	_, err := cache.Get(ctx, bob)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCache_DeleteIdempotent(t *testing.T) {
	cache := NewCache(0)
	defer cache.Close()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, testKey("q"), []domain.Candidate{{Text: "result"}}, time.Minute))
	require.NoError(t, cache.Delete(ctx, testKey("q")))
	require.NoError(t, cache.Delete(ctx, testKey("q")))

	_, err := cache.Get(ctx, testKey("q"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCache_SetCopiesCandidates(t *testing.T) {
	cache := NewCache(0)
	defer cache.Close()
	ctx := context.Background()

	candidates := []domain.Candidate{{Text: "original"}}
	require.NoError(t, cache.Set(ctx, testKey("q"), candidates, time.Minute))

	candidates[0].Text = "mutated"

	entry, err := cache.Get(ctx, testKey("q"))
	require.NoError(t, err)
	assert.Equal(t, "original", entry.Candidates[0].Text)
}

func TestCache_SweeperEvicts(t *testing.T) {
	cache := NewCache(5 * time.Millisecond)
	defer cache.Close()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, testKey("q"), []domain.Candidate{{Text: "result"}}, time.Millisecond))

	assert.Eventually(t, func() bool {
		return cache.Len() == 0
	}, time.Second, 5*time.Millisecond)
}
