package google

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
)

func TestNewWebSearchService_RequiresCredentials(t *testing.T) {
	_, err := NewWebSearchService(context.Background(), Config{SearchEngineID: "cx"})
	assert.Error(t, err)

	_, err = NewWebSearchService(context.Background(), Config{APIKey: "key"})
	assert.Error(t, err)
}

func TestDateRestrict(t *testing.T) {
	assert.Equal(t, "d1", dateRestrict(domain.FreshnessDay))
	assert.Equal(t, "w1", dateRestrict(domain.FreshnessWeek))
	assert.Equal(t, "m1", dateRestrict(domain.FreshnessMonth))
	assert.Empty(t, dateRestrict(domain.FreshnessAny))
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "en.wikipedia.org", hostOf("https://en.wikipedia.org/wiki/Go", "wikipedia.org"))
	assert.Equal(t, "example.com", hostOf("not a url::", "Example.com"))
}

func TestPublishedAt_FromMetatags(t *testing.T) {
	pagemap := googleapi.RawMessage(`{
		"metatags": [{"article:published_time": "2026-08-01T09:30:00Z"}]
	}`)

	got := publishedAt(pagemap)
	require.False(t, got.IsZero())
	assert.Equal(t, time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC), got)
}

func TestPublishedAt_DateOnly(t *testing.T) {
	pagemap := googleapi.RawMessage(`{"metatags": [{"date": "2026-08-01"}]}`)

	got := publishedAt(pagemap)
	assert.Equal(t, 2026, got.Year())
}

func TestPublishedAt_MissingOrMalformed(t *testing.T) {
	assert.True(t, publishedAt(nil).IsZero())
	assert.True(t, publishedAt(googleapi.RawMessage(`{`)).IsZero())
	assert.True(t, publishedAt(googleapi.RawMessage(`{"metatags": [{"og:title": "x"}]}`)).IsZero())
}

func TestRateLimiter_BackoffBlocksAllow(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 100, BurstSize: 10})
	assert.True(t, limiter.Allow())

	limiter.RecordRateLimitError(60)
	assert.False(t, limiter.Allow())
}
