// Package google provides a web search adapter using the Google Custom
// Search JSON API.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
	"github.com/custodia-labs/rememba-cli/internal/core/ports/driven"
)

// Ensure WebSearchService implements the interface.
var _ driven.WebSearchService = (*WebSearchService)(nil)

// Config holds configuration for the Google web search service.
type Config struct {
	// APIKey is the Google API key (required).
	APIKey string

	// SearchEngineID is the programmable search engine ID (required).
	SearchEngineID string

	// RateLimit overrides the default request rate.
	RateLimit RateLimitConfig
}

// WebSearchService issues live searches through the Custom Search API.
type WebSearchService struct {
	service  *customsearch.Service
	engineID string
	limiter  *RateLimiter
}

// NewWebSearchService creates a new Google web search service.
func NewWebSearchService(ctx context.Context, cfg Config) (*WebSearchService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("google: API key is required")
	}
	if cfg.SearchEngineID == "" {
		return nil, fmt.Errorf("google: search engine ID is required")
	}

	service, err := customsearch.NewService(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("google: creating search service: %w", err)
	}

	return &WebSearchService{
		service:  service,
		engineID: cfg.SearchEngineID,
		limiter:  NewRateLimiter(cfg.RateLimit),
	}, nil
}

// Search returns results for the query restricted to the given freshness
// window. FreshnessAny lifts the restriction.
func (s *WebSearchService) Search(ctx context.Context, query string, freshness domain.FreshnessWindow, limit int) ([]driven.WebResult, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	call := s.service.Cse.List().
		Context(ctx).
		Cx(s.engineID).
		Q(query)

	if limit > 0 {
		if limit > 10 {
			limit = 10 // API maximum per request
		}
		call = call.Num(int64(limit))
	}
	if restrict := dateRestrict(freshness); restrict != "" {
		call = call.DateRestrict(restrict)
	}

	resp, err := call.Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == 429 {
			s.limiter.RecordRateLimitError(0)
			return nil, fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUpstream, err)
	}

	results := make([]driven.WebResult, 0, len(resp.Items))
	for i, item := range resp.Items {
		results = append(results, driven.WebResult{
			Title:       item.Title,
			Snippet:     item.Snippet,
			URL:         item.Link,
			Host:        hostOf(item.Link, item.DisplayLink),
			PublishedAt: publishedAt(item.Pagemap),
			Rank:        i,
		})
	}
	return results, nil
}

// Close releases resources.
func (s *WebSearchService) Close() error {
	return nil
}

// dateRestrict maps a freshness window to the API's dateRestrict syntax.
func dateRestrict(freshness domain.FreshnessWindow) string {
	switch freshness {
	case domain.FreshnessDay:
		return "d1"
	case domain.FreshnessWeek:
		return "w1"
	case domain.FreshnessMonth:
		return "m1"
	default:
		return ""
	}
}

// hostOf extracts the hostname from the result link, falling back to the
// engine-provided display link.
func hostOf(link, displayLink string) string {
	if u, err := url.Parse(link); err == nil && u.Hostname() != "" {
		return strings.ToLower(u.Hostname())
	}
	return strings.ToLower(displayLink)
}

// pagemapMetatags is the slice of metatag maps inside a result pagemap.
type pagemapMetatags struct {
	Metatags []map[string]string `json:"metatags"`
}

// publishedAt digs a publication time out of the result's pagemap
// metatags. Returns zero when none is present.
func publishedAt(pagemap googleapi.RawMessage) time.Time {
	if len(pagemap) == 0 {
		return time.Time{}
	}

	var parsed pagemapMetatags
	if err := json.Unmarshal(pagemap, &parsed); err != nil {
		return time.Time{}
	}

	for _, tags := range parsed.Metatags {
		for _, key := range []string{"article:published_time", "og:published_time", "date"} {
			if raw, ok := tags[key]; ok {
				if t, err := time.Parse(time.RFC3339, raw); err == nil {
					return t
				}
				if t, err := time.Parse("2006-01-02", raw); err == nil {
					return t
				}
			}
		}
	}
	return time.Time{}
}
