package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
)

// WebSearchService issues live web searches with a freshness constraint.
// This is an optional service - when nil, web retrieval is disabled.
type WebSearchService interface {
	// Search returns results for the query restricted to the given
	// freshness window. FreshnessAny lifts the restriction.
	Search(ctx context.Context, query string, freshness domain.FreshnessWindow, limit int) ([]WebResult, error)

	// Close releases resources.
	Close() error
}

// WebResult is a single live search hit.
type WebResult struct {
	// Title is the result title.
	Title string

	// Snippet is the matched text excerpt.
	Snippet string

	// URL is the result location.
	URL string

	// Host is the result's hostname, used for tier derivation.
	Host string

	// PublishedAt is the publication time when the engine reports one.
	PublishedAt time.Time

	// Rank is the engine-assigned position, 0 being best.
	Rank int
}
