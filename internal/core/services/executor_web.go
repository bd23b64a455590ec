package services

import (
	"context"
	"strings"
	"time"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
	"github.com/custodia-labs/rememba-cli/internal/core/ports/driven"
	"github.com/custodia-labs/rememba-cli/internal/logger"
)

// authorityTiers maps well-known hosts to authority tiers. Unlisted
// hosts are tier3.
var authorityTiers = map[string]domain.Tier{
	"en.wikipedia.org":      domain.Tier1,
	"wikipedia.org":         domain.Tier1,
	"reuters.com":           domain.Tier1,
	"apnews.com":            domain.Tier1,
	"bbc.com":               domain.Tier1,
	"bbc.co.uk":             domain.Tier1,
	"nature.com":            domain.Tier1,
	"arxiv.org":             domain.Tier1,
	"nytimes.com":           domain.Tier2,
	"theguardian.com":       domain.Tier2,
	"washingtonpost.com":    domain.Tier2,
	"bloomberg.com":         domain.Tier2,
	"stackoverflow.com":     domain.Tier2,
	"github.com":            domain.Tier2,
	"developer.mozilla.org": domain.Tier1,
	"docs.python.org":       domain.Tier1,
	"go.dev":                domain.Tier1,
}

// webExecutor issues live web searches with a freshness constraint.
// When the recency post-filter would empty the result set, the window
// widens instead of returning nothing.
type webExecutor struct {
	search driven.WebSearchService
	limit  int
}

// NewWebExecutor creates the web source executor.
func NewWebExecutor(search driven.WebSearchService, settings domain.Settings) SourceExecutor {
	return &webExecutor{
		search: search,
		limit:  settings.MaxCandidates,
	}
}

func (e *webExecutor) Source() domain.SourceType {
	return domain.SourceWeb
}

func (e *webExecutor) Retrieve(ctx context.Context, query domain.Query, c domain.QueryClassification, plan domain.RetrievalPlan) []domain.Candidate {
	if e.search == nil {
		logger.Debug("Web executor unavailable: no search service")
		return nil
	}

	return runWithDeadline(ctx, domain.SourceWeb, plan.PerSourceDeadline, func(ctx context.Context) ([]domain.Candidate, error) {
		cleaned := cleanWebQuery(query.Text)
		results, err := e.search.Search(ctx, cleaned, plan.Freshness, e.limit)
		if err != nil {
			return nil, err
		}

		// The engine may itself return nothing inside a tight window;
		// retry once with everything before giving up.
		if len(results) == 0 && plan.Freshness != domain.FreshnessAny {
			logger.Debug("Web executor: empty result set, retrying without freshness constraint")
			results, err = e.search.Search(ctx, cleaned, domain.FreshnessAny, e.limit)
			if err != nil {
				return nil, err
			}
		}

		window := plan.Freshness
		filtered := filterByRecency(results, window, time.Now())

		// Widen rather than come back empty-handed.
		for len(filtered) == 0 && len(results) > 0 && window != domain.FreshnessAny {
			window = window.Widen()
			logger.Debug("Web executor: widening freshness window to %s", window)
			filtered = filterByRecency(results, window, time.Now())
		}

		candidates := make([]domain.Candidate, 0, len(filtered))
		for _, r := range filtered {
			candidates = append(candidates, domain.Candidate{
				Source:     domain.SourceWeb,
				Text:       webText(r),
				RawScore:   rankScore(r.Rank),
				Tier:       HostTier(r.Host),
				Timestamp:  r.PublishedAt,
				OriginHost: r.Host,
			})
		}

		logger.Debug("Web executor: %d results, %d after freshness filter (%s)",
			len(results), len(candidates), window)
		return candidates, nil
	})
}

// filterByRecency drops results older than the window. Results without
// a publication time survive every window - absence of a date is not
// evidence of staleness.
func filterByRecency(results []driven.WebResult, window domain.FreshnessWindow, now time.Time) []driven.WebResult {
	d := window.Duration()
	if d == 0 {
		return results
	}
	cutoff := now.Add(-d)

	var kept []driven.WebResult
	for _, r := range results {
		if r.PublishedAt.IsZero() || r.PublishedAt.After(cutoff) {
			kept = append(kept, r)
		}
	}
	return kept
}

// HostTier derives an authority tier from a hostname, matching the
// registered table with and without a leading "www.".
func HostTier(host string) domain.Tier {
	host = strings.ToLower(host)
	if tier, ok := authorityTiers[host]; ok {
		return tier
	}
	if tier, ok := authorityTiers[strings.TrimPrefix(host, "www.")]; ok {
		return tier
	}
	return domain.Tier3
}

// rankScore converts an engine rank into a 0-1 raw score. Rank 0 maps
// to 1.0 and each position down loses a constant step.
func rankScore(rank int) float64 {
	score := 1.0 - float64(rank)*0.08
	if score < 0.2 {
		return 0.2
	}
	return score
}

// webText joins title and snippet; either may be empty.
func webText(r driven.WebResult) string {
	switch {
	case r.Title == "":
		return r.Snippet
	case r.Snippet == "":
		return r.Title
	default:
		return r.Title + ": " + r.Snippet
	}
}

// cleanWebQuery strips the search-command phrasing that would otherwise
// pollute the engine query ("search the web for X" -> "X").
func cleanWebQuery(text string) string {
	patterns := []string{
		"search the web for", "search the web about", "search the web",
		"look up online", "search online for", "look up",
	}
	lower := strings.ToLower(text)
	for _, p := range patterns {
		if idx := strings.Index(lower, p); idx >= 0 {
			cleaned := strings.TrimSpace(text[:idx] + text[idx+len(p):])
			if cleaned != "" {
				return cleaned
			}
		}
	}
	return text
}
