package file

import (
	"time"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
	"github.com/custodia-labs/rememba-cli/internal/core/ports/driven"
)

// LoadSettings builds engine settings from a config store, starting from
// the defaults and overriding only the keys the file sets. The result is
// validated before being returned.
func LoadSettings(store driven.ConfigStore) (domain.Settings, error) {
	settings := domain.DefaultSettings()

	overrideDurationMs(store, "retrieval.per_source_deadline_ms", &settings.PerSourceDeadline)
	overrideDurationMs(store, "retrieval.overall_deadline_ms", &settings.OverallDeadline)
	overrideInt(store, "retrieval.max_candidates", &settings.MaxCandidates)
	overrideInt(store, "retrieval.token_budget", &settings.TokenBudget)
	overrideInt(store, "retrieval.recent_turns", &settings.RecentTurns)
	overrideInt(store, "retrieval.min_recent_turns", &settings.MinRecentTurns)
	overrideInt(store, "retrieval.max_summaries", &settings.MaxSummaries)
	overrideInt(store, "retrieval.top_k", &settings.TopK)
	overrideFloat(store, "retrieval.similarity_threshold", &settings.SimilarityThreshold)
	overrideFloat(store, "retrieval.memory_prefilter_threshold", &settings.MemoryPrefilterThreshold)

	if freshness := store.GetString("retrieval.default_freshness"); freshness != "" {
		settings.DefaultFreshness = domain.FreshnessWindow(freshness)
	}

	overrideDurationSec(store, "cache.positive_ttl_seconds", &settings.PositiveCacheTTL)
	overrideDurationSec(store, "cache.negative_ttl_seconds", &settings.NegativeCacheTTL)

	overrideInt(store, "audit.message_threshold", &settings.Audit.MessageThreshold)
	overrideInt(store, "audit.token_threshold", &settings.Audit.TokenThreshold)
	overrideDurationMin(store, "audit.elapsed_threshold_minutes", &settings.Audit.ElapsedThreshold)
	overrideDurationSec(store, "audit.debounce_seconds", &settings.Audit.Debounce)
	overrideDurationMin(store, "audit.min_refresh_minutes", &settings.Audit.MinRefreshInterval)
	overrideDurationMin(store, "audit.max_refresh_minutes", &settings.Audit.MaxRefreshInterval)
	overrideInt(store, "audit.base_summary_length", &settings.Audit.BaseSummaryLength)

	overrideFloat(store, "boosts.phrase_exact", &settings.Boosts.PhraseExact)
	overrideFloat(store, "boosts.phrase_strong", &settings.Boosts.PhraseStrong)
	overrideFloat(store, "boosts.phrase_partial", &settings.Boosts.PhrasePartial)
	overrideFloat(store, "boosts.position_early", &settings.Boosts.PositionEarly)
	overrideFloat(store, "boosts.position_mid", &settings.Boosts.PositionMid)
	overrideFloat(store, "boosts.tier1", &settings.Boosts.Tier1)
	overrideFloat(store, "boosts.tier2", &settings.Boosts.Tier2)
	overrideFloat(store, "boosts.priority_high", &settings.Boosts.PriorityHigh)
	overrideFloat(store, "boosts.priority_medium", &settings.Boosts.PriorityMedium)
	overrideFloat(store, "boosts.priority_low", &settings.Boosts.PriorityLow)
	overrideFloat(store, "boosts.recency_day", &settings.Boosts.RecencyDay)
	overrideFloat(store, "boosts.recency_week", &settings.Boosts.RecencyWeek)

	if err := settings.Validate(); err != nil {
		return domain.Settings{}, err
	}
	return settings, nil
}

// LoadServiceSettings reads optional external service configuration.
// Missing keys leave a service unconfigured, which disables its
// retrieval leg.
func LoadServiceSettings(store driven.ConfigStore) domain.ServiceSettings {
	return domain.ServiceSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: domain.AIProvider(store.GetString("embedding.provider")),
			Model:    store.GetString("embedding.model"),
			BaseURL:  store.GetString("embedding.base_url"),
			APIKey:   store.GetString("embedding.api_key"),
		},
		Summariser: domain.SummariserSettings{
			Provider: domain.AIProvider(store.GetString("summariser.provider")),
			Model:    store.GetString("summariser.model"),
			BaseURL:  store.GetString("summariser.base_url"),
			APIKey:   store.GetString("summariser.api_key"),
		},
		VectorIndex: domain.VectorIndexSettings{
			BaseURL:    store.GetString("vector.base_url"),
			Collection: store.GetString("vector.collection"),
		},
		WebSearch: domain.WebSearchSettings{
			APIKey:         store.GetString("websearch.api_key"),
			SearchEngineID: store.GetString("websearch.search_engine_id"),
		},
	}
}

func overrideInt(store driven.ConfigStore, key string, target *int) {
	if _, ok := store.Get(key); ok {
		*target = store.GetInt(key)
	}
}

func overrideFloat(store driven.ConfigStore, key string, target *float64) {
	if _, ok := store.Get(key); ok {
		*target = store.GetFloat(key)
	}
}

func overrideDurationMs(store driven.ConfigStore, key string, target *time.Duration) {
	if _, ok := store.Get(key); ok {
		*target = time.Duration(store.GetInt(key)) * time.Millisecond
	}
}

func overrideDurationSec(store driven.ConfigStore, key string, target *time.Duration) {
	if _, ok := store.Get(key); ok {
		*target = time.Duration(store.GetInt(key)) * time.Second
	}
}

func overrideDurationMin(store driven.ConfigStore, key string, target *time.Duration) {
	if _, ok := store.Get(key); ok {
		*target = time.Duration(store.GetInt(key)) * time.Minute
	}
}
