package domain

// AIProvider identifies an AI service provider for embeddings or
// summarisation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// SummariserSettings holds summariser provider configuration.
type SummariserSettings struct {
	// Provider is the summariser service provider.
	Provider AIProvider

	// Model is the model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the summariser provider is set up.
func (s SummariserSettings) IsConfigured() bool {
	if !s.Provider.IsValid() {
		return false
	}
	if s.Provider.RequiresAPIKey() && s.APIKey == "" {
		return false
	}
	return true
}

// VectorIndexSettings holds vector index configuration.
type VectorIndexSettings struct {
	// BaseURL is the Qdrant REST endpoint.
	BaseURL string

	// Collection is the collection name.
	Collection string
}

// IsConfigured returns true if a vector index endpoint is set.
func (v VectorIndexSettings) IsConfigured() bool {
	return v.BaseURL != ""
}

// WebSearchSettings holds web search provider configuration.
type WebSearchSettings struct {
	// APIKey is the Google API key.
	APIKey string

	// SearchEngineID is the programmable search engine ID.
	SearchEngineID string
}

// IsConfigured returns true if the web search provider is set up.
func (w WebSearchSettings) IsConfigured() bool {
	return w.APIKey != "" && w.SearchEngineID != ""
}

// ServiceSettings holds all optional external service configuration.
// Unconfigured services disable their retrieval leg; the engine degrades
// rather than fails.
type ServiceSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// Summariser holds summariser provider settings.
	Summariser SummariserSettings

	// VectorIndex holds vector index settings.
	VectorIndex VectorIndexSettings

	// WebSearch holds web search provider settings.
	WebSearch WebSearchSettings
}

// EmbeddingDimensions returns known embedding model dimensions.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"all-minilm":             384,
		"mxbai-embed-large":      1024,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
