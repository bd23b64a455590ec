// Package ai provides factory functions for creating external service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/rememba-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/rememba-cli/internal/adapters/driven/embedding/openai"
	ollamasum "github.com/custodia-labs/rememba-cli/internal/adapters/driven/summariser/ollama"
	openaisum "github.com/custodia-labs/rememba-cli/internal/adapters/driven/summariser/openai"
	"github.com/custodia-labs/rememba-cli/internal/adapters/driven/vector/qdrant"
	websearch "github.com/custodia-labs/rememba-cli/internal/adapters/driven/websearch/google"
	"github.com/custodia-labs/rememba-cli/internal/core/domain"
	"github.com/custodia-labs/rememba-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of external service initialisation.
// Any service may be nil: retrieval degrades to the legs that remain.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	Summariser       driven.Summariser
	VectorIndex      driven.VectorIndex
	WebSearch        driven.WebSearchService
	Warnings         []string // Non-fatal issues that disabled a service.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.Summariser != nil {
		r.Summariser.Close()
	}
	if r.VectorIndex != nil {
		r.VectorIndex.Close()
	}
	if r.WebSearch != nil {
		r.WebSearch.Close()
	}
}

// InitServices creates every configured external service, validates
// connectivity where cheap, and records a warning for each one that
// could not be brought up. Initialisation never fails outright: an
// engine with no external services still answers from its own stores.
func InitServices(ctx context.Context, settings domain.ServiceSettings) *InitResult {
	result := &InitResult{}

	embedder, err := CreateAndValidateEmbeddingService(&settings.Embedding)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	}
	result.EmbeddingService = embedder

	// The vector index is useless without an embedder to feed it.
	if embedder != nil && settings.VectorIndex.IsConfigured() {
		index, err := qdrant.NewIndex(ctx, qdrant.Config{
			BaseURL:    settings.VectorIndex.BaseURL,
			Collection: settings.VectorIndex.Collection,
			Dimensions: embedder.Dimensions(),
		})
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%v: %v", domain.ErrVectorIndexUnavailable, err))
		} else {
			result.VectorIndex = index
		}
	}

	summariser, err := CreateSummariser(&settings.Summariser)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	}
	result.Summariser = summariser

	if settings.WebSearch.IsConfigured() {
		search, err := websearch.NewWebSearchService(ctx, websearch.Config{
			APIKey:         settings.WebSearch.APIKey,
			SearchEngineID: settings.WebSearch.SearchEngineID,
		})
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%v: %v", domain.ErrWebSearchUnavailable, err))
		} else {
			result.WebSearch = search
		}
	}

	return result
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns nil service and nil error when the provider is not configured.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'rememba config' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'rememba config' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings)

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateSummariser creates the appropriate summariser based on settings.
// Returns nil if the provider is not configured.
func CreateSummariser(settings *domain.SummariserSettings) (driven.Summariser, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamasum.NewSummariser(ollamasum.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaisum.NewSummariser(openaisum.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported summariser provider: %s", settings.Provider)
	}
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	dimensions := domain.EmbeddingDimensions()[settings.Model]

	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}
