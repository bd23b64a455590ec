package services

import (
	"context"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
	"github.com/custodia-labs/rememba-cli/internal/core/ports/driven"
	"github.com/custodia-labs/rememba-cli/internal/logger"
)

// vectorExecutor runs nearest-neighbour retrieval against the knowledge
// corpus. Both the embedder and the index are required; when either is
// missing the executor reports itself unavailable by returning nothing.
type vectorExecutor struct {
	index    driven.VectorIndex
	embedder driven.EmbeddingService

	topK      int
	threshold float64
}

// NewVectorExecutor creates the vector source executor.
func NewVectorExecutor(index driven.VectorIndex, embedder driven.EmbeddingService, settings domain.Settings) SourceExecutor {
	return &vectorExecutor{
		index:     index,
		embedder:  embedder,
		topK:      settings.TopK,
		threshold: settings.SimilarityThreshold,
	}
}

func (e *vectorExecutor) Source() domain.SourceType {
	return domain.SourceVector
}

func (e *vectorExecutor) Retrieve(ctx context.Context, query domain.Query, _ domain.QueryClassification, plan domain.RetrievalPlan) []domain.Candidate {
	if e.index == nil || e.embedder == nil {
		logger.Debug("Vector executor unavailable: index=%t embedder=%t", e.index != nil, e.embedder != nil)
		return nil
	}

	return runWithDeadline(ctx, domain.SourceVector, plan.PerSourceDeadline, func(ctx context.Context) ([]domain.Candidate, error) {
		embedding, err := e.embedder.Embed(ctx, query.Text)
		if err != nil {
			return nil, err
		}

		hits, err := e.index.Search(ctx, embedding, e.topK)
		if err != nil {
			return nil, err
		}

		candidates := make([]domain.Candidate, 0, len(hits))
		for _, hit := range hits {
			if hit.Similarity < e.threshold {
				continue
			}
			candidates = append(candidates, domain.Candidate{
				Source:   domain.SourceVector,
				Text:     hit.Payload.Text,
				RawScore: clamp01(hit.Similarity),
				Tier:     vectorTier(hit.Payload.Tier),
			})
		}

		logger.Debug("Vector executor: %d hits, %d above threshold %.2f",
			len(hits), len(candidates), e.threshold)
		return candidates, nil
	})
}

// vectorTier defaults to tier3 unless the payload metadata overrides it.
func vectorTier(tier string) domain.Tier {
	t := domain.Tier(tier)
	if t.IsValid() {
		return t
	}
	return domain.Tier3
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
