package services

import (
	"context"
	"math"
	"strings"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
	"github.com/custodia-labs/rememba-cli/internal/core/ports/driven"
	"github.com/custodia-labs/rememba-cli/internal/logger"
)

// Raw memory relevance blends keyword overlap with semantic similarity.
// Neither path reaches 1.0 on its own, so the scorer's boosts stay
// visible above the raw score.
const (
	memoryKeywordWeight  = 0.6
	memorySemanticWeight = 0.4
	memoryKeywordCeiling = 0.95
)

// memoryExecutor retrieves persisted facts scoped to the user and
// thread. Keyword matching is the baseline; when an embedder is
// configured the raw score blends in semantic similarity.
type memoryExecutor struct {
	store    driven.MemoryStore
	embedder driven.EmbeddingService

	prefilter float64
	limit     int
}

// NewMemoryExecutor creates the memory source executor.
// The embedder is optional.
func NewMemoryExecutor(store driven.MemoryStore, embedder driven.EmbeddingService, settings domain.Settings) SourceExecutor {
	return &memoryExecutor{
		store:     store,
		embedder:  embedder,
		prefilter: settings.MemoryPrefilterThreshold,
		limit:     settings.MaxCandidates,
	}
}

func (e *memoryExecutor) Source() domain.SourceType {
	return domain.SourceMemory
}

func (e *memoryExecutor) Retrieve(ctx context.Context, query domain.Query, c domain.QueryClassification, plan domain.RetrievalPlan) []domain.Candidate {
	return runWithDeadline(ctx, domain.SourceMemory, plan.PerSourceDeadline, func(ctx context.Context) ([]domain.Candidate, error) {
		terms := queryTerms(query, c)

		// memory_list pulls everything for the user, not a match.
		var memories []domain.Memory
		var err error
		if c.Intent == domain.IntentMemoryList {
			memories, err = e.store.ListMemories(ctx, query.UserID, e.limit)
		} else {
			memories, err = e.store.SearchMemories(ctx, query.UserID, "", terms, e.limit*2)
		}
		if err != nil {
			return nil, err
		}

		queryVec, contentVecs := e.embed(ctx, query.Text, memories)

		candidates := make([]domain.Candidate, 0, len(memories))
		for i, mem := range memories {
			raw := e.relevance(mem.Content, terms, queryVec, contentVecs, i)
			if plan.MemoryBoosted {
				// Corrections pull every memory into scope; the
				// scorer sorts out which ones matter.
				if raw < e.prefilter {
					raw = e.prefilter
				}
			}
			if c.Intent != domain.IntentMemoryList && raw < e.prefilter {
				continue
			}
			candidates = append(candidates, domain.Candidate{
				Source:    domain.SourceMemory,
				Text:      mem.Content,
				RawScore:  raw,
				Tier:      mem.Tier,
				Priority:  mem.Priority,
				Timestamp: mem.CreatedAt,
				// A correction turn surfaces the just-saved top-tier
				// fact as a correction candidate, which the assembler
				// never drops.
				Correction: c.Intent == domain.IntentCorrection &&
					mem.Tier == domain.Tier1 && mem.Priority >= 1.0,
			})
		}

		logger.Debug("Memory executor: %d memories, %d candidates after prefilter",
			len(memories), len(candidates))
		return candidates, nil
	})
}

// embed computes the query and memory-content embeddings for the
// semantic blend. A missing embedder or a failing upstream degrades to
// keyword-only scoring rather than failing retrieval.
func (e *memoryExecutor) embed(ctx context.Context, queryText string, memories []domain.Memory) ([]float32, [][]float32) {
	if e.embedder == nil || len(memories) == 0 {
		return nil, nil
	}

	queryVec, err := e.embedder.Embed(ctx, queryText)
	if err != nil {
		logger.Debug("Memory executor: query embedding failed, keyword-only scoring: %v", err)
		return nil, nil
	}

	texts := make([]string, len(memories))
	for i, mem := range memories {
		texts[i] = mem.Content
	}
	contentVecs, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil || len(contentVecs) != len(memories) {
		logger.Debug("Memory executor: content embedding failed, keyword-only scoring: %v", err)
		return nil, nil
	}
	return queryVec, contentVecs
}

// relevance is the raw memory score. With embeddings available it is a
// weighted blend of keyword overlap and cosine similarity; without them
// it is the keyword fraction scaled below certainty.
func (e *memoryExecutor) relevance(content string, terms []string, queryVec []float32, contentVecs [][]float32, i int) float64 {
	kw := keywordOverlap(content, terms)
	if queryVec == nil || contentVecs == nil {
		return kw * memoryKeywordCeiling
	}
	return memoryKeywordWeight*kw + memorySemanticWeight*cosine32(queryVec, contentVecs[i])
}

// keywordOverlap is the fraction of query terms present in the content.
func keywordOverlap(content string, terms []string) float64 {
	if len(terms) == 0 {
		return 1.0
	}
	contentLower := strings.ToLower(content)
	matched := 0
	for _, t := range terms {
		if strings.Contains(contentLower, t) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

// cosine32 is the cosine similarity of two embeddings, clamped to
// [0,1]. Mismatched or degenerate vectors score zero.
func cosine32(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return clamp01(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
