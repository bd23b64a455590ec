package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
	"github.com/custodia-labs/rememba-cli/internal/core/ports/driven"
	"github.com/custodia-labs/rememba-cli/internal/core/ports/driving"
	"github.com/custodia-labs/rememba-cli/internal/logger"
)

var _ driving.ContextRetriever = (*RetrievalService)(nil)

// savePrefixPattern strips the imperative lead-in from an explicit save
// request, leaving the fact itself.
var savePrefixPattern = regexp.MustCompile(`(?i)^(please\s+)?(remember|note|save)(\s+(this|that|it))?[:,]?\s*`)

// correctionPrefixPattern strips the contradiction lead-in from a
// correction, leaving the corrected fact.
var correctionPrefixPattern = regexp.MustCompile(`(?i)^(no[,.]?\s*|that'?s\s+(wrong|not\s+right|incorrect)[,.]?\s*|actually[,.]?\s*|i\s+said\s+)+`)

// RetrievalService is the engine's driving surface. It wires the
// analyzer, planner, orchestrator and assembler into the one logical
// operation the chat layer calls, and owns the explicit memory
// commands.
type RetrievalService struct {
	analyzer     *QueryAnalyzer
	planner      *StrategyPlanner
	orchestrator *Orchestrator
	assembler    *ContextAssembler
	memories     driven.MemoryStore
	history      driven.HistoryStore
	vectors      driven.VectorIndex
	embedder     driven.EmbeddingService
	audit        *AuditService
	settings     domain.Settings
}

// NewRetrievalService creates the retrieval service. The vector index,
// embedder and audit service may be nil; the corresponding behaviours
// degrade gracefully.
func NewRetrievalService(
	analyzer *QueryAnalyzer,
	planner *StrategyPlanner,
	orchestrator *Orchestrator,
	assembler *ContextAssembler,
	memories driven.MemoryStore,
	history driven.HistoryStore,
	vectors driven.VectorIndex,
	embedder driven.EmbeddingService,
	audit *AuditService,
	settings domain.Settings,
) *RetrievalService {
	return &RetrievalService{
		analyzer:     analyzer,
		planner:      planner,
		orchestrator: orchestrator,
		assembler:    assembler,
		memories:     memories,
		history:      history,
		vectors:      vectors,
		embedder:     embedder,
		audit:        audit,
		settings:     settings,
	}
}

// RetrieveContext runs the full pipeline for one query. Retrieval
// failures degrade the result instead of failing it; only invalid input
// returns an error.
func (s *RetrievalService) RetrieveContext(ctx context.Context, query domain.Query, tokenBudget int) (*domain.AssembledContext, error) {
	if strings.TrimSpace(query.Text) == "" {
		return nil, fmt.Errorf("empty query: %w", domain.ErrInvalidInput)
	}
	if query.SubmittedAt.IsZero() {
		query.SubmittedAt = time.Now()
	}
	if tokenBudget <= 0 {
		tokenBudget = s.settings.TokenBudget
	}

	classification := s.analyzer.Analyze(query.Text)
	logger.Info("Query classified: intent=%s complexity=%s keywords=%v",
		classification.Intent, classification.Complexity, classification.Keywords)

	s.recordTurn(ctx, query)

	// Side-effecting intents write before retrieval so the new fact is
	// visible to this very query.
	switch classification.Intent {
	case domain.IntentMemorySave:
		s.saveFromQuery(ctx, query, false)
	case domain.IntentCorrection:
		s.saveFromQuery(ctx, query, true)
	}

	plan := s.planner.Plan(classification)
	result := s.orchestrator.Execute(ctx, query, classification, plan)

	assembled := s.assembler.Assemble(ctx, query, result, tokenBudget)
	return assembled, nil
}

// Remember explicitly saves a memory and indexes it for vector search.
func (s *RetrievalService) Remember(ctx context.Context, userID, threadID, content string, tier domain.Tier, priority float64) (*domain.Memory, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty memory content: %w", domain.ErrInvalidInput)
	}
	if userID == "" {
		return nil, fmt.Errorf("missing user ID: %w", domain.ErrInvalidInput)
	}
	if !tier.IsValid() {
		tier = domain.Tier3
	}
	if priority <= 0 || priority > 1 {
		priority = 0.5
	}

	mem := &domain.Memory{
		ID:        uuid.NewString(),
		UserID:    userID,
		ThreadID:  threadID,
		Content:   content,
		Tier:      tier,
		Priority:  priority,
		CreatedAt: time.Now(),
	}
	if err := s.memories.SaveMemory(ctx, mem); err != nil {
		return nil, fmt.Errorf("saving memory: %w", err)
	}

	s.indexMemory(ctx, mem)

	logger.Info("Saved memory %s (%s, priority %.2f)", mem.ID, mem.Tier, mem.Priority)
	return mem, nil
}

// ListMemories returns the user's live memories, newest first.
func (s *RetrievalService) ListMemories(ctx context.Context, userID string, limit int) ([]domain.Memory, error) {
	if userID == "" {
		return nil, fmt.Errorf("missing user ID: %w", domain.ErrInvalidInput)
	}
	return s.memories.ListMemories(ctx, userID, limit)
}

// Forget tombstones a memory and drops it from the vector index.
func (s *RetrievalService) Forget(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("missing memory ID: %w", domain.ErrInvalidInput)
	}
	if err := s.memories.DeleteMemory(ctx, id, time.Now()); err != nil {
		return fmt.Errorf("deleting memory: %w", err)
	}
	if s.vectors != nil {
		if err := s.vectors.Delete(ctx, id); err != nil {
			logger.Warn("Failed to remove memory %s from vector index: %v", id, err)
		}
	}
	return nil
}

// recordTurn appends the query to chat history and nudges the audit
// debounce clock. History failures are not fatal to retrieval.
func (s *RetrievalService) recordTurn(ctx context.Context, query domain.Query) {
	if s.history == nil || query.ThreadID == "" {
		return
	}
	turn := &domain.ConversationTurn{
		ThreadID:  query.ThreadID,
		Role:      "user",
		Content:   query.Text,
		CreatedAt: query.SubmittedAt,
	}
	if err := s.history.AppendTurn(ctx, turn); err != nil {
		logger.Warn("Failed to record turn: %v", err)
		return
	}
	if s.audit != nil {
		s.audit.Touch(query.ThreadID)
	}
}

// saveFromQuery persists the fact embedded in a save or correction
// query. Corrections are written at tier1 with maximum priority so they
// outrank the fact they supersede.
func (s *RetrievalService) saveFromQuery(ctx context.Context, query domain.Query, correction bool) {
	var content string
	if correction {
		content = strings.TrimSpace(correctionPrefixPattern.ReplaceAllString(query.Text, ""))
	} else {
		content = strings.TrimSpace(savePrefixPattern.ReplaceAllString(query.Text, ""))
	}
	if content == "" {
		content = strings.TrimSpace(query.Text)
	}
	if content == "" {
		return
	}

	tier := domain.Tier2
	priority := 0.7
	if correction {
		tier = domain.Tier1
		priority = 1.0
	}

	if _, err := s.Remember(ctx, query.UserID, query.ThreadID, content, tier, priority); err != nil {
		logger.Warn("Failed to save memory from query: %v", err)
	}
}

// indexMemory embeds and indexes a memory. Embedding failures leave the
// memory keyword-searchable only.
func (s *RetrievalService) indexMemory(ctx context.Context, mem *domain.Memory) {
	if s.vectors == nil || s.embedder == nil {
		return
	}
	embedding, err := s.embedder.Embed(ctx, mem.Content)
	if err != nil {
		logger.Warn("Failed to embed memory %s: %v", mem.ID, err)
		return
	}
	payload := driven.VectorPayload{Text: mem.Content, Tier: mem.Tier.String()}
	if err := s.vectors.Add(ctx, mem.ID, embedding, payload); err != nil {
		logger.Warn("Failed to index memory %s: %v", mem.ID, err)
	}
}
