package cli

import (
	"context"
	"time"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
)

// fakeRetriever is a canned driving.ContextRetriever for command tests.
type fakeRetriever struct {
	assembled *domain.AssembledContext
	memory    *domain.Memory
	memories  []domain.Memory
	err       error

	lastQuery  domain.Query
	lastBudget int
	forgotten  []string
}

func (f *fakeRetriever) RetrieveContext(
	_ context.Context,
	query domain.Query,
	tokenBudget int,
) (*domain.AssembledContext, error) {
	f.lastQuery = query
	f.lastBudget = tokenBudget
	return f.assembled, f.err
}

func (f *fakeRetriever) Remember(
	_ context.Context,
	userID, threadID, content string,
	tier domain.Tier,
	priority float64,
) (*domain.Memory, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.memory != nil {
		return f.memory, nil
	}
	return &domain.Memory{
		ID:        "mem-test",
		UserID:    userID,
		ThreadID:  threadID,
		Content:   content,
		Tier:      tier,
		Priority:  priority,
		CreatedAt: time.Now(),
	}, nil
}

func (f *fakeRetriever) ListMemories(_ context.Context, _ string, _ int) ([]domain.Memory, error) {
	return f.memories, f.err
}

func (f *fakeRetriever) Forget(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.forgotten = append(f.forgotten, id)
	return nil
}

// fakeAuditService is a canned driving.AuditService for command tests.
type fakeAuditService struct {
	summary   *domain.ConversationSummary
	refreshed int
	err       error
}

func (f *fakeAuditService) AuditThread(_ context.Context, _ string) (*domain.ConversationSummary, error) {
	return f.summary, f.err
}

func (f *fakeAuditService) AuditAll(_ context.Context) (int, error) {
	return f.refreshed, f.err
}

// setupTestServices wires canned services into the command tree and
// returns a cleanup that restores the previous wiring.
func setupTestServices() func() {
	return setupTestServicesWith(&fakeRetriever{
		assembled: &domain.AssembledContext{
			Blocks: []domain.ContextBlock{
				{Kind: domain.BlockMemory, Text: "user prefers espresso", Tokens: 8},
			},
			TotalTokens: 8,
			Result: domain.HybridResult{
				Candidates:     nil,
				LayerBreakdown: map[domain.SourceType]int{domain.SourceMemory: 1},
				Confidence:     0.9,
				ElapsedMs:      12,
			},
		},
	}, &fakeAuditService{})
}

// emptyContext is an assembled context with no blocks.
func emptyContext() *domain.AssembledContext {
	return &domain.AssembledContext{
		Result: domain.HybridResult{LayerBreakdown: map[domain.SourceType]int{}},
	}
}

func setupTestServicesWith(retriever *fakeRetriever, audit *fakeAuditService) func() {
	previous := services
	SetServices(Services{Retriever: retriever, Audit: audit})
	return func() {
		SetServices(previous)
	}
}
