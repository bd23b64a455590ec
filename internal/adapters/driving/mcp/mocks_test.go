package mcp

import (
	"context"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
)

// mockRetriever is a mock implementation of driving.ContextRetriever.
type mockRetriever struct {
	assembled *domain.AssembledContext
	memory    *domain.Memory
	memories  []domain.Memory
	err       error

	forgotten []string
}

func (m *mockRetriever) RetrieveContext(
	_ context.Context,
	_ domain.Query,
	_ int,
) (*domain.AssembledContext, error) {
	return m.assembled, m.err
}

func (m *mockRetriever) Remember(
	_ context.Context,
	_, _, _ string,
	_ domain.Tier,
	_ float64,
) (*domain.Memory, error) {
	return m.memory, m.err
}

func (m *mockRetriever) ListMemories(_ context.Context, _ string, _ int) ([]domain.Memory, error) {
	return m.memories, m.err
}

func (m *mockRetriever) Forget(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.forgotten = append(m.forgotten, id)
	return nil
}

// mockAuditService is a mock implementation of driving.AuditService.
type mockAuditService struct {
	summary   *domain.ConversationSummary
	refreshed int
	err       error
}

func (m *mockAuditService) AuditThread(_ context.Context, _ string) (*domain.ConversationSummary, error) {
	return m.summary, m.err
}

func (m *mockAuditService) AuditAll(_ context.Context) (int, error) {
	return m.refreshed, m.err
}
