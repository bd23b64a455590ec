package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
)

// RetrieveInput is the input schema for the retrieve_context tool.
type RetrieveInput struct {
	Query       string `json:"query" jsonschema:"the user query to assemble context for"`
	UserID      string `json:"user_id,omitempty" jsonschema:"user to retrieve context for (default 'default')"`
	ThreadID    string `json:"thread_id,omitempty" jsonschema:"conversation thread (default 'default')"`
	TokenBudget int    `json:"token_budget,omitempty" jsonschema:"maximum context tokens (0 uses the configured default)"`
}

// RetrieveOutput is the output schema for the retrieve_context tool.
type RetrieveOutput struct {
	Context     string        `json:"context"`
	Blocks      []BlockOutput `json:"blocks"`
	TotalTokens int           `json:"total_tokens"`
	Confidence  float64       `json:"confidence"`
	ElapsedMs   int64         `json:"elapsed_ms"`
}

// BlockOutput represents a single context block.
type BlockOutput struct {
	Kind   string `json:"kind"`
	Text   string `json:"text"`
	Tokens int    `json:"tokens"`
}

// RememberInput is the input schema for the remember tool.
type RememberInput struct {
	Content  string  `json:"content" jsonschema:"the fact to remember"`
	UserID   string  `json:"user_id,omitempty" jsonschema:"owning user (default 'default')"`
	ThreadID string  `json:"thread_id,omitempty" jsonschema:"source thread (default 'default')"`
	Tier     string  `json:"tier,omitempty" jsonschema:"importance tier: tier1, tier2 or tier3 (default tier2)"`
	Priority float64 `json:"priority,omitempty" jsonschema:"importance weight in [0,1] (default 0.7)"`
}

// RememberOutput is the output schema for the remember tool.
type RememberOutput struct {
	ID       string  `json:"id"`
	Tier     string  `json:"tier"`
	Priority float64 `json:"priority"`
}

// ForgetInput is the input schema for the forget tool.
type ForgetInput struct {
	ID string `json:"id" jsonschema:"the memory ID to forget"`
}

// ForgetOutput is the output schema for the forget tool.
type ForgetOutput struct {
	Forgotten bool `json:"forgotten"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve_context",
		Description: "Assemble a token-budgeted context window for a query from memories, history, summaries and external sources",
	}, s.handleRetrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "remember",
		Description: "Save a fact as a persistent memory for the user",
	}, s.handleRemember)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "forget",
		Description: "Delete a saved memory by ID",
	}, s.handleForget)
}

// handleRetrieve handles the retrieve_context tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	query := domain.Query{
		Text:        input.Query,
		UserID:      orDefault(input.UserID),
		ThreadID:    orDefault(input.ThreadID),
		SubmittedAt: time.Now(),
	}

	assembled, err := s.ports.Retriever.RetrieveContext(ctx, query, input.TokenBudget)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Context:     assembled.Render(),
		Blocks:      make([]BlockOutput, len(assembled.Blocks)),
		TotalTokens: assembled.TotalTokens,
		Confidence:  assembled.Result.Confidence,
		ElapsedMs:   assembled.Result.ElapsedMs,
	}

	for i, block := range assembled.Blocks {
		output.Blocks[i] = BlockOutput{
			Kind:   string(block.Kind),
			Text:   block.Text,
			Tokens: block.Tokens,
		}
	}

	return nil, output, nil
}

// handleRemember handles the remember tool invocation.
func (s *Server) handleRemember(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RememberInput,
) (*mcp.CallToolResult, RememberOutput, error) {
	tier := domain.Tier(input.Tier)
	if input.Tier == "" {
		tier = domain.Tier2
	}
	priority := input.Priority
	if priority <= 0 {
		priority = 0.7
	}

	memory, err := s.ports.Retriever.Remember(
		ctx, orDefault(input.UserID), orDefault(input.ThreadID), input.Content, tier, priority)
	if err != nil {
		return nil, RememberOutput{}, err
	}

	return nil, RememberOutput{
		ID:       memory.ID,
		Tier:     string(memory.Tier),
		Priority: memory.Priority,
	}, nil
}

// handleForget handles the forget tool invocation.
func (s *Server) handleForget(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ForgetInput,
) (*mcp.CallToolResult, ForgetOutput, error) {
	if err := s.ports.Retriever.Forget(ctx, input.ID); err != nil {
		return nil, ForgetOutput{}, err
	}
	return nil, ForgetOutput{Forgotten: true}, nil
}

func orDefault(id string) string {
	if id == "" {
		return "default"
	}
	return id
}
