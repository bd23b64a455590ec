package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
)

func TestServer_handleRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns assembled context", func(t *testing.T) {
		retriever := &mockRetriever{}
		retriever.assembled = &domain.AssembledContext{
			Blocks: []domain.ContextBlock{
				{Kind: domain.BlockMemory, Text: "user prefers metric units", Tokens: 9},
				{Kind: domain.BlockSummary, Text: "thread about unit conversion", Tokens: 10},
			},
			TotalTokens: 19,
			Result: domain.HybridResult{
				Confidence: 0.82,
				ElapsedMs:  41,
			},
		}

		ports := &Ports{Retriever: retriever}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := RetrieveInput{Query: "what units do I use?"}
		_, output, err := server.handleRetrieve(ctx, nil, input)

		require.NoError(t, err)
		assert.Len(t, output.Blocks, 2)
		assert.Equal(t, "memory", output.Blocks[0].Kind)
		assert.Equal(t, "user prefers metric units", output.Blocks[0].Text)
		assert.Equal(t, 19, output.TotalTokens)
		assert.Equal(t, 0.82, output.Confidence)
		assert.Equal(t, int64(41), output.ElapsedMs)
		assert.Contains(t, output.Context, "user prefers metric units")
	})

	t.Run("returns error on retrieval failure", func(t *testing.T) {
		retriever := &mockRetriever{err: errors.New("retrieval failed")}
		server, err := NewServer(&Ports{Retriever: retriever})
		require.NoError(t, err)

		_, _, err = server.handleRetrieve(ctx, nil, RetrieveInput{Query: "test"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "retrieval failed")
	})
}

func TestServer_handleRemember(t *testing.T) {
	ctx := context.Background()

	t.Run("saves with defaults", func(t *testing.T) {
		retriever := &mockRetriever{
			memory: &domain.Memory{
				ID:       "mem-1",
				Tier:     domain.Tier2,
				Priority: 0.7,
			},
		}
		server, err := NewServer(&Ports{Retriever: retriever})
		require.NoError(t, err)

		input := RememberInput{Content: "user is vegetarian"}
		_, output, err := server.handleRemember(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "mem-1", output.ID)
		assert.Equal(t, "tier2", output.Tier)
		assert.Equal(t, 0.7, output.Priority)
	})

	t.Run("returns error on save failure", func(t *testing.T) {
		retriever := &mockRetriever{err: domain.ErrAlreadyExists}
		server, err := NewServer(&Ports{Retriever: retriever})
		require.NoError(t, err)

		_, _, err = server.handleRemember(ctx, nil, RememberInput{Content: "dup"})

		assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	})
}

func TestServer_handleForget(t *testing.T) {
	ctx := context.Background()

	t.Run("forgets by ID", func(t *testing.T) {
		retriever := &mockRetriever{}
		server, err := NewServer(&Ports{Retriever: retriever})
		require.NoError(t, err)

		_, output, err := server.handleForget(ctx, nil, ForgetInput{ID: "mem-9"})

		require.NoError(t, err)
		assert.True(t, output.Forgotten)
		assert.Equal(t, []string{"mem-9"}, retriever.forgotten)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		retriever := &mockRetriever{err: domain.ErrNotFound}
		server, err := NewServer(&Ports{Retriever: retriever})
		require.NoError(t, err)

		_, _, err = server.handleForget(ctx, nil, ForgetInput{ID: "missing"})

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, "default", orDefault(""))
	assert.Equal(t, "alice", orDefault("alice"))
}
