package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for Rememba resources.
	uriScheme = "rememba://"

	// resourceMemoryLimit caps how many memories a resource read returns.
	resourceMemoryLimit = 100
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for the default user's memories.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "memories",
		Name:        "memories",
		Description: "Saved memories for the default user, newest first",
		MIMEType:    "application/json",
	}, s.handleMemoriesResource)

	// Template for a specific user's memories.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "users/{userId}/memories",
		Name:        "user-memories",
		Description: "Saved memories for a specific user, newest first",
		MIMEType:    "application/json",
	}, s.handleUserMemoriesResource)
}

// handleMemoriesResource returns the default user's memories.
func (s *Server) handleMemoriesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return s.memoriesResult(ctx, req.Params.URI, "default")
}

// handleUserMemoriesResource returns memories for a specific user.
func (s *Server) handleUserMemoriesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	userID := extractUserID(req.Params.URI)
	if userID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return s.memoriesResult(ctx, req.Params.URI, userID)
}

func (s *Server) memoriesResult(ctx context.Context, uri, userID string) (*mcp.ReadResourceResult, error) {
	memories, err := s.ports.Retriever.ListMemories(ctx, userID, resourceMemoryLimit)
	if err != nil {
		return nil, fmt.Errorf("listing memories: %w", err)
	}

	// Build simplified memory list.
	type memoryInfo struct {
		ID       string  `json:"id"`
		Content  string  `json:"content"`
		Tier     string  `json:"tier"`
		Priority float64 `json:"priority"`
		SavedAt  string  `json:"saved_at"`
	}

	infos := make([]memoryInfo, len(memories))
	for i := range memories {
		infos[i] = memoryInfo{
			ID:       memories[i].ID,
			Content:  memories[i].Content,
			Tier:     string(memories[i].Tier),
			Priority: memories[i].Priority,
			SavedAt:  memories[i].CreatedAt.Format(time.RFC3339),
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling memories: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractUserID extracts the user ID from a URI like rememba://users/{userId}/memories.
func extractUserID(uri string) string {
	const prefix = uriScheme + "users/"
	const suffix = "/memories"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
