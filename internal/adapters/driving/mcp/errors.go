// Package mcp provides an MCP (Model Context Protocol) server adapter for Rememba.
// It lets AI assistants retrieve assembled context and manage memories directly.
package mcp

import "errors"

// ErrMissingRetriever is returned when the context retriever is not provided.
var ErrMissingRetriever = errors.New("mcp: context retriever is required")
