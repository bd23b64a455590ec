// Package qdrant provides a vector index adapter using the Qdrant REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
	"github.com/custodia-labs/rememba-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:6333"
	DefaultCollection = "rememba"
	DefaultTimeout    = 30 * time.Second
)

// Config holds configuration for the Qdrant index.
type Config struct {
	// BaseURL is the Qdrant REST API base URL (default: http://localhost:6333).
	BaseURL string

	// Collection is the collection name (default: rememba).
	Collection string

	// Dimensions is the embedding vector size (required). Must match the
	// embedding model.
	Dimensions int

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Index talks to a Qdrant collection over its REST API.
type Index struct {
	client     *http.Client
	baseURL    string
	collection string
	dimensions int
}

// point is the Qdrant point format.
type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload,omitempty"`
}

// NewIndex creates a Qdrant index and ensures the collection exists.
func NewIndex(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("qdrant: dimensions are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	idx := &Index{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:    cfg.BaseURL,
		collection: cfg.Collection,
		dimensions: cfg.Dimensions,
	}

	if err := idx.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

// Add inserts a vector with its text payload.
func (idx *Index) Add(ctx context.Context, id string, embedding []float32, payload driven.VectorPayload) error {
	if len(embedding) != idx.dimensions {
		return fmt.Errorf("qdrant: embedding has %d dimensions, collection expects %d: %w",
			len(embedding), idx.dimensions, domain.ErrInvalidInput)
	}

	body := map[string]any{
		"points": []point{{
			ID:     id,
			Vector: embedding,
			Payload: map[string]any{
				"text": payload.Text,
				"tier": payload.Tier,
			},
		}},
	}

	if _, err := idx.do(ctx, http.MethodPut, "/collections/"+idx.collection+"/points", body); err != nil {
		return fmt.Errorf("upserting point: %w", err)
	}
	return nil
}

// Delete removes a vector from the index. Idempotent.
func (idx *Index) Delete(ctx context.Context, id string) error {
	body := map[string]any{
		"points": []string{id},
	}
	if _, err := idx.do(ctx, http.MethodPost, "/collections/"+idx.collection+"/points/delete", body); err != nil {
		return fmt.Errorf("deleting point: %w", err)
	}
	return nil
}

// Search finds the k nearest neighbours to the query vector.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	body := map[string]any{
		"vector":       query,
		"limit":        k,
		"with_payload": true,
	}

	respBody, err := idx.do(ctx, http.MethodPost, "/collections/"+idx.collection+"/points/search", body)
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}

	var resp struct {
		Result []struct {
			ID      string         `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	hits := make([]driven.VectorHit, len(resp.Result))
	for i, r := range resp.Result {
		hit := driven.VectorHit{
			ID:         r.ID,
			Similarity: r.Score,
		}
		if text, ok := r.Payload["text"].(string); ok {
			hit.Payload.Text = text
		}
		if tier, ok := r.Payload["tier"].(string); ok {
			hit.Payload.Tier = tier
		}
		hits[i] = hit
	}
	return hits, nil
}

// Close releases resources.
func (idx *Index) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// ensureCollection creates the collection if it doesn't exist.
func (idx *Index) ensureCollection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		idx.baseURL+"/collections/"+idx.collection, http.NoBody)
	if err != nil {
		return fmt.Errorf("checking collection: %w", err)
	}

	resp, err := idx.client.Do(req)
	if err != nil {
		return fmt.Errorf("checking collection: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     idx.dimensions,
			"distance": "Cosine",
		},
	}
	if _, err := idx.do(ctx, http.MethodPut, "/collections/"+idx.collection, body); err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	return nil
}

// do sends a JSON request and returns the response body on 2xx status.
func (idx *Index) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, idx.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := idx.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVectorIndexUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant error (status %d): %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
