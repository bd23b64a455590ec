package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidSettings indicates the configuration failed validation.
	ErrInvalidSettings = errors.New("invalid settings")

	// Retrieval Errors. Source executors recover these locally and
	// return empty results; they never reach the caller.

	// ErrSourceTimeout indicates a source executor exceeded its deadline.
	ErrSourceTimeout = errors.New("source timed out")

	// ErrSourceUpstream indicates the external service failed or
	// returned a malformed payload.
	ErrSourceUpstream = errors.New("source upstream failure")

	// ErrCacheUnavailable indicates the cache could not be reached.
	// Executors treat this as a transparent pass-through.
	ErrCacheUnavailable = errors.New("cache unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Semantic retrieval is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not
	// configured. Vector retrieval is disabled.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrWebSearchUnavailable indicates the web search service is not
	// configured. Web retrieval is disabled.
	ErrWebSearchUnavailable = errors.New("web search unavailable")

	// ErrRateLimited indicates the upstream API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrAuditInProgress indicates an audit run is already active.
	ErrAuditInProgress = errors.New("audit in progress")
)
