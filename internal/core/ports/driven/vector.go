package driven

import "context"

// VectorIndex provides nearest-neighbour search over the knowledge corpus.
type VectorIndex interface {
	// Add inserts a vector with its text payload and optional metadata.
	Add(ctx context.Context, id string, embedding []float32, payload VectorPayload) error

	// Delete removes a vector from the index.
	Delete(ctx context.Context, id string) error

	// Search finds the k nearest neighbours to the query vector.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Close releases resources.
	Close() error
}

// VectorPayload is the text and metadata stored alongside a vector.
type VectorPayload struct {
	// Text is the indexed content.
	Text string

	// Tier optionally overrides the default tier3 classification.
	Tier string
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ID is the matched entry.
	ID string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64

	// Payload is the stored text and metadata.
	Payload VectorPayload
}
