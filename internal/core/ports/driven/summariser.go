package driven

import "context"

// Summariser condenses conversation transcripts into rolling summaries.
// This is an optional service - when nil, the audit job falls back to a
// deterministic structural summary (first message, exchange count,
// latest message).
type Summariser interface {
	// Summarise produces a summary of the transcript no longer than
	// maxTokens.
	Summarise(ctx context.Context, transcript string, maxTokens int) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
