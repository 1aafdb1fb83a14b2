package ai

import (
	"context"

	"github.com/poiesic/ragcache/core"
)

// Embedder generates vector embeddings from text.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns ErrEmptyEmbedding rather than a zero-length vector.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces a free-text answer to a question grounded in context chunks.
type Generator interface {
	// Generate answers question using the ordered context chunks.
	// Errors are returned to the caller unchanged.
	Generate(ctx context.Context, question string, chunks []string) (string, error)
}

// Router splits compound queries and classifies sub-questions into actions.
type Router interface {
	// Route classifies a single sub-question. It never fails: on any
	// collaborator or parse error it returns core.DefaultAction with the
	// failure detail in Reason and an empty Answer.
	Route(ctx context.Context, question string) core.RouteDecision

	// Split breaks a user query into ordered sub-questions without inventing
	// new ones. A single-idea query yields exactly one element.
	// Collaborator and parse failures are returned.
	Split(ctx context.Context, query string) ([]string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder, Generator and Router instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Generator returns the answer generation service.
	Generator() Generator

	// Router returns the query routing service.
	Router() Router

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
