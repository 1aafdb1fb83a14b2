// Package retrieval maps routing actions to chunk collections and returns
// the most similar chunk texts for a query vector.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/poiesic/ragcache/core"
	"github.com/poiesic/ragcache/storage"
)

// DefaultLimit is the number of chunks returned when callers have no preference.
const DefaultLimit = 3

// Collection names backing the document routes.
const (
	OpenAICollection = "opnai_data"
	TenKCollection   = "10k_data"
)

// DefaultCollections returns the standard action to collection mapping.
func DefaultCollections() map[core.Action]string {
	return map[core.Action]string{
		core.ActionOpenAI: OpenAICollection,
		core.ActionTenK:   TenKCollection,
	}
}

// Retriever fetches context chunks for retrieval routes.
type Retriever struct {
	repo        storage.ChunkRepository
	collections map[core.Action]string
	logger      *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithCollections replaces the action to collection mapping.
func WithCollections(collections map[core.Action]string) Option {
	return func(r *Retriever) error {
		r.collections = maps.Clone(collections)
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// New creates a Retriever over repo.
func New(repo storage.ChunkRepository, opts ...Option) (*Retriever, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}

	r := &Retriever{
		repo:        repo,
		collections: DefaultCollections(),
		logger:      slog.Default().With("component", "retriever"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Collection returns the collection that serves action.
func (r *Retriever) Collection(action core.Action) (string, error) {
	collection, ok := r.collections[action]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, string(action))
	}
	return collection, nil
}

// Collections returns a copy of the action to collection mapping.
func (r *Retriever) Collections() map[core.Action]string {
	return maps.Clone(r.collections)
}

// Retrieve returns up to limit chunk texts from the action's collection,
// most similar first. An empty result is not an error.
func (r *Retriever) Retrieve(ctx context.Context, vector []float32, action core.Action, limit int) ([]string, error) {
	collection, err := r.Collection(action)
	if err != nil {
		return nil, err
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}

	hits, err := r.repo.FindSimilar(ctx, collection, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrievalFailed, err)
	}

	chunks := make([]string, len(hits))
	for i, hit := range hits {
		chunks[i] = hit.Chunk.Content
	}

	r.logger.Debug("retrieved chunks", "collection", collection, "count", len(chunks))
	return chunks, nil
}
