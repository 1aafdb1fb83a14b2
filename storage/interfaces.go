package storage

import (
	"context"

	"github.com/poiesic/ragcache/core"
)

// ChunkRepository stores retrievable text chunks grouped into named collections.
// Implementations must be thread-safe and support concurrent access.
type ChunkRepository interface {
	// AddChunks stores one or more chunks.
	// Chunks with ID=0 get a content-derived ID (core.ChunkID).
	// Sets InsertedAt and UpdatedAt. Re-adding identical content overwrites
	// the existing chunk.
	// Returns the chunks with IDs and timestamps populated.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// UpdateChunks replaces existing chunks, typically with new vectors.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// GetChunk retrieves a single chunk.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, collection string, id core.ID) (*core.Chunk, error)

	// GetChunks retrieves every chunk in a collection, ordered by ID.
	GetChunks(ctx context.Context, collection string) ([]*core.Chunk, error)

	// CountChunks returns the number of chunks in a collection.
	CountChunks(ctx context.Context, collection string) (int, error)

	// Collections returns the names of all non-empty collections, sorted.
	Collections(ctx context.Context) ([]string, error)

	// DeleteCollection removes every chunk in a collection and returns how many were removed.
	DeleteCollection(ctx context.Context, collection string) (int, error)

	// FindSimilar returns up to limit chunks from collection ordered by
	// descending inner product with vector. Chunks without a vector, or with a
	// vector of a different dimension, are skipped.
	// Returns ErrInvalidQuery if limit < 1.
	FindSimilar(ctx context.Context, collection string, vector []float32, limit int) ([]*core.ScoredChunk, error)

	// Close releases repository resources. It does not close a shared backend.
	Close() error
}
