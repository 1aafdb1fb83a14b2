package reembed

import (
	"context"
	"fmt"

	"github.com/poiesic/ragcache/ai"
	"github.com/poiesic/ragcache/core"
	"github.com/poiesic/ragcache/index"
	"github.com/poiesic/ragcache/storage"
)

// BatchProcessor re-embeds one batch of chunks and writes them back.
type BatchProcessor struct {
	repo     storage.ChunkRepository
	embedder ai.Embedder
	backoff  Backoff
}

// NewBatchProcessor creates a batch processor that retries embedding with backoff.
func NewBatchProcessor(repo storage.ChunkRepository, embedder ai.Embedder, backoff Backoff) *BatchProcessor {
	return &BatchProcessor{
		repo:     repo,
		embedder: embedder,
		backoff:  backoff,
	}
}

// Process replaces the vector of every chunk in the batch.
// Storage errors are not retried.
func (bp *BatchProcessor) Process(ctx context.Context, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	var embeddings [][]float32
	err := bp.backoff.Do(ctx, func(ctx context.Context) error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	})
	if err != nil {
		return fmt.Errorf("generate embeddings after %d attempts: %w", bp.backoff.Attempts, err)
	}

	if len(embeddings) != len(chunks) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingMismatch, len(chunks), len(embeddings))
	}

	for i := range chunks {
		if len(embeddings[i]) == 0 {
			return fmt.Errorf("chunk %d: %w", chunks[i].Id, ai.ErrEmptyEmbedding)
		}
		chunks[i].Vector = index.Normalize(embeddings[i])
	}

	if _, err := bp.repo.UpdateChunks(ctx, chunks...); err != nil {
		return fmt.Errorf("update chunks: %w", err)
	}
	return nil
}
