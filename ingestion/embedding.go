package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/ragcache/ai"
	"github.com/poiesic/ragcache/core"
	"github.com/poiesic/ragcache/index"
)

// embeddingProcessor generates unit-norm embeddings for chunks.
type embeddingProcessor struct {
	embedder ai.Embedder
	logger   *slog.Logger
}

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(embedder ai.Embedder, logger *slog.Logger) (*embeddingProcessor, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		embedder: embedder,
		logger:   logger.With("processor", "embeddings"),
	}, nil
}

// process sets the Vector of every chunk in the batch.
func (ep *embeddingProcessor) process(ctx context.Context, chunks []*core.Chunk) error {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	ep.logger.Debug("generating embeddings for chunks", "chunks", len(texts))
	embeddings, err := ep.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		ep.logger.Error("error generating embeddings", "err", err)
		return err
	}

	if len(embeddings) != len(chunks) {
		return fmt.Errorf("%w: expected %d, received %d", ErrEmbeddingMismatch, len(chunks), len(embeddings))
	}

	for i := range embeddings {
		if len(embeddings[i]) == 0 {
			return fmt.Errorf("%w: chunk %d", ai.ErrEmptyEmbedding, i)
		}
		chunks[i].Vector = index.Normalize(embeddings[i])
	}
	return nil
}
