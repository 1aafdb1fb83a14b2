package openai

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/poiesic/ragcache/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEmbedder(stub *stubEmbedder) *Embedder {
	return &Embedder{embedder: stub, logger: slog.Default()}
}

func TestEmbedderEmbedText(t *testing.T) {
	ctx := context.Background()

	t.Run("returns first vector", func(t *testing.T) {
		e := newTestEmbedder(&stubEmbedder{vectors: [][]float32{{0.1, 0.2}}})
		v, err := e.EmbedText(ctx, "hello")

		require.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.2}, v)
	})

	t.Run("empty result is an error", func(t *testing.T) {
		e := newTestEmbedder(&stubEmbedder{vectors: [][]float32{{}}})
		_, err := e.EmbedText(ctx, "hello")

		assert.ErrorIs(t, err, ai.ErrEmptyEmbedding)
	})

	t.Run("no result is an error", func(t *testing.T) {
		_, err := newTestEmbedder(&stubEmbedder{}).EmbedText(ctx, "hello")

		assert.ErrorIs(t, err, ai.ErrEmptyEmbedding)
	})

	t.Run("upstream error", func(t *testing.T) {
		boom := errors.New("timeout")
		_, err := newTestEmbedder(&stubEmbedder{err: boom}).EmbedText(ctx, "hello")

		assert.ErrorIs(t, err, boom)
	})
}

func TestEmbedderEmbedTexts(t *testing.T) {
	ctx := context.Background()

	t.Run("batch", func(t *testing.T) {
		e := newTestEmbedder(&stubEmbedder{vectors: [][]float32{{1}, {2}}})
		vs, err := e.EmbedTexts(ctx, []string{"a", "b"})

		require.NoError(t, err)
		assert.Len(t, vs, 2)
	})

	t.Run("count mismatch", func(t *testing.T) {
		e := newTestEmbedder(&stubEmbedder{vectors: [][]float32{{1}}})
		_, err := e.EmbedTexts(ctx, []string{"a", "b"})

		assert.ErrorIs(t, err, ai.ErrEmptyEmbedding)
	})

	t.Run("one empty vector", func(t *testing.T) {
		e := newTestEmbedder(&stubEmbedder{vectors: [][]float32{{1}, {}}})
		_, err := e.EmbedTexts(ctx, []string{"a", "b"})

		assert.ErrorIs(t, err, ai.ErrEmptyEmbedding)
	})
}
