package reembed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/ragcache/ai/mock"
	"github.com/poiesic/ragcache/core"
	"github.com/poiesic/ragcache/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEmbedder(dim int) *mock.MockEmbedder {
	e := mock.NewMockEmbedder()
	e.Dimensions = dim
	return e
}

func TestBatchProcessor_Process(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	added := addChunks(t, repo, "docs", 3)

	embedder := newTestEmbedder(4)
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{3, 4, 0, 0}
		}
		return out, nil
	}

	bp := NewBatchProcessor(repo, embedder, fastBackoff(3))
	require.NoError(t, bp.Process(ctx, added))

	for _, c := range added {
		stored, err := repo.GetChunk(ctx, "docs", c.Id)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float32{0.6, 0.8, 0, 0}, stored.Vector, 1e-6)
		assert.True(t, stored.InsertedAt.Equal(c.InsertedAt))
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	embedder := newTestEmbedder(4)
	bp := NewBatchProcessor(setupTestRepo(t), embedder, fastBackoff(1))
	require.NoError(t, bp.Process(context.Background(), nil))
	assert.Equal(t, 0, embedder.CallCount())
}

func TestBatchProcessor_RetriesEmbedding(t *testing.T) {
	repo := setupTestRepo(t)
	added := addChunks(t, repo, "docs", 2)

	embedder := newTestEmbedder(4)
	calls := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("temporary error")
		}
		return [][]float32{{1, 1, 1, 1}, {2, 0, 0, 0}}, nil
	}

	bp := NewBatchProcessor(repo, embedder, Backoff{Attempts: 3, BaseDelay: time.Millisecond})
	require.NoError(t, bp.Process(context.Background(), added))
	assert.Equal(t, 3, calls)
	assert.InDelta(t, 1.0, index.Magnitude(added[0].Vector), 1e-6)
	assert.Equal(t, []float32{1, 0, 0, 0}, added[1].Vector)
}

func TestBatchProcessor_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("embedding keeps failing", func(t *testing.T) {
		repo := setupTestRepo(t)
		added := addChunks(t, repo, "docs", 1)
		boom := errors.New("model gone")
		embedder := newTestEmbedder(4)
		embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
			return nil, boom
		}

		err := NewBatchProcessor(repo, embedder, Backoff{Attempts: 2, BaseDelay: time.Millisecond}).Process(ctx, added)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 2, embedder.CallCount())

		stored, err := repo.GetChunk(ctx, "docs", added[0].Id)
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 0, 0}, stored.Vector)
	})

	t.Run("count mismatch", func(t *testing.T) {
		repo := setupTestRepo(t)
		added := addChunks(t, repo, "docs", 2)
		embedder := newTestEmbedder(4)
		embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
			return [][]float32{{1}}, nil
		}

		err := NewBatchProcessor(repo, embedder, fastBackoff(1)).Process(ctx, added)
		assert.ErrorIs(t, err, ErrEmbeddingMismatch)
	})

	t.Run("empty vector", func(t *testing.T) {
		repo := setupTestRepo(t)
		added := addChunks(t, repo, "docs", 1)
		embedder := newTestEmbedder(4)
		embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
			return [][]float32{{}}, nil
		}

		err := NewBatchProcessor(repo, embedder, fastBackoff(1)).Process(ctx, added)
		assert.Error(t, err)
	})

	t.Run("missing chunk", func(t *testing.T) {
		repo := setupTestRepo(t)
		ghost := &core.Chunk{Id: 42, Collection: "docs", Content: "never stored"}

		err := NewBatchProcessor(repo, newTestEmbedder(4), fastBackoff(1)).Process(ctx, []*core.Chunk{ghost})
		assert.Error(t, err)
	})
}
