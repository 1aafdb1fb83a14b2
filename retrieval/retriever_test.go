package retrieval

import (
	"context"
	"testing"

	"github.com/poiesic/ragcache/core"
	"github.com/poiesic/ragcache/storage"
	"github.com/poiesic/ragcache/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRetriever(t *testing.T, opts ...Option) (*Retriever, storage.ChunkRepository) {
	t.Helper()
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	r, err := New(repo, opts...)
	require.NoError(t, err)
	return r, repo
}

func TestNewRequiresRepository(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)
}

func TestRetrieve(t *testing.T) {
	r, repo := newTestRetriever(t)
	ctx := context.Background()

	_, err := repo.AddChunks(ctx,
		&core.Chunk{Collection: OpenAICollection, Content: "GPT-4 is multimodal.", Vector: []float32{1, 0}},
		&core.Chunk{Collection: OpenAICollection, Content: "DALL-E draws.", Vector: []float32{0.6, 0.8}},
		&core.Chunk{Collection: OpenAICollection, Content: "Whisper transcribes.", Vector: []float32{0, 1}},
		&core.Chunk{Collection: OpenAICollection, Content: "Sora makes video.", Vector: []float32{-1, 0}},
		&core.Chunk{Collection: TenKCollection, Content: "Uber revenue grew.", Vector: []float32{1, 0}},
	)
	require.NoError(t, err)

	t.Run("top k in order", func(t *testing.T) {
		chunks, err := r.Retrieve(ctx, []float32{1, 0}, core.ActionOpenAI, DefaultLimit)
		require.NoError(t, err)
		assert.Equal(t, []string{"GPT-4 is multimodal.", "DALL-E draws.", "Whisper transcribes."}, chunks)
	})

	t.Run("collection per action", func(t *testing.T) {
		chunks, err := r.Retrieve(ctx, []float32{1, 0}, core.ActionTenK, DefaultLimit)
		require.NoError(t, err)
		assert.Equal(t, []string{"Uber revenue grew."}, chunks)
	})

	t.Run("internet action is invalid", func(t *testing.T) {
		_, err := r.Retrieve(ctx, []float32{1, 0}, core.ActionInternet, DefaultLimit)
		assert.ErrorIs(t, err, ErrInvalidAction)
	})

	t.Run("invalid limit", func(t *testing.T) {
		_, err := r.Retrieve(ctx, []float32{1, 0}, core.ActionOpenAI, 0)
		assert.ErrorIs(t, err, ErrInvalidLimit)
	})
}

func TestRetrieveEmptyCollection(t *testing.T) {
	r, _ := newTestRetriever(t)

	chunks, err := r.Retrieve(context.Background(), []float32{1, 0}, core.ActionOpenAI, 3)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestRetrieveStoreFailure(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	r, err := New(repo)
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	_, err = r.Retrieve(context.Background(), []float32{1}, core.ActionOpenAI, 3)
	assert.ErrorIs(t, err, ErrRetrievalFailed)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestWithCollections(t *testing.T) {
	custom := map[core.Action]string{core.ActionOpenAI: "openai_v2"}
	r, _ := newTestRetriever(t, WithCollections(custom))

	custom[core.ActionTenK] = "mutated after construction"

	collection, err := r.Collection(core.ActionOpenAI)
	require.NoError(t, err)
	assert.Equal(t, "openai_v2", collection)

	_, err = r.Collection(core.ActionTenK)
	assert.ErrorIs(t, err, ErrInvalidAction)
}
