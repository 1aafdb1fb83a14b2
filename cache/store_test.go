package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/ragcache/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "semantic_cache.json"))

	snap, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, snap.Questions)

	c, err := New(mock.NewMockEmbedder(), store)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "semantic_cache.json")

	first, err := New(mock.NewMockEmbedder(), NewFileStore(path))
	require.NoError(t, err)
	require.NoError(t, first.Add(ctx, "What is GPT-4?", "A model.", []string{"chunk one", "chunk two"}))
	require.NoError(t, first.Add(ctx, "Weather in Paris?", "Sunny.", nil))

	second, err := New(mock.NewMockEmbedder(), NewFileStore(path))
	require.NoError(t, err)
	assert.Equal(t, 2, second.Len())
	assert.Equal(t, first.Entries(), second.Entries())

	answer, hit, err := second.Get(ctx, "What is GPT-4?", []string{"chunk one", "chunk two"})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "A model.", answer)

	// Only the snapshot remains; temporary files are renamed away.
	files, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "semantic_cache.json", files[0].Name())
}

func TestFileStoreFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "semantic_cache.json")
	c, err := New(mock.NewMockEmbedder(), NewFileStore(path))
	require.NoError(t, err)
	require.NoError(t, c.Add(context.Background(), "q", "a", nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "questions")
	assert.Contains(t, raw, "answers")
	assert.Contains(t, raw, "contexts")
	assert.Contains(t, raw, "embeddings")
	assert.JSONEq(t, `[[]]`, string(raw["contexts"]))
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "semantic_cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := New(mock.NewMockEmbedder(), NewFileStore(path))
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
}

func TestFileStoreRewritesAfterInvalidate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "semantic_cache.json")
	store := NewFileStore(path)

	c, err := New(mock.NewMockEmbedder(), store)
	require.NoError(t, err)
	require.NoError(t, c.Add(ctx, "q1", "a1", []string{"x"}))
	require.NoError(t, c.Add(ctx, "q2", "a2", []string{"y"}))

	removed, err := c.InvalidateForContext(ctx, []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	snap, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"q2"}, snap.Questions)
	assert.Len(t, snap.Embeddings, 1)
}

func TestMemoryStoreIsolation(t *testing.T) {
	store := NewMemoryStore()
	snap := &Snapshot{
		Questions:  []string{"q"},
		Answers:    []string{"a"},
		Contexts:   [][]string{{"c"}},
		Embeddings: [][]float32{{1}},
	}
	require.NoError(t, store.Save(snap))

	snap.Contexts[0][0] = "mutated"
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "c", loaded.Contexts[0][0])
}

func TestFileStoreEmptyAfterClear(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "semantic_cache.json")
	c, err := New(mock.NewMockEmbedder(), NewFileStore(path))
	require.NoError(t, err)
	require.NoError(t, c.Add(ctx, "q", "a", []string{"x"}))

	removed, err := c.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"questions":[],"answers":[],"contexts":[],"embeddings":[]}`, string(data))

	reopened, err := New(mock.NewMockEmbedder(), NewFileStore(path))
	require.NoError(t, err)
	assert.Equal(t, 0, reopened.Len())
}
