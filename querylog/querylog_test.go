package querylog

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/ragcache/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []Entry {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return []Entry{
		{UserQuery: "q", SubQuery: "What is GPT-4?", Action: core.ActionOpenAI, Reason: "openai", LatencySeconds: 2, AnswerPreview: "A model", Timestamp: base},
		{UserQuery: "q", SubQuery: "What is GPT-4?", Action: core.ActionOpenAI, Reason: "openai", CacheHit: true, LatencySeconds: 0.5, AnswerPreview: "[Semantic Cache HIT]\nA model", Timestamp: base.Add(time.Minute)},
		{UserQuery: "q", SubQuery: "Weather?", Action: core.ActionInternet, Reason: "web", LatencySeconds: 1.5, AnswerPreview: "Sunny", Timestamp: base.Add(2 * time.Minute)},
		{UserQuery: "q", SubQuery: "Horoscope?", Action: core.Action("ASTRO_QUERY"), Reason: "??", AnswerPreview: "Unsupported action: ASTRO_QUERY", Error: "Unsupported action", Timestamp: base.Add(3 * time.Minute)},
	}
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short"))

	long := strings.Repeat("é", 250)
	preview := Preview(long)
	assert.Equal(t, PreviewLength, len([]rune(preview)))
}

func TestCompute(t *testing.T) {
	stats := Compute(sampleEntries())

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.CacheHits)
	assert.Equal(t, 1, stats.Errors)
	assert.InDelta(t, (2+0.5+1.5)/3.0, stats.AvgLatencySeconds, 1e-9)
	assert.InDelta(t, 0.25, stats.HitRate(), 1e-9)
	assert.Equal(t, map[string]int{"OPENAI_QUERY": 2, "INTERNET_QUERY": 1, "ASTRO_QUERY": 1}, stats.ByAction)
}

func TestComputeEmpty(t *testing.T) {
	stats := Compute(nil)
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0.0, stats.HitRate())
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Compute(sampleEntries()).WriteReport(&buf))

	out := buf.String()
	assert.Contains(t, out, "Total queries:   4")
	assert.Contains(t, out, "Cache hits:      1 (25.0%)")
	assert.Contains(t, out, "INTERNET_QUERY")
	assert.Less(t, strings.Index(out, "ASTRO_QUERY"), strings.Index(out, "OPENAI_QUERY"))
}

func TestJSONLSink(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "logs", "rag_log.jsonl")

	sink, err := NewJSONLSink(path)
	require.NoError(t, err)
	for _, e := range sampleEntries() {
		require.NoError(t, sink.Append(ctx, e))
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], `"user_query":"q"`)
	assert.Contains(t, lines[0], `"subquery":"What is GPT-4?"`)
	assert.Contains(t, lines[0], `"route_action":"OPENAI_QUERY"`)
	assert.Contains(t, lines[0], `"cache_hit":false`)
	assert.NotContains(t, lines[0], `"error"`)
	assert.Contains(t, lines[3], `"error":"Unsupported action"`)

	recent, err := sink.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "Horoscope?", recent[0].SubQuery)
	assert.Equal(t, "Weather?", recent[1].SubQuery)

	stats, err := sink.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Compute(sampleEntries()), stats)

	require.NoError(t, sink.Close())
	assert.Error(t, sink.Append(ctx, Entry{}))
}

func TestJSONLSinkStampsTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	sink, err := NewJSONLSink(path)
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.Append(context.Background(), Entry{SubQuery: "q"}))

	entries, err := ReadJSONL(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestReadJSONL(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		entries, err := ReadJSONL(filepath.Join(t.TempDir(), "none.jsonl"))
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("skips malformed lines", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "log.jsonl")
		content := `{"subquery":"a","route_action":"OPENAI_QUERY"}
not json

{"subquery":"b","route_action":"INTERNET_QUERY"}
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		entries, err := ReadJSONL(path)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "b", entries[1].SubQuery)
	})

	t.Run("reads lines longer than a megabyte", func(t *testing.T) {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "log.jsonl")
		sink, err := NewJSONLSink(path)
		require.NoError(t, err)

		long := strings.Repeat("x", 2*1024*1024)
		require.NoError(t, sink.Append(ctx, Entry{UserQuery: long, SubQuery: "a", Action: core.ActionOpenAI}))
		require.NoError(t, sink.Append(ctx, Entry{UserQuery: "short", SubQuery: "b", Action: core.ActionInternet}))
		require.NoError(t, sink.Close())

		entries, err := ReadJSONL(path)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Len(t, entries[0].UserQuery, len(long))
		assert.Equal(t, "b", entries[1].SubQuery)

		stats, err := NewJSONLReader(path).Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Total)
	})

	t.Run("last line without newline", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "log.jsonl")
		content := `{"subquery":"a","route_action":"OPENAI_QUERY"}
{"subquery":"b","route_action":"INTERNET_QUERY"}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		entries, err := ReadJSONL(path)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "b", entries[1].SubQuery)
	})
}

func TestSQLiteSink(t *testing.T) {
	ctx := context.Background()
	sink, err := NewSQLiteSink(filepath.Join(t.TempDir(), "querylog.db"))
	require.NoError(t, err)
	defer sink.Close()

	for _, e := range sampleEntries() {
		require.NoError(t, sink.Append(ctx, e))
	}

	stats, err := sink.Stats(ctx)
	require.NoError(t, err)
	want := Compute(sampleEntries())
	assert.Equal(t, want.Total, stats.Total)
	assert.Equal(t, want.CacheHits, stats.CacheHits)
	assert.Equal(t, want.Errors, stats.Errors)
	assert.InDelta(t, want.AvgLatencySeconds, stats.AvgLatencySeconds, 1e-9)
	assert.Equal(t, want.ByAction, stats.ByAction)

	recent, err := sink.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "Horoscope?", recent[0].SubQuery)
	assert.Equal(t, "Unsupported action", recent[0].Error)
	assert.Equal(t, core.ActionInternet, recent[1].Action)
	assert.True(t, recent[2].CacheHit)
	assert.True(t, sampleEntries()[1].Timestamp.Equal(recent[2].Timestamp))
}

func TestSQLiteSinkEmptyStats(t *testing.T) {
	sink, err := NewSQLiteSink(filepath.Join(t.TempDir(), "querylog.db"))
	require.NoError(t, err)
	defer sink.Close()

	stats, err := sink.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0.0, stats.AvgLatencySeconds)
	assert.Empty(t, stats.ByAction)
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard.Append(context.Background(), Entry{}))
	assert.NoError(t, Discard.Close())
}
