package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/poiesic/ragcache/ai/mock"
	"github.com/poiesic/ragcache/cache"
	"github.com/poiesic/ragcache/core"
	"github.com/poiesic/ragcache/querylog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRetriever struct {
	chunks []string
	err    error
	calls  int
}

func (r *stubRetriever) Retrieve(ctx context.Context, vector []float32, action core.Action, limit int) ([]string, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.chunks, nil
}

type stubWeb struct {
	answer string
	err    error
	calls  int
}

func (w *stubWeb) Search(ctx context.Context, query string) (string, error) {
	w.calls++
	if w.err != nil {
		return "", w.err
	}
	return w.answer, nil
}

type captureSink struct {
	mu      sync.Mutex
	entries []querylog.Entry
	err     error
}

func (s *captureSink) Append(ctx context.Context, e querylog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return s.err
}

func (s *captureSink) Close() error { return nil }

type fixture struct {
	embedder  *mock.MockEmbedder
	generator *mock.MockGenerator
	router    *mock.MockRouter
	retriever *stubRetriever
	web       *stubWeb
	cache     *cache.SemanticCache
	sink      *captureSink
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		embedder:  mock.NewMockEmbedder(),
		generator: mock.NewMockGenerator(),
		router:    mock.NewMockRouter(),
		retriever: &stubRetriever{},
		web:       &stubWeb{answer: "from the web"},
		sink:      &captureSink{},
	}
	c, err := cache.New(f.embedder, cache.NewMemoryStore())
	require.NoError(t, err)
	f.cache = c
	return f
}

func (f *fixture) pipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	provider := mock.NewMockProviderWithServices(f.embedder, f.generator, f.router)
	opts = append([]Option{WithWebClient(f.web), WithSink(f.sink)}, opts...)
	p, err := New(provider, f.retriever, f.cache, opts...)
	require.NoError(t, err)
	return p
}

// routeBy routes questions through a fixed table, defaulting to internet.
func routeBy(table map[string]core.Action) func(context.Context, string) core.RouteDecision {
	return func(_ context.Context, q string) core.RouteDecision {
		if a, ok := table[q]; ok {
			return core.RouteDecision{Action: a, Reason: "table"}
		}
		return core.RouteDecision{Action: core.ActionInternet, Reason: "default"}
	}
}

func splitInto(subs ...string) func(context.Context, string) ([]string, error) {
	return func(context.Context, string) ([]string, error) {
		return subs, nil
	}
}

func TestNew(t *testing.T) {
	f := newFixture(t)
	provider := mock.NewMockProvider()

	_, err := New(nil, f.retriever, f.cache)
	assert.ErrorIs(t, err, ErrAIProviderRequired)

	_, err = New(provider, nil, f.cache)
	assert.ErrorIs(t, err, ErrRetrieverRequired)

	_, err = New(provider, f.retriever, nil)
	assert.ErrorIs(t, err, ErrCacheRequired)

	_, err = New(provider, f.retriever, f.cache)
	assert.ErrorIs(t, err, ErrWebClientRequired)

	_, err = New(provider, f.retriever, f.cache, WithAllowWebSearch(false))
	assert.NoError(t, err)

	_, err = New(provider, f.retriever, f.cache, WithAllowWebSearch(false), WithRetrievalLimit(0))
	assert.ErrorIs(t, err, ErrInvalidRetrievalLimit)
}

func TestRunScenario(t *testing.T) {
	f := newFixture(t)
	const question = "What is GPT-4?"
	f.router.RouteFunc = routeBy(map[string]core.Action{question: core.ActionOpenAI})
	f.retriever.chunks = []string{"GPT-4 is a model."}
	f.generator.GenerateFunc = func(context.Context, string, []string) (string, error) {
		return "GPT-4 is OpenAI's model.[1]", nil
	}
	p := f.pipeline(t)
	ctx := context.Background()

	answers, err := p.Run(ctx, question)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{question: "GPT-4 is OpenAI's model.[1]"}, answers)

	entries := f.cache.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"GPT-4 is a model."}, entries[0].Context)

	// Same question, same context: cached.
	answers, err = p.Run(ctx, question)
	require.NoError(t, err)
	assert.Equal(t, CacheHitMarker+"GPT-4 is OpenAI's model.[1]", answers[question])
	assert.Equal(t, 1, f.generator.CallCount())

	// Same question, empty context: miss.
	hit, ok, err := f.cache.Get(ctx, question, []string{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, hit)

	require.Len(t, f.sink.entries, 2)
	assert.False(t, f.sink.entries[0].CacheHit)
	assert.True(t, f.sink.entries[1].CacheHit)
	assert.Equal(t, core.ActionOpenAI, f.sink.entries[1].Action)
	assert.Equal(t, question, f.sink.entries[1].UserQuery)
}

func TestRunNoRelevantContent(t *testing.T) {
	f := newFixture(t)
	f.router.RouteFunc = routeBy(map[string]core.Action{"q": core.ActionTenK})
	p := f.pipeline(t)

	answers, err := p.Run(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, NoContentMessage, answers["q"])
	assert.Equal(t, 0, f.generator.CallCount())
	assert.Equal(t, 0, f.cache.Len())
}

func TestRunIsolation(t *testing.T) {
	t.Run("web failure is an answer", func(t *testing.T) {
		f := newFixture(t)
		f.router.SplitFunc = splitInto("docs", "web")
		f.router.RouteFunc = routeBy(map[string]core.Action{"docs": core.ActionOpenAI})
		f.retriever.chunks = []string{"chunk"}
		f.web.err = errors.New("connection refused")
		p := f.pipeline(t)

		answers, err := p.Run(context.Background(), "docs and web")
		require.NoError(t, err)
		assert.Equal(t, "answer to docs from 1 chunks", answers["docs"])
		assert.Equal(t, "Internet query failed: connection refused", answers["web"])
	})

	t.Run("retrieval failure propagates", func(t *testing.T) {
		f := newFixture(t)
		f.router.SplitFunc = splitInto("docs", "web")
		f.router.RouteFunc = routeBy(map[string]core.Action{"docs": core.ActionOpenAI})
		boom := errors.New("store unavailable")
		f.retriever.err = boom
		p := f.pipeline(t)

		answers, err := p.Run(context.Background(), "docs and web")
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), `"docs"`)
		assert.Equal(t, map[string]string{"web": "from the web"}, answers)

		require.Len(t, f.sink.entries, 2)
		assert.Equal(t, boom.Error(), f.sink.entries[0].Error)
		assert.Empty(t, f.sink.entries[1].Error)
	})

	t.Run("generator failure propagates", func(t *testing.T) {
		f := newFixture(t)
		f.router.RouteFunc = routeBy(map[string]core.Action{"q": core.ActionOpenAI})
		f.retriever.chunks = []string{"chunk"}
		f.generator.GenerateFunc = func(context.Context, string, []string) (string, error) {
			return "", errors.New("model offline")
		}
		p := f.pipeline(t)

		_, err := p.Run(context.Background(), "q")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "model offline")
		assert.Equal(t, 0, f.cache.Len())
	})
}

func TestRunSplitFailure(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("split failed")
	f.router.SplitFunc = func(context.Context, string) ([]string, error) { return nil, boom }
	p := f.pipeline(t)

	answers, err := p.Run(context.Background(), "q")
	assert.Nil(t, answers)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, f.router.RouteCount())
	assert.Empty(t, f.sink.entries)
}

func TestRunUnsupportedAction(t *testing.T) {
	f := newFixture(t)
	f.router.RouteFunc = func(context.Context, string) core.RouteDecision {
		return core.RouteDecision{Action: "WEATHER_QUERY", Reason: "made up"}
	}
	p := f.pipeline(t)

	answers, err := p.Run(context.Background(), "is it raining")
	require.NoError(t, err)
	assert.Equal(t, "Unsupported action: WEATHER_QUERY", answers["is it raining"])
	assert.Equal(t, 0, f.embedder.CallCount())
	assert.Equal(t, 0, f.retriever.calls)
	assert.Equal(t, 0, f.web.calls)

	require.Len(t, f.sink.entries, 1)
	assert.Equal(t, UnsupportedError, f.sink.entries[0].Error)
	assert.Equal(t, core.Action("WEATHER_QUERY"), f.sink.entries[0].Action)
}

func TestRunWebDisabled(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t, WithAllowWebSearch(false))

	answers, err := p.Run(context.Background(), "latest news")
	require.NoError(t, err)
	assert.Equal(t, WebDisabledMessage, answers["latest news"])
	assert.Equal(t, 0, f.web.calls)
	assert.Equal(t, 0, f.cache.Len())
}

func TestRunWebCaching(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t)
	ctx := context.Background()

	first, err := p.Run(ctx, "who won")
	require.NoError(t, err)
	assert.Equal(t, "from the web", first["who won"])

	second, err := p.Run(ctx, "who won")
	require.NoError(t, err)
	assert.Equal(t, CacheHitMarker+"from the web", second["who won"])
	assert.Equal(t, 1, f.web.calls)

	entries := f.cache.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, []string{}, entries[0].Context)
}

func TestRunHandlerInvokedOnce(t *testing.T) {
	f := newFixture(t)
	f.router.RouteFunc = routeBy(map[string]core.Action{"q": core.ActionOpenAI})
	f.retriever.chunks = []string{"chunk"}
	p := f.pipeline(t)

	_, err := p.Run(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, 1, f.generator.CallCount())
	assert.Equal(t, 1, f.retriever.calls)
	assert.Equal(t, 1, f.router.RouteCount())
}

func TestRunDuplicateSubQuestions(t *testing.T) {
	f := newFixture(t)
	f.router.SplitFunc = splitInto("same", "same")
	calls := 0
	p := f.pipeline(t)
	p.handlers[core.ActionInternet] = handlerFunc(func(context.Context, string, core.RouteDecision) (string, error) {
		calls++
		if calls == 1 {
			return "first", nil
		}
		return "second", nil
	})

	answers, err := p.Run(context.Background(), "same twice")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"same": "second"}, answers)

	results, err := p.RunDetailed(context.Background(), "same twice")
	require.NoError(t, err)
	require.Len(t, results, 2)
}

func TestRunSinkErrorIgnored(t *testing.T) {
	f := newFixture(t)
	f.sink.err = errors.New("disk full")
	p := f.pipeline(t)

	answers, err := p.Run(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "from the web", answers["q"])
}

func TestRunCanceledContext(t *testing.T) {
	f := newFixture(t)
	f.router.SplitFunc = splitInto("a", "b")
	p := f.pipeline(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	answers, err := p.Run(ctx, "a and b")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, answers)
	assert.Equal(t, 0, f.router.RouteCount())
}

type handlerFunc func(context.Context, string, core.RouteDecision) (string, error)

func (h handlerFunc) Handle(ctx context.Context, q string, r core.RouteDecision) (string, error) {
	return h(ctx, q, r)
}
