package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/ragcache/ai"
	"github.com/poiesic/ragcache/core"
	"github.com/poiesic/ragcache/querylog"
	"github.com/poiesic/ragcache/retrieval"
	"github.com/poiesic/ragcache/web"
)

// Result is the outcome of one sub-question.
type Result struct {
	Question string
	Route    core.RouteDecision
	Answer   string
	CacheHit bool
	Latency  time.Duration
	Err      error
}

// Pipeline splits, routes and dispatches user queries.
type Pipeline struct {
	router   ai.Router
	handlers map[core.Action]Handler
	sink     querylog.Sink

	embedder  ai.Embedder
	generator ai.Generator
	retriever Retriever
	cache     Cache
	web       web.Client

	allowWeb bool
	limit    int
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithAllowWebSearch enables or disables the internet handler.
// Default is true.
func WithAllowWebSearch(allow bool) Option {
	return func(p *Pipeline) error {
		p.allowWeb = allow
		return nil
	}
}

// WithRetrievalLimit sets how many chunks document handlers retrieve.
// Default is retrieval.DefaultLimit.
func WithRetrievalLimit(limit int) Option {
	return func(p *Pipeline) error {
		if limit < 1 {
			return fmt.Errorf("%w: got %d", ErrInvalidRetrievalLimit, limit)
		}
		p.limit = limit
		return nil
	}
}

// WithWebClient sets the client used for internet queries.
func WithWebClient(client web.Client) Option {
	return func(p *Pipeline) error {
		p.web = client
		return nil
	}
}

// WithSink sets where per-sub-question log entries are written.
// Default is querylog.Discard.
func WithSink(sink querylog.Sink) Option {
	return func(p *Pipeline) error {
		if sink == nil {
			sink = querylog.Discard
		}
		p.sink = sink
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// New creates a dispatcher over the provider's router, embedder and generator.
func New(provider ai.AIProvider, retriever Retriever, cache Cache, opts ...Option) (*Pipeline, error) {
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if cache == nil {
		return nil, ErrCacheRequired
	}

	p := &Pipeline{
		router:    provider.Router(),
		embedder:  provider.Embedder(),
		generator: provider.Generator(),
		retriever: retriever,
		cache:     cache,
		sink:      querylog.Discard,
		allowWeb:  true,
		limit:     retrieval.DefaultLimit,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if p.allowWeb && p.web == nil {
		return nil, ErrWebClientRequired
	}
	p.logger = p.logger.With("component", "pipeline")
	p.handlers = p.buildHandlers()
	return p, nil
}

func (p *Pipeline) buildHandlers() map[core.Action]Handler {
	docs := &retrieveHandler{
		embedder:  p.embedder,
		retriever: p.retriever,
		cache:     p.cache,
		generator: p.generator,
		limit:     p.limit,
	}
	var internet Handler = webDisabledHandler{}
	if p.allowWeb {
		internet = &webHandler{cache: p.cache, client: p.web}
	}
	return map[core.Action]Handler{
		core.ActionOpenAI:   docs,
		core.ActionTenK:     docs,
		core.ActionInternet: internet,
	}
}

// Run answers query and returns answers keyed by sub-question. When a
// sub-question repeats, the later answer wins. Failed sub-questions are
// left out of the map and their errors are joined into the returned error.
func (p *Pipeline) Run(ctx context.Context, query string) (map[string]string, error) {
	results, err := p.RunDetailed(ctx, query)
	if results == nil {
		return nil, err
	}
	answers := make(map[string]string, len(results))
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		answers[r.Question] = r.Answer
	}
	return answers, err
}

// RunDetailed answers query and returns one Result per sub-question in
// split order. A split failure returns nil and the error.
func (p *Pipeline) RunDetailed(ctx context.Context, query string) ([]Result, error) {
	subQuestions, err := p.router.Split(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("split query: %w", err)
	}
	p.logger.Debug("split query", "query", query, "subQuestions", len(subQuestions))

	results := make([]Result, 0, len(subQuestions))
	var errs []error
	for _, sub := range subQuestions {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		r := p.dispatch(ctx, query, sub)
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("sub-question %q: %w", sub, r.Err))
		}
		results = append(results, r)
	}
	return results, errors.Join(errs...)
}

// dispatch routes and answers a single sub-question, invoking its handler
// exactly once, and records a log entry.
func (p *Pipeline) dispatch(ctx context.Context, query, sub string) Result {
	route := p.router.Route(ctx, sub)
	result := Result{Question: sub, Route: route}
	entry := querylog.Entry{
		UserQuery: query,
		SubQuery:  sub,
		Action:    route.Action,
		Reason:    route.Reason,
	}

	handler, ok := p.handlers[route.Action]
	if !ok {
		result.Answer = fmt.Sprintf("%s: %s", UnsupportedError, route.Action)
		entry.Error = UnsupportedError
		entry.AnswerPreview = querylog.Preview(result.Answer)
		p.logger.Warn("unsupported action", "subQuestion", sub, "action", route.Action)
		p.record(ctx, entry)
		return result
	}

	start := time.Now()
	answer, err := handler.Handle(ctx, sub, route)
	result.Latency = time.Since(start)
	entry.LatencySeconds = result.Latency.Seconds()

	if err != nil {
		result.Err = err
		entry.Error = err.Error()
		p.logger.Error("sub-question failed", "subQuestion", sub, "action", route.Action, "err", err)
		p.record(ctx, entry)
		return result
	}

	result.Answer = answer
	result.CacheHit = strings.HasPrefix(answer, CacheHitMarker)
	entry.CacheHit = result.CacheHit
	entry.AnswerPreview = querylog.Preview(answer)
	p.logger.Info("answered sub-question",
		"subQuestion", sub,
		"action", route.Action,
		"cacheHit", result.CacheHit,
		"latency", result.Latency)
	p.record(ctx, entry)
	return result
}

func (p *Pipeline) record(ctx context.Context, entry querylog.Entry) {
	if err := p.sink.Append(ctx, entry); err != nil {
		p.logger.Warn("failed to write query log entry", "err", err)
	}
}
