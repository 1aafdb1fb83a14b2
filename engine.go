// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ragcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/poiesic/ragcache/ai"
	"github.com/poiesic/ragcache/ai/openai"
	"github.com/poiesic/ragcache/cache"
	"github.com/poiesic/ragcache/config"
	"github.com/poiesic/ragcache/ingestion"
	"github.com/poiesic/ragcache/pipeline"
	"github.com/poiesic/ragcache/querylog"
	"github.com/poiesic/ragcache/reembed"
	"github.com/poiesic/ragcache/retrieval"
	"github.com/poiesic/ragcache/storage"
	"github.com/poiesic/ragcache/storage/badger"
	"github.com/poiesic/ragcache/web"
)

// ChunksDir is the subdirectory of the data directory holding the chunk store.
const ChunksDir = "chunks"

// ErrQueryLogUnreadable is returned when the configured query log cannot be read back.
var ErrQueryLogUnreadable = errors.New("query log backend does not support reading")

// Engine wires storage, models, cache, query log and web search into a
// ready-to-use query pipeline.
type Engine struct {
	config    *config.Config
	backend   *badger.Backend
	chunkRepo storage.ChunkRepository
	provider  ai.AIProvider
	cache     *cache.SemanticCache
	sink      querylog.Sink
	webClient web.Client
	retriever *retrieval.Retriever
	pipeline  *pipeline.Pipeline
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	provider  ai.AIProvider
	webClient web.Client
	sink      querylog.Sink
	inMemory  bool
	logger    *slog.Logger
}

// WithProvider uses provider instead of building an OpenAI-compatible one.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithWebClient uses client for internet queries and enables web search
// regardless of the web section of the config.
func WithWebClient(client web.Client) EngineOption {
	return func(o *engineOptions) {
		o.webClient = client
	}
}

// WithQueryLog uses sink instead of the configured query log backend.
func WithQueryLog(sink querylog.Sink) EngineOption {
	return func(o *engineOptions) {
		o.sink = sink
	}
}

// WithInMemoryStorage keeps chunks in memory instead of under the data directory.
func WithInMemoryStorage() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// Open validates cfg and builds an Engine. A nil cfg uses config.Default().
func Open(cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	options := &engineOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	// An injected web client stands in for the provider settings.
	check := *cfg
	if options.webClient != nil {
		check.Web.Enabled = false
	}
	if err := check.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Engine{
		config: cfg,
		logger: options.logger.With("component", "engine"),
	}
	if err := e.open(options); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) open(options *engineOptions) error {
	cfg := e.config

	backend, err := badger.OpenBackend(filepath.Join(cfg.DataDir, ChunksDir), options.inMemory)
	if err != nil {
		return fmt.Errorf("open chunk store: %w", err)
	}
	e.backend = backend

	e.chunkRepo, err = badger.NewChunkRepository(backend)
	if err != nil {
		return err
	}

	e.provider = options.provider
	if e.provider == nil {
		e.provider, err = openai.NewProvider(cfg.AIConfig())
		if err != nil {
			return fmt.Errorf("create AI provider: %w", err)
		}
	}

	e.cache, err = cache.New(e.provider.Embedder(), cache.NewFileStore(cfg.Cache.Path),
		cache.WithThreshold(cfg.Cache.Threshold),
		cache.WithLogger(options.logger))
	if err != nil {
		return fmt.Errorf("load semantic cache: %w", err)
	}

	e.sink = options.sink
	if e.sink == nil {
		e.sink, err = openQueryLog(cfg.QueryLog)
		if err != nil {
			return fmt.Errorf("open query log: %w", err)
		}
	}

	allowWeb := cfg.Web.Enabled
	e.webClient = options.webClient
	if e.webClient != nil {
		allowWeb = true
	} else if allowWeb {
		e.webClient, err = newWebClient(cfg.Web, options.logger)
		if err != nil {
			return fmt.Errorf("create web client: %w", err)
		}
	}

	e.retriever, err = retrieval.New(e.chunkRepo,
		retrieval.WithCollections(cfg.ActionCollections()),
		retrieval.WithLogger(options.logger))
	if err != nil {
		return err
	}

	e.pipeline, err = pipeline.New(e.provider, e.retriever, e.cache,
		pipeline.WithAllowWebSearch(allowWeb),
		pipeline.WithWebClient(e.webClient),
		pipeline.WithRetrievalLimit(cfg.Retrieval.Limit),
		pipeline.WithSink(e.sink),
		pipeline.WithLogger(options.logger))
	return err
}

func openQueryLog(cfg config.QueryLogConfig) (querylog.Sink, error) {
	switch cfg.Backend {
	case config.LogBackendJSONL:
		return querylog.NewJSONLSink(cfg.Path)
	case config.LogBackendSQLite:
		return querylog.NewSQLiteSink(cfg.Path)
	default:
		return querylog.Discard, nil
	}
}

func newWebClient(cfg config.WebConfig, logger *slog.Logger) (web.Client, error) {
	switch cfg.Provider {
	case config.WebProviderDuckDuckGo:
		return web.NewDuckDuckGoClient(cfg.MaxResults, cfg.UserAgent)
	default:
		return web.NewAresClient(cfg.AresAPIKey,
			web.WithEndpoint(cfg.AresEndpoint),
			web.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
			web.WithAresLogger(logger))
	}
}

// Close releases every resource the engine opened.
func (e *Engine) Close() error {
	var errs []error

	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
		}
	}

	if e.sink != nil {
		if err := e.sink.Close(); err != nil {
			e.logger.Error("error closing query log", "err", err)
			errs = append(errs, err)
		}
	}

	if e.chunkRepo != nil {
		if err := e.chunkRepo.Close(); err != nil {
			e.logger.Error("error closing chunk repository", "err", err)
			errs = append(errs, err)
		}
	}

	if e.backend != nil && !e.backend.IsClosed() {
		if err := e.backend.Close(); err != nil {
			e.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Ask answers query, keyed by sub-question.
func (e *Engine) Ask(ctx context.Context, query string) (map[string]string, error) {
	return e.pipeline.Run(ctx, query)
}

// AskDetailed answers query with one result per sub-question in order.
func (e *Engine) AskDetailed(ctx context.Context, query string) ([]pipeline.Result, error) {
	return e.pipeline.RunDetailed(ctx, query)
}

// Config returns the configuration the engine was opened with.
func (e *Engine) Config() *config.Config {
	return e.config
}

func (e *Engine) ChunkRepository() storage.ChunkRepository {
	return e.chunkRepo
}

func (e *Engine) Cache() *cache.SemanticCache {
	return e.cache
}

func (e *Engine) Provider() ai.AIProvider {
	return e.provider
}

func (e *Engine) Retriever() *retrieval.Retriever {
	return e.retriever
}

// QueryLog returns a reader over the query log.
// Returns ErrQueryLogUnreadable when logging is disabled.
func (e *Engine) QueryLog() (querylog.Reader, error) {
	reader, ok := e.sink.(querylog.Reader)
	if !ok {
		return nil, ErrQueryLogUnreadable
	}
	return reader, nil
}

func (e *Engine) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	ingest := e.config.Ingestion
	defaults := []ingestion.Option{
		ingestion.WithBatchSize(ingest.BatchSize),
		ingestion.WithMaxChunkSize(ingest.MaxChunkSize),
	}
	if ingest.PoolSize > 0 {
		defaults = append(defaults, ingestion.WithPoolSize(ingest.PoolSize))
	}
	return ingestion.NewPipeline(e.chunkRepo, e.provider, append(defaults, opts...)...)
}

// NewReembedder re-embeds stored chunks with the engine's embedder.
// Cached answers are keyed by question embeddings, so callers switching
// models should clear the cache as well.
func (e *Engine) NewReembedder(cfg *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(e.chunkRepo, e.provider.Embedder(), cfg, progress)
}
