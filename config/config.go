// Package config loads the application configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/poiesic/ragcache/ai"
	"github.com/poiesic/ragcache/cache"
	"github.com/poiesic/ragcache/core"
	"github.com/poiesic/ragcache/ingestion"
	"github.com/poiesic/ragcache/querylog"
	"github.com/poiesic/ragcache/retrieval"
	"github.com/poiesic/ragcache/web"
	"gopkg.in/yaml.v3"
)

// Web search providers.
const (
	WebProviderAres       = "ares"
	WebProviderDuckDuckGo = "duckduckgo"
)

// Query log backends.
const (
	LogBackendJSONL  = "jsonl"
	LogBackendSQLite = "sqlite"
	LogBackendNone   = "none"
)

// Config holds all ragcache configuration.
type Config struct {
	DataDir   string          `yaml:"data_dir"`
	AI        AIConfig        `yaml:"ai"`
	Cache     CacheConfig     `yaml:"cache"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Web       WebConfig       `yaml:"web"`
	QueryLog  QueryLogConfig  `yaml:"query_log"`
	Ingestion IngestionConfig `yaml:"ingestion"`
}

// AIConfig selects the OpenAI-compatible hosts and models.
type AIConfig struct {
	EmbeddingHost  string `yaml:"embedding_host"`
	GeneratorHost  string `yaml:"generator_host"`
	EmbeddingModel string `yaml:"embedding_model"`
	GeneratorModel string `yaml:"generator_model"`
	RouterModel    string `yaml:"router_model"`
	APIKey         string `yaml:"api_key"`
}

// CacheConfig controls the semantic cache.
type CacheConfig struct {
	Path      string  `yaml:"path"`
	Threshold float64 `yaml:"threshold"`
}

// RetrievalConfig maps actions to collections.
type RetrievalConfig struct {
	Limit       int               `yaml:"limit"`
	Collections map[string]string `yaml:"collections"`
}

// WebConfig controls internet queries.
type WebConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Provider     string        `yaml:"provider"`
	AresAPIKey   string        `yaml:"ares_api_key"`
	AresEndpoint string        `yaml:"ares_endpoint"`
	MaxResults   int           `yaml:"max_results"`
	UserAgent    string        `yaml:"user_agent"`
	Timeout      time.Duration `yaml:"timeout"`
}

// QueryLogConfig selects where per-sub-question log entries go.
type QueryLogConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// IngestionConfig tunes document ingestion.
type IngestionConfig struct {
	PoolSize     int `yaml:"pool_size"`
	BatchSize    int `yaml:"batch_size"`
	MaxChunkSize int `yaml:"max_chunk_size"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	defaults := ai.DefaultConfig()
	collections := make(map[string]string)
	for action, name := range retrieval.DefaultCollections() {
		collections[string(action)] = name
	}

	return &Config{
		DataDir: "data",
		AI: AIConfig{
			EmbeddingHost:  defaults.EmbeddingHost,
			GeneratorHost:  defaults.GeneratorHost,
			EmbeddingModel: defaults.EmbeddingModel,
			GeneratorModel: defaults.GeneratorModel,
			RouterModel:    defaults.RouterModel,
			APIKey:         defaults.APIKey,
		},
		Cache: CacheConfig{
			Path:      "semantic_cache.json",
			Threshold: cache.DefaultThreshold,
		},
		Retrieval: RetrievalConfig{
			Limit:       retrieval.DefaultLimit,
			Collections: collections,
		},
		Web: WebConfig{
			Enabled:      true,
			Provider:     WebProviderAres,
			AresEndpoint: web.DefaultAresEndpoint,
			MaxResults:   web.DefaultMaxResults,
			UserAgent:    web.DefaultUserAgent,
			Timeout:      30 * time.Second,
		},
		QueryLog: QueryLogConfig{
			Backend: LogBackendJSONL,
			Path:    querylog.DefaultJSONLPath,
		},
		Ingestion: IngestionConfig{
			BatchSize:    ingestion.DefaultBatchSize,
			MaxChunkSize: ingestion.DefaultMaxChunkSize,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
// Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	if err := c.AIConfig().Validate(); err != nil {
		errs = append(errs, err)
	}

	if c.Cache.Path == "" {
		errs = append(errs, errors.New("cache.path is required"))
	}
	if c.Cache.Threshold <= 0 || c.Cache.Threshold > 2 {
		errs = append(errs, fmt.Errorf("cache.threshold must be in (0, 2], got %v", c.Cache.Threshold))
	}

	if c.Retrieval.Limit < 1 {
		errs = append(errs, fmt.Errorf("retrieval.limit must be at least 1, got %d", c.Retrieval.Limit))
	}
	for action, collection := range c.Retrieval.Collections {
		if err := core.ValidateAction(core.Action(action)); err != nil {
			errs = append(errs, fmt.Errorf("retrieval.collections: %w", err))
		}
		if collection == "" {
			errs = append(errs, fmt.Errorf("retrieval.collections: empty collection for %s", action))
		}
	}

	if c.Web.Enabled {
		switch c.Web.Provider {
		case WebProviderAres:
			if c.Web.AresAPIKey == "" {
				errs = append(errs, errors.New("web.ares_api_key is required for the ares provider"))
			}
		case WebProviderDuckDuckGo:
			if c.Web.MaxResults < 1 {
				errs = append(errs, fmt.Errorf("web.max_results must be at least 1, got %d", c.Web.MaxResults))
			}
		default:
			errs = append(errs, fmt.Errorf("web.provider must be %q or %q, got %q",
				WebProviderAres, WebProviderDuckDuckGo, c.Web.Provider))
		}
	}

	switch c.QueryLog.Backend {
	case LogBackendNone:
	case LogBackendJSONL, LogBackendSQLite:
		if c.QueryLog.Path == "" {
			errs = append(errs, errors.New("query_log.path is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("query_log.backend must be one of %s, %s, %s, got %q",
			LogBackendJSONL, LogBackendSQLite, LogBackendNone, c.QueryLog.Backend))
	}

	if c.Ingestion.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("ingestion.batch_size must be at least 1, got %d", c.Ingestion.BatchSize))
	}
	if c.Ingestion.MaxChunkSize < 1 {
		errs = append(errs, fmt.Errorf("ingestion.max_chunk_size must be at least 1, got %d", c.Ingestion.MaxChunkSize))
	}

	return errors.Join(errs...)
}

// AIConfig converts the AI section to an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithGeneratorHost(c.AI.GeneratorHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithGeneratorModel(c.AI.GeneratorModel),
		ai.WithRouterModel(c.AI.RouterModel),
		ai.WithAPIKey(c.AI.APIKey),
	)
}

// ActionCollections converts the retrieval collection map to action keys.
func (c *Config) ActionCollections() map[core.Action]string {
	out := make(map[core.Action]string, len(c.Retrieval.Collections))
	for action, collection := range c.Retrieval.Collections {
		out[core.Action(action)] = collection
	}
	return out
}
