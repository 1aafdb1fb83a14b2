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


package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/ragcache/ai"
	"github.com/poiesic/ragcache/core"
	"github.com/poiesic/ragcache/storage"
)

// Config holds configuration for the re-embedding operation.
type Config struct {
	// Collections limits the run to these collections. Empty means all.
	Collections []string

	// BatchSize is the number of chunks embedded per request
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the number of embedding attempts per batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// MaxRetryDelay caps a single backoff wait
	MaxRetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		MaxRetryDelay:  30 * time.Second,
	}
}

// Reembedder re-embeds every chunk in the selected collections.
type Reembedder struct {
	repo      storage.ChunkRepository
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *ChunkIterator
	logger    *slog.Logger
}

// NewReembedder creates a new reembedder.
// progress is where progress output goes (typically os.Stderr); nil discards it.
func NewReembedder(repo storage.ChunkRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	logger := slog.Default().With("component", "reembed")
	backoff := Backoff{
		Attempts:  max(config.MaxRetries, 1),
		BaseDelay: config.RetryDelay,
		MaxDelay:  config.MaxRetryDelay,
		Logger:    logger,
	}

	return &Reembedder{
		repo:      repo,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(repo, embedder, backoff),
		iterator:  NewChunkIterator(repo, config.BatchSize),
		logger:    logger,
	}, nil
}

// Run re-embeds the configured collections and returns how many chunks
// were updated. It stops at the first failing batch.
func (r *Reembedder) Run(ctx context.Context) (int, error) {
	collections := r.config.Collections
	if len(collections) == 0 {
		var err error
		collections, err = r.repo.Collections(ctx)
		if err != nil {
			return 0, fmt.Errorf("list collections: %w", err)
		}
	}

	total := 0
	for _, collection := range collections {
		n, err := r.repo.CountChunks(ctx, collection)
		if err != nil {
			return 0, fmt.Errorf("count chunks in %s: %w", collection, err)
		}
		total += n
	}

	if total == 0 {
		fmt.Fprintf(r.progress, "No chunks found (0 chunks)\n")
		return 0, nil
	}

	fmt.Fprintf(r.progress, "Starting re-embedding of %d chunks in %d collections (batch size: %d)\n",
		total, len(collections), r.iterator.batchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	for _, collection := range collections {
		r.logger.Info("re-embedding collection", "collection", collection)
		err := r.iterator.ForEach(ctx, collection, func(batch []*core.Chunk) error {
			if err := r.processor.Process(ctx, batch); err != nil {
				return fmt.Errorf("collection %s: %w", collection, err)
			}
			tracker.Add(len(batch))
			return nil
		})
		if err != nil {
			return tracker.Current(), err
		}
	}

	tracker.Finish()

	processed := tracker.Current()
	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Re-embedding complete. Processed %d chunks in %v (%.1f chunks/sec)\n",
		processed, elapsed.Round(time.Millisecond), float64(processed)/max(elapsed.Seconds(), 1e-9))

	return processed, nil
}
