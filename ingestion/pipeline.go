package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/ragcache/ai"
	"github.com/poiesic/ragcache/core"
	"github.com/poiesic/ragcache/storage"
)

// DefaultBatchSize is the number of chunks embedded and stored per batch.
const DefaultBatchSize = 32

// Pipeline orchestrates chunking, embedding and storage of documents.
type Pipeline struct {
	chunkRepository storage.ChunkRepository
	embeddingPool   *ants.Pool
	embeddingProc   *embeddingProcessor
	batchSize       int
	maxChunkSize    int
	logger          *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.embeddingPool != nil {
			p.embeddingPool.Release()
			p.embeddingPool = nil
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.embeddingPool = pool
		return nil
	}
}

// WithBatchSize sets how many chunks go into one embedding request.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("batch size must be at least 1, got %d", size)
		}
		p.batchSize = size
		return nil
	}
}

// WithMaxChunkSize sets the upper bound on chunk length in runes.
// Default is DefaultMaxChunkSize.
func WithMaxChunkSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("max chunk size must be at least 1, got %d", size)
		}
		p.maxChunkSize = size
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

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(chunkRepository storage.ChunkRepository, provider ai.AIProvider, opts ...Option) (*Pipeline, error) {
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	embeddingPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		chunkRepository: chunkRepository,
		embeddingPool:   embeddingPool,
		batchSize:       DefaultBatchSize,
		maxChunkSize:    DefaultMaxChunkSize,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	embeddingProc, err := newEmbeddingProcessor(provider.Embedder(), p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.embeddingProc = embeddingProc

	return p, nil
}

// Ingest chunks each text, embeds the chunks and stores them in collection.
// Chunks whose content repeats within the call are stored once.
// Returns the stored chunks in input order.
func (p *Pipeline) Ingest(ctx context.Context, collection string, texts ...string) ([]*core.Chunk, error) {
	if collection == "" {
		return nil, ErrCollectionRequired
	}

	seen := make(map[core.ID]struct{})
	var chunks []*core.Chunk
	for _, text := range texts {
		for _, content := range SplitText(text, p.maxChunkSize) {
			id := core.ChunkID(collection, content)
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			chunks = append(chunks, &core.Chunk{
				Id:         id,
				Collection: collection,
				Content:    content,
			})
		}
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	p.logger.Info("ingesting chunks", "collection", collection, "texts", len(texts), "chunks", len(chunks))

	if err := p.embed(ctx, chunks); err != nil {
		return nil, err
	}

	stored := make([]*core.Chunk, 0, len(chunks))
	for _, batch := range batches(chunks, p.batchSize) {
		added, err := p.chunkRepository.AddChunks(ctx, batch...)
		if err != nil {
			return nil, fmt.Errorf("store chunks: %w", err)
		}
		stored = append(stored, added...)
	}

	p.logger.Info("ingestion complete", "collection", collection, "chunks", len(stored))
	return stored, nil
}

// IngestFiles reads each file and ingests its contents into collection.
func (p *Pipeline) IngestFiles(ctx context.Context, collection string, paths ...string) ([]*core.Chunk, error) {
	texts := make([]string, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		texts = append(texts, string(data))
	}
	return p.Ingest(ctx, collection, texts...)
}

// embed runs one embedding task per batch on the pool and waits for all of them.
func (p *Pipeline) embed(ctx context.Context, chunks []*core.Chunk) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	fail := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for _, batch := range batches(chunks, p.batchSize) {
		wg.Add(1)
		err := p.embeddingPool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				fail(err)
				return
			}
			if err := p.embeddingProc.process(ctx, batch); err != nil {
				fail(err)
			}
		})
		if err != nil {
			wg.Done()
			fail(err)
		}
	}
	wg.Wait()

	if len(errs) > 0 {
		p.logger.Error("error processing embeddings", "failed", len(errs))
		return errors.Join(errs...)
	}
	return nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}

func batches(chunks []*core.Chunk, size int) [][]*core.Chunk {
	var out [][]*core.Chunk
	for start := 0; start < len(chunks); start += size {
		end := min(start+size, len(chunks))
		out = append(out, chunks[start:end])
	}
	return out
}
