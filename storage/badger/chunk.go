package badger

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ragcache/core"
	"github.com/poiesic/ragcache/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
//
// Returns storage.ChunkRepository interface to enforce abstraction.
func NewChunkRepository(backend *Backend) (storage.ChunkRepository, error) {
	if backend == nil {
		return nil, storage.ErrStorageClosed
	}
	return &ChunkRepository{
		backend: backend,
	}, nil
}

// Close releases resources. ChunkRepository has no resources to release.
func (r *ChunkRepository) Close() error {
	return nil
}

// FindSimilar delegates to the backend.
func (r *ChunkRepository) FindSimilar(ctx context.Context, collection string, vector []float32, limit int) ([]*core.ScoredChunk, error) {
	return r.backend.FindSimilar(ctx, collection, vector, limit)
}

// AddChunks adds one or more chunks to storage.
func (r *ChunkRepository) AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC().Truncate(time.Microsecond)
		for _, chunk := range chunks {
			// Use content-based ID if not set
			if chunk.Id == 0 {
				chunk.Id = core.ChunkID(chunk.Collection, chunk.Content)
			}

			chunk.InsertedAt = now
			chunk.UpdatedAt = now

			key := makeChunkKey(chunk.Collection, chunk.Id)
			if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
				return err
			}

			// Register collection
			if err := tx.Set(makeCollectionKey(chunk.Collection), []byte{}); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return chunks, nil
}

// UpdateChunks updates existing chunks.
func (r *ChunkRepository) UpdateChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC().Truncate(time.Microsecond)
		for _, chunk := range chunks {
			key := makeChunkKey(chunk.Collection, chunk.Id)

			old, err := readChunk(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			chunk.InsertedAt = old.InsertedAt
			chunk.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return chunks, nil
}

// GetChunk retrieves a single chunk.
func (r *ChunkRepository) GetChunk(ctx context.Context, collection string, id core.ID) (*core.Chunk, error) {
	var result *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readChunk(tx, makeChunkKey(collection, id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetChunks retrieves all chunks in a collection.
func (r *ChunkRepository) GetChunks(ctx context.Context, collection string) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.scanCollection(ctx, collection, true, func(item *badger.Item) error {
		return item.Value(func(val []byte) error {
			chunk, err := storage.UnmarshalChunk(val)
			if err != nil {
				return err
			}
			results = append(results, chunk)
			return nil
		})
	})
	return results, err
}

// CountChunks counts the chunks in a collection without decoding them.
func (r *ChunkRepository) CountChunks(ctx context.Context, collection string) (int, error) {
	count := 0
	err := r.scanCollection(ctx, collection, false, func(*badger.Item) error {
		count++
		return nil
	})
	return count, err
}

// Collections returns the registered collection names.
func (r *ChunkRepository) Collections(ctx context.Context) ([]string, error) {
	var names []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(collectionPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			names = append(names, collectionFromKey(iter.Item().KeyCopy(nil)))
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

// DeleteCollection removes all chunks in a collection.
func (r *ChunkRepository) DeleteCollection(ctx context.Context, collection string) (int, error) {
	var keys [][]byte
	err := r.scanCollection(ctx, collection, false, func(item *badger.Item) error {
		keys = append(keys, item.KeyCopy(nil))
		return nil
	})
	if err != nil {
		return 0, err
	}

	// A WriteBatch splits large deletes across transactions.
	wb := r.backend.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return 0, err
		}
	}
	if err := wb.Delete(makeCollectionKey(collection)); err != nil {
		return 0, err
	}
	if err := wb.Flush(); err != nil {
		return 0, err
	}

	r.backend.logger.Info("deleted collection", "collection", collection, "chunks", len(keys))
	return len(keys), nil
}

// Helper methods

// scanCollection calls fn for every chunk item in collection, in key order.
func (r *ChunkRepository) scanCollection(ctx context.Context, collection string, prefetch bool, fn func(*badger.Item) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = prefetch
		opts.Prefix = makeChunkCollectionPrefix(collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(iter.Item()); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// readChunk reads a chunk from the transaction.
func readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var err error
		chunk, err = storage.UnmarshalChunk(val)
		return err
	})
	return chunk, err
}
