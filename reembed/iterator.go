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

	"github.com/poiesic/ragcache/core"
	"github.com/poiesic/ragcache/storage"
)

const (
	// DefaultBatchSize is the default number of chunks handed to each callback.
	DefaultBatchSize = 100
)

// ChunkIterator walks the chunks of a collection in batches.
type ChunkIterator struct {
	repo      storage.ChunkRepository
	batchSize int
}

// NewChunkIterator creates a chunk iterator.
// A batchSize below one selects DefaultBatchSize.
func NewChunkIterator(repo storage.ChunkRepository, batchSize int) *ChunkIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ChunkIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn with consecutive batches of the collection's chunks in ID
// order. It stops at the first error from fn and checks ctx between batches.
func (it *ChunkIterator) ForEach(ctx context.Context, collection string, fn func([]*core.Chunk) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	chunks, err := it.repo.GetChunks(ctx, collection)
	if err != nil {
		return err
	}

	for start := 0; start < len(chunks); start += it.batchSize {
		end := min(start+it.batchSize, len(chunks))
		if err := fn(chunks[start:end]); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
