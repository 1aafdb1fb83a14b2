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


// Package storage provides the storage abstraction layer for ragcache.
//
// This package defines the ChunkRepository interface that decouples the
// retrieval collections from any particular backend, plus the binary
// marshalling used to persist chunks.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return the storage.ChunkRepository
// interface to prevent coupling to BadgerDB specifics:
//
//	repo, err := badger.NewChunkRepository(backend)  // returns storage.ChunkRepository
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	repo, err := badger.NewChunkRepository(backend)
//	hits, err := repo.FindSimilar(ctx, "opnai_data", queryVector, 3)
//
// Use in tests with in-memory storage:
//
//	repo, backend, err := badger.NewMemoryRepository()
//	defer backend.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
