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


// Package ai provides abstractions for the model services used by ragcache.
//
// Three services back the query pipeline:
//
//   - Embedder: Generates vector embeddings from text
//   - Generator: Answers a question from ordered context chunks
//   - Router: Splits compound queries and classifies each sub-question
//
// AIProvider aggregates them so they share configuration and lifecycle.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors in ai/openai return interface types. Mock constructors
// return concrete types so tests can inject behavior and count calls;
// mock.NewMockProvider returns the interface and exposes GetMockEmbedder,
// GetMockGenerator and GetMockRouter for assertions.
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	subs, err := provider.Router().Split(ctx, "What is GPT-4 and what's the weather?")
//	for _, q := range subs {
//	    decision := provider.Router().Route(ctx, q)
//	    ...
//	}
package ai
