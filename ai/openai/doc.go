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


// Package openai provides AI service implementations using OpenAI-compatible APIs.
//
// This package implements the ai.AIProvider interface using the langchaingo
// library to communicate with OpenAI or OpenAI-compatible services (such as
// Ollama, LocalAI, or vLLM).
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithGeneratorHost("https://api.openai.com"),  // /v1 added automatically
//	    ai.WithGeneratorModel("gpt-4o"),
//	    ai.WithRouterModel("gpt-4o"),
//	    ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	)
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	decision := provider.Router().Route(ctx, "What is GPT-4?")
//	answer, err := provider.Generator().Generate(ctx, "What is GPT-4?", chunks)
//
// # Structured responses
//
// Routing and splitting ask the model for a JSON object. Replies are scanned
// for the first balanced {...} region that decodes, so stray prose or
// markdown fences around the object are tolerated.
package openai
