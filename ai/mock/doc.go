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


// Package mock provides test doubles for the ai package interfaces.
//
// Each mock exposes exported func fields for behavior injection and a call
// counter for assertions. With no func set, mocks behave deterministically:
//
//   - MockEmbedder hashes text into a unit-length vector
//   - MockGenerator echoes the question and the number of context chunks
//   - MockRouter returns the query as its only sub-question and routes to
//     core.DefaultAction
//
// Example:
//
//	provider := mock.NewMockProvider().(*mock.MockProvider)
//	provider.GetMockRouter().RouteFunc = func(ctx context.Context, q string) core.RouteDecision {
//	    return core.RouteDecision{Action: core.ActionOpenAI}
//	}
package mock
