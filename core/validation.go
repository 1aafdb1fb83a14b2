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


package core

import (
	"fmt"
	"slices"
)

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Collection must not be empty
//   - Content must not be empty
//
// NOT validated (populated by the ingestion pipeline):
//   - Vector (can be empty until embedded)
//   - ID (derived from collection and content on insert)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Collection == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyCollection)
	}

	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	return nil
}

// ValidateAction checks that an Action is one of the known routes.
func ValidateAction(action Action) error {
	if !IsKnownAction(action) {
		return fmt.Errorf("%w: %q", ErrUnknownAction, string(action))
	}
	return nil
}

// IsKnownAction reports whether action is one of Actions.
func IsKnownAction(action Action) bool {
	return slices.Contains(Actions, action)
}
