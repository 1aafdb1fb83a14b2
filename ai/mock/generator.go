package mock

import (
	"context"
	"fmt"
	"sync/atomic"
)

// MockGenerator is a test double for ai.Generator.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	GenerateFunc func(ctx context.Context, question string, chunks []string) (string, error)

	callCount atomic.Int64
}

// NewMockGenerator creates a mock generator with default deterministic behavior.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate returns "answer to <question> from <n> chunks" unless GenerateFunc is set.
func (m *MockGenerator) Generate(ctx context.Context, question string, chunks []string) (string, error) {
	m.callCount.Add(1)

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, question, chunks)
	}

	return fmt.Sprintf("answer to %s from %d chunks", question, len(chunks)), nil
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and injected behavior.
func (m *MockGenerator) Reset() {
	m.callCount.Store(0)
	m.GenerateFunc = nil
}
