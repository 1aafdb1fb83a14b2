package mock

import (
	"context"
	"sync/atomic"

	"github.com/poiesic/ragcache/core"
)

// MockRouter is a test double for ai.Router.
type MockRouter struct {
	// RouteFunc is called by Route if set.
	RouteFunc func(ctx context.Context, question string) core.RouteDecision

	// SplitFunc is called by Split if set.
	SplitFunc func(ctx context.Context, query string) ([]string, error)

	routeCount atomic.Int64
	splitCount atomic.Int64
}

// NewMockRouter creates a mock router with default deterministic behavior.
func NewMockRouter() *MockRouter {
	return &MockRouter{}
}

// Route routes every question to core.DefaultAction unless RouteFunc is set.
func (m *MockRouter) Route(ctx context.Context, question string) core.RouteDecision {
	m.routeCount.Add(1)

	if m.RouteFunc != nil {
		return m.RouteFunc(ctx, question)
	}

	return core.RouteDecision{Action: core.DefaultAction, Reason: "mock"}
}

// Split returns the query as its only sub-question unless SplitFunc is set.
func (m *MockRouter) Split(ctx context.Context, query string) ([]string, error) {
	m.splitCount.Add(1)

	if m.SplitFunc != nil {
		return m.SplitFunc(ctx, query)
	}

	return []string{query}, nil
}

// RouteCount returns the number of times Route was called.
func (m *MockRouter) RouteCount() int {
	return int(m.routeCount.Load())
}

// SplitCount returns the number of times Split was called.
func (m *MockRouter) SplitCount() int {
	return int(m.splitCount.Load())
}

// Reset clears call counts and injected behavior.
func (m *MockRouter) Reset() {
	m.routeCount.Store(0)
	m.splitCount.Store(0)
	m.RouteFunc = nil
	m.SplitFunc = nil
}
