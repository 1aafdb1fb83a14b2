package pipeline

import (
	"context"
	"fmt"

	"github.com/poiesic/ragcache/ai"
	"github.com/poiesic/ragcache/core"
	"github.com/poiesic/ragcache/index"
	"github.com/poiesic/ragcache/web"
)

// Fixed answers produced by the dispatcher.
const (
	CacheHitMarker     = "[Semantic Cache HIT]\n"
	NoContentMessage   = "No relevant content found."
	WebDisabledMessage = "[Web Search Disabled] The system was not allowed to perform an internet search."
	UnsupportedError   = "Unsupported action"
)

// Handler answers one routed sub-question.
type Handler interface {
	Handle(ctx context.Context, question string, route core.RouteDecision) (string, error)
}

// Retriever returns context chunks for a document action.
type Retriever interface {
	Retrieve(ctx context.Context, vector []float32, action core.Action, limit int) ([]string, error)
}

// Cache is the semantic cache surface the handlers use.
type Cache interface {
	Get(ctx context.Context, question string, chunks []string) (string, bool, error)
	Add(ctx context.Context, question, answer string, chunks []string) error
}

// retrieveHandler answers from a document collection.
// Failures propagate to the caller.
type retrieveHandler struct {
	embedder  ai.Embedder
	retriever Retriever
	cache     Cache
	generator ai.Generator
	limit     int
}

func (h *retrieveHandler) Handle(ctx context.Context, question string, route core.RouteDecision) (string, error) {
	vector, err := h.embedder.EmbedText(ctx, question)
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}

	chunks, err := h.retriever.Retrieve(ctx, index.Normalize(vector), route.Action, h.limit)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return NoContentMessage, nil
	}

	cached, hit, err := h.cache.Get(ctx, question, chunks)
	if err != nil {
		return "", fmt.Errorf("cache lookup: %w", err)
	}
	if hit {
		return CacheHitMarker + cached, nil
	}

	answer, err := h.generator.Generate(ctx, question, chunks)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	if err := h.cache.Add(ctx, question, answer, chunks); err != nil {
		return "", fmt.Errorf("cache answer: %w", err)
	}
	return answer, nil
}

// webHandler answers from the web. It never fails: errors become the answer.
type webHandler struct {
	cache  Cache
	client web.Client
}

func (h *webHandler) Handle(ctx context.Context, question string, _ core.RouteDecision) (string, error) {
	answer, err := h.search(ctx, question)
	if err != nil {
		return fmt.Sprintf("Internet query failed: %v", err), nil
	}
	return answer, nil
}

func (h *webHandler) search(ctx context.Context, question string) (string, error) {
	// Web answers have no context chunks.
	noContext := []string{}

	cached, hit, err := h.cache.Get(ctx, question, noContext)
	if err != nil {
		return "", err
	}
	if hit {
		return CacheHitMarker + cached, nil
	}

	answer, err := h.client.Search(ctx, question)
	if err != nil {
		return "", err
	}
	if err := h.cache.Add(ctx, question, answer, noContext); err != nil {
		return "", err
	}
	return answer, nil
}

type webDisabledHandler struct{}

func (webDisabledHandler) Handle(context.Context, string, core.RouteDecision) (string, error) {
	return WebDisabledMessage, nil
}
