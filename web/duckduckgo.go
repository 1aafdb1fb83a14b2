package web

import (
	"context"
	"log/slog"

	"github.com/tmc/langchaingo/tools"
	"github.com/tmc/langchaingo/tools/duckduckgo"
)

const (
	// DefaultMaxResults is the number of DuckDuckGo results folded into an answer.
	DefaultMaxResults = 5

	// DefaultUserAgent identifies requests when no user agent is configured.
	DefaultUserAgent = "ragcache/1.0"
)

// DuckDuckGoClient answers questions with DuckDuckGo search results.
// It needs no API key.
type DuckDuckGoClient struct {
	tool   tools.Tool
	logger *slog.Logger
}

// NewDuckDuckGoClient creates a client returning up to maxResults results.
func NewDuckDuckGoClient(maxResults int, userAgent string) (*DuckDuckGoClient, error) {
	if maxResults < 1 {
		maxResults = DefaultMaxResults
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	tool, err := duckduckgo.New(maxResults, userAgent)
	if err != nil {
		return nil, err
	}
	return newDuckDuckGoClientWithTool(tool), nil
}

func newDuckDuckGoClientWithTool(tool tools.Tool) *DuckDuckGoClient {
	return &DuckDuckGoClient{
		tool:   tool,
		logger: slog.Default().With("component", "duckduckgo-client"),
	}
}

// Search runs the query through the DuckDuckGo tool.
func (c *DuckDuckGoClient) Search(ctx context.Context, query string) (string, error) {
	c.logger.Debug("searching duckduckgo", "query", query)
	return c.tool.Call(ctx, query)
}
