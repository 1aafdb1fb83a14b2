// Package web provides web-search clients used for questions the local
// collections cannot answer.
package web

import (
	"context"
	"errors"
)

// Client answers a free-text question from the web.
type Client interface {
	Search(ctx context.Context, query string) (string, error)
}

var (
	// ErrAPIKeyRequired is returned when a client that needs a key has none.
	ErrAPIKeyRequired = errors.New("web search api key required")

	// ErrUnexpectedStatus is returned for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected response status")
)
