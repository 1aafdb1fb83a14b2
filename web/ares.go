package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultAresEndpoint is the ARES live prediction API.
	DefaultAresEndpoint = "https://api-ares.traversaal.ai/live/predict"

	// NoResponse is returned when ARES answers without response text.
	NoResponse = "No response received."

	defaultAresTimeout = 60 * time.Second
	maxErrorBody       = 512
)

// AresClient queries the ARES web-search API.
type AresClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// AresOption configures an AresClient.
type AresOption func(*AresClient)

// WithEndpoint overrides the API endpoint.
func WithEndpoint(endpoint string) AresOption {
	return func(c *AresClient) {
		c.endpoint = endpoint
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) AresOption {
	return func(c *AresClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithAresLogger sets a custom logger.
func WithAresLogger(logger *slog.Logger) AresOption {
	return func(c *AresClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewAresClient creates an ARES client authenticated with apiKey.
func NewAresClient(apiKey string, opts ...AresOption) (*AresClient, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}
	c := &AresClient{
		endpoint:   DefaultAresEndpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultAresTimeout},
		logger:     slog.Default().With("component", "ares-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type aresRequest struct {
	Query []string `json:"query"`
}

type aresResponse struct {
	Data struct {
		ResponseText *string `json:"response_text"`
	} `json:"data"`
}

// Search posts query to ARES and returns the response text.
func (c *AresClient) Search(ctx context.Context, query string) (string, error) {
	body, err := json.Marshal(aresRequest{Query: []string{query}})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("content-type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("%w: %s: %s", ErrUnexpectedStatus, resp.Status, bytes.TrimSpace(snippet))
	}

	var out aresResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode ares response: %w", err)
	}

	c.logger.Debug("ares search complete", "latency", time.Since(start))
	if out.Data.ResponseText == nil {
		return NoResponse, nil
	}
	return *out.Data.ResponseText, nil
}
