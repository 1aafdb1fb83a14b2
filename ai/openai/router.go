package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/ragcache/ai"
	"github.com/poiesic/ragcache/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const maxSplitAttempts = 3

// Router implements ai.Router using OpenAI-compatible chat APIs.
type Router struct {
	client      llms.Model
	routePrompt string
	logger      *slog.Logger
}

// routeResponse is the object the classifier is asked to produce.
type routeResponse struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
	Answer string `json:"answer"`
}

// splitResponse is the object the splitter is asked to produce.
type splitResponse struct {
	SubQuestions []string `json:"subQuestions"`
}

// newRouter is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newRouter(config *ai.Config) (*Router, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GeneratorHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.RouterModel),
	)
	if err != nil {
		return nil, err
	}

	return newRouterWithModel(client), nil
}

func newRouterWithModel(client llms.Model) *Router {
	return &Router{
		client:      client,
		routePrompt: buildRoutePrompt(ai.RouteCategories),
		logger:      slog.Default().With("component", "openai-router"),
	}
}

// NewRouter creates a new query router using the provided configuration.
//
// Returns ai.Router interface to enforce abstraction.
func NewRouter(config *ai.Config) (ai.Router, error) {
	return newRouter(config)
}

// Route classifies a single sub-question. Any failure yields the catch-all
// action with the failure in Reason.
func (r *Router) Route(ctx context.Context, question string) core.RouteDecision {
	resp, err := r.client.GenerateContent(ctx,
		systemAndHuman(r.routePrompt, "User: "+question),
		llms.WithTemperature(0.0))
	if err != nil {
		return r.fallback(question, err)
	}

	text, err := firstChoice(resp)
	if err != nil {
		return r.fallback(question, err)
	}

	var out routeResponse
	if err := decodeFirstObject(text, &out); err != nil {
		return r.fallback(question, err)
	}

	action := strings.TrimSpace(out.Action)
	if action == "" {
		return r.fallback(question, fmt.Errorf("%w: missing action", ai.ErrMalformedResponse))
	}

	decision := core.RouteDecision{
		Action: core.Action(action),
		Reason: out.Reason,
		Answer: out.Answer,
	}
	r.logger.Debug("routed question", "action", decision.Action, "reason", decision.Reason)
	return decision
}

func (r *Router) fallback(question string, err error) core.RouteDecision {
	r.logger.Warn("routing failed, falling back", "question", question, "err", err)
	return core.RouteDecision{
		Action: core.DefaultAction,
		Reason: fmt.Sprintf("Router error: %v", err),
		Answer: "",
	}
}

// Split breaks a query into ordered sub-questions. Malformed replies are
// retried a few times; transport errors are returned immediately.
func (r *Router) Split(ctx context.Context, query string) ([]string, error) {
	content := systemAndHuman(splitPrompt, fmt.Sprintf("Query: %q", query))

	var result splitResponse
	var lastErr error
	for attempt := 0; attempt < maxSplitAttempts; attempt++ {
		resp, err := r.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			r.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		text, err := firstChoice(resp)
		if err != nil {
			lastErr = err
			r.logger.Warn("empty split response", "attempt", attempt+1)
			continue
		}

		result = splitResponse{}
		if err := decodeFirstObject(stripCodeFences(text), &result); err != nil {
			lastErr = err
			r.logger.Warn("error parsing split response",
				"attempt", attempt+1,
				"response", text,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		r.logger.Error("failed to parse split response after retries", "err", lastErr)
		return nil, lastErr
	}

	subs := make([]string, 0, len(result.SubQuestions))
	for _, q := range result.SubQuestions {
		if q = strings.TrimSpace(q); q != "" {
			subs = append(subs, q)
		}
	}
	if len(subs) == 0 {
		return nil, ai.ErrNoSubQuestions
	}

	r.logger.Debug("split query", "count", len(subs))
	return subs, nil
}
