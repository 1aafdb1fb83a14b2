package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/ragcache/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
type Generator struct {
	client llms.Model
	logger *slog.Logger
}

// newGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GeneratorHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.GeneratorModel),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client: client,
		logger: slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a new answer generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// Generate answers question from the numbered context chunks.
func (g *Generator) Generate(ctx context.Context, question string, chunks []string) (string, error) {
	g.logger.Debug("generating answer", "question", question, "chunks", len(chunks))

	resp, err := g.client.GenerateContent(ctx, systemAndHuman(generatePrompt, buildGenerateInput(question, chunks)))
	if err != nil {
		g.logger.Error("failed to generate answer", "err", err)
		return "", err
	}

	return firstChoice(resp)
}
