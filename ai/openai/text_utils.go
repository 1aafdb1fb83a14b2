package openai

import (
	"strings"

	"github.com/poiesic/ragcache/ai"
	"github.com/tmc/langchaingo/llms"
)

// stripCodeFences removes a surrounding markdown code fence, if present.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// firstChoice returns the text of the first choice in a model response.
func firstChoice(resp *llms.ContentResponse) (string, error) {
	if resp == nil || len(resp.Choices) < 1 {
		return "", ai.ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return "", ai.ErrEmptyResponse
	}
	return text, nil
}

// systemAndHuman builds a two-message exchange.
func systemAndHuman(system, human string) []llms.MessageContent {
	return []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, human),
	}
}
