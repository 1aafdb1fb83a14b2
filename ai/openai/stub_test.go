package openai

import (
	"context"
	"errors"

	"github.com/tmc/langchaingo/llms"
)

// stubModel replays canned replies in order and records what it was sent.
type stubModel struct {
	replies  []string
	err      error
	calls    int
	messages [][]llms.MessageContent
}

func (s *stubModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	s.calls++
	s.messages = append(s.messages, messages)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.replies) == 0 {
		return &llms.ContentResponse{}, nil
	}
	reply := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: reply}},
	}, nil
}

func (s *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

// lastHuman returns the text of the human message in the most recent call.
func (s *stubModel) lastHuman() string {
	if len(s.messages) == 0 {
		return ""
	}
	for _, m := range s.messages[len(s.messages)-1] {
		if m.Role != llms.ChatMessageTypeHuman {
			continue
		}
		for _, p := range m.Parts {
			if tc, ok := p.(llms.TextContent); ok {
				return tc.Text
			}
		}
	}
	return ""
}

// stubEmbedder satisfies langchaingo's embeddings.Embedder.
type stubEmbedder struct {
	vectors [][]float32
	err     error
}

func (s *stubEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors, nil
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.vectors) == 0 {
		return nil, nil
	}
	return s.vectors[0], nil
}
