package ai

import "errors"

var (
	// ErrEmptyEmbedding is returned when an embedding service yields a zero-length vector.
	ErrEmptyEmbedding = errors.New("embedding service returned an empty vector")

	// ErrNoSubQuestions is returned when a split produces no usable sub-questions.
	ErrNoSubQuestions = errors.New("no sub-questions in split response")

	// ErrMalformedResponse is returned when a model response has no decodable structured block.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrEmptyResponse is returned when a model returns no choices or only whitespace.
	ErrEmptyResponse = errors.New("empty model response")
)
