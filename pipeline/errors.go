package pipeline

import "errors"

var (
	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrCacheRequired is returned when a semantic cache is not provided.
	ErrCacheRequired = errors.New("semantic cache required")

	// ErrWebClientRequired is returned when web search is allowed without a client.
	ErrWebClientRequired = errors.New("web client required when web search is allowed")

	// ErrInvalidRetrievalLimit is returned for a retrieval limit below one.
	ErrInvalidRetrievalLimit = errors.New("retrieval limit must be at least 1")
)
