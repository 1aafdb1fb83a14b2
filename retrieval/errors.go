package retrieval

import "errors"

var (
	// ErrRepositoryRequired is returned when a chunk repository is not provided.
	ErrRepositoryRequired = errors.New("chunk repository required")

	// ErrInvalidAction is returned when an action has no retrieval collection.
	ErrInvalidAction = errors.New("invalid action for retrieval")

	// ErrInvalidLimit is returned when fewer than one result is requested.
	ErrInvalidLimit = errors.New("retrieval limit must be at least 1")

	// ErrRetrievalFailed wraps vector store failures.
	ErrRetrievalFailed = errors.New("retrieval failed")
)
