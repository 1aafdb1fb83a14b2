package cache

import "errors"

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrStoreRequired is returned when a store is not provided.
	ErrStoreRequired = errors.New("store required")

	// ErrInvalidThreshold is returned when a threshold is outside (0, 2].
	ErrInvalidThreshold = errors.New("threshold must be in (0, 2]")

	// ErrCorruptSnapshot is returned when a persisted snapshot cannot be used.
	ErrCorruptSnapshot = errors.New("corrupt cache snapshot")
)
