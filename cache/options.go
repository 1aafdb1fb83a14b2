package cache

import (
	"fmt"
	"log/slog"
)

// DefaultThreshold is the distance threshold used when none is configured.
// A lookup hits when similarity >= 1 - threshold.
const DefaultThreshold = 0.1

// Option configures a SemanticCache.
type Option func(*SemanticCache) error

// WithThreshold sets the distance threshold. It must be in (0, 2].
func WithThreshold(threshold float64) Option {
	return func(c *SemanticCache) error {
		if threshold <= 0 || threshold > 2 {
			return fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
		}
		c.threshold = threshold
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *SemanticCache) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}
