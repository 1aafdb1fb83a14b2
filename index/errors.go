package index

import "errors"

var (
	// ErrDimensionMismatch is returned when a vector does not match the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidDimension is returned when an index is created with a non-positive dimension.
	ErrInvalidDimension = errors.New("index dimension must be greater than 0")
)
