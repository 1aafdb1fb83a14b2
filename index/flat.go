package index

import (
	"fmt"
	"slices"
)

// Match is a single search hit: the insertion position of the stored vector
// and its inner-product score against the query.
type Match struct {
	Index int
	Score float32
}

// Flat is an exact inner-product index over a dense set of vectors.
// Positions are assigned in insertion order starting at zero.
type Flat struct {
	dim     int
	vectors [][]float32
}

// NewFlat creates an empty index for vectors of the given dimension.
func NewFlat(dim int) (*Flat, error) {
	if dim <= 0 {
		return nil, ErrInvalidDimension
	}
	return &Flat{dim: dim}, nil
}

// Build creates an index populated with vectors.
// The vectors are copied so the index never aliases caller storage.
func Build(dim int, vectors [][]float32) (*Flat, error) {
	f, err := NewFlat(dim)
	if err != nil {
		return nil, err
	}
	f.vectors = make([][]float32, 0, len(vectors))
	for _, v := range vectors {
		if err := f.Add(v); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Add appends a vector to the index.
func (f *Flat) Add(v []float32) error {
	if len(v) != f.dim {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, f.dim, len(v))
	}
	f.vectors = append(f.vectors, slices.Clone(v))
	return nil
}

// Search returns up to k matches ordered by descending score.
// Ties keep insertion order.
func (f *Flat) Search(query []float32, k int) ([]Match, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, f.dim, len(query))
	}
	if k <= 0 || len(f.vectors) == 0 {
		return []Match{}, nil
	}

	matches := make([]Match, len(f.vectors))
	for i, v := range f.vectors {
		matches[i] = Match{Index: i, Score: Dot(query, v)}
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Len returns the number of indexed vectors.
func (f *Flat) Len() int {
	return len(f.vectors)
}

// Dim returns the index dimension.
func (f *Flat) Dim() int {
	return f.dim
}
