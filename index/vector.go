package index

import "math"

// Normalize returns a new vector scaled to unit L2 norm.
// The magnitude is accumulated in float64 to keep repeated normalization stable.
// A zero vector is returned unchanged (as a copy) and an empty vector as-is.
func Normalize(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	magnitude := Magnitude(v)

	result := make([]float32, len(v))
	if magnitude == 0 {
		copy(result, v)
		return result
	}

	for i, x := range v {
		result[i] = float32(float64(x) / magnitude)
	}
	return result
}

// Dot calculates the inner product of two vectors of equal length.
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Magnitude returns the L2 norm of v.
func Magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
