// Package vector holds the similarity math used by the semantic tier.
package vector

import (
	"errors"
	"fmt"
	"math"

	"github.com/kailas-cloud/govdocs/internal/domain"
)

// ErrZeroMagnitude signals that one of the vectors has no direction.
var ErrZeroMagnitude = errors.New("zero magnitude vector")

// Cosine returns the cosine similarity of a and b in [-1, 1].
// Mismatched or empty vectors and zero-magnitude vectors are errors; callers
// treat them as "no similarity" and drop the candidate.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, fmt.Errorf("%w: %d vs %d", domain.ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, ErrZeroMagnitude
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, sim)), nil
}
