// Package similarity scores embedding vectors against a query vector.
package similarity

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/ideascout/internal/domain"
)

// Score is the outcome of scoring one vector.
type Score struct {
	Value float64
	OK    bool
	Err   error
}

// Cosine returns (q·v)/(‖q‖‖v‖), accumulated in float64.
func Cosine(q, v []float32) (float64, error) {
	if len(q) != len(v) {
		return 0, fmt.Errorf("%d vs %d: %w", len(q), len(v), domain.ErrVectorDimMismatch)
	}
	if len(q) == 0 {
		return 0, domain.ErrZeroNorm
	}

	var dot, nq, nv float64
	for i := range q {
		a, b := float64(q[i]), float64(v[i])
		dot += a * b
		nq += a * a
		nv += b * b
	}
	if nq == 0 || nv == 0 {
		return 0, domain.ErrZeroNorm
	}

	s := dot / (math.Sqrt(nq) * math.Sqrt(nv))
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0, domain.ErrNonFiniteScore
	}
	return s, nil
}

// Batch scores every vector independently. A malformed vector yields a
// failed Score at its position and never affects its siblings.
func Batch(q []float32, vs [][]float32) []Score {
	out := make([]Score, len(vs))
	for i, v := range vs {
		s, err := Cosine(q, v)
		if err != nil {
			out[i] = Score{Err: err}
			continue
		}
		out[i] = Score{Value: s, OK: true}
	}
	return out
}
