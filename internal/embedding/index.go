package embedding

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmptyIndex is returned when an index is built without vectors.
	ErrEmptyIndex = errors.New("embedding index is empty")
	// ErrDimensionMismatch is returned when vectors disagree on length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Index holds one vector per catalog record, in catalog order.
type Index struct {
	vectors [][]float32
	dim     int
}

// NewIndex validates that all vectors share one non-zero dimensionality.
func NewIndex(vectors [][]float32) (*Index, error) {
	if len(vectors) == 0 {
		return nil, ErrEmptyIndex
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: vector 0 is empty", ErrDimensionMismatch)
	}

	owned := make([][]float32, len(vectors))
	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d values, expected %d", ErrDimensionMismatch, i, len(vec), dim)
		}
		owned[i] = cloneVector(vec)
	}

	return &Index{vectors: owned, dim: dim}, nil
}

// Len returns the number of vectors.
func (idx *Index) Len() int {
	return len(idx.vectors)
}

// Dim returns the vector dimensionality.
func (idx *Index) Dim() int {
	return idx.dim
}

// Scores returns the cosine similarity of query against every vector, in index order.
func (idx *Index) Scores(query []float32) ([]float64, error) {
	if len(query) != idx.dim {
		return nil, fmt.Errorf("%w: query has %d values, index has %d", ErrDimensionMismatch, len(query), idx.dim)
	}

	scores := make([]float64, len(idx.vectors))
	for i, vec := range idx.vectors {
		scores[i] = Cosine(query, vec)
	}
	return scores, nil
}

// Cosine returns the cosine similarity of a and b. A zero-magnitude operand
// yields 0.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, na, nb float64
	for i := 0; i < n; i++ {
		fa, fb := float64(a[i]), float64(b[i])
		dot += fa * fb
		na += fa * fa
		nb += fb * fb
	}

	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
