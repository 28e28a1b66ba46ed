// Package vector provides exact nearest-neighbor vector indexes addressed by position.
package vector

import "context"

// VectorIndex is an ordered collection of fixed-dimension vectors. The first vector
// added occupies position 0 and every later vector the next free position.
type VectorIndex interface {
	// Add appends vectors in call order. The batch is all-or-nothing.
	Add(ctx context.Context, vectors [][]float32) error
	// Search returns up to k nearest positions by ascending squared Euclidean distance.
	Search(ctx context.Context, query []float32, k int) ([]VectorResult, error)
	// Truncate drops every vector at position >= n.
	Truncate(n int) error
	// Reset drops all vectors.
	Reset()
	Save(path string) error
	Load(path string) error
	Size() int
	Dimensions() int
	Type() string
	Close() error
}

// VectorResult is a single search hit.
type VectorResult struct {
	Position int
	Distance float64 // squared Euclidean distance; lower is nearer
}
