package vector

import (
	"errors"
	"fmt"
)

// IndexType represents the type of vector index to use.
type IndexType string

const (
	// IndexTypeFlat is the exact in-memory brute-force index (default).
	IndexTypeFlat IndexType = "flat"
	// IndexTypeFAISS uses a FAISS IndexFlatL2. Exact like flat, but the search runs in FAISS.
	// Requires FAISS library and build tag -tags=faiss.
	IndexTypeFAISS IndexType = "faiss"
)

// NewVectorIndex creates a vector index of the specified type.
// Supported types: "flat" (default), "faiss". A "faiss" request in a binary built
// without FAISS falls back to flat; check Type() on the result to see which was built.
func NewVectorIndex(indexType string, dimensions int) (VectorIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive, got %d", ErrConfiguration, dimensions)
	}
	switch IndexType(indexType) {
	case IndexTypeFlat, "", "memory":
		return NewFlatIndex(dimensions)
	case IndexTypeFAISS:
		idx, err := NewFAISSIndex(dimensions)
		if errors.Is(err, ErrFAISSUnavailable) {
			return NewFlatIndex(dimensions)
		}
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("%w: unknown index type %q (supported: flat, faiss)", ErrConfiguration, indexType)
	}
}

// IsFAISSAvailable returns true if FAISS support is compiled in.
func IsFAISSAvailable() bool {
	idx, err := NewFAISSIndex(1)
	if err != nil {
		return false
	}
	_ = idx.Close()
	return true
}
