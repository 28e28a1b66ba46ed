package vector

import "errors"

var (
	// ErrConfiguration is returned for an invalid index setup, such as a non-positive dimension.
	ErrConfiguration = errors.New("vector index configuration error")
	// ErrDimensionMismatch is returned when a vector's length differs from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrNotFound is returned by Load when no index file exists at the path.
	ErrNotFound = errors.New("vector index not found")
	// ErrCorrupt is returned by Load when the index file cannot be decoded.
	ErrCorrupt = errors.New("vector index corrupt")
	// ErrFAISSUnavailable is returned when the binary was built without FAISS support.
	ErrFAISSUnavailable = errors.New("FAISS not available: build with -tags=faiss and install FAISS library")
)
