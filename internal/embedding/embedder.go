// Package embedding maps text to fixed-dimension vectors. Providers: local ONNX models
// (onnxruntime, fastembed), the OpenAI embeddings API, and a deterministic hashing
// embedder for tests and offline use.
package embedding

import (
	"context"
	"errors"
)

// Embedder produces vector embeddings for text. Identical input must produce identical output
// and every vector has length Dimensions().
type Embedder interface {
	// Embed embeds a single query text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch embeds document texts, one vector per input in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

var (
	// ErrUnavailable is returned when a provider was not compiled into this binary.
	ErrUnavailable = errors.New("embedding provider not available")
	// ErrInvalidConfig is returned for unknown providers, models or missing credentials.
	ErrInvalidConfig = errors.New("invalid embedding config")
)
