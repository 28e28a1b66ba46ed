//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	fastembed "github.com/anush008/fastembed-go"
)

// fastembedModels maps accepted model names to fastembed models and their dimensions.
var fastembedModels = map[string]struct {
	model fastembed.EmbeddingModel
	dim   int
}{
	"all-MiniLM-L6-v2":                       {fastembed.AllMiniLML6V2, 384},
	"sentence-transformers/all-MiniLM-L6-v2": {fastembed.AllMiniLML6V2, 384},
	"BAAI/bge-small-en-v1.5":                 {fastembed.BGESmallENV15, 384},
	"BAAI/bge-base-en-v1.5":                  {fastembed.BGEBaseENV15, 768},
}

// FastEmbedder runs a quantized sentence-transformer locally through fastembed-go.
// Documents are embedded as passages and questions as queries.
type FastEmbedder struct {
	model     *fastembed.FlagEmbedding
	dimension int
	batchSize int
	mu        sync.Mutex
}

// NewFastEmbedder loads (downloading on first use) the named model into cfg.CacheDir.
func NewFastEmbedder(cfg FastEmbedConfig) (*FastEmbedder, error) {
	m, ok := fastembedModels[cfg.Model]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported fastembed model %q", ErrInvalidConfig, cfg.Model)
	}
	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(".", "local_cache")
	}
	maxLength := cfg.MaxLength
	if maxLength <= 0 {
		maxLength = 256
	}
	showProgress := false
	model, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                m.model,
		CacheDir:             cacheDir,
		MaxLength:            maxLength,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing fastembed: %w", err)
	}
	return &FastEmbedder{model: model, dimension: m.dim, batchSize: 256}, nil
}

// Embed returns the query embedding of text.
func (e *FastEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	vec, err := e.model.QueryEmbed(text)
	if err != nil {
		return nil, fmt.Errorf("fastembed query: %w", err)
	}
	return vec, nil
}

// EmbedBatch returns passage embeddings for texts.
func (e *FastEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	vecs, err := e.model.PassageEmbed(texts, e.batchSize)
	if err != nil {
		return nil, fmt.Errorf("fastembed passages: %w", err)
	}
	return vecs, nil
}

// Dimensions returns the model's embedding dimension.
func (e *FastEmbedder) Dimensions() int {
	return e.dimension
}

// Close releases the ONNX session.
func (e *FastEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model != nil {
		err := e.model.Destroy()
		e.model = nil
		return err
	}
	return nil
}
