//go:build !cgo
// +build !cgo

package embedding

import (
	"context"
	"fmt"
)

// FastEmbedder is a stub for builds without CGO.
type FastEmbedder struct{}

// NewFastEmbedder returns ErrUnavailable when built without CGO.
func NewFastEmbedder(_ FastEmbedConfig) (*FastEmbedder, error) {
	return nil, fmt.Errorf("%w: fastembed requires CGO", ErrUnavailable)
}

func (e *FastEmbedder) Embed(context.Context, string) ([]float32, error) { return nil, ErrUnavailable }

func (e *FastEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, ErrUnavailable
}

func (e *FastEmbedder) Dimensions() int { return 0 }

func (e *FastEmbedder) Close() error { return nil }
