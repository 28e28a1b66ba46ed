package embedding

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/riyaaaa19/Bajaj-Vaani/internal/config"
)

// ONNXConfig configures a local sentence-transformer model exported to ONNX.
type ONNXConfig struct {
	ModelPath  string
	Dimensions int
	MaxTokens  int
}

// FastEmbedConfig configures the fastembed provider.
type FastEmbedConfig struct {
	Model     string
	CacheDir  string
	MaxLength int
}

// OpenAIConfig configures the OpenAI embeddings provider.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
}

// Provider names accepted by New.
const (
	ProviderFastEmbed = "fastembed"
	ProviderONNX      = "onnx"
	ProviderOpenAI    = "openai"
	ProviderHashing   = "hashing"
)

// New builds the embedder selected by cfg.Provider and wraps it in a CachedEmbedder
// when cfg.CacheSize > 0.
func New(cfg config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	var (
		e   Embedder
		err error
	)
	switch cfg.Provider {
	case ProviderFastEmbed, "":
		var fe *FastEmbedder
		fe, err = NewFastEmbedder(FastEmbedConfig{Model: cfg.Model, CacheDir: cfg.CacheDir, MaxLength: cfg.MaxTokens})
		e = fe
	case ProviderONNX:
		var oe *ONNXEmbedder
		oe, err = NewONNXEmbedder(ONNXConfig{ModelPath: cfg.ModelPath, Dimensions: cfg.Dimensions, MaxTokens: cfg.MaxTokens})
		e = oe
	case ProviderOpenAI:
		var ae *OpenAIEmbedder
		ae, err = NewOpenAIEmbedder(OpenAIConfig{APIKey: cfg.APIKey(), BaseURL: cfg.BaseURL, Model: cfg.Model, Dimensions: cfg.Dimensions})
		e = ae
	case ProviderHashing:
		e = NewHashingEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q (supported: fastembed, onnx, openai, hashing)", ErrInvalidConfig, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Info("embedder ready",
			zap.String("provider", cfg.Provider),
			zap.String("model", cfg.Model),
			zap.Int("dimensions", e.Dimensions()),
		)
	}
	return NewCachedEmbedder(e, cfg.CacheSize), nil
}
