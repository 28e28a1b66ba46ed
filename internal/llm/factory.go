package llm

import (
	"fmt"
	"strings"

	"github.com/riyaaaa19/Bajaj-Vaani/internal/config"
	"go.uber.org/zap"
)

// Provider names accepted in the llm config section.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderNone      = "none"
)

// New builds the completer selected by cfg. Provider "none" (or empty) returns a nil
// Completer and no error; answering then fails with ErrNoCompleter.
func New(cfg config.LLMConfig, logger *zap.Logger) (Completer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	var (
		c   Completer
		err error
	)
	switch provider {
	case "", ProviderNone:
		logger.Info("llm disabled")
		return nil, nil
	case ProviderOpenAI:
		c, err = NewOpenAICompleter(OpenAIConfig{
			APIKey:    cfg.APIKey(),
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
		})
	case ProviderAnthropic:
		c, err = NewAnthropicCompleter(AnthropicConfig{
			APIKey:    cfg.APIKey(),
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
		})
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("llm ready", zap.String("provider", provider), zap.String("model", cfg.Model))
	return c, nil
}
