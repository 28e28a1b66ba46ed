// Package llm produces grounded coverage answers from retrieved policy clauses using a
// hosted chat model.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrNoCompleter is returned when answering is requested but no chat model is configured.
	ErrNoCompleter = errors.New("no language model configured")
	// ErrCompletion wraps failures reported by the chat model provider.
	ErrCompletion = errors.New("language model request failed")
	// ErrInvalidConfig is returned for unusable provider settings.
	ErrInvalidConfig = errors.New("invalid llm configuration")
)

// Completer sends a single-turn prompt to a chat model and returns the text reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
