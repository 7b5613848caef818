// Package llm holds the provider-neutral contracts the analyzers depend on.
// Concrete providers live in internal/openai and internal/anthropic.
package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when an operation needs a language model and
// none was configured at startup.
var ErrNotConfigured = errors.New("no language model configured")

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes one structured-generation call. Schema is the JSON
// schema the output must satisfy, as produced by GenerateSchema.
type Request struct {
	Name        string
	Description string
	System      string
	Prompt      string
	Schema      map[string]any
	MaxTokens   int
}

// Generator produces raw JSON text constrained to a schema.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Completer produces freeform text from a chat history.
type Completer interface {
	Complete(ctx context.Context, system string, messages []Message, maxTokens int) (string, error)
}

// Provider is a configured model backend that supports both call styles.
type Provider interface {
	Generator
	Completer
	Name() string
}
