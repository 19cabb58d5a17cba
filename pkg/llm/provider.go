package llm

import (
	"context"
	"fmt"
	"net/http"
)

// StatusError is a non-2xx reply from the backend. It keeps the status
// code so callers can tell a doomed request from a transient outage.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend status %d: %s", e.StatusCode, e.Body)
}

// Retriable reports whether resending the same request can help:
// server-side failures and rate limiting, never any other 4xx.
func (e *StatusError) Retriable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// TokenHandler receives incremental output during a streamed chat.
// Returning an error aborts the stream.
type TokenHandler func(token string) error

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// ChatStream sends a chat history and delivers output incrementally
	// through onToken. The full response is returned once the stream ends.
	ChatStream(ctx context.Context, history []Message, onToken TokenHandler, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
