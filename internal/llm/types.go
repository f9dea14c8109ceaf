package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the provider answers without content.
var ErrEmptyResponse = errors.New("llm returned an empty response")

// Provider maps a prompt to the model's raw text answer.
type Provider interface {
	// Complete sends a single user prompt and returns the model's answer.
	// Implementations make exactly one attempt.
	Complete(ctx context.Context, prompt string, opts ...Option) (*Response, error)
	// Name identifies the backend in logs and metrics.
	Name() string
}

type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

type Option func(*Options)

type Options struct {
	Model       string
	MaxTokens   int64
	Temperature float64
	// JSONOutput asks the backend for a JSON document when it supports it.
	JSONOutput bool
}

func WithJSONOutput() Option {
	return func(o *Options) { o.JSONOutput = true }
}

type Response struct {
	Content string
	Model   string
	Usage   Usage
}

func applyOptions(defaults Options, opts []Option) Options {
	for _, opt := range opts {
		opt(&defaults)
	}
	return defaults
}
