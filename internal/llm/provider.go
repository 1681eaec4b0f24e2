package llm

import "context"

// Provider is the interface every language-model backend implements.
// The conversation engine only ever talks to the model through it.
type Provider interface {
	// Complete sends one completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the provider identifier.
	Name() string
}
