package llm

import (
	"context"
	"errors"
	"fmt"
)

// Common errors returned by the client layer.
var (
	// ErrInvalidParams is returned when generation parameters fail
	// validation before any request is sent.
	ErrInvalidParams = errors.New("invalid generation parameters")

	// ErrInvalidResponse is returned when the backend response cannot be
	// decoded into a Response.
	ErrInvalidResponse = errors.New("invalid response from llm backend")

	// ErrUnknownBackend is returned by the factory for an unrecognized
	// backend name.
	ErrUnknownBackend = errors.New("unknown llm backend")
)

// GenerateRequest carries the prompt and sampling parameters for one
// generation call.
type GenerateRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
	TopP        float64
	TopK        int
	Stop        []string

	// Model overrides the client's default model for this request.
	Model string
}

// Validate checks the request parameters against the ranges the backends
// accept. It returns an error wrapping ErrInvalidParams on the first
// violation.
func (r *GenerateRequest) Validate() error {
	if len(r.Prompt) == 0 {
		return fmt.Errorf("%w: prompt cannot be empty", ErrInvalidParams)
	}
	if r.MaxTokens <= 0 {
		return fmt.Errorf("%w: max_tokens must be positive, got %d", ErrInvalidParams, r.MaxTokens)
	}
	if r.Temperature < 0.0 || r.Temperature > 2.0 {
		return fmt.Errorf("%w: temperature must be in [0.0, 2.0], got %g", ErrInvalidParams, r.Temperature)
	}
	if r.TopP < 0.0 || r.TopP > 1.0 {
		return fmt.Errorf("%w: top_p must be in [0.0, 1.0], got %g", ErrInvalidParams, r.TopP)
	}
	return nil
}

// Client is the interface all inference backends implement. Generate blocks
// until the backend responds or ctx is done; errors are classified through
// the retry taxonomy so callers can decide whether to retry.
type Client interface {
	// Generate sends the prompt to the backend and returns the unified
	// response.
	Generate(ctx context.Context, req GenerateRequest) (*Response, error)

	// Health reports whether the backend is reachable and serving.
	Health(ctx context.Context) error

	// Backend returns the backend name ("llamacpp" or "vllm").
	Backend() string
}
