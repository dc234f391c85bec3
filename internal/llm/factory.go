package llm

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Options configures the client factory.
type Options struct {
	Backend string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewClient creates an inference client for the configured backend. Both
// backends implement the same interface, so the rest of the worker never
// branches on the backend type.
func NewClient(opts Options, logger *slog.Logger) (Client, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	switch strings.ToLower(opts.Backend) {
	case "llamacpp":
		return NewLlamaCppClient(opts.BaseURL, opts.Model, timeout, logger), nil
	case "vllm":
		return NewVLLMClient(opts.BaseURL, opts.Model, timeout, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q (available: llamacpp, vllm)", ErrUnknownBackend, opts.Backend)
	}
}
