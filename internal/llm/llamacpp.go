package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"textworker/internal/retry"
)

// LlamaCppClient talks to a llama.cpp server through its OpenAI-compatible
// /v1/completions endpoint. The model field is optional: most llama.cpp
// servers serve a single model and ignore it.
type LlamaCppClient struct {
	http   *resty.Client
	model  string
	logger *slog.Logger
}

// NewLlamaCppClient creates a client for the llama.cpp server at baseURL.
// model may be empty; timeout bounds each generation request.
func NewLlamaCppClient(baseURL, model string, timeout time.Duration, logger *slog.Logger) *LlamaCppClient {
	return &LlamaCppClient{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
		model:  model,
		logger: logger.With("backend", "llamacpp"),
	}
}

// Backend returns the backend name.
func (c *LlamaCppClient) Backend() string { return "llamacpp" }

// Generate sends the prompt to the llama.cpp server and returns the
// unified response. Failures are classified through the retry taxonomy.
func (c *LlamaCppClient) Generate(ctx context.Context, req GenerateRequest) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = c.model
	}

	payload := completionRequest{
		Model:       model,
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stop:        req.Stop,
	}

	c.logger.Debug("generate request",
		"max_tokens", req.MaxTokens,
		"temperature", req.Temperature,
		"prompt_length", len(req.Prompt))

	var wire completionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&wire).
		Post("/v1/completions")
	if err != nil {
		return nil, classifyTransportError(err)
	}
	if resp.IsError() {
		return nil, statusError(resp.StatusCode(), resp.Body())
	}

	return wire.toResponse(model)
}

// Health checks the server's /health endpoint.
func (c *LlamaCppClient) Health(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/health")
	if err != nil {
		return classifyTransportError(err)
	}
	if resp.IsError() {
		return statusError(resp.StatusCode(), resp.Body())
	}
	return nil
}

// classifyTransportError maps transport-level failures (no HTTP response)
// into the retry taxonomy: deadline overruns become timeouts, everything
// else a connection failure.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", retry.ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", retry.ErrConnection, err)
}
