package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

// VLLMClient talks to a vLLM server through /v1/completions. Unlike
// llama.cpp, vLLM serves named models and requires the model field on
// every request.
type VLLMClient struct {
	http   *resty.Client
	model  string
	logger *slog.Logger
}

// NewVLLMClient creates a client for the vLLM server at baseURL. model is
// the default model identifier and may be overridden per request.
func NewVLLMClient(baseURL, model string, timeout time.Duration, logger *slog.Logger) *VLLMClient {
	return &VLLMClient{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
		model:  model,
		logger: logger.With("backend", "vllm"),
	}
}

// Backend returns the backend name.
func (c *VLLMClient) Backend() string { return "vllm" }

// Generate sends the prompt to the vLLM server and returns the unified
// response. A model name is mandatory, either on the client or the request.
func (c *VLLMClient) Generate(ctx context.Context, req GenerateRequest) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	if model == "" {
		return nil, fmt.Errorf("%w: vllm requires a model name", ErrInvalidParams)
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
		"model", model,
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
func (c *VLLMClient) Health(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/health")
	if err != nil {
		return classifyTransportError(err)
	}
	if resp.IsError() {
		return statusError(resp.StatusCode(), resp.Body())
	}
	return nil
}
