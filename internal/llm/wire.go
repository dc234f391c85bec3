package llm

import (
	"fmt"

	"textworker/internal/retry"
)

// completionRequest is the OpenAI-compatible wire format both backends
// accept on /v1/completions.
type completionRequest struct {
	Model       string   `json:"model,omitempty"`
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens"`
	Temperature float64  `json:"temperature"`
	TopP        float64  `json:"top_p"`
	Stop        []string `json:"stop,omitempty"`
}

// completionResponse is the OpenAI-compatible completion response.
type completionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// toResponse converts the wire response into the unified Response,
// falling back to the request's model name when the backend omits one.
func (c *completionResponse) toResponse(requestModel string) (*Response, error) {
	if len(c.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in completion", ErrInvalidResponse)
	}

	choice := c.Choices[0]
	finish := choice.FinishReason
	if finish == "" {
		finish = FinishReasonUnknown
	}

	model := c.Model
	if model == "" {
		model = requestModel
	}

	return &Response{
		Text: choice.Text,
		Usage: Usage{
			PromptTokens:     c.Usage.PromptTokens,
			CompletionTokens: c.Usage.CompletionTokens,
			TotalTokens:      c.Usage.TotalTokens,
		},
		Model:        model,
		FinishReason: finish,
		RequestID:    c.ID,
	}, nil
}

// statusError converts a non-2xx backend response into a classified error.
func statusError(status int, body []byte) error {
	return &retry.HTTPError{StatusCode: status, Body: string(body)}
}
