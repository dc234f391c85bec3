package llm

// Finish reasons reported by the inference backend. FinishReasonStop is the
// only value that counts as a normal completion; everything else lowers the
// confidence baseline during postprocessing.
const (
	FinishReasonStop    = "stop"
	FinishReasonLength  = "length"
	FinishReasonError   = "error"
	FinishReasonUnknown = "unknown"
)

// Usage holds token accounting for a single generation request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the backend-agnostic result of one generation request.
// It is created once per inference call and read-only afterwards; the
// postprocessor that receives it owns it.
type Response struct {
	// Text is the generated completion. Callers must check for emptiness
	// before postprocessing; the client never invents content.
	Text string `json:"text"`

	// Usage reports token counts for the request.
	Usage Usage `json:"usage"`

	// Model is the model name that served the request.
	Model string `json:"model"`

	// FinishReason records why generation stopped ("stop", "length", ...).
	FinishReason string `json:"finish_reason"`

	// RequestID is an optional correlation token from the backend.
	RequestID string `json:"request_id,omitempty"`
}

// Stopped reports whether generation ended by natural completion.
func (r *Response) Stopped() bool {
	return r.FinishReason == FinishReasonStop
}
