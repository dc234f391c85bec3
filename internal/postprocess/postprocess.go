package postprocess

import (
	"errors"
	"fmt"
	"strings"

	"textworker/internal/llm"
)

// Precondition errors. These are raised synchronously before any parsing
// happens; they are distinct from parse or validation failures, which are
// reported as data on the result.
var (
	// ErrEmptyResponse is returned when the response content is blank.
	ErrEmptyResponse = errors.New("response content is empty")

	// ErrMissingSchema is returned when normalization is requested
	// without a schema.
	ErrMissingSchema = errors.New("schema is required for normalization")
)

// Metadata carries the generation provenance attached to every result.
type Metadata struct {
	Model        string    `json:"model"`
	FinishReason string    `json:"finish_reason"`
	Usage        llm.Usage `json:"usage"`
}

func metadataFrom(resp *llm.Response) Metadata {
	return Metadata{
		Model:        resp.Model,
		FinishReason: resp.FinishReason,
		Usage:        resp.Usage,
	}
}

// requireContent enforces the shared precondition of all three
// postprocessors: the response must exist and carry non-blank text.
func requireContent(resp *llm.Response) error {
	if resp == nil {
		return fmt.Errorf("%w: response is nil", ErrEmptyResponse)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return ErrEmptyResponse
	}
	return nil
}

// confidence computes the generic confidence score: a base of 1.0 for a
// normal finish (0.5 otherwise) multiplied by the fraction of passed
// quality checks. The result is clamped to [0, 1].
func confidence(resp *llm.Response, checks map[string]bool) float64 {
	base := 0.5
	if resp.Stopped() {
		base = 1.0
	}

	quality := 1.0
	if len(checks) > 0 {
		passed := 0
		for _, ok := range checks {
			if ok {
				passed++
			}
		}
		quality = float64(passed) / float64(len(checks))
	}

	return clamp01(base * quality)
}

func clamp01(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}
