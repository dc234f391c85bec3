package postprocess

import (
	"textworker/internal/llm"
)

// NormalizeOptions configures normalization postprocessing.
type NormalizeOptions struct {
	// Schema is the expected structure of the normalized object.
	// Required: Process fails with ErrMissingSchema when empty.
	Schema map[string]any

	// StrictValidation enables per-field type checking.
	StrictValidation bool

	// AllowExtraFields suppresses the extra-fields validation error.
	AllowExtraFields bool
}

// DefaultNormalizeOptions returns the standard normalization options;
// the caller still has to set Schema.
func DefaultNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{StrictValidation: true}
}

// NormalizationResult is the structured outcome of a normalization task.
// Parse and validation failures are carried as data here (empty Data,
// non-empty ValidationErrors, depressed Confidence) so the caller can
// apply its own acceptance threshold.
type NormalizationResult struct {
	Data             map[string]any  `json:"data"`
	Confidence       float64         `json:"confidence"`
	Completeness     float64         `json:"completeness"`
	QualityMetrics   QualityMetrics  `json:"quality_metrics"`
	QualityChecks    map[string]bool `json:"quality_checks"`
	ValidationErrors []string        `json:"validation_errors"`
	ParseInfo        ParseInfo       `json:"parsing_info"`
	Metadata         Metadata        `json:"metadata"`
}

// NormalizeProcessor extracts a JSON object from model output, validates
// it against a schema, and scores completeness and confidence. It is
// stateless and safe for concurrent use.
type NormalizeProcessor struct{}

// NewNormalizeProcessor creates a normalization postprocessor.
func NewNormalizeProcessor() *NormalizeProcessor {
	return &NormalizeProcessor{}
}

// Process runs extraction, schema validation and scoring. It returns an
// error for the empty-content and missing-schema preconditions only; a
// failed parse or validation is reported on the result, never raised.
func (p *NormalizeProcessor) Process(resp *llm.Response, opts NormalizeOptions) (*NormalizationResult, error) {
	if err := requireContent(resp); err != nil {
		return nil, err
	}
	if len(opts.Schema) == 0 {
		return nil, ErrMissingSchema
	}

	data, info := ExtractObject(resp.Text)

	validationErrors := ValidateSchema(data, opts.Schema, opts.StrictValidation, opts.AllowExtraFields)
	completeness := Completeness(data, opts.Schema)
	metrics := ComputeQualityMetrics(data, opts.Schema)

	checks := map[string]bool{
		"parsing_succeeded":       info.Success,
		"data_found":              len(data) > 0,
		"schema_valid":            len(validationErrors) == 0,
		"completed_normally":      resp.Stopped(),
		"acceptable_completeness": completeness >= 0.5,
		"high_completeness":       completeness >= 0.8,
	}

	return &NormalizationResult{
		Data:             data,
		Confidence:       normalizeConfidence(resp, checks, completeness, validationErrors),
		Completeness:     completeness,
		QualityMetrics:   metrics,
		QualityChecks:    checks,
		ValidationErrors: validationErrors,
		ParseInfo:        info,
		Metadata:         metadataFrom(resp),
	}, nil
}

// normalizeConfidence extends the generic score with two more
// multiplicative factors: completeness, and a validation penalty of 10%
// per error floored at 50%. A product of independent [0,1] factors means
// any single severe failure collapses the overall score.
func normalizeConfidence(
	resp *llm.Response,
	checks map[string]bool,
	completeness float64,
	validationErrors []string,
) float64 {
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

	penalty := 1.0
	if n := len(validationErrors); n > 0 {
		penalty = 1.0 - float64(n)*0.1
		if penalty < 0.5 {
			penalty = 0.5
		}
	}

	return clamp01(base * quality * completeness * penalty)
}
