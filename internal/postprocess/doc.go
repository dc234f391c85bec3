// Package postprocess turns raw language-model output into validated,
// confidence-scored structured results.
//
// It contains the response extractor (ordered parsing strategies that
// recover a list or object from possibly malformed text), the keyword
// normalizer, the schema validator, the completeness and confidence
// scorers, and the three task postprocessors (summarize, keywords,
// normalize) that orchestrate them.
//
// Everything in this package is pure and stateless: no I/O, no shared
// mutable state, safe for concurrent use. Parse and validation failures
// are reported as data on the result, never as errors; only precondition
// violations (empty response text, missing schema) are returned as errors.
package postprocess
