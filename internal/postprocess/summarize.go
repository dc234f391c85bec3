package postprocess

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"textworker/internal/llm"
)

var (
	boldPrefixRe   = regexp.MustCompile(`^\*\*(.+?)\*\*`)
	headerPrefixRe = regexp.MustCompile(`^#+\s+`)
)

// SummarizeOptions configures summary postprocessing. Zero values mean
// "not provided".
type SummarizeOptions struct {
	// MaxLength is the expected maximum summary length in characters,
	// used for the max-length quality check (with 10% tolerance).
	MaxLength int

	// OriginalLength is the character length of the source text; when
	// positive a compression ratio is computed.
	OriginalLength int
}

// SummaryResult is the structured outcome of a summarization task.
type SummaryResult struct {
	Summary          string          `json:"summary"`
	Length           int             `json:"length"`
	WordCount        int             `json:"word_count"`
	CompressionRatio *float64        `json:"compression_ratio,omitempty"`
	Confidence       float64         `json:"confidence"`
	QualityChecks    map[string]bool `json:"quality_checks"`
	Metadata         Metadata        `json:"metadata"`
}

// SummarizeProcessor cleans and scores summary text from model output.
// It is stateless and safe for concurrent use.
type SummarizeProcessor struct {
	heuristics *Heuristics
}

// NewSummarizeProcessor creates a summary postprocessor. A nil heuristics
// falls back to the Korean/English defaults.
func NewSummarizeProcessor(h *Heuristics) *SummarizeProcessor {
	if h == nil {
		h = DefaultHeuristics()
	}
	return &SummarizeProcessor{heuristics: h}
}

// Process cleans the summary, computes length metrics and quality checks,
// and scores confidence. It returns an error only when the response
// content is blank before cleaning.
func (p *SummarizeProcessor) Process(resp *llm.Response, opts SummarizeOptions) (*SummaryResult, error) {
	if err := requireContent(resp); err != nil {
		return nil, err
	}

	summary := p.clean(resp.Text)
	length := utf8.RuneCountInString(summary)
	wordCount := len(strings.Fields(summary))

	var ratio *float64
	if opts.OriginalLength > 0 {
		r := float64(length) / float64(opts.OriginalLength)
		ratio = &r
	}

	checks := p.qualityChecks(summary, length, wordCount, opts.MaxLength, resp)

	return &SummaryResult{
		Summary:          summary,
		Length:           length,
		WordCount:        wordCount,
		CompressionRatio: ratio,
		Confidence:       confidence(resp, checks),
		QualityChecks:    checks,
		Metadata:         metadataFrom(resp),
	}, nil
}

// clean strips known leading labels and simple markdown from the raw
// summary and collapses whitespace runs.
func (p *SummarizeProcessor) clean(content string) string {
	cleaned := strings.TrimSpace(content)
	cleaned = p.heuristics.stripSummaryPrefixes(cleaned)
	cleaned = boldPrefixRe.ReplaceAllString(cleaned, "$1")
	cleaned = headerPrefixRe.ReplaceAllString(cleaned, "")
	cleaned = whitespaceRunRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

func (p *SummarizeProcessor) qualityChecks(
	summary string,
	length, wordCount, maxLength int,
	resp *llm.Response,
) map[string]bool {
	checks := map[string]bool{
		"not_empty":          length > 0,
		"minimum_length":     length >= 10,
		"completed_normally": resp.Stopped(),
	}

	if maxLength > 0 {
		tolerance := int(float64(maxLength) * 1.1)
		checks["respects_max_length"] = length <= tolerance
	} else {
		checks["respects_max_length"] = true
	}

	checks["not_truncated"] = !p.looksTruncated(summary)
	checks["contains_content"] = !p.heuristics.isSummaryPlaceholder(summary) && wordCount >= 3

	return checks
}

// looksTruncated reports whether the summary appears to stop mid-sentence:
// its last character is not one of the configured sentence endings. An
// empty summary is not considered truncated (the not_empty check already
// covers it).
func (p *SummarizeProcessor) looksTruncated(summary string) bool {
	if summary == "" {
		return false
	}
	return !p.heuristics.endsProperly(summary)
}
