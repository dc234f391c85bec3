package postprocess

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"textworker/internal/llm"
)

var whitespaceRunRe = regexp.MustCompile(`\s+`)

// KeywordOptions configures keyword postprocessing.
type KeywordOptions struct {
	// MaxKeywords caps the number of keywords kept after normalization.
	MaxKeywords int

	// MinLength drops keywords shorter than this many characters.
	MinLength int

	// Deduplicate removes case-insensitive duplicates, keeping the first
	// occurrence.
	Deduplicate bool
}

// DefaultKeywordOptions returns the standard keyword options.
func DefaultKeywordOptions() KeywordOptions {
	return KeywordOptions{
		MaxKeywords: 10,
		MinLength:   2,
		Deduplicate: true,
	}
}

// KeywordResult is the structured outcome of a keyword extraction task.
type KeywordResult struct {
	Keywords      []string        `json:"keywords"`
	Count         int             `json:"count"`
	Confidence    float64         `json:"confidence"`
	QualityChecks map[string]bool `json:"quality_checks"`
	ParseInfo     ParseInfo       `json:"parsing_info"`
	Metadata      Metadata        `json:"metadata"`
}

// KeywordsProcessor parses, cleans and scores keyword lists from model
// output. It is stateless and safe for concurrent use.
type KeywordsProcessor struct {
	heuristics *Heuristics
}

// NewKeywordsProcessor creates a keyword postprocessor. A nil heuristics
// falls back to the Korean/English defaults.
func NewKeywordsProcessor(h *Heuristics) *KeywordsProcessor {
	if h == nil {
		h = DefaultHeuristics()
	}
	return &KeywordsProcessor{heuristics: h}
}

// Process extracts, normalizes and scores keywords from the response.
// It returns an error only for the empty-content precondition; a failed
// parse yields an empty keyword list with degraded confidence instead.
func (p *KeywordsProcessor) Process(resp *llm.Response, opts KeywordOptions) (*KeywordResult, error) {
	if err := requireContent(resp); err != nil {
		return nil, err
	}
	if opts.MaxKeywords <= 0 {
		opts.MaxKeywords = DefaultKeywordOptions().MaxKeywords
	}

	raw, info := ExtractList(resp.Text)

	keywords := p.Normalize(raw, opts.MinLength, opts.Deduplicate)
	if len(keywords) > opts.MaxKeywords {
		keywords = keywords[:opts.MaxKeywords]
	}

	checks := p.qualityChecks(keywords, opts.MaxKeywords, resp, info.Success)

	return &KeywordResult{
		Keywords:      keywords,
		Count:         len(keywords),
		Confidence:    confidence(resp, checks),
		QualityChecks: checks,
		ParseInfo:     info,
		Metadata:      metadataFrom(resp),
	}, nil
}

// Normalize cleans a raw candidate list into the final keyword set: each
// item is stringified, stripped of surrounding quotes and trailing
// punctuation, whitespace-collapsed, then filtered by length and against
// the placeholder patterns. With deduplicate set, later case-insensitive
// duplicates are dropped while the first-seen casing and relative order
// are preserved. The transform is pure and idempotent.
func (p *KeywordsProcessor) Normalize(raw []any, minLength int, deduplicate bool) []string {
	if minLength <= 0 {
		minLength = DefaultKeywordOptions().MinLength
	}

	cleaned := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for _, item := range raw {
		keyword := stringify(item)
		// Trim to a fixpoint so interleaved quotes and punctuation
		// ("React", -> React", -> React) come off completely; cleaning
		// an already-clean keyword is then a no-op.
		for {
			trimmed := strings.TrimSpace(keyword)
			trimmed = strings.Trim(trimmed, `"'`)
			trimmed = strings.TrimRight(trimmed, ".,;:!?")
			if trimmed == keyword {
				break
			}
			keyword = trimmed
		}
		keyword = whitespaceRunRe.ReplaceAllString(keyword, " ")

		if utf8.RuneCountInString(keyword) < minLength {
			continue
		}
		if p.heuristics.isKeywordPlaceholder(keyword) {
			continue
		}

		if deduplicate {
			lower := strings.ToLower(keyword)
			if _, dup := seen[lower]; dup {
				continue
			}
			seen[lower] = struct{}{}
		}

		cleaned = append(cleaned, keyword)
	}

	return cleaned
}

func (p *KeywordsProcessor) qualityChecks(
	keywords []string,
	maxKeywords int,
	resp *llm.Response,
	parsed bool,
) map[string]bool {
	checks := map[string]bool{
		"parsing_succeeded":  parsed,
		"keywords_found":     len(keywords) > 0,
		"reasonable_count":   len(keywords) >= 1 && len(keywords) <= maxKeywords,
		"completed_normally": resp.Stopped(),
	}

	if len(keywords) > 0 {
		unique := make(map[string]struct{}, len(keywords))
		totalLen := 0
		for _, kw := range keywords {
			unique[strings.ToLower(kw)] = struct{}{}
			totalLen += utf8.RuneCountInString(kw)
		}
		checks["diverse_keywords"] = float64(len(unique))/float64(len(keywords)) > 0.5
		checks["quality_keywords"] = float64(totalLen)/float64(len(keywords)) >= 3
	} else {
		checks["diverse_keywords"] = false
		checks["quality_keywords"] = false
	}

	return checks
}

// stringify converts a decoded JSON value into its keyword text form.
// Numbers lose their trailing zeros, null becomes empty (and is then
// dropped by the length filter).
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
