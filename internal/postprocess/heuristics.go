package postprocess

import (
	"fmt"
	"regexp"
	"strings"
)

// Heuristics bundles the locale-specific pattern lists used by the
// postprocessors: placeholder words the model emits instead of real
// content, label prefixes to strip from summaries, and the characters a
// well-formed sentence ends with. The defaults are tuned for Korean and
// English text; other locales supply their own lists through
// NewHeuristics.
type Heuristics struct {
	keywordPlaceholders []*regexp.Regexp
	summaryPlaceholders []*regexp.Regexp
	summaryPrefixes     []*regexp.Regexp
	sentenceEndings     []string
}

// HeuristicsConfig holds the raw pattern lists for NewHeuristics. All
// pattern fields are regular expressions matched against lower-cased,
// trimmed input.
type HeuristicsConfig struct {
	KeywordPlaceholderPatterns []string
	SummaryPlaceholderPatterns []string
	SummaryPrefixPatterns      []string
	SentenceEndings            []string
}

// DefaultHeuristicsConfig returns the Korean/English defaults.
func DefaultHeuristicsConfig() HeuristicsConfig {
	return HeuristicsConfig{
		KeywordPlaceholderPatterns: []string{
			`^키워드\d*$`,
			`^keyword\d*$`,
			`^tag\d*$`,
			`^없음$`,
			`^n/a$`,
			`^none$`,
			`^해당사항\s*없음$`,
		},
		SummaryPlaceholderPatterns: []string{
			`^(요약|summary|결과)$`,
			`^없음$`,
			`^n/a$`,
			`^해당 없음$`,
			`^정보 없음$`,
		},
		SummaryPrefixPatterns: []string{
			`^요약:\s*`,
			`^요약문:\s*`,
			`(?i)^summary:\s*`,
			`^결과:\s*`,
			`^\[요약\]\s*`,
			`^【요약】\s*`,
		},
		SentenceEndings: []string{".", "!", "?", "다", "요", "음", "함", "됨", "임"},
	}
}

// NewHeuristics compiles the configured pattern lists. It returns an error
// on the first invalid regular expression.
func NewHeuristics(cfg HeuristicsConfig) (*Heuristics, error) {
	compile := func(patterns []string, kind string) ([]*regexp.Regexp, error) {
		out := make([]*regexp.Regexp, 0, len(patterns))
		for _, p := range patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("invalid %s pattern %q: %w", kind, p, err)
			}
			out = append(out, re)
		}
		return out, nil
	}

	keyword, err := compile(cfg.KeywordPlaceholderPatterns, "keyword placeholder")
	if err != nil {
		return nil, err
	}
	summary, err := compile(cfg.SummaryPlaceholderPatterns, "summary placeholder")
	if err != nil {
		return nil, err
	}
	prefixes, err := compile(cfg.SummaryPrefixPatterns, "summary prefix")
	if err != nil {
		return nil, err
	}

	return &Heuristics{
		keywordPlaceholders: keyword,
		summaryPlaceholders: summary,
		summaryPrefixes:     prefixes,
		sentenceEndings:     cfg.SentenceEndings,
	}, nil
}

// DefaultHeuristics returns heuristics compiled from the default config.
func DefaultHeuristics() *Heuristics {
	h, err := NewHeuristics(DefaultHeuristicsConfig())
	if err != nil {
		// The default patterns are constants; a compile failure is a bug.
		panic(err)
	}
	return h
}

// isKeywordPlaceholder reports whether a cleaned keyword is a metadata
// placeholder ("keyword1", "없음", "n/a", ...) rather than real content.
func (h *Heuristics) isKeywordPlaceholder(keyword string) bool {
	lower := strings.ToLower(keyword)
	for _, re := range h.keywordPlaceholders {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

// isSummaryPlaceholder reports whether a summary is only a metadata
// placeholder instead of actual content.
func (h *Heuristics) isSummaryPlaceholder(summary string) bool {
	lower := strings.ToLower(strings.TrimSpace(summary))
	for _, re := range h.summaryPlaceholders {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

// stripSummaryPrefixes removes known leading labels ("요약:", "summary:",
// "[요약]", ...) from a summary.
func (h *Heuristics) stripSummaryPrefixes(summary string) string {
	for _, re := range h.summaryPrefixes {
		summary = re.ReplaceAllString(summary, "")
	}
	return summary
}

// endsProperly reports whether the trimmed text ends in one of the
// configured sentence-ending characters. A summary that does not is
// treated as truncated.
func (h *Heuristics) endsProperly(text string) bool {
	trimmed := strings.TrimRight(text, " \t\n\r")
	for _, ending := range h.sentenceEndings {
		if strings.HasSuffix(trimmed, ending) {
			return true
		}
	}
	return false
}
