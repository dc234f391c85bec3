package postprocess

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Method names the parsing strategy that recovered a structure from the
// raw model output.
type Method string

// Parsing strategies, in the order they are attempted.
const (
	MethodDirectJSON     Method = "direct-json"
	MethodFencedBlock    Method = "fenced-code-block"
	MethodBracketPattern Method = "bracket-pattern"
	MethodCommaSeparated Method = "comma-separated"
	MethodLineSeparated  Method = "line-separated"
	MethodNone           Method = "none"
)

// ParseInfo reports how (and whether) extraction succeeded. It is produced
// by ExtractList/ExtractObject and consumed immediately by the calling
// postprocessor.
type ParseInfo struct {
	Success bool   `json:"success"`
	Method  Method `json:"method"`
	Error   string `json:"error,omitempty"`
}

var (
	fencedListRe   = regexp.MustCompile("(?s)```(?:json)?\\s*(\\[.*?\\])\\s*```")
	fencedObjectRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

	// First bracketed region without nested brackets.
	bracketListRe = regexp.MustCompile(`\[[^\[\]]+\]`)

	// First brace-matched region, tolerating one level of nesting.
	braceObjectRe = regexp.MustCompile(`(?s)\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)

	keywordLabelRe = regexp.MustCompile(`(?i)^(키워드|keywords?):\s*`)
	bulletRe       = regexp.MustCompile(`^[-*\d.]+\s*`)
)

// listStrategy is one parsing attempt: a pure function from text to a
// candidate list. Strategies are tried in order and the first success
// wins; adding a strategy never touches the existing ones.
type listStrategy struct {
	method Method
	parse  func(string) ([]any, bool)
}

var listStrategies = []listStrategy{
	{MethodDirectJSON, parseListDirect},
	{MethodFencedBlock, parseListFenced},
	{MethodBracketPattern, parseListBracket},
	{MethodCommaSeparated, parseListComma},
	{MethodLineSeparated, parseListLines},
}

type objectStrategy struct {
	method Method
	parse  func(string) (map[string]any, bool)
}

var objectStrategies = []objectStrategy{
	{MethodDirectJSON, parseObjectDirect},
	{MethodFencedBlock, parseObjectFenced},
	{MethodBracketPattern, parseObjectBrace},
}

// ExtractList recovers a candidate keyword list from raw model output.
// Items keep their decoded JSON types (string, number, bool, null); the
// keyword normalizer stringifies them at its boundary. On failure the
// returned list is empty and ParseInfo reports the failure; ExtractList
// never returns an error.
func ExtractList(text string) ([]any, ParseInfo) {
	cleaned := strings.TrimSpace(text)

	for _, s := range listStrategies {
		if items, ok := s.parse(cleaned); ok {
			return items, ParseInfo{Success: true, Method: s.method}
		}
	}

	return nil, ParseInfo{
		Success: false,
		Method:  MethodNone,
		Error:   "could not parse keywords from response",
	}
}

// ExtractObject recovers a candidate JSON object from raw model output.
// On failure it returns an empty map and a failed ParseInfo carrying the
// direct-parse diagnostic; it never returns an error. The caller decides
// how to react to a failed parse.
func ExtractObject(text string) (map[string]any, ParseInfo) {
	cleaned := strings.TrimSpace(text)

	var firstErr string
	if err := json.Unmarshal([]byte(cleaned), new(any)); err != nil {
		firstErr = err.Error()
	}

	for _, s := range objectStrategies {
		if obj, ok := s.parse(cleaned); ok {
			return obj, ParseInfo{Success: true, Method: s.method}
		}
	}

	info := ParseInfo{Success: false, Method: MethodNone, Error: firstErr}
	if info.Error == "" {
		info.Error = "could not parse JSON object from response"
	}
	return map[string]any{}, info
}

func parseListDirect(text string) ([]any, bool) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, false
	}
	items, ok := v.([]any)
	return items, ok
}

func parseListFenced(text string) ([]any, bool) {
	m := fencedListRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	return parseListDirect(m[1])
}

func parseListBracket(text string) ([]any, bool) {
	m := bracketListRe.FindString(text)
	if m == "" {
		return nil, false
	}
	return parseListDirect(m)
}

func parseListComma(text string) ([]any, bool) {
	if !strings.Contains(text, ",") {
		return nil, false
	}

	// Strip a leading "keywords:" label and any surrounding brackets
	// before splitting.
	text = keywordLabelRe.ReplaceAllString(text, "")
	text = strings.NewReplacer("[", "", "]", "").Replace(text)

	var items []any
	for _, part := range strings.Split(text, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part != "" {
			items = append(items, part)
		}
	}
	return items, len(items) > 0
}

func parseListLines(text string) ([]any, bool) {
	var items []any
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = bulletRe.ReplaceAllString(line, "")
		line = strings.Trim(line, `"'`)
		if utf8.RuneCountInString(line) > 1 {
			items = append(items, line)
		}
	}
	return items, len(items) > 0
}

func parseObjectDirect(text string) (map[string]any, bool) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

func parseObjectFenced(text string) (map[string]any, bool) {
	m := fencedObjectRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	return parseObjectDirect(m[1])
}

func parseObjectBrace(text string) (map[string]any, bool) {
	m := braceObjectRe.FindString(text)
	if m == "" {
		return nil, false
	}
	return parseObjectDirect(m)
}
