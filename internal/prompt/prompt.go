// Package prompt builds the Korean-language prompts for each task type.
// Builders validate their inputs and return the formatted prompt string;
// they never call the inference backend themselves.
package prompt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Errors returned by the prompt builders.
var (
	// ErrEmptyText is returned when the input text is empty or whitespace.
	ErrEmptyText = errors.New("input text cannot be empty")

	// ErrEmptySchema is returned when a normalization prompt is built
	// without a schema.
	ErrEmptySchema = errors.New("schema cannot be empty")

	// ErrInvalidMaxKeywords is returned when max keywords is below 1.
	ErrInvalidMaxKeywords = errors.New("max keywords must be at least 1")
)

// System prompts define the model's role for each task type.
const (
	SummarizeSystem = `당신은 전문적인 요약 작성 AI입니다.

주어진 텍스트를 명확하고 간결하게 요약하는 것이 당신의 임무입니다.

요약 작성 원칙:
1. 핵심 정보와 주요 내용을 빠짐없이 포함
2. 원문의 의미와 맥락을 정확히 보존
3. 불필요한 세부사항은 생략하되 중요한 세부사항은 유지
4. 명확하고 이해하기 쉬운 한국어 사용
5. 지정된 길이 제한을 준수
6. 원문에 없는 내용을 추가하거나 해석하지 않음

요약문만 출력하고, 추가 설명이나 메타 정보는 포함하지 마세요.`

	KeywordsSystem = `당신은 텍스트에서 핵심 키워드를 추출하는 전문 AI입니다.

주어진 텍스트에서 가장 중요하고 의미있는 키워드를 식별하는 것이 당신의 임무입니다.

키워드 추출 원칙:
1. 텍스트의 주제와 핵심 내용을 대표하는 단어 선택
2. 구체적이고 의미있는 용어 우선 (일반적인 단어보다는 전문 용어, 고유명사 등)
3. 검색 및 분류에 유용한 키워드 추출
4. 중복되거나 유사한 의미의 키워드는 제외
5. 단일 단어 또는 2-3단어로 구성된 짧은 구문
6. 원문에 실제로 등장하거나 직접적으로 관련된 키워드만 추출

출력 형식:
- 반드시 JSON 배열 형식으로 출력: ["키워드1", "키워드2", "키워드3"]
- 다른 설명이나 메타 정보 없이 JSON 배열만 출력
- 키워드는 중요도 순으로 정렬`

	NormalizeSystem = `당신은 자연어 텍스트를 구조화된 JSON 데이터로 변환하는 전문 AI입니다.

주어진 텍스트에서 정보를 추출하여 지정된 JSON 스키마에 맞게 변환하는 것이 당신의 임무입니다.

정보 추출 및 변환 원칙:
1. 원문에 명시된 정보만 추출 (추측하거나 추가 정보 생성 금지)
2. 스키마의 모든 필드를 채우되, 정보가 없는 경우 null 사용
3. 데이터 타입을 정확히 준수 (문자열, 숫자, 불리언, 배열, 객체 등)
4. 날짜/시간은 ISO 8601 형식 사용 (예: 2024-01-15T09:30:00Z)
5. 열거형(enum) 필드는 지정된 값만 사용
6. 배열 필드는 관련 정보를 모두 포함

출력 형식:
- 반드시 유효한 JSON 객체만 출력
- JSON 이외의 설명, 주석, 메타 정보는 포함하지 않음
- 올바른 JSON 문법 준수 (따옴표, 쉼표, 중괄호 등)`
)

// SummarizeParams configures a summarization prompt.
type SummarizeParams struct {
	// MaxLength constrains the summary length in characters; zero means
	// no constraint.
	MaxLength int

	// Context describes the document type (e.g. "티켓 내용", "회의록").
	Context string
}

// Summarize builds the user prompt for a summarization request.
func Summarize(text string, params SummarizeParams) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}

	var b strings.Builder
	b.WriteString("다음 텍스트를 요약해주세요:")
	if params.MaxLength > 0 {
		fmt.Fprintf(&b, "\n\n요약 길이 제한: 최대 %d자", params.MaxLength)
	}
	if params.Context != "" {
		fmt.Fprintf(&b, "\n\n문서 유형: %s", params.Context)
	}
	fmt.Fprintf(&b, `

--- 원문 시작 ---
%s
--- 원문 끝 ---

위 텍스트의 핵심 내용을 담은 요약문을 작성해주세요.`, text)

	return b.String(), nil
}

// KeywordsParams configures a keyword extraction prompt.
type KeywordsParams struct {
	// MaxKeywords bounds the number of keywords requested.
	MaxKeywords int

	// Domain is an optional category hint (e.g. "기술 문서", "고객 지원").
	Domain string
}

// Keywords builds the user prompt for a keyword extraction request.
func Keywords(text string, params KeywordsParams) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}
	if params.MaxKeywords < 1 {
		return "", ErrInvalidMaxKeywords
	}

	var b strings.Builder
	fmt.Fprintf(&b, "다음 텍스트에서 핵심 키워드를 %d개 이하로 추출해주세요:", params.MaxKeywords)
	if params.Domain != "" {
		fmt.Fprintf(&b, "\n\n문서 분야: %s\n해당 분야에 특화된 전문 용어와 관련 키워드를 우선적으로 추출하세요.", params.Domain)
	}
	fmt.Fprintf(&b, `

--- 텍스트 시작 ---
%s
--- 텍스트 끝 ---

위 텍스트의 핵심 키워드를 JSON 배열 형식으로 출력해주세요.
형식: ["키워드1", "키워드2", "키워드3"]`, text)

	return b.String(), nil
}

// Normalize builds the user prompt for a JSON normalization request. The
// schema is rendered inline so the model sees the exact field structure.
func Normalize(text string, schema map[string]any) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}
	if len(schema) == 0 {
		return "", ErrEmptySchema
	}

	schemaJSON, err := marshalSchema(schema)
	if err != nil {
		return "", fmt.Errorf("failed to render schema: %w", err)
	}

	return fmt.Sprintf(`다음 텍스트의 정보를 주어진 JSON 스키마에 맞게 구조화해주세요:

--- 텍스트 시작 ---
%s
--- 텍스트 끝 ---

--- JSON 스키마 ---
%s
--- 스키마 끝 ---

위 텍스트에서 정보를 추출하여 스키마에 맞는 JSON 객체를 생성해주세요.`, text, schemaJSON), nil
}

// Compose joins a system prompt and a user prompt into the single string
// the completion-style backends accept.
func Compose(system, user string) string {
	return system + "\n\n" + user
}

// marshalSchema renders the schema as indented JSON without escaping
// non-ASCII characters, so Korean field values stay readable.
func marshalSchema(schema map[string]any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(schema); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
