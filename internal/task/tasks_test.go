package task

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textworker/internal/llm"
	"textworker/internal/retry"
)

func TestNewSummarizeTask_Validation(t *testing.T) {
	deps := testDeps(&mockClient{responses: []*llm.Response{stopResp("ok.")}}, newMockStore())

	tests := []struct {
		name    string
		payload string
	}{
		{"malformed json", `{"text": `},
		{"empty text", `{"text": "   "}`},
		{"negative max length", `{"text": "hello", "max_length": -1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSummarizeTask(json.RawMessage(tt.payload), deps)
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}

	t.Run("nil client", func(t *testing.T) {
		bad := deps
		bad.Client = nil
		_, err := NewSummarizeTask(json.RawMessage(`{"text": "hello"}`), bad)
		assert.ErrorIs(t, err, ErrNilClient)
	})
}

func TestSummarizeTask_Execute(t *testing.T) {
	store := newMockStore()
	client := &mockClient{responses: []*llm.Response{
		stopResp("요약: 배포가 완료되었고 모든 서비스가 정상 동작합니다."),
	}}
	deps := testDeps(client, store)

	tk, err := NewSummarizeTask(json.RawMessage(`{"text": "긴 원문 텍스트입니다. 배포 관련 내용이 길게 이어집니다.", "max_length": 100}`), deps)
	require.NoError(t, err)
	assert.Equal(t, TaskStatusPending, tk.Status())

	require.NoError(t, store.SaveTask(context.Background(), tk))
	require.NoError(t, tk.Execute(context.Background()))

	assert.Equal(t, TaskStatusCompleted, tk.Status())
	assert.Equal(t, 1, client.callCount())

	// The composed prompt carries the system role and the source text.
	assert.Contains(t, client.lastReq.Prompt, "요약 작성 원칙")
	assert.Contains(t, client.lastReq.Prompt, "긴 원문 텍스트입니다.")
	assert.Equal(t, 256, client.lastReq.MaxTokens)

	var result map[string]any
	require.NoError(t, json.Unmarshal(store.resultOf(tk.ID()), &result))
	assert.Equal(t, "배포가 완료되었고 모든 서비스가 정상 동작합니다.", result["summary"])
	assert.Contains(t, result, "confidence")
	assert.Contains(t, result, "quality_checks")
}

func TestSummarizeTask_Execute_RetriesTransientBackendFailure(t *testing.T) {
	store := newMockStore()
	client := &mockClient{
		errs:      []error{&retry.HTTPError{StatusCode: 503, Body: "overloaded"}},
		responses: []*llm.Response{nil, stopResp("짧은 요약입니다.")},
	}
	deps := testDeps(client, store)

	tk, err := NewSummarizeTask(json.RawMessage(`{"text": "원문"}`), deps)
	require.NoError(t, err)

	require.NoError(t, tk.Execute(context.Background()))
	assert.Equal(t, TaskStatusCompleted, tk.Status())
	assert.Equal(t, 2, client.callCount())
}

func TestSummarizeTask_Execute_PermanentBackendFailure(t *testing.T) {
	store := newMockStore()
	client := &mockClient{
		errs: []error{
			&retry.HTTPError{StatusCode: 400, Body: "bad request"},
		},
	}
	deps := testDeps(client, store)

	tk, err := NewSummarizeTask(json.RawMessage(`{"text": "원문"}`), deps)
	require.NoError(t, err)

	err = tk.Execute(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, retry.ErrClient)
	assert.Equal(t, TaskStatusFailed, tk.Status())
	assert.Equal(t, 1, client.callCount(), "client errors must not be retried")
	assert.Nil(t, store.resultOf(tk.ID()))
}

func TestSummarizeTask_Execute_EmptyCompletionRetried(t *testing.T) {
	store := newMockStore()
	client := &mockClient{responses: []*llm.Response{
		stopResp("   "),
		stopResp("실제 요약 내용입니다."),
	}}
	deps := testDeps(client, store)

	tk, err := NewSummarizeTask(json.RawMessage(`{"text": "원문"}`), deps)
	require.NoError(t, err)

	require.NoError(t, tk.Execute(context.Background()))
	assert.Equal(t, 2, client.callCount(), "an empty completion should trigger a regenerate")
}

func TestNewKeywordsTask_Validation(t *testing.T) {
	deps := testDeps(&mockClient{responses: []*llm.Response{stopResp("[]")}}, newMockStore())

	_, err := NewKeywordsTask(json.RawMessage(`{"text": ""}`), deps)
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = NewKeywordsTask(json.RawMessage(`{"text": "hello", "max_keywords": -2}`), deps)
	assert.ErrorIs(t, err, ErrInvalidPayload)

	tk, err := NewKeywordsTask(json.RawMessage(`{"text": "hello"}`), deps)
	require.NoError(t, err)
	assert.Equal(t, 10, tk.payload.MaxKeywords, "missing max_keywords falls back to the default")
}

func TestKeywordsTask_Execute(t *testing.T) {
	store := newMockStore()
	client := &mockClient{responses: []*llm.Response{
		stopResp(`["쿠버네티스", "클러스터", "운영"]`),
	}}
	deps := testDeps(client, store)

	tk, err := NewKeywordsTask(json.RawMessage(`{"text": "쿠버네티스 클러스터 운영 가이드 문서", "max_keywords": 5}`), deps)
	require.NoError(t, err)

	require.NoError(t, tk.Execute(context.Background()))
	assert.Equal(t, TaskStatusCompleted, tk.Status())

	var result map[string]any
	require.NoError(t, json.Unmarshal(store.resultOf(tk.ID()), &result))
	assert.Equal(t, []any{"쿠버네티스", "클러스터", "운영"}, result["keywords"])
	assert.Equal(t, float64(3), result["count"])

	parseInfo, ok := result["parsing_info"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, parseInfo["success"])
	assert.Equal(t, "direct-json", parseInfo["method"])
}

func TestKeywordsTask_Execute_UnparseableOutputStillCompletes(t *testing.T) {
	store := newMockStore()
	client := &mockClient{responses: []*llm.Response{
		stopResp("?"),
	}}
	deps := testDeps(client, store)

	tk, err := NewKeywordsTask(json.RawMessage(`{"text": "문서"}`), deps)
	require.NoError(t, err)

	// Parse failures are recorded in the result, not surfaced as errors.
	require.NoError(t, tk.Execute(context.Background()))
	assert.Equal(t, TaskStatusCompleted, tk.Status())

	var result map[string]any
	require.NoError(t, json.Unmarshal(store.resultOf(tk.ID()), &result))
	assert.Equal(t, float64(0), result["count"])
	assert.Less(t, result["confidence"].(float64), 0.5)
}

func TestNewNormalizeTask_Validation(t *testing.T) {
	deps := testDeps(&mockClient{responses: []*llm.Response{stopResp("{}")}}, newMockStore())

	_, err := NewNormalizeTask(json.RawMessage(`{"text": "hello"}`), deps)
	assert.ErrorIs(t, err, ErrInvalidPayload, "schema is mandatory")

	_, err = NewNormalizeTask(json.RawMessage(`{"text": "", "schema": {"name": "string"}}`), deps)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestNormalizeTask_Execute(t *testing.T) {
	store := newMockStore()
	client := &mockClient{responses: []*llm.Response{
		stopResp(`{"name": "홍길동", "email": "hong@example.com"}`),
	}}
	deps := testDeps(client, store)

	payload := `{
		"text": "홍길동님의 이메일은 hong@example.com 입니다.",
		"schema": {"name": "string", "email": "string"}
	}`
	tk, err := NewNormalizeTask(json.RawMessage(payload), deps)
	require.NoError(t, err)

	require.NoError(t, tk.Execute(context.Background()))
	assert.Equal(t, TaskStatusCompleted, tk.Status())

	var result map[string]any
	require.NoError(t, json.Unmarshal(store.resultOf(tk.ID()), &result))

	data, ok := result["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "홍길동", data["name"])
	assert.Equal(t, float64(1), result["completeness"])
	assert.Equal(t, float64(1), result["confidence"])
}

func TestNormalizeTask_Execute_ValidationFailureIsData(t *testing.T) {
	store := newMockStore()
	client := &mockClient{responses: []*llm.Response{
		stopResp(`{"name": "홍길동"}`),
	}}
	deps := testDeps(client, store)

	payload := `{
		"text": "이름만 언급된 텍스트",
		"schema": {"name": "string", "email": "string"}
	}`
	tk, err := NewNormalizeTask(json.RawMessage(payload), deps)
	require.NoError(t, err)

	require.NoError(t, tk.Execute(context.Background()), "validation failures do not fail the task")

	var result map[string]any
	require.NoError(t, json.Unmarshal(store.resultOf(tk.ID()), &result))

	validationErrors, ok := result["validation_errors"].([]any)
	require.True(t, ok)
	assert.Contains(t, validationErrors, "Missing required fields: email")
}

func TestFactory(t *testing.T) {
	deps := testDeps(&mockClient{responses: []*llm.Response{stopResp("ok.")}}, newMockStore())
	factory, err := NewFactory(deps)
	require.NoError(t, err)

	t.Run("creates each known type", func(t *testing.T) {
		summarize, err := factory.CreateTask(TaskTypeSummarize, json.RawMessage(`{"text": "t"}`))
		require.NoError(t, err)
		assert.Equal(t, TaskTypeSummarize, summarize.Type())

		keywords, err := factory.CreateTask(TaskTypeKeywords, json.RawMessage(`{"text": "t"}`))
		require.NoError(t, err)
		assert.Equal(t, TaskTypeKeywords, keywords.Type())

		normalize, err := factory.CreateTask(TaskTypeNormalize, json.RawMessage(`{"text": "t", "schema": {"a": "string"}}`))
		require.NoError(t, err)
		assert.Equal(t, TaskTypeNormalize, normalize.Type())
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := factory.CreateTask("translate", json.RawMessage(`{}`))
		assert.ErrorIs(t, err, ErrUnknownTaskType)
	})

	t.Run("rebuild preserves id", func(t *testing.T) {
		original, err := factory.CreateTask(TaskTypeSummarize, json.RawMessage(`{"text": "t"}`))
		require.NoError(t, err)

		rebuilt, err := factory.Rebuild(&Record{
			ID:      original.ID(),
			Type:    TaskTypeSummarize,
			Payload: original.Payload(),
		})
		require.NoError(t, err)
		assert.Equal(t, original.ID(), rebuilt.ID())
	})

	t.Run("rebuild rejects corrupt payload", func(t *testing.T) {
		_, err := factory.Rebuild(&Record{Type: TaskTypeSummarize, Payload: json.RawMessage(`{`)})
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})
}

func TestKnownType(t *testing.T) {
	assert.True(t, KnownType(TaskTypeSummarize))
	assert.True(t, KnownType(TaskTypeKeywords))
	assert.True(t, KnownType(TaskTypeNormalize))
	assert.False(t, KnownType("translate"))
	assert.False(t, KnownType(""))
}
