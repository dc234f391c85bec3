package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textworker/internal/retry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validRequest() GenerateRequest {
	return GenerateRequest{
		Prompt:      "다음 텍스트를 요약해주세요.",
		MaxTokens:   256,
		Temperature: 0.3,
		TopP:        0.9,
	}
}

func completionBody(text, finishReason string) string {
	return fmt.Sprintf(`{
		"id": "cmpl-123",
		"model": "test-model",
		"choices": [{"text": %q, "finish_reason": %q}],
		"usage": {"prompt_tokens": 12, "completion_tokens": 34, "total_tokens": 46}
	}`, text, finishReason)
}

func TestGenerateRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*GenerateRequest)
		wantErr bool
	}{
		{"valid", func(r *GenerateRequest) {}, false},
		{"empty prompt", func(r *GenerateRequest) { r.Prompt = "" }, true},
		{"zero max tokens", func(r *GenerateRequest) { r.MaxTokens = 0 }, true},
		{"negative max tokens", func(r *GenerateRequest) { r.MaxTokens = -5 }, true},
		{"temperature too high", func(r *GenerateRequest) { r.Temperature = 2.5 }, true},
		{"temperature negative", func(r *GenerateRequest) { r.Temperature = -0.1 }, true},
		{"temperature upper bound", func(r *GenerateRequest) { r.Temperature = 2.0 }, false},
		{"top_p too high", func(r *GenerateRequest) { r.TopP = 1.5 }, true},
		{"top_p bounds", func(r *GenerateRequest) { r.TopP = 1.0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := req.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParams)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLlamaCppClient_Generate(t *testing.T) {
	var captured completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionBody("요약된 텍스트입니다.", "stop"))
	}))
	defer server.Close()

	client := NewLlamaCppClient(server.URL, "", 5*time.Second, testLogger())
	assert.Equal(t, "llamacpp", client.Backend())

	resp, err := client.Generate(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, "요약된 텍스트입니다.", resp.Text)
	assert.Equal(t, FinishReasonStop, resp.FinishReason)
	assert.True(t, resp.Stopped())
	assert.Equal(t, "test-model", resp.Model)
	assert.Equal(t, "cmpl-123", resp.RequestID)
	assert.Equal(t, 46, resp.Usage.TotalTokens)

	assert.Equal(t, "다음 텍스트를 요약해주세요.", captured.Prompt)
	assert.Equal(t, 256, captured.MaxTokens)
	assert.InDelta(t, 0.3, captured.Temperature, 1e-9)
}

func TestLlamaCppClient_Generate_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantErr   error
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, retry.ErrRateLimited, true},
		{"unauthorized", http.StatusUnauthorized, retry.ErrAuthentication, false},
		{"bad request", http.StatusBadRequest, retry.ErrClient, false},
		{"server error", http.StatusInternalServerError, retry.ErrServer, true},
		{"unavailable", http.StatusServiceUnavailable, retry.ErrServer, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "backend failure", tt.status)
			}))
			defer server.Close()

			client := NewLlamaCppClient(server.URL, "", 5*time.Second, testLogger())
			_, err := client.Generate(context.Background(), validRequest())

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.retryable, retry.Retryable(err))
		})
	}
}

func TestLlamaCppClient_Generate_ConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	client := NewLlamaCppClient(server.URL, "", 2*time.Second, testLogger())
	_, err := client.Generate(context.Background(), validRequest())

	require.Error(t, err)
	assert.ErrorIs(t, err, retry.ErrConnection)
	assert.True(t, retry.Retryable(err))
}

func TestLlamaCppClient_Generate_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	client := NewLlamaCppClient(server.URL, "", 5*time.Second, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Generate(ctx, validRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, retry.ErrTimeout)
	assert.True(t, retry.Retryable(err))
}

func TestLlamaCppClient_Generate_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": "cmpl-1", "choices": []}`)
	}))
	defer server.Close()

	client := NewLlamaCppClient(server.URL, "", 5*time.Second, testLogger())
	_, err := client.Generate(context.Background(), validRequest())

	assert.ErrorIs(t, err, ErrInvalidResponse)
	assert.False(t, retry.Retryable(err))
}

func TestLlamaCppClient_Generate_FinishReasonFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": "cmpl-1", "choices": [{"text": "partial"}]}`)
	}))
	defer server.Close()

	client := NewLlamaCppClient(server.URL, "", 5*time.Second, testLogger())
	resp, err := client.Generate(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, FinishReasonUnknown, resp.FinishReason)
	assert.False(t, resp.Stopped())
}

func TestLlamaCppClient_Health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/health", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewLlamaCppClient(server.URL, "", 5*time.Second, testLogger())
		assert.NoError(t, client.Health(context.Background()))
	})

	t.Run("unhealthy", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "loading model", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := NewLlamaCppClient(server.URL, "", 5*time.Second, testLogger())
		err := client.Health(context.Background())
		assert.ErrorIs(t, err, retry.ErrServer)
	})
}

func TestVLLMClient_Generate(t *testing.T) {
	var captured completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionBody("키워드1, 키워드2", "stop"))
	}))
	defer server.Close()

	client := NewVLLMClient(server.URL, "meta-llama/Llama-3-8B", 5*time.Second, testLogger())
	assert.Equal(t, "vllm", client.Backend())

	resp, err := client.Generate(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, "키워드1, 키워드2", resp.Text)
	assert.Equal(t, "meta-llama/Llama-3-8B", captured.Model)
}

func TestVLLMClient_Generate_RequiresModel(t *testing.T) {
	client := NewVLLMClient("http://localhost:8000", "", 5*time.Second, testLogger())

	_, err := client.Generate(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestVLLMClient_Generate_RequestModelOverride(t *testing.T) {
	var captured completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionBody("ok done", "stop"))
	}))
	defer server.Close()

	client := NewVLLMClient(server.URL, "default-model", 5*time.Second, testLogger())

	req := validRequest()
	req.Model = "override-model"
	_, err := client.Generate(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "override-model", captured.Model)
}

func TestNewClient(t *testing.T) {
	logger := testLogger()

	t.Run("llamacpp", func(t *testing.T) {
		client, err := NewClient(Options{Backend: "llamacpp", BaseURL: "http://localhost:8080"}, logger)
		require.NoError(t, err)
		assert.Equal(t, "llamacpp", client.Backend())
	})

	t.Run("vllm case insensitive", func(t *testing.T) {
		client, err := NewClient(Options{Backend: "vLLM", BaseURL: "http://localhost:8000", Model: "m"}, logger)
		require.NoError(t, err)
		assert.Equal(t, "vllm", client.Backend())
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := NewClient(Options{Backend: "openai"}, logger)
		assert.ErrorIs(t, err, ErrUnknownBackend)
	})
}
