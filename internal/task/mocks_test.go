package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"textworker/internal/llm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockClient is a scripted llm.Client: each Generate call pops the next
// response or error from the queue.
type mockClient struct {
	mu        sync.Mutex
	responses []*llm.Response
	errs      []error
	calls     int
	lastReq   llm.GenerateRequest
	healthErr error
}

func (m *mockClient) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	i := m.calls
	m.calls++
	m.lastReq = req

	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i < len(m.responses) {
		return m.responses[i], nil
	}
	if len(m.responses) > 0 {
		// Default to the last scripted response.
		return m.responses[len(m.responses)-1], nil
	}
	return nil, m.errs[len(m.errs)-1]
}

func (m *mockClient) Health(ctx context.Context) error { return m.healthErr }
func (m *mockClient) Backend() string                  { return "mock" }

func (m *mockClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockStore is an in-memory TaskStore.
type mockStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*Record
	results map[uuid.UUID]json.RawMessage

	saveErr   error
	updateErr error
	resultErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		records: make(map[uuid.UUID]*Record),
		results: make(map[uuid.UUID]json.RawMessage),
	}
}

func (s *mockStore) SaveTask(ctx context.Context, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	now := time.Now().UTC()
	s.records[task.ID()] = &Record{
		ID:        task.ID(),
		Type:      task.Type(),
		Payload:   append([]byte(nil), task.Payload()...),
		Status:    task.Status(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (s *mockStore) UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	if rec, ok := s.records[taskID]; ok {
		rec.Status = status
		rec.ErrorMessage = errorMsg
		rec.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (s *mockStore) SaveResult(ctx context.Context, taskID uuid.UUID, result json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resultErr != nil {
		return s.resultErr
	}
	s.results[taskID] = append([]byte(nil), result...)
	if rec, ok := s.records[taskID]; ok {
		rec.Result = s.results[taskID]
	}
	return nil
}

func (s *mockStore) GetTask(ctx context.Context, taskID uuid.UUID) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[taskID]; ok {
		copied := *rec
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *mockStore) GetPendingTasks(ctx context.Context) ([]*Record, error) {
	return s.byStatus(TaskStatusPending), nil
}

func (s *mockStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]*Record, error) {
	return s.byStatus(TaskStatusProcessing), nil
}

func (s *mockStore) byStatus(status TaskStatus) []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Record
	for _, rec := range s.records {
		if rec.Status == status {
			copied := *rec
			out = append(out, &copied)
		}
	}
	return out
}

func (s *mockStore) WithTx(tx *sql.Tx) TaskStore { return s }

func (s *mockStore) statusOf(taskID uuid.UUID) TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[taskID]; ok {
		return rec.Status
	}
	return ""
}

func (s *mockStore) resultOf(taskID uuid.UUID) json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results[taskID]
}

// stopResp builds a normal completion with the given text.
func stopResp(text string) *llm.Response {
	return &llm.Response{
		Text:         text,
		Model:        "test-model",
		FinishReason: llm.FinishReasonStop,
		Usage:        llm.Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
	}
}

// fastRetry is a retry policy suitable for tests: immediate, no jitter.
func fastRetry(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Jitter:     false,
	}
}

func testDeps(client llm.Client, store TaskStore) ProcessorDeps {
	return ProcessorDeps{
		Client: client,
		Store:  store,
		Generation: GenerationParams{
			MaxTokens:   256,
			Temperature: 0.3,
			TopP:        0.9,
		},
		Retry:  fastRetry(2),
		Logger: testLogger(),
	}
}
