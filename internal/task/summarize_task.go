package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"textworker/internal/postprocess"
	"textworker/internal/prompt"
	"textworker/internal/retry"
)

// summarizePayload is the JSON payload accepted by the summarize pipeline.
type summarizePayload struct {
	Text      string `json:"text"`
	MaxLength int    `json:"max_length,omitempty"`
	Context   string `json:"context,omitempty"`
}

// SummarizeTask implements the Task interface for the summarization
// pipeline: prompt the model, clean and score the summary, persist the
// structured result.
type SummarizeTask struct {
	id        uuid.UUID
	payload   summarizePayload
	raw       []byte
	deps      ProcessorDeps
	processor *postprocess.SummarizeProcessor
	logger    *slog.Logger
	status    TaskStatus
}

// NewSummarizeTask creates a summarize task from a raw JSON payload.
func NewSummarizeTask(raw json.RawMessage, deps ProcessorDeps) (*SummarizeTask, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	var p summarizePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if strings.TrimSpace(p.Text) == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrInvalidPayload)
	}
	if p.MaxLength < 0 {
		return nil, fmt.Errorf("%w: max_length cannot be negative", ErrInvalidPayload)
	}

	id := uuid.New()
	return &SummarizeTask{
		id:        id,
		payload:   p,
		raw:       append([]byte(nil), raw...),
		deps:      deps,
		processor: postprocess.NewSummarizeProcessor(deps.Heuristics),
		logger:    deps.Logger.With("task_type", TaskTypeSummarize, "task_id", id),
		status:    TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *SummarizeTask) ID() uuid.UUID { return t.id }

// Type returns the task type identifier
func (t *SummarizeTask) Type() string { return TaskTypeSummarize }

// Payload returns the task data as a byte slice
func (t *SummarizeTask) Payload() []byte { return t.raw }

// Status returns the current task status
func (t *SummarizeTask) Status() TaskStatus { return t.status }

// Execute runs the summarization pipeline with the configured retry
// policy. Each attempt regenerates from the model, so an empty or garbled
// completion gets a fresh chance before the task fails.
func (t *SummarizeTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing

	attempt := func(ctx context.Context) error {
		user, err := prompt.Summarize(t.payload.Text, prompt.SummarizeParams{
			MaxLength: t.payload.MaxLength,
			Context:   t.payload.Context,
		})
		if err != nil {
			return fmt.Errorf("%w: %w", retry.ErrInvalidInput, err)
		}

		resp, err := generate(ctx, &t.deps, prompt.Compose(prompt.SummarizeSystem, user))
		if err != nil {
			return err
		}

		result, err := t.processor.Process(resp, postprocess.SummarizeOptions{
			MaxLength:      t.payload.MaxLength,
			OriginalLength: utf8.RuneCountInString(t.payload.Text),
		})
		if err != nil {
			if errors.Is(err, postprocess.ErrEmptyResponse) {
				return fmt.Errorf("%w: %w", retry.ErrTransient, err)
			}
			return err
		}

		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal summary result: %w", err)
		}
		if err := t.deps.saveResult(ctx, t.id, data); err != nil {
			return fmt.Errorf("failed to save summary result: %w", err)
		}

		t.logger.Info("summary produced",
			"length", result.Length,
			"confidence", result.Confidence)
		return nil
	}

	if err := t.deps.Retry.Run(ctx, t.logger, attempt); err != nil {
		t.status = TaskStatusFailed
		return err
	}

	t.status = TaskStatusCompleted
	return nil
}
