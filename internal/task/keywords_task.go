package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"textworker/internal/postprocess"
	"textworker/internal/prompt"
	"textworker/internal/retry"
)

// keywordsPayload is the JSON payload accepted by the keywords pipeline.
type keywordsPayload struct {
	Text        string `json:"text"`
	MaxKeywords int    `json:"max_keywords,omitempty"`
	Domain      string `json:"domain,omitempty"`
}

// KeywordsTask implements the Task interface for the keyword extraction
// pipeline.
type KeywordsTask struct {
	id        uuid.UUID
	payload   keywordsPayload
	raw       []byte
	deps      ProcessorDeps
	processor *postprocess.KeywordsProcessor
	logger    *slog.Logger
	status    TaskStatus
}

// NewKeywordsTask creates a keywords task from a raw JSON payload. A
// missing max_keywords falls back to the processor default.
func NewKeywordsTask(raw json.RawMessage, deps ProcessorDeps) (*KeywordsTask, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	var p keywordsPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if strings.TrimSpace(p.Text) == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrInvalidPayload)
	}
	if p.MaxKeywords < 0 {
		return nil, fmt.Errorf("%w: max_keywords cannot be negative", ErrInvalidPayload)
	}
	if p.MaxKeywords == 0 {
		p.MaxKeywords = postprocess.DefaultKeywordOptions().MaxKeywords
	}

	id := uuid.New()
	return &KeywordsTask{
		id:        id,
		payload:   p,
		raw:       append([]byte(nil), raw...),
		deps:      deps,
		processor: postprocess.NewKeywordsProcessor(deps.Heuristics),
		logger:    deps.Logger.With("task_type", TaskTypeKeywords, "task_id", id),
		status:    TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *KeywordsTask) ID() uuid.UUID { return t.id }

// Type returns the task type identifier
func (t *KeywordsTask) Type() string { return TaskTypeKeywords }

// Payload returns the task data as a byte slice
func (t *KeywordsTask) Payload() []byte { return t.raw }

// Status returns the current task status
func (t *KeywordsTask) Status() TaskStatus { return t.status }

// Execute runs the keyword extraction pipeline with the configured retry
// policy.
func (t *KeywordsTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing

	attempt := func(ctx context.Context) error {
		user, err := prompt.Keywords(t.payload.Text, prompt.KeywordsParams{
			MaxKeywords: t.payload.MaxKeywords,
			Domain:      t.payload.Domain,
		})
		if err != nil {
			return fmt.Errorf("%w: %w", retry.ErrInvalidInput, err)
		}

		resp, err := generate(ctx, &t.deps, prompt.Compose(prompt.KeywordsSystem, user))
		if err != nil {
			return err
		}

		opts := postprocess.DefaultKeywordOptions()
		opts.MaxKeywords = t.payload.MaxKeywords

		result, err := t.processor.Process(resp, opts)
		if err != nil {
			if errors.Is(err, postprocess.ErrEmptyResponse) {
				return fmt.Errorf("%w: %w", retry.ErrTransient, err)
			}
			return err
		}

		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal keyword result: %w", err)
		}
		if err := t.deps.saveResult(ctx, t.id, data); err != nil {
			return fmt.Errorf("failed to save keyword result: %w", err)
		}

		t.logger.Info("keywords extracted",
			"count", result.Count,
			"confidence", result.Confidence,
			"parse_method", result.ParseInfo.Method)
		return nil
	}

	if err := t.deps.Retry.Run(ctx, t.logger, attempt); err != nil {
		t.status = TaskStatusFailed
		return err
	}

	t.status = TaskStatusCompleted
	return nil
}
