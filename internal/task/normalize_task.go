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

// normalizePayload is the JSON payload accepted by the normalize pipeline.
type normalizePayload struct {
	Text             string         `json:"text"`
	Schema           map[string]any `json:"schema"`
	AllowExtraFields bool           `json:"allow_extra_fields,omitempty"`
}

// NormalizeTask implements the Task interface for the JSON normalization
// pipeline: extract structured data from free text according to a
// caller-supplied schema.
type NormalizeTask struct {
	id        uuid.UUID
	payload   normalizePayload
	raw       []byte
	deps      ProcessorDeps
	processor *postprocess.NormalizeProcessor
	logger    *slog.Logger
	status    TaskStatus
}

// NewNormalizeTask creates a normalize task from a raw JSON payload. The
// schema is mandatory; without one there is nothing to validate against.
func NewNormalizeTask(raw json.RawMessage, deps ProcessorDeps) (*NormalizeTask, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	var p normalizePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if strings.TrimSpace(p.Text) == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrInvalidPayload)
	}
	if len(p.Schema) == 0 {
		return nil, fmt.Errorf("%w: schema cannot be empty", ErrInvalidPayload)
	}

	id := uuid.New()
	return &NormalizeTask{
		id:        id,
		payload:   p,
		raw:       append([]byte(nil), raw...),
		deps:      deps,
		processor: postprocess.NewNormalizeProcessor(),
		logger:    deps.Logger.With("task_type", TaskTypeNormalize, "task_id", id),
		status:    TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *NormalizeTask) ID() uuid.UUID { return t.id }

// Type returns the task type identifier
func (t *NormalizeTask) Type() string { return TaskTypeNormalize }

// Payload returns the task data as a byte slice
func (t *NormalizeTask) Payload() []byte { return t.raw }

// Status returns the current task status
func (t *NormalizeTask) Status() TaskStatus { return t.status }

// Execute runs the normalization pipeline with the configured retry
// policy. Schema validation failures are recorded in the result rather
// than failing the task; only missing inputs and backend errors fail it.
func (t *NormalizeTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing

	attempt := func(ctx context.Context) error {
		user, err := prompt.Normalize(t.payload.Text, t.payload.Schema)
		if err != nil {
			return fmt.Errorf("%w: %w", retry.ErrInvalidInput, err)
		}

		resp, err := generate(ctx, &t.deps, prompt.Compose(prompt.NormalizeSystem, user))
		if err != nil {
			return err
		}

		opts := postprocess.DefaultNormalizeOptions()
		opts.Schema = t.payload.Schema
		opts.AllowExtraFields = t.payload.AllowExtraFields

		result, err := t.processor.Process(resp, opts)
		if err != nil {
			switch {
			case errors.Is(err, postprocess.ErrEmptyResponse):
				return fmt.Errorf("%w: %w", retry.ErrTransient, err)
			case errors.Is(err, postprocess.ErrMissingSchema):
				return fmt.Errorf("%w: %w", retry.ErrInvalidInput, err)
			}
			return err
		}

		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal normalization result: %w", err)
		}
		if err := t.deps.saveResult(ctx, t.id, data); err != nil {
			return fmt.Errorf("failed to save normalization result: %w", err)
		}

		t.logger.Info("data normalized",
			"completeness", result.Completeness,
			"confidence", result.Confidence,
			"validation_errors", len(result.ValidationErrors))
		return nil
	}

	if err := t.deps.Retry.Run(ctx, t.logger, attempt); err != nil {
		t.status = TaskStatusFailed
		return err
	}

	t.status = TaskStatusCompleted
	return nil
}
