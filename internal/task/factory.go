package task

import (
	"encoding/json"
	"fmt"
)

// Factory creates executable tasks from a task type and raw JSON payload.
// The API handler uses it to turn submissions into work; the runner uses
// it to rebuild tasks recovered from the database.
type Factory struct {
	deps ProcessorDeps
}

// NewFactory creates a task factory. It validates the shared dependencies
// once so the per-task constructors never see nil collaborators.
func NewFactory(deps ProcessorDeps) (*Factory, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	return &Factory{deps: deps}, nil
}

// CreateTask constructs a new task of the given type. The payload is
// validated eagerly so submission failures surface to the caller instead
// of a worker.
func (f *Factory) CreateTask(taskType string, payload json.RawMessage) (Task, error) {
	switch taskType {
	case TaskTypeSummarize:
		return NewSummarizeTask(payload, f.deps)
	case TaskTypeKeywords:
		return NewKeywordsTask(payload, f.deps)
	case TaskTypeNormalize:
		return NewNormalizeTask(payload, f.deps)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTaskType, taskType)
	}
}

// Rebuild constructs an executable task from a stored record, preserving
// the record's ID so status updates land on the original row.
func (f *Factory) Rebuild(rec *Record) (Task, error) {
	built, err := f.CreateTask(rec.Type, rec.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild task %s: %w", rec.ID, err)
	}

	switch t := built.(type) {
	case *SummarizeTask:
		t.id = rec.ID
		t.logger = f.deps.Logger.With("task_type", rec.Type, "task_id", rec.ID)
	case *KeywordsTask:
		t.id = rec.ID
		t.logger = f.deps.Logger.With("task_type", rec.Type, "task_id", rec.ID)
	case *NormalizeTask:
		t.id = rec.ID
		t.logger = f.deps.Logger.With("task_type", rec.Type, "task_id", rec.ID)
	}

	return built, nil
}
