package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task type constants, one per processing pipeline.
const (
	TaskTypeSummarize = "summarize"
	TaskTypeKeywords  = "keywords"
	TaskTypeNormalize = "normalize"
)

// KnownType reports whether taskType names one of the processing pipelines.
func KnownType(taskType string) bool {
	switch taskType {
	case TaskTypeSummarize, TaskTypeKeywords, TaskTypeNormalize:
		return true
	}
	return false
}

// Errors returned when constructing tasks.
var (
	// ErrUnknownTaskType is returned for a task type with no pipeline.
	ErrUnknownTaskType = errors.New("unknown task type")

	// ErrInvalidPayload is returned when a task payload fails validation.
	ErrInvalidPayload = errors.New("invalid task payload")
)

// Task represents a unit of background work to be processed
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Payload returns the task data as a byte slice
	Payload() []byte

	// Status returns the current task status
	Status() TaskStatus

	// Execute runs the task logic
	Execute(ctx context.Context) error
}

// Record is the persisted form of a task, as stored in the tasks table.
// It carries everything needed to rebuild an executable Task after a
// restart and to answer status queries from the API.
type Record struct {
	ID           uuid.UUID
	Type         string
	Payload      json.RawMessage
	Status       TaskStatus
	ErrorMessage string
	Result       json.RawMessage
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TaskStore defines the interface for persisting tasks
type TaskStore interface {
	// SaveTask persists a new task to the database
	SaveTask(ctx context.Context, task Task) error

	// UpdateTaskStatus updates the status of a task
	UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error

	// SaveResult stores the structured result produced by a completed task
	SaveResult(ctx context.Context, taskID uuid.UUID, result json.RawMessage) error

	// GetTask retrieves a single task record by ID
	GetTask(ctx context.Context, taskID uuid.UUID) (*Record, error)

	// GetPendingTasks retrieves all tasks with "pending" status
	GetPendingTasks(ctx context.Context) ([]*Record, error)

	// GetProcessingTasks retrieves tasks with "processing" status.
	// If olderThan is non-zero, only returns tasks that have been in this
	// state longer than the specified duration
	GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]*Record, error)

	// WithTx returns a new TaskStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) TaskStore
}

// TaskFactory rebuilds executable tasks from persisted records. The runner
// uses it during recovery to turn rows back into runnable work.
type TaskFactory interface {
	// Rebuild constructs an executable task from a stored record,
	// preserving the record's ID.
	Rebuild(rec *Record) (Task, error)
}
