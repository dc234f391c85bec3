package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"textworker/internal/api/shared"
	"textworker/internal/task"
)

// maxPayloadBytes bounds the request body for task submissions.
const maxPayloadBytes = 1 << 20

// TaskCreator builds executable tasks from a type name and raw payload.
type TaskCreator interface {
	CreateTask(taskType string, payload json.RawMessage) (task.Task, error)
}

// TaskSubmitter enqueues tasks for background processing.
type TaskSubmitter interface {
	Submit(ctx context.Context, t task.Task) error
}

// RecordGetter answers task status queries from storage.
type RecordGetter interface {
	GetTask(ctx context.Context, taskID uuid.UUID) (*task.Record, error)
}

// SubmitTaskResponse is returned after a task is accepted for processing.
type SubmitTaskResponse struct {
	TaskID string `json:"task_id"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

// TaskResponse represents the persisted state of a task.
type TaskResponse struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TaskHandler handles task submission and status HTTP requests.
type TaskHandler struct {
	creator   TaskCreator
	submitter TaskSubmitter
	records   RecordGetter
	logger    *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(creator TaskCreator, submitter TaskSubmitter, records RecordGetter, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		creator:   creator,
		submitter: submitter,
		records:   records,
		logger:    logger,
	}
}

// SubmitTask handles POST /api/tasks/{type} requests. The request body is
// the task payload; processing happens asynchronously, so a successful
// submission returns 202 Accepted with the task ID.
func (h *TaskHandler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	taskType := chi.URLParam(r, "type")

	r.Body = http.MaxBytesReader(w, r.Body, maxPayloadBytes)

	var payload json.RawMessage
	if err := shared.DecodeJSON(r, &payload); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			shared.RespondWithError(w, r, http.StatusRequestEntityTooLarge, "Payload too large")
		case errors.Is(err, io.EOF):
			shared.RespondWithError(w, r, http.StatusBadRequest, "Request body is required")
		default:
			shared.RespondWithError(w, r, http.StatusBadRequest, "Request body must be valid JSON")
		}
		return
	}

	t, err := h.creator.CreateTask(taskType, payload)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	if err := h.submitter.Submit(r.Context(), t); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	h.logger.Info("task submitted",
		"task_id", t.ID(),
		"task_type", t.Type())

	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitTaskResponse{
		TaskID: t.ID().String(),
		Type:   t.Type(),
		Status: string(task.TaskStatusPending),
	})
}

// GetTask handles GET /api/tasks/{id} requests.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	rec, err := h.records.GetTask(r.Context(), taskID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, recordToResponse(rec))
}

func recordToResponse(rec *task.Record) TaskResponse {
	return TaskResponse{
		ID:           rec.ID.String(),
		Type:         rec.Type,
		Status:       string(rec.Status),
		ErrorMessage: rec.ErrorMessage,
		Result:       rec.Result,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}
