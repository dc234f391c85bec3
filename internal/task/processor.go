package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"textworker/internal/llm"
	"textworker/internal/postprocess"
	"textworker/internal/store"
)

// Dependency validation errors shared by the task constructors.
var (
	ErrNilClient = errors.New("llm client cannot be nil")
	ErrNilStore  = errors.New("task store cannot be nil")
	ErrNilLogger = errors.New("logger cannot be nil")
)

// GenerationParams carries the sampling defaults applied to every LLM
// request the tasks make.
type GenerationParams struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// ProcessorDeps bundles the collaborators shared by all task types.
type ProcessorDeps struct {
	Client     llm.Client
	Store      TaskStore
	Heuristics *postprocess.Heuristics
	Generation GenerationParams
	Retry      RetryPolicy
	Logger     *slog.Logger

	// DB, when set, lets result writes run transactionally. Optional so
	// in-memory stores can be used without a database.
	DB *sql.DB
}

func (d *ProcessorDeps) validate() error {
	if d.Client == nil {
		return ErrNilClient
	}
	if d.Store == nil {
		return ErrNilStore
	}
	if d.Logger == nil {
		return ErrNilLogger
	}
	if d.Generation.MaxTokens <= 0 {
		d.Generation.MaxTokens = 1024
	}
	return nil
}

// saveResult persists a task result. With a database handle available the
// result and the completed status land in one transaction, so a crash
// cannot leave a finished result on a task still marked processing.
func (d *ProcessorDeps) saveResult(ctx context.Context, taskID uuid.UUID, result json.RawMessage) error {
	if d.DB == nil {
		return d.Store.SaveResult(ctx, taskID, result)
	}

	return store.RunInTransaction(ctx, d.DB, func(ctx context.Context, tx *sql.Tx) error {
		txStore := d.Store.WithTx(tx)
		if err := txStore.SaveResult(ctx, taskID, result); err != nil {
			return err
		}
		return txStore.UpdateTaskStatus(ctx, taskID, TaskStatusCompleted, "")
	})
}

// generate sends one composed prompt to the inference backend. Transport
// and backend failures come back already classified for the retry policy.
func generate(ctx context.Context, deps *ProcessorDeps, composed string) (*llm.Response, error) {
	resp, err := deps.Client.Generate(ctx, llm.GenerateRequest{
		Prompt:      composed,
		MaxTokens:   deps.Generation.MaxTokens,
		Temperature: deps.Generation.Temperature,
		TopP:        deps.Generation.TopP,
	})
	if err != nil {
		return nil, fmt.Errorf("llm generate: %w", err)
	}
	return resp, nil
}
