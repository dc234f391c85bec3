package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"textworker/internal/api"
	"textworker/internal/config"
	"textworker/internal/llm"
	"textworker/internal/platform/logger"
	"textworker/internal/platform/postgres"
	"textworker/internal/postprocess"
	"textworker/internal/task"
)

// application holds the wired dependencies of the worker process.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	client llm.Client
	runner *task.TaskRunner
	router http.Handler
}

// initializeApp loads configuration and wires up all application components.
func initializeApp() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("Configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"llm_backend", cfg.LLM.Backend,
		"workers", cfg.Worker.Count)

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), time.Minute)
	defer cancelMigrate()
	if err := postgres.ApplyMigrations(migrateCtx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	client, err := llm.NewClient(llm.Options{
		Backend: cfg.LLM.Backend,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout(),
	}, appLogger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	heuristics, err := buildHeuristics(cfg.Text)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to compile text heuristics: %w", err)
	}

	taskStore := postgres.NewPostgresTaskStore(db)

	factory, err := task.NewFactory(task.ProcessorDeps{
		Client:     client,
		Store:      taskStore,
		Heuristics: heuristics,
		Generation: task.GenerationParams{
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
			TopP:        cfg.LLM.TopP,
		},
		Retry: task.RetryPolicy{
			MaxRetries: cfg.Retry.MaxRetries,
			BaseDelay:  cfg.Retry.BaseDelay(),
			MaxDelay:   cfg.Retry.MaxDelay(),
			Jitter:     cfg.Retry.Jitter,
		},
		Logger: appLogger,
		DB:     db,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create task factory: %w", err)
	}

	runner := task.NewTaskRunner(taskStore, factory, task.TaskRunnerConfig{
		WorkerCount:            cfg.Worker.Count,
		QueueSize:              cfg.Worker.QueueSize,
		StuckTaskAge:           cfg.Worker.StuckTaskAge(),
		StuckTaskCheckInterval: cfg.Worker.MonitorInterval(),
	}, appLogger)

	taskHandler := api.NewTaskHandler(factory, runner, taskStore, appLogger)
	healthHandler := api.NewHealthHandler(db, client, appLogger)
	router := api.NewRouter(taskHandler, healthHandler)

	return &application{
		config: cfg,
		logger: appLogger,
		db:     db,
		client: client,
		runner: runner,
		router: router,
	}, nil
}

// buildHeuristics applies configured pattern overrides on top of the
// built-in Korean/English defaults. Empty lists keep the defaults.
func buildHeuristics(cfg config.TextConfig) (*postprocess.Heuristics, error) {
	hc := postprocess.DefaultHeuristicsConfig()
	if len(cfg.KeywordPlaceholderPatterns) > 0 {
		hc.KeywordPlaceholderPatterns = cfg.KeywordPlaceholderPatterns
	}
	if len(cfg.SummaryPlaceholderPatterns) > 0 {
		hc.SummaryPlaceholderPatterns = cfg.SummaryPlaceholderPatterns
	}
	if len(cfg.SummaryPrefixPatterns) > 0 {
		hc.SummaryPrefixPatterns = cfg.SummaryPrefixPatterns
	}
	if len(cfg.SentenceEndings) > 0 {
		hc.SentenceEndings = cfg.SentenceEndings
	}
	return postprocess.NewHeuristics(hc)
}

// run starts the task runner and HTTP server, then blocks until a shutdown
// signal arrives or the server fails.
func (app *application) run() error {
	if err := app.runner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: app.router,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		app.logger.Info("Starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdownCh:
		app.logger.Info("Shutting down", "signal", sig.String())
	case err := <-serverErrCh:
		app.logger.Error("Server failed", "error", err)
		app.runner.Stop()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("Server shutdown failed", "error", err)
	}

	// Stop workers after the HTTP server so no new submissions race the
	// queue close.
	app.runner.Stop()

	app.logger.Info("Shutdown completed")
	return nil
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Failed to close database", "error", err)
		}
	}
}
