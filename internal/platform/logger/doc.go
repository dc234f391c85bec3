// Package logger configures structured JSON logging for the worker using
// log/slog, and carries request- and task-scoped loggers through contexts.
package logger
