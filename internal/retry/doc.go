// Package retry provides the failure taxonomy shared by the worker: it
// classifies errors into retryable and non-retryable categories and computes
// exponential backoff delays for the task execution loop.
package retry
