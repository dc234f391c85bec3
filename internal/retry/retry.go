package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"time"
)

// Retryable failure categories. Errors wrapping one of these sentinels are
// considered transient and worth retrying after a backoff delay.
var (
	// ErrServer indicates the inference backend returned a 5xx response.
	ErrServer = errors.New("llm server error")

	// ErrTimeout indicates the request exceeded its deadline.
	ErrTimeout = errors.New("request timed out")

	// ErrRateLimited indicates the backend returned HTTP 429.
	ErrRateLimited = errors.New("rate limited")

	// ErrConnection indicates a network-level failure (DNS, TCP reset, etc.).
	ErrConnection = errors.New("connection failure")

	// ErrTransient is the catch-all for failures known to be temporary.
	ErrTransient = errors.New("transient failure")
)

// Non-retryable failure categories. Retrying these would fail identically.
var (
	// ErrInvalidInput indicates the task input can never succeed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrClient indicates the backend returned a 4xx response other than
	// 429/401/403.
	ErrClient = errors.New("llm client error")

	// ErrAuthentication indicates the backend rejected our credentials.
	ErrAuthentication = errors.New("authentication failed")

	// ErrSchemaValidation indicates the model output failed schema validation.
	ErrSchemaValidation = errors.New("schema validation failed")
)

var retryableErrs = []error{
	ErrServer,
	ErrTimeout,
	ErrRateLimited,
	ErrConnection,
	ErrTransient,
}

var nonRetryableErrs = []error{
	ErrInvalidInput,
	ErrClient,
	ErrAuthentication,
	ErrSchemaValidation,
}

// Backoff computes the delay before the next retry attempt.
//
// The formula is min(baseDelay * 2^retryCount, maxDelay). retryCount is
// 0-indexed: the first retry uses retryCount 0 and therefore waits
// baseDelay. When jitter is enabled the delay is perturbed by a uniform
// random offset within ±25% and truncated to whole seconds, so that a
// burst of failing tasks does not retry in lockstep.
func Backoff(retryCount int, baseDelay, maxDelay time.Duration, jitter bool) time.Duration {
	delay := baseDelay
	for i := 0; i < retryCount; i++ {
		delay *= 2
		if delay >= maxDelay {
			break
		}
	}
	if delay > maxDelay {
		delay = maxDelay
	}

	if jitter {
		offset := (rand.Float64()*2 - 1) * 0.25 * float64(delay)
		delay = time.Duration(float64(delay) + offset).Truncate(time.Second)
	}

	return delay
}

// Retryable reports whether err represents a transient failure that may
// succeed on a later attempt.
//
// Errors tagged with a non-retryable category always win over retryable
// tags, and unrecognized errors default to non-retryable: retrying an
// unclassified failure risks an infinite retry loop on a plain bug.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	for _, target := range nonRetryableErrs {
		if errors.Is(err, target) {
			return false
		}
	}
	for _, target := range retryableErrs {
		if errors.Is(err, target) {
			return true
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}

// ClassifyStatus maps an HTTP status code from the inference backend to a
// failure category sentinel.
//
//	429       -> ErrRateLimited   (retryable)
//	401, 403  -> ErrAuthentication (non-retryable)
//	other 4xx -> ErrClient        (non-retryable)
//	5xx       -> ErrServer        (retryable)
//	anything else defaults to ErrTransient (retryable)
func ClassifyStatus(status int) error {
	switch {
	case status == 429:
		return ErrRateLimited
	case status == 401 || status == 403:
		return ErrAuthentication
	case status >= 400 && status < 500:
		return ErrClient
	case status >= 500 && status < 600:
		return ErrServer
	default:
		return ErrTransient
	}
}

// HTTPError carries the status code and body of a failed backend response.
// Its category is derived from the status code via ClassifyStatus, so
// errors.Is and Retryable see through it.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("llm backend returned %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) Unwrap() error {
	return ClassifyStatus(e.StatusCode)
}
