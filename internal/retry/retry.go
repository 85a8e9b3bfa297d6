package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Func defines the function signature for a retryable operation.
type Func func(ctx context.Context) error

// LoggerFunc defines a logging function signature.
type LoggerFunc func(format string, args ...interface{})

var logger LoggerFunc = func(string, ...interface{}) {}

// SetLogger allows setting a custom logger for retry operations.
func SetLogger(customLogger LoggerFunc) {
	if customLogger != nil {
		logger = customLogger
	}
}

// stopError marks an error that must not be retried
type stopError struct {
	err error
}

func (e *stopError) Error() string { return e.err.Error() }

func (e *stopError) Unwrap() error { return e.err }

// Stop wraps err so that Execute returns it without further attempts
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return &stopError{err: err}
}

// Execute performs an operation with a retry mechanism.
func Execute(ctx context.Context, cfg *Config, op Func) error {
	if cfg == nil || !cfg.Enable {
		return op(ctx)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid retry configuration: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}

		var stop *stopError
		if errors.As(err, &stop) {
			return stop.err
		}
		lastErr = err

		if attempt == cfg.MaxAttempts {
			break
		}

		wait := cfg.Backoff(attempt)
		logger("Retry %d/%d failed: %v. Waiting %v before next attempt", attempt, cfg.MaxAttempts, err, wait)
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}
