package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sevalink/internal/constants"
)

// retryableStoreOperation executes a store write with bounded retry for
// transient SQLite failures.
func retryableStoreOperation(ctx context.Context, operation func() error, operationName string) error {
	var lastErr error

	maxAttempts := constants.DefaultStoreRetryAttempts
	initialBackoff := time.Duration(constants.DefaultStoreRetryBackoffMs) * time.Millisecond

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := operation()
		if err == nil {
			return nil
		}

		lastErr = err

		if !isRetryableStoreError(err) {
			return fmt.Errorf("%s failed (non-retryable): %w", operationName, err)
		}

		if attempt == maxAttempts {
			break
		}

		backoff := time.Duration(attempt) * initialBackoff
		if backoff > time.Duration(constants.DefaultStoreMaxBackoffMs)*time.Millisecond {
			backoff = time.Duration(constants.DefaultStoreMaxBackoffMs) * time.Millisecond
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxAttempts, lastErr)
}

// isRetryableStoreError determines if a store error is worth retrying
func isRetryableStoreError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	errStr := err.Error()

	// Database is locked errors are typically retryable
	if strings.Contains(errStr, "database is locked") {
		return true
	}

	// Disk I/O errors might be transient
	if strings.Contains(errStr, "disk I/O error") {
		return true
	}

	// Constraint and schema errors will not fix themselves
	if strings.Contains(errStr, "constraint") || strings.Contains(errStr, "no such table") {
		return false
	}

	return false
}
