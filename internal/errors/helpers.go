package errors

import (
	"fmt"
)

// Common error creators for frequent use cases

// NewCapacityError signals that an enqueue was rejected because the queue
// is full. Never retryable; the caller must drop or surface the message.
func NewCapacityError(size, maxSize int) *AppError {
	return New(ErrCodeQueueCapacity, fmt.Sprintf("queue is full (%d/%d)", size, maxSize)).
		WithContext("size", size).
		WithContext("max_size", maxSize).
		WithUserMessage("Message queue is full, please try again later")
}

// NewNotFoundError creates a not found error with resource context
func NewNotFoundError(resource, identifier string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithContext("resource", resource).
		WithContext("identifier", identifier).
		WithUserMessage(fmt.Sprintf("%s not found", resource))
}

// NewTransportError wraps a failed send attempt. Marked retryable so the
// drain loop schedules a backoff retry instead of giving up.
func NewTransportError(err error, messageID string) *AppError {
	return WrapRetryable(err, ErrCodeTransport, "message send failed").
		WithContext("message_id", messageID).
		WithUserMessage("Message could not be delivered")
}

// NewPermanentSendError wraps a send rejection that must not be retried,
// e.g. the server refused the payload.
func NewPermanentSendError(err error, messageID string) *AppError {
	return Wrap(err, ErrCodeTransport, "message rejected").
		WithContext("message_id", messageID).
		WithUserMessage("Message was rejected")
}

// NewPersistenceError wraps a store failure. Propagated to the caller of
// the mutating operation because silent loss of durability is unacceptable.
func NewPersistenceError(operation string, err error) *AppError {
	return Wrap(err, ErrCodePersistence, fmt.Sprintf("store %s failed", operation)).
		WithContext("operation", operation).
		WithUserMessage("Could not save message queue")
}

// NewConfigError creates a configuration error
func NewConfigError(key, message string) *AppError {
	return New(ErrCodeInvalidConfig, message).
		WithContext("config_key", key).
		WithUserMessage("Configuration error")
}

// NewValidationError creates a validation error with field context
func NewValidationError(field, value, message string) *AppError {
	return New(ErrCodeValidationFailed, message).
		WithContext("field", field).
		WithContext("value", value).
		WithUserMessage(fmt.Sprintf("Invalid %s: %s", field, message))
}

// NewTimeoutError creates a timeout error with context
func NewTimeoutError(operation string, duration string) *AppError {
	return New(ErrCodeTimeout, fmt.Sprintf("%s timed out after %s", operation, duration)).
		WithContext("operation", operation).
		WithContext("timeout", duration).
		WithUserMessage("Operation timed out, please try again")
}

// IsCapacity reports whether err is a queue-capacity rejection.
func IsCapacity(err error) bool {
	return GetCode(err) == ErrCodeQueueCapacity
}

// IsNotFound reports whether err is a missing-item error. Drain-internal
// callers treat this as benign (the item was concurrently removed).
func IsNotFound(err error) bool {
	return GetCode(err) == ErrCodeNotFound
}
