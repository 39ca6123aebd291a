package models

import "context"

// MessageType identifies the payload kind of an outgoing chat message.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeVoice MessageType = "voice"
	MessageTypeFile  MessageType = "file"
	MessageTypeVideo MessageType = "video"
)

// QueueItemStatus tracks where a queued message sits in its send lifecycle.
type QueueItemStatus string

const (
	// StatusPending means the item has never been attempted.
	StatusPending QueueItemStatus = "pending"
	// StatusRetrying means at least one attempt failed and the item is
	// waiting out its backoff window.
	StatusRetrying QueueItemStatus = "retrying"
	// StatusFailed is terminal; the item is reported but never auto-retried.
	StatusFailed QueueItemStatus = "failed"
)

// QueueItem is the unit of durable state in the offline queue.
type QueueItem struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversationId"`
	Content        string          `json:"content"`
	MessageType    MessageType     `json:"messageType"`
	ReceiverID     string          `json:"receiverId,omitempty"`
	MediaURL       string          `json:"mediaUrl,omitempty"`
	Timestamp      int64           `json:"timestamp"` // creation time, epoch ms
	RetryCount     int             `json:"retryCount"`
	LastRetryAt    *int64          `json:"lastRetryAt,omitempty"` // epoch ms
	NextAttemptAt  int64           `json:"nextAttemptAt"`         // epoch ms, backoff eligibility
	Status         QueueItemStatus `json:"status"`
	LastError      string          `json:"lastError,omitempty"`
}

// OutgoingMessage is the caller-facing shape of a message to enqueue.
// TempID, when set, becomes the queue item's identity; re-enqueueing the
// same TempID replaces the earlier entry.
type OutgoingMessage struct {
	ConversationID string      `json:"conversationId"`
	Content        string      `json:"content"`
	MessageType    MessageType `json:"messageType"`
	ReceiverID     string      `json:"receiverId,omitempty"`
	MediaURL       string      `json:"mediaUrl,omitempty"`
	TempID         string      `json:"tempId,omitempty"`
}

// StatusUpdate carries the optional fields merged into an item by
// Engine.UpdateStatus. Nil fields are left untouched.
type StatusUpdate struct {
	RetryCount    *int
	LastRetryAt   *int64
	NextAttemptAt *int64
	LastError     *string
}

// QueueStats is a point-in-time aggregation over the persisted queue.
type QueueStats struct {
	Total             int     `json:"total"`
	Pending           int     `json:"pending"`
	Retrying          int     `json:"retrying"`
	Failed            int     `json:"failed"`
	OldestTimestamp   int64   `json:"oldestTimestamp"` // zero when empty
	AverageRetryCount float64 `json:"averageRetryCount"`
}

// DrainError records one failed send attempt inside a drain pass.
type DrainError struct {
	MessageID string `json:"messageId"`
	Error     string `json:"error"`
}

// DrainReport summarizes a single drain pass.
type DrainReport struct {
	Sent    int          `json:"sent"`
	Failed  int          `json:"failed"`
	Retried int          `json:"retried"` // deferred, backoff window not yet open
	Errors  []DrainError `json:"errors"`
}

// SendFunc performs the actual network transmission of one queued item.
// It must return nil only on confirmed delivery. Returned errors marked
// retryable (see internal/errors) schedule a backoff retry; permanent
// errors move the item to its terminal failed state.
type SendFunc func(ctx context.Context, item QueueItem) error
