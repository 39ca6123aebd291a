// Package queue owns the lifecycle of the offline message queue: admission,
// status transitions, retry scheduling and drain passes.
package queue

import (
	"context"
	"sync"
	"time"

	"sevalink/internal/constants"
	"sevalink/internal/errors"
	"sevalink/internal/metrics"
	"sevalink/internal/models"
	"sevalink/internal/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Engine is the offline queue engine. All mutations are serialized behind
// one mutex and follow read-modify-write of the entire persisted record,
// so concurrent callers cannot overwrite each other's changes. The
// persisted record is the sole source of truth; nothing here survives a
// restart outside the store.
type Engine struct {
	store       store.Store
	logger      *errors.Logger
	registry    *metrics.Registry
	schedule    BackoffSchedule
	maxSize     int
	maxAttempts int

	mu  sync.Mutex
	now func() time.Time
}

// NewEngine creates an engine over the given store. Zero values in cfg
// fall back to the defaults in internal/constants.
func NewEngine(st store.Store, logger *logrus.Logger, registry *metrics.Registry, cfg models.QueueConfig) *Engine {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = constants.DefaultMaxQueueSize
	}
	if cfg.MaxSendAttempts <= 0 {
		cfg.MaxSendAttempts = constants.DefaultMaxSendAttempts
	}
	if registry == nil {
		registry = metrics.NewRegistry()
	}
	return &Engine{
		store:       st,
		logger:      errors.WrapLogger(logger),
		registry:    registry,
		schedule:    NewBackoffSchedule(cfg.RetryDelaysSec),
		maxSize:     cfg.MaxSize,
		maxAttempts: cfg.MaxSendAttempts,
		now:         time.Now,
	}
}

// MaxAttempts returns the terminal retry cutoff.
func (e *Engine) MaxAttempts() int {
	return e.maxAttempts
}

// Schedule returns the backoff schedule in effect.
func (e *Engine) Schedule() BackoffSchedule {
	return e.schedule
}

func (e *Engine) nowMs() int64 {
	return e.now().UnixMilli()
}

// Enqueue admits a message into the queue and persists it. A message
// carrying a TempID already present in the queue replaces the earlier
// entry, so a double-tap re-enqueue is idempotent instead of producing two
// sends. Returns a capacity error when the queue is full.
func (e *Engine) Enqueue(ctx context.Context, msg models.OutgoingMessage) (models.QueueItem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	items, err := e.store.Load(ctx)
	if err != nil {
		return models.QueueItem{}, errors.NewPersistenceError("load", err)
	}

	item := e.buildItem(msg)

	replaced := false
	for i := range items {
		if items[i].ID == item.ID {
			items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		if len(items) >= e.maxSize {
			return models.QueueItem{}, errors.NewCapacityError(len(items), e.maxSize)
		}
		items = append(items, item)
	}

	if err := e.store.Save(ctx, items); err != nil {
		return models.QueueItem{}, errors.NewPersistenceError("save", err)
	}

	e.registry.IncrementCounter("queue_enqueued_total", nil)
	e.registry.SetGauge("queue_depth", float64(len(items)), nil)
	e.logger.WithContext(logrus.Fields{
		"message_id":      item.ID,
		"conversation_id": item.ConversationID,
		"replaced":        replaced,
		"queue_size":      len(items),
	}).Debug("Message enqueued")

	return item, nil
}

func (e *Engine) buildItem(msg models.OutgoingMessage) models.QueueItem {
	id := msg.TempID
	if id == "" {
		id = uuid.NewString()
	}
	msgType := msg.MessageType
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	now := e.nowMs()
	return models.QueueItem{
		ID:             id,
		ConversationID: msg.ConversationID,
		Content:        msg.Content,
		MessageType:    msgType,
		ReceiverID:     msg.ReceiverID,
		MediaURL:       msg.MediaURL,
		Timestamp:      now,
		RetryCount:     0,
		NextAttemptAt:  e.schedule.NextAttemptAt(now, 0),
		Status:         models.StatusPending,
	}
}

// List returns the full persisted queue, unfiltered.
func (e *Engine) List(ctx context.Context) ([]models.QueueItem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	items, err := e.store.Load(ctx)
	if err != nil {
		return nil, errors.NewPersistenceError("load", err)
	}
	return items, nil
}

// Remove deletes an item by id and persists the remainder. An absent id is
// a no-op, not an error: the item may have been concurrently removed.
func (e *Engine) Remove(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	items, err := e.store.Load(ctx)
	if err != nil {
		return errors.NewPersistenceError("load", err)
	}

	kept := items[:0]
	for _, item := range items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(items) {
		return nil
	}

	if err := e.store.Save(ctx, kept); err != nil {
		return errors.NewPersistenceError("save", err)
	}
	e.registry.SetGauge("queue_depth", float64(len(kept)), nil)
	return nil
}

// UpdateStatus merges update into the matching item and persists. Returns
// a not-found error when the id is absent.
func (e *Engine) UpdateStatus(ctx context.Context, id string, status models.QueueItemStatus, update models.StatusUpdate) (models.QueueItem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	items, err := e.store.Load(ctx)
	if err != nil {
		return models.QueueItem{}, errors.NewPersistenceError("load", err)
	}

	idx := -1
	for i := range items {
		if items[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.QueueItem{}, errors.NewNotFoundError("queue item", id)
	}

	item := &items[idx]
	item.Status = status
	if update.RetryCount != nil {
		item.RetryCount = *update.RetryCount
	}
	if update.LastRetryAt != nil {
		item.LastRetryAt = update.LastRetryAt
	}
	if update.NextAttemptAt != nil {
		item.NextAttemptAt = *update.NextAttemptAt
	}
	if update.LastError != nil {
		item.LastError = *update.LastError
	}

	if err := e.store.Save(ctx, items); err != nil {
		return models.QueueItem{}, errors.NewPersistenceError("save", err)
	}
	return *item, nil
}

// Clear deletes the entire persisted record.
func (e *Engine) Clear(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.Clear(ctx); err != nil {
		return errors.NewPersistenceError("clear", err)
	}
	e.registry.SetGauge("queue_depth", 0, nil)
	e.logger.Info("Offline queue cleared")
	return nil
}

// Stats aggregates over the current persisted queue. Computed fresh on
// every call so it always reflects the latest persisted state.
func (e *Engine) Stats(ctx context.Context) (models.QueueStats, error) {
	items, err := e.List(ctx)
	if err != nil {
		return models.QueueStats{}, err
	}

	stats := models.QueueStats{Total: len(items)}
	retrySum := 0
	for _, item := range items {
		switch item.Status {
		case models.StatusPending:
			stats.Pending++
		case models.StatusRetrying:
			stats.Retrying++
		case models.StatusFailed:
			stats.Failed++
		}
		retrySum += item.RetryCount
		if stats.OldestTimestamp == 0 || item.Timestamp < stats.OldestTimestamp {
			stats.OldestTimestamp = item.Timestamp
		}
	}
	if len(items) > 0 {
		stats.AverageRetryCount = float64(retrySum) / float64(len(items))
	}
	return stats, nil
}
