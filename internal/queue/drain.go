package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"sevalink/internal/errors"
	"sevalink/internal/models"
	"sevalink/internal/network"
	"sevalink/internal/tracing"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Drainer coordinates full-queue drain passes. At most one drain runs at a
// time; a second call while one is in flight returns immediately with a
// nil report, since the race is expected rather than a failure.
type Drainer struct {
	engine  *Engine
	monitor network.Monitor
	logger  *errors.Logger

	mu       sync.Mutex
	draining bool
	now      func() time.Time
}

// NewDrainer creates a drain orchestrator over the engine and monitor.
func NewDrainer(engine *Engine, monitor network.Monitor, logger *logrus.Logger) *Drainer {
	return &Drainer{
		engine:  engine,
		monitor: monitor,
		logger:  errors.WrapLogger(logger),
		now:     time.Now,
	}
}

// IsDraining reports whether a drain pass is in flight.
func (d *Drainer) IsDraining() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draining
}

// Drain attempts to send every eligible queued item, oldest first. Returns
// (nil, nil) when a drain is already running or the device is offline.
// Send failures never propagate; they are folded into the report. Only a
// persistence failure aborts the pass with an error.
func (d *Drainer) Drain(ctx context.Context, send models.SendFunc) (*models.DrainReport, error) {
	if send == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "send function is required")
	}

	d.mu.Lock()
	if d.draining {
		d.mu.Unlock()
		return nil, nil
	}
	d.draining = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.draining = false
		d.mu.Unlock()
	}()

	if !d.monitor.State().IsOnline {
		d.logger.Debug("Skipping drain, device is offline")
		return nil, nil
	}

	start := d.now()
	ctx, span := tracing.StartSpan(ctx, "queue.drain")
	defer span.End()

	items, err := d.engine.List(ctx)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}

	// Oldest-first fairness: newer messages must not starve older ones.
	sort.Slice(items, func(i, j int) bool {
		return items[i].Timestamp < items[j].Timestamp
	})

	report := &models.DrainReport{Errors: []models.DrainError{}}
	for _, item := range items {
		if item.Status == models.StatusFailed {
			continue
		}
		if item.NextAttemptAt > d.now().UnixMilli() {
			// Backoff window still open; the sweeper picks it up later.
			report.Retried++
			continue
		}

		if err := d.attempt(ctx, send, item, report); err != nil {
			tracing.RecordError(ctx, err)
			return report, err
		}

		// Connectivity can drop mid-pass; stop burning attempts.
		if !d.monitor.State().IsOnline {
			d.logger.Debug("Connectivity lost mid-drain, stopping pass")
			break
		}
	}

	d.engine.registry.RecordTimer("queue_drain_duration", d.now().Sub(start), nil)
	d.engine.registry.AddToCounter("queue_sent_total", float64(report.Sent), nil)
	d.engine.registry.AddToCounter("queue_send_failures_total", float64(report.Failed), nil)
	tracing.AddSpanAttributes(ctx,
		attribute.Int("queue.sent", report.Sent),
		attribute.Int("queue.failed", report.Failed),
		attribute.Int("queue.deferred", report.Retried),
	)
	tracing.SetSpanOK(ctx)

	d.logger.WithContext(logrus.Fields{
		"sent":     report.Sent,
		"failed":   report.Failed,
		"deferred": report.Retried,
	}).Info("Drain pass completed")

	return report, nil
}

// attempt sends one item and applies the outcome. Returns an error only
// for persistence failures; transport failures are absorbed into report.
func (d *Drainer) attempt(ctx context.Context, send models.SendFunc, item models.QueueItem, report *models.DrainReport) error {
	attemptCtx, span := tracing.StartSpan(ctx, "queue.send",
		attribute.String("message.id", item.ID),
		attribute.Int("message.retry_count", item.RetryCount),
	)
	sendErr := send(attemptCtx, item)
	if sendErr != nil {
		tracing.RecordError(attemptCtx, sendErr)
	}
	span.End()

	if sendErr == nil {
		if err := d.engine.Remove(ctx, item.ID); err != nil {
			return err
		}
		report.Sent++
		return nil
	}

	report.Failed++
	report.Errors = append(report.Errors, models.DrainError{
		MessageID: item.ID,
		Error:     sendErr.Error(),
	})

	if err := d.markFailure(ctx, item, sendErr); err != nil {
		if errors.IsNotFound(err) {
			// Item was concurrently removed; nothing to update.
			return nil
		}
		return err
	}
	return nil
}

// markFailure records a failed attempt: retryable errors go back on the
// backoff ladder, permanent rejections and exhausted items go terminal.
func (d *Drainer) markFailure(ctx context.Context, item models.QueueItem, sendErr error) error {
	nowMs := d.now().UnixMilli()
	newCount := item.RetryCount + 1
	errText := sendErr.Error()

	status := models.StatusRetrying
	if !errors.IsRetryable(sendErr) || newCount >= d.engine.MaxAttempts() {
		status = models.StatusFailed
	}

	update := models.StatusUpdate{
		RetryCount:  &newCount,
		LastRetryAt: &nowMs,
		LastError:   &errText,
	}
	if status == models.StatusRetrying {
		next := d.engine.Schedule().NextAttemptAt(nowMs, newCount)
		update.NextAttemptAt = &next
	}

	if _, err := d.engine.UpdateStatus(ctx, item.ID, status, update); err != nil {
		return err
	}

	d.logger.LogRetryableError(
		errors.NewTransportError(sendErr, item.ID),
		"Queued message send failed",
		logrus.Fields{
			"message_id":  item.ID,
			"retry_count": newCount,
			"status":      status,
		},
	)
	return nil
}
