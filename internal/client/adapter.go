// Package client binds the offline queue to presentation code: reactive
// statistics, forwarding methods and an automatic drain on reconnect.
package client

import (
	"context"
	"fmt"
	"sync"

	"sevalink/internal/models"
	"sevalink/internal/network"
	"sevalink/internal/queue"

	"github.com/sirupsen/logrus"
)

// Adapter is a reactive projection over the engine and monitor. It holds
// no durable state of its own; stats are recomputed from the persisted
// queue after every mutation and on every network edge.
type Adapter struct {
	engine           *queue.Engine
	drainer          *queue.Drainer
	monitor          network.Monitor
	send             models.SendFunc
	sweepIntervalSec int
	logger           *logrus.Logger

	mu          sync.RWMutex
	stats       models.QueueStats
	unsubscribe func()
	running     bool
	sweeper     *queue.Sweeper
	cancelSweep context.CancelFunc
}

// NewAdapter wires the adapter. send is the caller-supplied transmission
// function used for every drain this adapter triggers.
func NewAdapter(engine *queue.Engine, drainer *queue.Drainer, monitor network.Monitor, send models.SendFunc, sweepIntervalSec int, logger *logrus.Logger) *Adapter {
	return &Adapter{
		engine:           engine,
		drainer:          drainer,
		monitor:          monitor,
		send:             send,
		sweepIntervalSec: sweepIntervalSec,
		logger:           logger,
	}
}

// Start subscribes to network transitions and launches the retry sweeper.
// The online edge triggers an automatic drain.
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("adapter is already running")
	}
	a.running = true

	a.unsubscribe = a.monitor.Subscribe(func(event network.Event, state network.State) {
		if event == network.EventOnline {
			a.logger.Info("Back online, draining offline queue")
			go func() {
				if _, err := a.DrainQueue(ctx); err != nil {
					a.logger.WithError(err).Error("Automatic drain failed")
				}
			}()
		} else {
			a.refreshStats(ctx)
		}
	})

	sweepCtx, cancel := context.WithCancel(ctx)
	a.cancelSweep = cancel
	a.sweeper = queue.NewSweeper(a.drainer, a.send, a.sweepIntervalSec, a.logger)
	go a.sweeper.Start(sweepCtx)
	a.mu.Unlock()

	a.refreshStats(ctx)
	return nil
}

// Stop unsubscribes from the monitor and halts the sweeper. Idempotent.
func (a *Adapter) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return
	}
	a.running = false
	a.unsubscribe()
	a.cancelSweep()
}

// IsOnline reports the monitor's current reachability snapshot.
func (a *Adapter) IsOnline() bool {
	return a.monitor.State().IsOnline
}

// IsDraining reports whether a drain pass is in flight.
func (a *Adapter) IsDraining() bool {
	return a.drainer.IsDraining()
}

// Stats returns the most recently computed queue statistics.
func (a *Adapter) Stats() models.QueueStats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats
}

// QueueMessage enqueues an outgoing message for deferred delivery.
func (a *Adapter) QueueMessage(ctx context.Context, msg models.OutgoingMessage) (models.QueueItem, error) {
	item, err := a.engine.Enqueue(ctx, msg)
	if err != nil {
		return models.QueueItem{}, err
	}
	a.refreshStats(ctx)
	return item, nil
}

// DrainQueue runs a drain pass with the adapter's send function.
func (a *Adapter) DrainQueue(ctx context.Context) (*models.DrainReport, error) {
	report, err := a.drainer.Drain(ctx, a.send)
	a.refreshStats(ctx)
	return report, err
}

// ClearQueue wipes the persisted queue.
func (a *Adapter) ClearQueue(ctx context.Context) error {
	if err := a.engine.Clear(ctx); err != nil {
		return err
	}
	a.refreshStats(ctx)
	return nil
}

// RemoveMessage drops one queued message by id.
func (a *Adapter) RemoveMessage(ctx context.Context, id string) error {
	if err := a.engine.Remove(ctx, id); err != nil {
		return err
	}
	a.refreshStats(ctx)
	return nil
}

// QueuedMessages lists queued messages, optionally filtered to one
// conversation.
func (a *Adapter) QueuedMessages(ctx context.Context, conversationID string) ([]models.QueueItem, error) {
	items, err := a.engine.List(ctx)
	if err != nil {
		return nil, err
	}
	if conversationID == "" {
		return items, nil
	}
	filtered := make([]models.QueueItem, 0, len(items))
	for _, item := range items {
		if item.ConversationID == conversationID {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

func (a *Adapter) refreshStats(ctx context.Context) {
	stats, err := a.engine.Stats(ctx)
	if err != nil {
		a.logger.WithError(err).Warn("Failed to refresh queue stats")
		return
	}
	a.mu.Lock()
	a.stats = stats
	a.mu.Unlock()
}
