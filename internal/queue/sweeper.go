package queue

import (
	"context"
	"time"

	"sevalink/internal/constants"
	"sevalink/internal/models"

	"github.com/sirupsen/logrus"
)

// Sweeper periodically re-runs the drain so items whose backoff window has
// opened get their retry. Retry eligibility lives on the persisted item
// (nextAttemptAt), so there are no per-item timers to track, cancel or
// race against a fresh drain; a restart rebuilds scheduling state from the
// store alone.
type Sweeper struct {
	drainer     *Drainer
	send        models.SendFunc
	intervalSec int
	logger      *logrus.Logger
	stopCh      chan struct{}
}

// NewSweeper creates a sweeper that drains with the given send function.
func NewSweeper(drainer *Drainer, send models.SendFunc, intervalSec int, logger *logrus.Logger) *Sweeper {
	if intervalSec <= 0 {
		intervalSec = constants.DefaultSweepIntervalSec
	}
	return &Sweeper{
		drainer:     drainer,
		send:        send,
		intervalSec: intervalSec,
		logger:      logger,
		stopCh:      make(chan struct{}),
	}
}

// Start runs the sweep loop until the context is cancelled or Stop is
// called. Blocks; run it in its own goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(s.intervalSec) * time.Second)
	defer ticker.Stop()

	s.logger.WithField("interval_sec", s.intervalSec).Info("Starting retry sweeper")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sweeper context cancelled, stopping")
			return
		case <-s.stopCh:
			s.logger.Info("Sweeper stop signal received, stopping")
			return
		case <-ticker.C:
			s.runSweep(ctx)
		}
	}
}

// Stop halts the sweep loop.
func (s *Sweeper) Stop() {
	close(s.stopCh)
}

func (s *Sweeper) runSweep(ctx context.Context) {
	report, err := s.drainer.Drain(ctx, s.send)
	if err != nil {
		s.logger.WithError(err).Error("Sweep drain failed")
		return
	}
	if report != nil && (report.Sent > 0 || report.Failed > 0) {
		s.logger.WithFields(logrus.Fields{
			"sent":   report.Sent,
			"failed": report.Failed,
		}).Debug("Sweep drain completed")
	}
}
