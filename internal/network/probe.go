package network

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"sevalink/internal/constants"

	"github.com/sirupsen/logrus"
)

// Probe answers whether the internet is reachable right now.
type Probe func(ctx context.Context) State

// HTTPProbe builds a Probe that issues a GET against a well-known
// endpoint. Reachability means the request completed, regardless of the
// response body; 5xx still proves the link carries traffic.
func HTTPProbe(url string, client *http.Client) Probe {
	if client == nil {
		client = &http.Client{}
	}
	return func(ctx context.Context) State {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return State{IsOnline: false, Type: "http-probe", Details: err.Error()}
		}
		resp, err := client.Do(req)
		if err != nil {
			return State{IsOnline: false, Type: "http-probe", Details: err.Error()}
		}
		defer func() { _ = resp.Body.Close() }()
		return State{IsOnline: true, Type: "http-probe", Details: fmt.Sprintf("status %d", resp.StatusCode)}
	}
}

// ProbeMonitor polls a reachability probe and emits edge transitions. It
// assumes offline until the first successful probe, so a reachable start
// fires one online event.
type ProbeMonitor struct {
	notifier

	probe    Probe
	interval time.Duration
	timeout  time.Duration
	logger   *logrus.Logger

	mu      sync.Mutex
	state   State
	running bool
	stopCh  chan struct{}
}

// NewProbeMonitor creates a probe-driven monitor.
func NewProbeMonitor(probe Probe, interval, timeout time.Duration, logger *logrus.Logger) *ProbeMonitor {
	if interval <= 0 {
		interval = time.Duration(constants.DefaultProbeIntervalSec) * time.Second
	}
	if timeout <= 0 {
		timeout = time.Duration(constants.DefaultProbeTimeoutSec) * time.Second
	}
	return &ProbeMonitor{
		probe:    probe,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		state:    State{IsOnline: false, Type: "http-probe", Details: "not yet probed"},
	}
}

func (m *ProbeMonitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *ProbeMonitor) Subscribe(listener Listener) func() {
	return m.subscribe(listener)
}

// Start begins polling. Safe to call once per monitor lifetime.
func (m *ProbeMonitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		m.logger.Warn("Network monitor is already running")
		return
	}
	if m.stopCh == nil {
		m.stopCh = make(chan struct{})
	}
	m.running = true
	stopCh := m.stopCh
	m.mu.Unlock()

	go m.pollLoop(ctx, stopCh)
	m.logger.WithField("interval", m.interval).Info("Network monitor started")
}

// Stop halts polling. Idempotent.
func (m *ProbeMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	close(m.stopCh)
	m.stopCh = nil
	m.running = false
	m.logger.Info("Network monitor stopped")
}

func (m *ProbeMonitor) pollLoop(ctx context.Context, stopCh <-chan struct{}) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.checkOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			m.checkOnce(ctx)
		}
	}
}

func (m *ProbeMonitor) checkOnce(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	next := m.probe(probeCtx)

	m.mu.Lock()
	wasOnline := m.state.IsOnline
	m.state = next
	m.mu.Unlock()

	if next.IsOnline == wasOnline {
		return
	}

	if next.IsOnline {
		m.logger.WithField("details", next.Details).Info("Connectivity restored")
		m.notify(EventOnline, next)
	} else {
		m.logger.WithField("details", next.Details).Warn("Connectivity lost")
		m.notify(EventOffline, next)
	}
}
