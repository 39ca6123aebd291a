package network

import (
	"sync"
)

// ManualMonitor is a Monitor driven by the embedding shell, which feeds it
// platform connectivity callbacks. Also the fake of choice in tests.
type ManualMonitor struct {
	notifier

	stateMu sync.RWMutex
	state   State
}

// NewManualMonitor creates a monitor with the given initial state. No
// event fires for the initial state; listeners see edges only.
func NewManualMonitor(initial State) *ManualMonitor {
	return &ManualMonitor{state: initial}
}

func (m *ManualMonitor) State() State {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state
}

func (m *ManualMonitor) Subscribe(listener Listener) func() {
	return m.subscribe(listener)
}

// Set records a new connectivity snapshot and fires an event only if the
// online flag flipped.
func (m *ManualMonitor) Set(state State) {
	m.stateMu.Lock()
	wasOnline := m.state.IsOnline
	m.state = state
	m.stateMu.Unlock()

	if state.IsOnline == wasOnline {
		return
	}
	if state.IsOnline {
		m.notify(EventOnline, state)
	} else {
		m.notify(EventOffline, state)
	}
}
