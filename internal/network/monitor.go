// Package network observes device connectivity and reports edge
// transitions between online and offline.
package network

import (
	"sync"
)

// Event is a connectivity transition edge.
type Event string

const (
	EventOnline  Event = "online"
	EventOffline Event = "offline"
)

// State is a point-in-time reachability snapshot. IsOnline means a link is
// present AND the internet is actually reachable, not merely that an
// interface is up.
type State struct {
	IsOnline bool   `json:"isOnline"`
	Type     string `json:"type,omitempty"`    // e.g. "wifi", "cellular", "http-probe"
	Details  string `json:"details,omitempty"` // provider-specific diagnostics
}

// Listener receives connectivity transition events. It is invoked exactly
// on edges: offline→online fires EventOnline once, online→offline fires
// EventOffline once. No event fires while the state is unchanged.
type Listener func(event Event, state State)

// Monitor exposes the current reachability state and transition events.
type Monitor interface {
	State() State
	// Subscribe registers a listener and returns its unsubscribe function.
	// Unsubscribing is idempotent and leak-free.
	Subscribe(listener Listener) func()
}

// notifier implements edge-transition fan-out shared by the monitors.
type notifier struct {
	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
}

func (n *notifier) subscribe(listener Listener) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.listeners == nil {
		n.listeners = make(map[int]Listener)
	}
	id := n.nextID
	n.nextID++
	n.listeners[id] = listener

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.listeners, id)
		})
	}
}

func (n *notifier) notify(event Event, state State) {
	n.mu.Lock()
	snapshot := make([]Listener, 0, len(n.listeners))
	for _, l := range n.listeners {
		snapshot = append(snapshot, l)
	}
	n.mu.Unlock()

	for _, l := range snapshot {
		l(event, state)
	}
}
