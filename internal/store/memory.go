package store

import (
	"sort"
	"sync"
)

// MemoryStore is an in-memory implementation of [Store].
//
// MemoryStore provides thread-safe storage with a publish-subscribe
// mechanism for real-time updates. Sensor states are keyed by sensor
// key, with new states replacing previous values.
//
// Subscribers receive updates via buffered channels (buffer size 100).
// Updates are sent non-blocking; if a subscriber's buffer is full, the
// update is dropped for that subscriber to prevent blocking the entire
// system.
type MemoryStore struct {
	mu          sync.RWMutex
	states      map[string]SensorState
	subscribers map[chan SensorState]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory [Store] implementation.
//
// The store is immediately ready for use. No cleanup is required when done.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states:      make(map[string]SensorState),
		subscribers: make(map[chan SensorState]struct{}),
	}
}

// Update stores a [SensorState] and notifies all subscribers.
//
// The state is stored using its Key. Subsequent updates with the same
// key replace the previous value. All subscribers receive the update
// (unless their buffer is full).
func (m *MemoryStore) Update(state SensorState) {
	m.mu.Lock()
	m.states[state.Key] = state
	m.mu.Unlock()

	m.notifySubscribers(state)
}

// GetAll returns a snapshot of all currently stored sensor states,
// sorted by key.
//
// The returned slice is a copy; modifications do not affect the store.
func (m *MemoryStore) GetAll() []SensorState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	states := make([]SensorState, 0, len(m.states))
	for _, state := range m.states {
		states = append(states, state)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Key < states[j].Key })
	return states
}

// Subscribe creates a new subscription and returns a channel for receiving updates.
//
// The returned channel has a buffer of 100 messages. If the buffer fills
// (slow consumer), new updates are dropped for this subscriber.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan SensorState {
	ch := make(chan SensorState, 100)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// After calling Unsubscribe, the channel will be closed and no further
// updates will be sent. Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan SensorState) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	// find and delete the channel (need to convert to the right type)
	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the state to all active subscribers.
//
// This is non-blocking: if a subscriber's channel buffer is full, the
// message is dropped for that subscriber rather than blocking the update
// path.
func (m *MemoryStore) notifySubscribers(state SensorState) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- state:
		default:
			// subscriber is slow, drop the message
		}
	}
}
