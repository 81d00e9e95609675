package store

import (
	"sync"
)

// MemoryStore is an in-memory implementation of [Store].
//
// MemoryStore provides thread-safe storage with a publish-subscribe
// mechanism. Observations are keyed by order id, with new observations
// replacing previous values.
//
// Subscribers receive updates via buffered channels (buffer size 100).
// Updates are sent non-blocking; if a subscriber's buffer is full, the
// update is dropped for that subscriber to prevent blocking the poll path.
type MemoryStore struct {
	mu           sync.RWMutex
	observations map[string]Observation
	subscribers  map[chan Observation]struct{}
	subMu        sync.RWMutex
}

// NewMemoryStore creates a new in-memory [Store] implementation.
//
// The store is immediately ready for use. No cleanup is required when done.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		observations: make(map[string]Observation),
		subscribers:  make(map[chan Observation]struct{}),
	}
}

// Update stores an [Observation] and notifies all subscribers.
//
// The observation is stored using its OrderID as the key. Subsequent
// updates for the same order replace the previous value. All subscribers
// receive the update (unless their buffer is full).
func (m *MemoryStore) Update(obs Observation) {
	m.mu.Lock()
	m.observations[obs.OrderID] = obs
	m.mu.Unlock()

	m.notifySubscribers(obs)
}

// Get returns the latest observation for orderID.
func (m *MemoryStore) Get(orderID string) (Observation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obs, ok := m.observations[orderID]
	return obs, ok
}

// GetAll returns a snapshot of all currently stored observations.
//
// The returned slice is a copy; modifications do not affect the store.
// Order is not guaranteed.
func (m *MemoryStore) GetAll() []Observation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]Observation, 0, len(m.observations))
	for _, obs := range m.observations {
		results = append(results, obs)
	}
	return results
}

// Subscribe creates a new subscription and returns a channel for receiving
// updates.
//
// The returned channel has a buffer of 100 messages. If the buffer fills
// (slow consumer), new updates are dropped for this subscriber.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource
// leaks.
func (m *MemoryStore) Subscribe() <-chan Observation {
	ch := make(chan Observation, 100)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// After calling Unsubscribe, the channel will be closed and no further
// updates will be sent. Safe to call multiple times or with an unknown
// channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Observation) {
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

// notifySubscribers sends the observation to all active subscribers.
//
// This is non-blocking: if a subscriber's channel buffer is full, the
// message is dropped for that subscriber rather than blocking the update
// path.
func (m *MemoryStore) notifySubscribers(obs Observation) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- obs:
		default:
			// subscriber is slow, drop the message
		}
	}
}
