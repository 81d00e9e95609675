package store

import "time"

// Observation is the storage representation of an order's latest poll
// outcome, optimized for JSON serialization (used by the status API and
// SSE feed). It is decoupled from the poller's internal types to allow
// independent evolution.
type Observation struct {
	// OrderID is the tracked order.
	OrderID string `json:"order_id"`

	// SessionID identifies the poll session that produced the observation.
	SessionID string `json:"session_id"`

	// Status is the last observed order status. Empty if no request has
	// succeeded yet.
	Status string `json:"status"`

	// SessionState is the session lifecycle state (polling, completed, ...).
	SessionState string `json:"session_state"`

	// Attempt is the number of requests issued so far.
	Attempt int `json:"attempt"`

	// LatencyMs is the latency of the last request in milliseconds.
	LatencyMs int64 `json:"latency_ms"`

	// CheckedAt is the timestamp of the last request.
	CheckedAt time.Time `json:"checked_at"`

	// Error contains the last request error message, if any.
	// nil means the last request succeeded.
	Error *string `json:"error"`
}

// Store defines the interface for storing and subscribing to order
// observations.
//
// Store implementations must be safe for concurrent access. The pub/sub
// mechanism allows updates to be pushed to connected clients of the status
// API (e.g. via Server-Sent Events).
type Store interface {
	// Update stores an observation and notifies all subscribers.
	// Observations are keyed by OrderID, so subsequent updates replace
	// previous values.
	Update(obs Observation)

	// Get returns the latest observation for an order id.
	Get(orderID string) (Observation, bool)

	// GetAll returns all currently stored observations.
	// The returned slice is a snapshot; modifications do not affect the store.
	GetAll() []Observation

	// Subscribe returns a channel that receives observation updates.
	// The returned channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Observation

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Observation)
}
