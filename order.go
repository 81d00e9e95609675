package orderpulse

import "time"

// Order is the order document returned by the Order Service.
//
// The tracker holds only a transient, read-only copy; the Order Service
// owns the order and all of its transitions. Every field except Status is
// descriptive, immutable once set, and opaque to the polling logic.
type Order struct {
	// OrderID is the opaque identifier, stable for the order's lifetime.
	OrderID string `json:"order_id"`

	// Status is the current lifecycle state.
	Status Status `json:"status"`

	// Amount is the order total.
	Amount float64 `json:"amount"`

	// ServiceName is the purchased service.
	ServiceName string `json:"service_name"`

	// CreatedAt is the server-side creation timestamp, passed through as-is.
	CreatedAt string `json:"created_at"`

	// ReaderName is the assigned reader, if any.
	ReaderName string `json:"reader_name"`

	// Question is the client's question attached to the order.
	Question string `json:"question"`
}

// Invoice is the invoice download handle for a completed order.
//
// The Order Service issues invoices only for completed orders. The signed
// URL is short-lived (minutes, not hours), so callers should download
// promptly rather than store it.
type Invoice struct {
	SignedURL string `json:"signed_url"`
}

// State is the lifecycle state of a poll session.
//
// A session starts idle, moves to polling when started, and ends in
// exactly one of the four terminal states: completed, failed, aborted, or
// exhausted. Terminal states admit no further transitions.
type State string

const (
	// StateIdle means the session has been created but not started.
	StateIdle State = "idle"

	// StatePolling means the session is actively issuing status requests.
	StatePolling State = "polling"

	// StateCompleted means the order reached the completed status.
	StateCompleted State = "completed"

	// StateFailed means the order reached the failed status, or the
	// Order Service rejected the order id outright.
	StateFailed State = "failed"

	// StateAborted means the session was cancelled.
	StateAborted State = "aborted"

	// StateExhausted means the attempt budget ran out while the order was
	// still in progress. Start a fresh session to keep observing.
	StateExhausted State = "exhausted"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateAborted, StateExhausted:
		return true
	}
	return false
}

// Observation holds the outcome of a single status request.
//
// Observations are delivered to registered observers after every request a
// session issues, including failed ones. They are immutable after creation.
type Observation struct {
	// SessionID identifies the poll session that issued the request.
	SessionID string

	// OrderID is the tracked order.
	OrderID string

	// Attempt is the 1-based count of requests issued by the session.
	Attempt int

	// Status is the observed order status. Empty if the request failed.
	Status Status

	// Order is the full order document. Nil if the request failed.
	Order *Order

	// Latency is the time taken by the status request.
	Latency time.Duration

	// CheckedAt is when the request completed.
	CheckedAt time.Time

	// Err is the request error, if any. A non-nil Err does not imply the
	// session stopped; transient errors are retried within the budget.
	Err error

	// NextDelay is the wait scheduled before the next attempt.
	// Zero when no further attempt will be made.
	NextDelay time.Duration
}

// Result is the final outcome of a poll session.
//
// Exactly one Result is produced per session, once it reaches a terminal
// state. The error taxonomy is deliberately narrow: callers are told the
// order completed (with an optional invoice), the order failed or was not
// found, the session was cancelled, or the budget ran out — never raw
// transport detail.
type Result struct {
	// OrderID is the tracked order.
	OrderID string

	// State is the terminal session state.
	State State

	// Order is the last successfully observed order document, if any.
	Order *Order

	// Invoice is the invoice handle for completed orders, when invoice
	// fetching is enabled and the fetch succeeded.
	Invoice *Invoice

	// Err is the terminal error: [ErrOrderNotFound] for rejected ids,
	// [ErrBudgetExhausted] for exhausted sessions, or an invoice fetch
	// error on an otherwise completed order.
	Err error
}
