package poller

// Order status values owned by the Order Service. The enumeration is closed
// on the server side; anything not listed here is treated as non-terminal.
const (
	statusPending    = "pending"
	statusProcessing = "processing"
	statusCompleted  = "completed"
	statusFailed     = "failed"
)

// isTerminalStatus reports whether the order can no longer transition.
// Unknown status strings are non-terminal: the server owns the enumeration
// and may add intermediate states, so the safe reading of an unrecognized
// value is "still in progress".
func isTerminalStatus(status string) bool {
	return status == statusCompleted || status == statusFailed
}

// Order is the order document returned by the Order Service.
//
// This is the poller-internal representation, decoupled from the public
// orderpulse.Order type to avoid circular dependencies. All fields except
// Status are descriptive and opaque to the poller.
type Order struct {
	// OrderID is the opaque identifier, stable for the order's lifetime.
	OrderID string `json:"order_id"`

	// Status is the current lifecycle state as reported by the server.
	Status string `json:"status"`

	// Amount is the order total.
	Amount float64 `json:"amount"`

	// ServiceName is the purchased service (e.g. a reading type).
	ServiceName string `json:"service_name"`

	// CreatedAt is the server-side creation timestamp, passed through as-is.
	CreatedAt string `json:"created_at"`

	// ReaderName is the assigned reader, if any.
	ReaderName string `json:"reader_name"`

	// Question is the client's question attached to the order.
	Question string `json:"question"`
}

// Invoice is the invoice download handle for a completed order.
type Invoice struct {
	// SignedURL is a short-lived signed download URL. It expires within
	// minutes of being issued, so it should be used promptly.
	SignedURL string `json:"signed_url"`
}
