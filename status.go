package orderpulse

import "strings"

// Status represents the lifecycle state of an order as reported by the
// Order Service.
//
// The enumeration is closed and owned by the server. The four values below
// are the ones the service documents today; any other value the server
// returns is carried through verbatim and treated as non-terminal, so a
// new intermediate state introduced server-side never strands a client in
// an infinite loop or a premature stop.
type Status string

const (
	// StatusPending means the order has been placed but not picked up.
	StatusPending Status = "pending"

	// StatusProcessing means a reader is working on the order.
	StatusProcessing Status = "processing"

	// StatusCompleted means the order finished successfully. Terminal.
	StatusCompleted Status = "completed"

	// StatusFailed means the order failed server-side. Terminal.
	StatusFailed Status = "failed"
)

// String returns the string representation of the status.
// This implements the fmt.Stringer interface.
func (s Status) String() string {
	return string(s)
}

// Terminal reports whether the order can no longer transition.
// Only [StatusCompleted] and [StatusFailed] are terminal; everything else,
// including unknown values, counts as still in progress.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Known reports whether the status is one of the documented values.
func (s Status) Known() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// ParseStatus normalizes a raw status string from the wire into a [Status].
//
// Matching is case-insensitive and ignores surrounding whitespace.
// Unrecognized values are preserved as-is rather than rejected; callers
// should check [Status.Known] if they need the closed set.
func ParseStatus(raw string) Status {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	return s
}
