package orderpulse

import (
	"context"

	"github.com/jpalmerr/orderpulse/internal/poller"
)

// Session is the handle for one poll session, created by [Tracker.Track].
//
// The handle is the explicit cancellation point for the session: callers
// that stop caring about an order (navigation away, shutdown) call
// [Session.Cancel] rather than relying on garbage collection. All methods
// are safe for concurrent use.
type Session struct {
	inner *poller.Session
}

// ID returns the session's unique identifier, present in log lines and
// observations emitted by this session.
func (s *Session) ID() string {
	return s.inner.ID()
}

// OrderID returns the tracked order id.
func (s *Session) OrderID() string {
	return s.inner.OrderID()
}

// State returns the current session state.
func (s *Session) State() State {
	return State(s.inner.State())
}

// Cancel marks the session aborted.
//
// No request scheduled after Cancel is issued. A request already in flight
// is allowed to resolve, but its result never triggers another attempt.
// Cancel is idempotent and a no-op on sessions that already terminated.
func (s *Session) Cancel() {
	s.inner.Cancel()
}

// Done returns a channel that is closed when the session reaches a
// terminal state.
func (s *Session) Done() <-chan struct{} {
	return s.inner.Done()
}

// Result returns the terminal result. The boolean is false until the
// session has terminated.
func (s *Session) Result() (Result, bool) {
	pr, ok := s.inner.Result()
	if !ok {
		return Result{}, false
	}
	return pollerResultToPublic(pr), true
}

// Wait blocks until the session terminates or ctx is cancelled.
//
// A cancelled ctx aborts the wait, not the session; call [Session.Cancel]
// to stop polling.
func (s *Session) Wait(ctx context.Context) (Result, error) {
	pr, err := s.inner.Wait(ctx)
	if err != nil {
		return Result{}, err
	}
	return pollerResultToPublic(pr), nil
}
