package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session lifecycle states. A session starts idle, moves to polling when
// started, and ends in exactly one of the four terminal states. No
// transition ever leaves a terminal state.
type State string

const (
	// StateIdle means the session has been created but not started.
	StateIdle State = "idle"

	// StatePolling means the session is actively issuing status requests.
	// This is the only state in which a scheduled request may fire.
	StatePolling State = "polling"

	// StateCompleted means the order reached the completed status.
	StateCompleted State = "completed"

	// StateFailed means the order reached the failed status, or the
	// Order Service rejected the order id outright.
	StateFailed State = "failed"

	// StateAborted means the session was cancelled by the caller.
	StateAborted State = "aborted"

	// StateExhausted means the attempt budget ran out while the order was
	// still in progress. The order may yet complete; a fresh session can
	// observe it later.
	StateExhausted State = "exhausted"
)

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateAborted, StateExhausted:
		return true
	}
	return false
}

// ErrBudgetExhausted is the result error of a session that used up its
// attempt budget without observing a terminal order status. It means
// "still processing, check back later", not a hard failure.
var ErrBudgetExhausted = errors.New("attempt budget exhausted: order still in progress")

// Observation is emitted to the session observer after every status
// request, successful or not.
type Observation struct {
	// SessionID identifies the poll session that issued the request.
	SessionID string

	// OrderID is the tracked order.
	OrderID string

	// Attempt is the 1-based count of requests issued so far.
	Attempt int

	// Status is the observed order status. Empty if the request failed.
	Status string

	// Order is the full order document. Nil if the request failed.
	Order *Order

	// Latency is the time taken by the status request.
	Latency time.Duration

	// CheckedAt is when the request completed.
	CheckedAt time.Time

	// Err is the request error, if any. Transient errors appear here even
	// though the session keeps polling.
	Err error

	// NextDelay is the wait scheduled before the next attempt.
	// Zero when no further attempt will be made.
	NextDelay time.Duration
}

// Result is the final outcome of a session, available once Done is closed.
type Result struct {
	// OrderID is the tracked order.
	OrderID string

	// State is the terminal session state.
	State State

	// Order is the last successfully observed order document, if any.
	Order *Order

	// Invoice is the invoice handle, fetched once for completed orders
	// when invoice fetching is enabled.
	Invoice *Invoice

	// Err carries the terminal error: ErrOrderNotFound for rejected ids,
	// ErrBudgetExhausted when the budget ran out, an invoice fetch error
	// for completed orders whose invoice could not be retrieved.
	Err error
}

// session defaults, applied by NewSession when the config leaves them zero
const (
	defaultBaseDelay   = 1 * time.Second
	defaultMaxDelay    = 30 * time.Second
	defaultJitter      = 0.1
	defaultMaxAttempts = 10
)

// SessionConfig holds the construction parameters for [Session].
//
// Zero values mean defaults: 1s base delay, 30s ceiling, ±10% jitter,
// 10 attempts. Set Jitter to a negative value to explicitly disable jitter.
type SessionConfig struct {
	// OrderID is the order to track. Required.
	OrderID string

	// BaseDelay is the initial wait between attempts.
	BaseDelay time.Duration

	// MaxDelay is the backoff ceiling.
	MaxDelay time.Duration

	// Jitter is the jitter fraction applied to each delay.
	Jitter float64

	// MaxAttempts is the request budget for the session.
	MaxAttempts int

	// FetchInvoice fetches the invoice URL once after a completed status.
	FetchInvoice bool

	// Observer, if set, is called after every status request from the
	// session's own goroutine. It must not block.
	Observer func(Observation)

	// Logger receives session events. Defaults to slog.Default().
	Logger *slog.Logger
}

// Session is one poll session for a single order: from the immediate first
// status request to exactly one terminal outcome.
//
// A session owns its attempt count and backoff schedule exclusively; it
// runs on a single goroutine and never shares mutable state with other
// sessions. Lifecycle methods (Start, Cancel) are safe for concurrent use.
type Session struct {
	id     string
	client *Client
	cfg    SessionConfig
	logger *slog.Logger

	mu      sync.Mutex
	state   State
	result  Result
	started bool

	abort     chan struct{}
	abortOnce sync.Once
	done      chan struct{}
	doneOnce  sync.Once
}

// NewSession creates a session for cfg.OrderID using the given client.
//
// The session does not issue any request until [Session.Start] is called.
// Returns an error if the client is nil or the order id is empty; an
// invalid order id that the server rejects surfaces later as a terminal
// fetch error, but an empty one is a caller bug caught up front.
func NewSession(client *Client, cfg SessionConfig) (*Session, error) {
	if client == nil {
		return nil, errors.New("client cannot be nil")
	}
	if cfg.OrderID == "" {
		return nil, errors.New("order id cannot be empty")
	}

	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaultMaxDelay
	}
	if cfg.Jitter == 0 {
		cfg.Jitter = defaultJitter
	} else if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		id:     uuid.NewString(),
		client: client,
		cfg:    cfg,
		logger: logger,
		state:  StateIdle,
		abort:  make(chan struct{}),
		done:   make(chan struct{}),
	}, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// OrderID returns the tracked order id.
func (s *Session) OrderID() string {
	return s.cfg.OrderID
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start launches the poll loop in a background goroutine and issues the
// first status request immediately.
//
// Start is non-blocking and idempotent; calls after the first are no-ops.
// If Cancel was called before Start, Start is a no-op and the session
// finishes aborted. Cancelling ctx aborts the session, including any
// in-flight request.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	select {
	case <-s.abort:
		// cancelled before it ever started
		s.finishLocked(Result{OrderID: s.cfg.OrderID, State: StateAborted})
		s.mu.Unlock()
		return
	default:
	}
	s.started = true
	s.state = StatePolling
	s.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	go s.run(ctx)
}

// Cancel marks the session aborted.
//
// No request scheduled after Cancel is issued. A request already in flight
// is allowed to resolve, but its result never triggers another attempt.
// Cancel is idempotent and a no-op on sessions that already terminated.
func (s *Session) Cancel() {
	s.abortOnce.Do(func() { close(s.abort) })

	// a session that was never started has no goroutine to finish it
	s.mu.Lock()
	if !s.started && !s.state.Terminal() {
		s.finishLocked(Result{OrderID: s.cfg.OrderID, State: StateAborted})
	}
	s.mu.Unlock()
}

// Done returns a channel that is closed when the session reaches a
// terminal state.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Result returns the terminal result. The boolean is false until the
// session has terminated.
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Terminal() {
		return Result{}, false
	}
	return s.result, true
}

// Wait blocks until the session terminates or ctx is cancelled.
func (s *Session) Wait(ctx context.Context) (Result, error) {
	select {
	case <-s.done:
		r, _ := s.Result()
		return r, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// run is the poll loop. It is the only writer of the session's terminal
// state and runs on its own goroutine.
func (s *Session) run(ctx context.Context) {
	backoff := NewBackoff(s.cfg.BaseDelay, s.cfg.MaxDelay, s.cfg.Jitter)

	var lastOrder *Order
	var lastStatus string
	attempts := 0

	for {
		if s.aborted() {
			s.finish(Result{OrderID: s.cfg.OrderID, State: StateAborted, Order: lastOrder})
			return
		}
		if ctx.Err() != nil {
			s.finish(Result{OrderID: s.cfg.OrderID, State: StateAborted, Order: lastOrder})
			return
		}

		attempts++
		start := time.Now()
		order, err := s.client.GetOrder(ctx, s.cfg.OrderID)
		obs := Observation{
			SessionID: s.id,
			OrderID:   s.cfg.OrderID,
			Attempt:   attempts,
			Latency:   time.Since(start),
			CheckedAt: time.Now(),
			Err:       err,
		}

		// a result that arrives after cancellation must not schedule
		// another attempt
		if s.aborted() || ctx.Err() != nil {
			s.finish(Result{OrderID: s.cfg.OrderID, State: StateAborted, Order: lastOrder})
			return
		}

		switch {
		case err == nil:
			obs.Status = order.Status
			obs.Order = &order

			// a status change means the server had something new to say;
			// poll faster again
			if lastStatus != "" && order.Status != lastStatus {
				backoff.Reset()
			}
			lastStatus = order.Status
			lastOrder = &order

			if isTerminalStatus(order.Status) {
				s.observe(obs)
				s.finishTerminalStatus(ctx, order)
				return
			}

			s.logger.Debug("order still in progress",
				"session_id", s.id,
				"order_id", s.cfg.OrderID,
				"status", order.Status,
				"attempt", attempts,
			)

		case !IsTransient(err):
			s.observe(obs)
			s.logger.Info("poll session failed",
				"session_id", s.id,
				"order_id", s.cfg.OrderID,
				"attempt", attempts,
				"error", err.Error(),
			)
			s.finish(Result{OrderID: s.cfg.OrderID, State: StateFailed, Order: lastOrder, Err: err})
			return

		default:
			// transient: keep polling within the budget
			s.logger.Warn("poll attempt failed",
				"session_id", s.id,
				"order_id", s.cfg.OrderID,
				"attempt", attempts,
				"error", err.Error(),
			)
		}

		if attempts >= s.cfg.MaxAttempts {
			s.observe(obs)
			s.logger.Info("poll session exhausted",
				"session_id", s.id,
				"order_id", s.cfg.OrderID,
				"attempts", attempts,
			)
			s.finish(Result{OrderID: s.cfg.OrderID, State: StateExhausted, Order: lastOrder, Err: ErrBudgetExhausted})
			return
		}

		delay := backoff.Next()
		obs.NextDelay = delay
		s.observe(obs)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-s.abort:
			timer.Stop()
			s.finish(Result{OrderID: s.cfg.OrderID, State: StateAborted, Order: lastOrder})
			return
		case <-ctx.Done():
			timer.Stop()
			s.finish(Result{OrderID: s.cfg.OrderID, State: StateAborted, Order: lastOrder})
			return
		}
	}
}

// finishTerminalStatus settles a session whose order reached completed or
// failed. For completed orders the invoice is fetched exactly once, if
// enabled; an invoice fetch failure does not demote the completed outcome.
func (s *Session) finishTerminalStatus(ctx context.Context, order Order) {
	result := Result{OrderID: s.cfg.OrderID, Order: &order}

	if order.Status == statusCompleted {
		result.State = StateCompleted
		if s.cfg.FetchInvoice {
			invoice, err := s.client.GetInvoice(ctx, s.cfg.OrderID)
			if err != nil {
				s.logger.Warn("invoice fetch failed",
					"session_id", s.id,
					"order_id", s.cfg.OrderID,
					"error", err.Error(),
				)
				result.Err = fmt.Errorf("invoice fetch failed: %w", err)
			} else {
				result.Invoice = &invoice
			}
		}
	} else {
		result.State = StateFailed
	}

	s.logger.Info("poll session finished",
		"session_id", s.id,
		"order_id", s.cfg.OrderID,
		"status", order.Status,
	)
	s.finish(result)
}

// aborted reports whether Cancel has been called.
func (s *Session) aborted() bool {
	select {
	case <-s.abort:
		return true
	default:
		return false
	}
}

// observe delivers an observation to the configured observer, if any.
func (s *Session) observe(obs Observation) {
	if s.cfg.Observer != nil {
		s.cfg.Observer(obs)
	}
}

// finish records the terminal result and closes Done. Repeated calls keep
// the first result: terminal states admit no further transitions.
func (s *Session) finish(result Result) {
	s.mu.Lock()
	s.finishLocked(result)
	s.mu.Unlock()
}

func (s *Session) finishLocked(result Result) {
	if s.state.Terminal() {
		return
	}
	s.state = result.State
	s.result = result
	s.doneOnce.Do(func() { close(s.done) })
}
