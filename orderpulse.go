package orderpulse

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/orderpulse/internal/poller"
)

const (
	defaultBaseDelay   = 1 * time.Second
	defaultMaxDelay    = 30 * time.Second
	defaultJitter      = 0.1
	defaultMaxAttempts = 10
)

// Sentinel errors surfaced in [Result.Err]. Check with [errors.Is].
var (
	// ErrOrderNotFound reports that the Order Service does not know the
	// requested order id. Sessions stop immediately on it, with zero
	// retries.
	ErrOrderNotFound = poller.ErrOrderNotFound

	// ErrBudgetExhausted reports that a session used up its attempt budget
	// while the order was still in progress. It means "still processing,
	// check back later", not a hard failure; observe again with a fresh
	// session.
	ErrBudgetExhausted = poller.ErrBudgetExhausted
)

// Tracker creates and coordinates order poll sessions.
//
// A Tracker owns one HTTP client for the Order Service and hands out one
// [Session] per tracked order. Sessions are independent: each owns its
// attempt count, backoff schedule, and aborted flag exclusively, so any
// number of them may run concurrently without shared mutable state. The
// only thing sessions share is the tracker's client (and its optional rate
// limiter).
//
// The typical lifecycle is:
//
//	tracker, err := orderpulse.New(orderpulse.WithBaseURL(url))
//	if err != nil {
//	    slog.Error("failed to create tracker", "error", err)
//	    os.Exit(1)
//	}
//	defer tracker.Close()
//
//	session, err := tracker.Track(ctx, "abc123")
//	if err != nil {
//	    return err
//	}
//	defer session.Cancel()
//
//	result, err := session.Wait(ctx)
type Tracker struct {
	client       *poller.Client
	baseDelay    time.Duration
	maxDelay     time.Duration
	jitter       float64
	maxAttempts  int
	fetchInvoice bool
	logger       *slog.Logger
	observers    []func(Observation)

	mu      sync.Mutex
	lastObs map[string]Observation
}

// New creates a new [Tracker] with the given options.
//
// A base URL must be configured via [WithBaseURL]. Other options have
// sensible defaults:
//   - Base delay: 1 second
//   - Max delay (backoff ceiling): 30 seconds
//   - Jitter: ±10%
//   - Attempt budget: 10 requests per session
//   - Invoice fetch: enabled
//
// Returns an error if the base URL is missing or any option is invalid.
func New(opts ...Option) (*Tracker, error) {
	cfg := &trackerConfig{
		baseDelay:    defaultBaseDelay,
		maxDelay:     defaultMaxDelay,
		jitter:       defaultJitter,
		maxAttempts:  defaultMaxAttempts,
		fetchInvoice: true,
		headers:      make(map[string]string),
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.baseURL == "" {
		return nil, errors.New("a base URL is required (use WithBaseURL)")
	}
	if cfg.maxDelay < cfg.baseDelay {
		return nil, errors.New("max delay cannot be smaller than base delay")
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	client, err := poller.NewClient(poller.ClientConfig{
		BaseURL:   cfg.baseURL,
		Timeout:   cfg.requestTimeout,
		Headers:   cfg.headers,
		RateLimit: cfg.rateLimit,
		RateBurst: cfg.rateBurst,
	})
	if err != nil {
		return nil, err
	}

	jitter := cfg.jitter
	if cfg.jitterSet && jitter == 0 {
		// the session layer reads 0 as "use the default"; a negative
		// value is its explicit off switch
		jitter = -1
	}

	return &Tracker{
		client:       client,
		baseDelay:    cfg.baseDelay,
		maxDelay:     cfg.maxDelay,
		jitter:       jitter,
		maxAttempts:  cfg.maxAttempts,
		fetchInvoice: cfg.fetchInvoice,
		logger:       logger,
		observers:    cfg.observers,
		lastObs:      make(map[string]Observation),
	}, nil
}

// Track starts a poll session for orderID and returns its handle.
//
// The first status request is issued immediately; subsequent requests
// follow the backoff schedule until the order reaches a terminal status,
// the session is cancelled, the attempt budget runs out, or ctx is
// cancelled. Track does not block.
//
// Tracking the same order id twice creates two independent sessions; the
// Order Service sees twice the requests, so callers normally cancel one.
func (t *Tracker) Track(ctx context.Context, orderID string) (*Session, error) {
	inner, err := poller.NewSession(t.client, poller.SessionConfig{
		OrderID:      orderID,
		BaseDelay:    t.baseDelay,
		MaxDelay:     t.maxDelay,
		Jitter:       t.jitter,
		MaxAttempts:  t.maxAttempts,
		FetchInvoice: t.fetchInvoice,
		Observer:     t.handleObservation,
		Logger:       t.logger,
	})
	if err != nil {
		return nil, err
	}

	inner.Start(ctx)
	return &Session{inner: inner}, nil
}

// TrackAll polls several orders concurrently and blocks until every
// session has terminated or ctx is cancelled.
//
// Results are returned in the same order as the ids. Individual order
// outcomes (failed, not found, exhausted) are reported in their [Result],
// not as an error; TrackAll itself only fails on invalid input or context
// cancellation.
func (t *Tracker) TrackAll(ctx context.Context, orderIDs ...string) ([]Result, error) {
	if len(orderIDs) == 0 {
		return nil, errors.New("at least one order id is required")
	}

	g, ctx := errgroup.WithContext(ctx)
	results := make([]Result, len(orderIDs))

	for i, orderID := range orderIDs {
		g.Go(func() error {
			session, err := t.Track(ctx, orderID)
			if err != nil {
				return err
			}
			result, err := session.Wait(ctx)
			if err != nil {
				session.Cancel()
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Last returns the most recent observation for an order id, if the tracker
// has issued at least one request for it.
func (t *Tracker) Last(orderID string) (Observation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	obs, ok := t.lastObs[orderID]
	return obs, ok
}

// Snapshot returns the latest observation for every order this tracker has
// polled. The returned slice is a copy; order is not guaranteed.
func (t *Tracker) Snapshot() []Observation {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot := make([]Observation, 0, len(t.lastObs))
	for _, obs := range t.lastObs {
		snapshot = append(snapshot, obs)
	}
	return snapshot
}

// Close releases idle connections held by the tracker's HTTP client.
//
// Sessions still running remain usable; new connections are established as
// needed. Safe to call multiple times.
func (t *Tracker) Close() {
	t.client.Close()
}

// handleObservation records the observation and fans it out to registered
// observers. It runs on the emitting session's goroutine.
func (t *Tracker) handleObservation(po poller.Observation) {
	obs := pollerObservationToPublic(po)

	// record first, observers fire after the data is visible via Last
	t.mu.Lock()
	t.lastObs[obs.OrderID] = obs
	t.mu.Unlock()

	for _, observer := range t.observers {
		invokeObserverSafe(observer, obs, t.logger)
	}
}

// invokeObserverSafe calls an observer with panic recovery.
// Panics are logged with a correlation id but do not propagate.
func invokeObserverSafe(fn func(Observation), obs Observation, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			logger.Error("observer panicked",
				"correlation_id", correlationID,
				"panic", r,
				"order_id", obs.OrderID,
			)
		}
	}()
	fn(obs)
}

// pollerOrderToPublic converts an internal order document to the public type.
func pollerOrderToPublic(po *poller.Order) *Order {
	if po == nil {
		return nil
	}
	return &Order{
		OrderID:     po.OrderID,
		Status:      ParseStatus(po.Status),
		Amount:      po.Amount,
		ServiceName: po.ServiceName,
		CreatedAt:   po.CreatedAt,
		ReaderName:  po.ReaderName,
		Question:    po.Question,
	}
}

// pollerObservationToPublic converts an internal observation to the public
// API type.
func pollerObservationToPublic(po poller.Observation) Observation {
	return Observation{
		SessionID: po.SessionID,
		OrderID:   po.OrderID,
		Attempt:   po.Attempt,
		Status:    ParseStatus(po.Status),
		Order:     pollerOrderToPublic(po.Order),
		Latency:   po.Latency,
		CheckedAt: po.CheckedAt,
		Err:       po.Err,
		NextDelay: po.NextDelay,
	}
}

// pollerResultToPublic converts an internal session result to the public
// API type.
func pollerResultToPublic(pr poller.Result) Result {
	result := Result{
		OrderID: pr.OrderID,
		State:   State(pr.State),
		Order:   pollerOrderToPublic(pr.Order),
		Err:     pr.Err,
	}
	if pr.Invoice != nil {
		result.Invoice = &Invoice{SignedURL: pr.Invoice.SignedURL}
	}
	return result
}
