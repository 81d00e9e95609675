package orderpulse

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// trackerConfig holds mutable state during Tracker construction.
type trackerConfig struct {
	baseURL        string
	requestTimeout time.Duration
	baseDelay      time.Duration
	maxDelay       time.Duration
	jitter         float64
	jitterSet      bool
	maxAttempts    int
	fetchInvoice   bool
	headers        map[string]string
	rateLimit      float64
	rateBurst      int
	logger         *slog.Logger
	observers      []func(Observation)
}

// Option is a function that configures a [Tracker] instance during
// construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithBaseURL], [WithBaseDelay], [WithMaxDelay],
// [WithJitter], [WithMaxAttempts], [WithRequestTimeout], [WithHeaders],
// [WithRateLimit], [WithInvoiceFetch], [WithLogger], [WithObserver].
type Option func(*trackerConfig) error

// WithBaseURL sets the root URL of the Order Service. Required.
//
// Example:
//
//	tracker, err := orderpulse.New(
//	    orderpulse.WithBaseURL("https://api.example.com"),
//	)
func WithBaseURL(baseURL string) Option {
	return func(cfg *trackerConfig) error {
		if baseURL == "" {
			return errors.New("base URL cannot be empty")
		}
		cfg.baseURL = baseURL
		return nil
	}
}

// WithRequestTimeout sets the per-request HTTP timeout.
//
// Defaults to 10 seconds if not specified.
// Returns an error if the duration is zero or negative.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *trackerConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithBaseDelay sets the initial wait between poll attempts.
//
// The delay doubles after each attempt up to the ceiling set by
// [WithMaxDelay], and drops back to this base whenever the observed order
// status changes. Defaults to 1 second.
//
// Returns an error if the duration is zero or negative.
func WithBaseDelay(d time.Duration) Option {
	return func(cfg *trackerConfig) error {
		if d <= 0 {
			return errors.New("base delay must be positive")
		}
		cfg.baseDelay = d
		return nil
	}
}

// WithMaxDelay sets the backoff ceiling: the maximum wait between poll
// attempts, preventing unbounded growth for long-pending orders.
//
// Defaults to 30 seconds. Returns an error if the duration is zero or
// negative.
func WithMaxDelay(d time.Duration) Option {
	return func(cfg *trackerConfig) error {
		if d <= 0 {
			return errors.New("max delay must be positive")
		}
		cfg.maxDelay = d
		return nil
	}
}

// WithJitter sets the jitter fraction applied to each computed delay.
//
// Jitter desynchronizes concurrent clients so their requests do not arrive
// in lockstep. A fraction of 0.1 means each delay may deviate up to ±10%.
// Pass 0 to disable jitter entirely (useful for deterministic tests).
// Defaults to 0.1.
//
// Returns an error if the fraction is negative or greater than 1.
func WithJitter(fraction float64) Option {
	return func(cfg *trackerConfig) error {
		if fraction < 0 || fraction > 1 {
			return fmt.Errorf("jitter fraction must be in [0, 1], got %v", fraction)
		}
		cfg.jitter = fraction
		cfg.jitterSet = true
		return nil
	}
}

// WithMaxAttempts sets the request budget per poll session.
//
// Once the budget is exhausted, the session stops with [StateExhausted]
// rather than polling forever; the order may still complete later and can
// be observed with a fresh session. Defaults to 10.
//
// Returns an error if the value is zero or negative.
func WithMaxAttempts(n int) Option {
	return func(cfg *trackerConfig) error {
		if n <= 0 {
			return errors.New("max attempts must be positive")
		}
		cfg.maxAttempts = n
		return nil
	}
}

// WithInvoiceFetch controls whether the invoice URL is fetched once after
// an order completes.
//
// Enabled by default. The invoice endpoint is never called for orders that
// end in any state other than completed.
func WithInvoiceFetch(enabled bool) Option {
	return func(cfg *trackerConfig) error {
		cfg.fetchInvoice = enabled
		return nil
	}
}

// WithHeaders adds HTTP headers sent with every request to the Order
// Service (e.g. an Authorization header). Values are passed through
// opaque.
//
// Accepts variadic key-value pairs. The number of arguments must be even.
//
// Example:
//
//	tracker, err := orderpulse.New(
//	    orderpulse.WithBaseURL(url),
//	    orderpulse.WithHeaders("Authorization", "Bearer token123"),
//	)
//
// Returns an error if an odd number of arguments is provided.
func WithHeaders(keyValues ...string) Option {
	return func(cfg *trackerConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithRateLimit caps the sustained request rate against the Order Service,
// shared across all sessions of this tracker.
//
// Use this when tracking many orders at once so the combined sessions
// cannot stampede the service. Disabled by default.
//
// Returns an error if the rate is negative or the burst is negative.
func WithRateLimit(requestsPerSecond float64, burst int) Option {
	return func(cfg *trackerConfig) error {
		if requestsPerSecond < 0 {
			return errors.New("rate limit cannot be negative")
		}
		if burst < 0 {
			return errors.New("rate burst cannot be negative")
		}
		cfg.rateLimit = requestsPerSecond
		cfg.rateBurst = burst
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the tracker and its sessions.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *trackerConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithObserver registers a function called after every status request any
// session of this tracker issues.
//
// The callback receives an [Observation] with the attempt number, observed
// status, full order document, latency, and any request error. Multiple
// observers may be registered by calling WithObserver multiple times; they
// execute in registration order.
//
// IMPORTANT: Observers must be non-blocking. They run on the session's
// polling goroutine, so a blocking observer delays the session's own
// schedule. Panics within observers are recovered and logged; they do not
// crash the session.
//
// Nil observers are silently ignored.
func WithObserver(fn func(Observation)) Option {
	return func(cfg *trackerConfig) error {
		if fn == nil {
			return nil // no-op for nil observer (safe to call)
		}
		cfg.observers = append(cfg.observers, fn)
		return nil
	}
}
