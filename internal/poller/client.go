package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits to prevent resource exhaustion when many poll
// sessions share one client
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 10
	defaultIdleConnTimeout     = 60 * time.Second // conservative: matches common ALB defaults
)

// ErrOrderNotFound reports that the Order Service does not know the
// requested order id. It is a terminal error: retrying cannot succeed.
var ErrOrderNotFound = errors.New("order not found")

// StatusError is returned when the Order Service responds with a non-2xx
// status code that is not a plain not-found.
type StatusError struct {
	// Code is the HTTP status code of the response.
	Code int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("order service returned status %d", e.Code)
}

// Transient reports whether the error class is worth retrying.
// 5xx responses are transient; definitive 4xx responses are not.
func (e *StatusError) Transient() bool {
	return e.Code >= 500
}

// IsTransient classifies an error as retryable.
//
// Network failures and 5xx responses are transient: the session keeps
// polling within its attempt budget. Not-found and other definitive 4xx
// responses are terminal and stop the session immediately.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrOrderNotFound) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Transient()
	}
	// anything else (connection refused, timeout, DNS failure) is a
	// transport-level problem worth retrying
	return true
}

// ClientConfig holds the construction parameters for [Client].
type ClientConfig struct {
	// BaseURL is the root of the Order Service, e.g. "https://api.example.com".
	BaseURL string

	// Timeout is the per-request timeout. Zero means 10 seconds.
	Timeout time.Duration

	// Headers are sent with every request (e.g. an Authorization header).
	// Values are passed through opaque.
	Headers map[string]string

	// RateLimit is the maximum sustained request rate in requests per
	// second, shared across all sessions using this client. Zero disables
	// client-side rate limiting.
	RateLimit float64

	// RateBurst is the burst size for the rate limiter. Only meaningful
	// when RateLimit is set; zero defaults to 1.
	RateBurst int
}

const defaultRequestTimeout = 10 * time.Second

// Client is the HTTP client for the Order Service.
//
// Client is read-only with respect to the service: it issues GET requests
// for order documents and invoice URLs and never mutates server state.
// Response bodies are limited to 1MB. A single Client is safe for
// concurrent use and is shared by all poll sessions of a tracker, so the
// optional rate limiter caps the combined request rate of every session.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	headers    map[string]string
	limiter    *rate.Limiter
}

// NewClient creates a Client for the Order Service at baseURL.
//
// Returns an error if the base URL is empty or unparseable. The client is
// configured with connection pooling limits; timeouts are applied
// per-request via context rather than as a global client timeout.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL cannot be empty")
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("base URL scheme must be http or https, got %q", parsed.Scheme)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	return &Client{
		httpClient: &http.Client{
			// no default timeout - we use per-request timeouts via context
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
				DisableKeepAlives:   false, // explicitly enable connection reuse
			},
		},
		baseURL: parsed.String(),
		timeout: timeout,
		headers: headers,
		limiter: limiter,
	}, nil
}

// GetOrder fetches the current order document for orderID.
//
// The returned error classifies the failure: [ErrOrderNotFound] for a 404,
// a [StatusError] for other non-2xx responses, and transport errors
// otherwise. Use [IsTransient] to decide whether a retry can help.
func (c *Client) GetOrder(ctx context.Context, orderID string) (Order, error) {
	var order Order
	if orderID == "" {
		return order, fmt.Errorf("%w: empty order id", ErrOrderNotFound)
	}

	body, err := c.get(ctx, c.baseURL+"/api/orders/"+url.PathEscape(orderID))
	if err != nil {
		return order, err
	}

	if err := json.Unmarshal(body, &order); err != nil {
		return order, fmt.Errorf("failed to decode order response: %w", err)
	}
	return order, nil
}

// GetInvoice fetches the short-lived signed invoice URL for orderID.
//
// The Order Service only generates invoices for completed orders; callers
// fetch this once, after observing the completed status. The signed URL
// expires quickly, so it should be used promptly rather than stored.
func (c *Client) GetInvoice(ctx context.Context, orderID string) (Invoice, error) {
	var invoice Invoice
	if orderID == "" {
		return invoice, fmt.Errorf("%w: empty order id", ErrOrderNotFound)
	}

	body, err := c.get(ctx, c.baseURL+"/api/payments/invoice/"+url.PathEscape(orderID))
	if err != nil {
		return invoice, err
	}

	if err := json.Unmarshal(body, &invoice); err != nil {
		return invoice, fmt.Errorf("failed to decode invoice response: %w", err)
	}
	return invoice, nil
}

// get performs a rate-limited GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// read body with size limit
	limitedReader := io.LimitReader(resp.Body, maxResponseBodySize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrOrderNotFound
	default:
		return nil, &StatusError{Code: resp.StatusCode}
	}
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times. After Close, the client remains usable but
// new connections will be established as needed.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
