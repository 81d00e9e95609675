package orderpulse

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newOrderService starts a mock Order Service where each order id maps to a
// fixed sequence of statuses, one per request, repeating the last entry.
// Ids absent from the map return 404. The invoice endpoint serves every id.
func newOrderService(t *testing.T, scripts map[string][]string) *httptest.Server {
	t.Helper()

	var mu sync.Mutex
	served := make(map[string]int)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/orders/", func(w http.ResponseWriter, r *http.Request) {
		orderID := strings.TrimPrefix(r.URL.Path, "/api/orders/")
		script, ok := scripts[orderID]
		if !ok {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}

		mu.Lock()
		n := served[orderID]
		served[orderID]++
		mu.Unlock()
		if n >= len(script) {
			n = len(script) - 1
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"order_id":     orderID,
			"status":       script[n],
			"amount":       29.99,
			"service_name": "Celtic Cross Reading",
			"reader_name":  "Madame Zelda",
		})
	})
	mux.HandleFunc("/api/payments/invoice/", func(w http.ResponseWriter, r *http.Request) {
		orderID := strings.TrimPrefix(r.URL.Path, "/api/payments/invoice/")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"signed_url": "https://invoices.example.com/" + orderID + ".pdf",
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// newTestTracker builds a tracker with fast, jitter-free test timings.
func newTestTracker(t *testing.T, baseURL string, extra ...Option) *Tracker {
	t.Helper()

	opts := append([]Option{
		WithBaseURL(baseURL),
		WithBaseDelay(10 * time.Millisecond),
		WithMaxDelay(50 * time.Millisecond),
		WithJitter(0),
		WithMaxAttempts(10),
		WithLogger(testLogger()),
	}, extra...)

	tracker, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(tracker.Close)
	return tracker
}

func TestTracker_Track_Completed(t *testing.T) {
	service := newOrderService(t, map[string][]string{
		"abc123": {"pending", "processing", "completed"},
	})
	tracker := newTestTracker(t, service.URL)

	session, err := tracker.Track(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}

	result, err := session.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	if result.State != StateCompleted {
		t.Errorf("State = %v, want %v", result.State, StateCompleted)
	}
	if result.OrderID != "abc123" {
		t.Errorf("OrderID = %q, want %q", result.OrderID, "abc123")
	}
	if result.Order == nil || result.Order.Status != StatusCompleted {
		t.Errorf("Order = %+v, want completed document", result.Order)
	}
	if result.Invoice == nil || result.Invoice.SignedURL == "" {
		t.Errorf("Invoice = %+v, want signed URL", result.Invoice)
	}
	if result.Err != nil {
		t.Errorf("Err = %v, want nil", result.Err)
	}
}

func TestTracker_Track_EmptyID(t *testing.T) {
	service := newOrderService(t, nil)
	tracker := newTestTracker(t, service.URL)

	if _, err := tracker.Track(context.Background(), ""); err == nil {
		t.Error("Track(\"\") expected error, got nil")
	}
}

func TestTracker_Track_NotFound(t *testing.T) {
	service := newOrderService(t, nil)
	tracker := newTestTracker(t, service.URL)

	session, err := tracker.Track(context.Background(), "ghost-order")
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}

	result, err := session.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	if result.State != StateFailed {
		t.Errorf("State = %v, want %v", result.State, StateFailed)
	}
	if !errors.Is(result.Err, ErrOrderNotFound) {
		t.Errorf("Err = %v, want ErrOrderNotFound", result.Err)
	}
}

func TestTracker_Track_Exhausted(t *testing.T) {
	service := newOrderService(t, map[string][]string{
		"slow-order": {"pending"},
	})
	tracker := newTestTracker(t, service.URL, WithMaxAttempts(3))

	session, err := tracker.Track(context.Background(), "slow-order")
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}

	result, err := session.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	if result.State != StateExhausted {
		t.Errorf("State = %v, want %v", result.State, StateExhausted)
	}
	if !errors.Is(result.Err, ErrBudgetExhausted) {
		t.Errorf("Err = %v, want ErrBudgetExhausted", result.Err)
	}
	// the last observed document is still reported so callers can show
	// "still processing" with context
	if result.Order == nil || result.Order.Status != StatusPending {
		t.Errorf("Order = %+v, want last pending document", result.Order)
	}
}

func TestTracker_TrackAll_MixedOutcomes(t *testing.T) {
	service := newOrderService(t, map[string][]string{
		"winner": {"pending", "completed"},
		"loser":  {"processing", "failed"},
	})
	tracker := newTestTracker(t, service.URL)

	results, err := tracker.TrackAll(context.Background(), "winner", "loser", "ghost")
	if err != nil {
		t.Fatalf("TrackAll() error = %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("TrackAll() = %d results, want 3", len(results))
	}

	// results come back in input order
	if results[0].OrderID != "winner" || results[0].State != StateCompleted {
		t.Errorf("results[0] = %s/%v, want winner/%v", results[0].OrderID, results[0].State, StateCompleted)
	}
	if results[1].OrderID != "loser" || results[1].State != StateFailed {
		t.Errorf("results[1] = %s/%v, want loser/%v", results[1].OrderID, results[1].State, StateFailed)
	}
	if results[2].State != StateFailed || !errors.Is(results[2].Err, ErrOrderNotFound) {
		t.Errorf("results[2] = %v/%v, want failed/not found", results[2].State, results[2].Err)
	}
}

func TestTracker_TrackAll_NoIDs(t *testing.T) {
	service := newOrderService(t, nil)
	tracker := newTestTracker(t, service.URL)

	if _, err := tracker.TrackAll(context.Background()); err == nil {
		t.Error("TrackAll() with no ids expected error, got nil")
	}
}

func TestTracker_TrackAll_ContextCancelled(t *testing.T) {
	service := newOrderService(t, map[string][]string{
		"slow-order": {"pending"},
	})
	tracker := newTestTracker(t, service.URL,
		WithBaseDelay(time.Minute), WithMaxDelay(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	if _, err := tracker.TrackAll(ctx, "slow-order"); err == nil {
		t.Error("TrackAll() with cancelled context expected error, got nil")
	}
}

func TestTracker_ObserverReceivesObservations(t *testing.T) {
	service := newOrderService(t, map[string][]string{
		"abc123": {"pending", "completed"},
	})

	var mu sync.Mutex
	var observations []Observation
	tracker := newTestTracker(t, service.URL, WithObserver(func(obs Observation) {
		mu.Lock()
		observations = append(observations, obs)
		mu.Unlock()
	}))

	session, err := tracker.Track(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	if _, err := session.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	if len(observations) != 2 {
		t.Fatalf("observations = %d, want 2", len(observations))
	}
	if observations[0].Status != StatusPending {
		t.Errorf("first Status = %q, want %q", observations[0].Status, StatusPending)
	}
	if observations[1].Status != StatusCompleted {
		t.Errorf("second Status = %q, want %q", observations[1].Status, StatusCompleted)
	}
	if observations[0].Attempt != 1 || observations[1].Attempt != 2 {
		t.Errorf("attempts = %d, %d, want 1, 2", observations[0].Attempt, observations[1].Attempt)
	}
}

func TestTracker_ObserverPanicDoesNotCrashSession(t *testing.T) {
	service := newOrderService(t, map[string][]string{
		"abc123": {"completed"},
	})
	tracker := newTestTracker(t, service.URL, WithObserver(func(obs Observation) {
		panic("observer exploded")
	}))

	session, err := tracker.Track(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}

	result, err := session.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if result.State != StateCompleted {
		t.Errorf("State = %v, want %v despite panicking observer", result.State, StateCompleted)
	}
}

func TestTracker_MultipleObserversInOrder(t *testing.T) {
	service := newOrderService(t, map[string][]string{
		"abc123": {"completed"},
	})

	var mu sync.Mutex
	var calls []string
	tracker := newTestTracker(t, service.URL,
		WithObserver(func(obs Observation) {
			mu.Lock()
			calls = append(calls, "first")
			mu.Unlock()
		}),
		WithObserver(func(obs Observation) {
			mu.Lock()
			calls = append(calls, "second")
			mu.Unlock()
		}),
	)

	session, err := tracker.Track(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	if _, err := session.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("observer calls = %v, want [first second]", calls)
	}
}

func TestTracker_LastAndSnapshot(t *testing.T) {
	service := newOrderService(t, map[string][]string{
		"order-1": {"completed"},
		"order-2": {"failed"},
	})
	tracker := newTestTracker(t, service.URL)

	if _, err := tracker.TrackAll(context.Background(), "order-1", "order-2"); err != nil {
		t.Fatalf("TrackAll() error = %v", err)
	}

	obs, ok := tracker.Last("order-1")
	if !ok {
		t.Fatal("Last(order-1) ok = false, want true")
	}
	if obs.Status != StatusCompleted {
		t.Errorf("Last(order-1).Status = %q, want %q", obs.Status, StatusCompleted)
	}

	if _, ok := tracker.Last("never-tracked"); ok {
		t.Error("Last(never-tracked) ok = true, want false")
	}

	snapshot := tracker.Snapshot()
	if len(snapshot) != 2 {
		t.Errorf("Snapshot() = %d entries, want 2", len(snapshot))
	}
}

func TestSession_CancelViaHandle(t *testing.T) {
	service := newOrderService(t, map[string][]string{
		"slow-order": {"pending"},
	})
	tracker := newTestTracker(t, service.URL,
		WithBaseDelay(time.Minute), WithMaxDelay(time.Minute))

	session, err := tracker.Track(context.Background(), "slow-order")
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}

	// let the first request land, then cancel during the wait
	time.Sleep(100 * time.Millisecond)
	session.Cancel()

	result, err := session.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if result.State != StateAborted {
		t.Errorf("State = %v, want %v", result.State, StateAborted)
	}
	if session.OrderID() != "slow-order" {
		t.Errorf("OrderID() = %q, want %q", session.OrderID(), "slow-order")
	}
}

func TestSession_WaitRespectsContext(t *testing.T) {
	service := newOrderService(t, map[string][]string{
		"slow-order": {"pending"},
	})
	tracker := newTestTracker(t, service.URL,
		WithBaseDelay(time.Minute), WithMaxDelay(time.Minute))

	session, err := tracker.Track(context.Background(), "slow-order")
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	defer session.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// Wait gives up, but the session keeps polling
	if _, err := session.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want context.DeadlineExceeded", err)
	}
	if session.State().Terminal() {
		t.Error("session terminated by Wait context, want still polling")
	}
}
