package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"
)

// mockOrder tracks the lifecycle of a single simulated order.
type mockOrder struct {
	statusIdx    int
	nextChangeAt time.Time
	createdAt    time.Time
}

// StartMockOrderService runs a mock Order Service for demos and manual CLI
// testing. Any order id is lazily created on first request and walks
// pending → processing → completed, advancing every 5-15 seconds. Ids
// starting with "missing" always return 404, and ids starting with "doomed"
// end in the failed status.
// Call this in a goroutine before creating a tracker.
func StartMockOrderService(addr string) {
	var (
		orders = make(map[string]*mockOrder)
		mu     sync.Mutex
	)
	progression := []string{"pending", "processing", "completed"}

	statusFor := func(orderID string) string {
		mu.Lock()
		defer mu.Unlock()

		order, exists := orders[orderID]
		if !exists {
			order = &mockOrder{
				statusIdx:    0,
				nextChangeAt: time.Now().Add(time.Duration(5+rand.Intn(11)) * time.Second),
				createdAt:    time.Now(),
			}
			orders[orderID] = order
		}

		// advance the lifecycle when the scheduled time is reached
		if order.statusIdx < len(progression)-1 && time.Now().After(order.nextChangeAt) {
			oldStatus := progression[order.statusIdx]
			order.statusIdx++
			order.nextChangeAt = time.Now().Add(time.Duration(5+rand.Intn(11)) * time.Second)
			slog.Info("order advanced", "order_id", orderID, "from", oldStatus, "to", progression[order.statusIdx])
		}

		status := progression[order.statusIdx]
		if status == "completed" && strings.HasPrefix(orderID, "doomed") {
			status = "failed"
		}
		return status
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/api/orders/", func(w http.ResponseWriter, r *http.Request) {
		orderID := strings.TrimPrefix(r.URL.Path, "/api/orders/")
		if orderID == "" || strings.HasPrefix(orderID, "missing") {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}

		// simulate small latency variance
		time.Sleep(time.Duration(20+rand.Intn(80)) * time.Millisecond)

		mu.Lock()
		createdAt := time.Now()
		if order, exists := orders[orderID]; exists {
			createdAt = order.createdAt
		}
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"order_id":     orderID,
			"status":       statusFor(orderID),
			"amount":       29.99,
			"service_name": "Celtic Cross Reading",
			"created_at":   createdAt.Format(time.RFC3339),
			"reader_name":  "Madame Zelda",
			"question":     "What does the year ahead hold?",
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	mux.HandleFunc("/api/payments/invoice/", func(w http.ResponseWriter, r *http.Request) {
		orderID := strings.TrimPrefix(r.URL.Path, "/api/payments/invoice/")
		if orderID == "" || statusFor(orderID) != "completed" {
			http.Error(w, "invoice not available", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]string{
			"signed_url": fmt.Sprintf("https://invoices.example.com/%s.pdf?expires=%d",
				orderID, time.Now().Add(15*time.Minute).Unix()),
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock server error", "error", err)
	}
}
