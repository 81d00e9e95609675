// Standalone mock Order Service for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockorders
//
// Then in another terminal:
//
//	go run ./cmd/orderpulse watch tarot-1001 --base-url http://localhost:9999
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
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

func main() {
	fmt.Println("Mock Order Service starting on :9999")
	fmt.Println("Orders walk: pending → processing → completed")
	fmt.Println("Ids starting with 'missing' return 404; 'doomed' ids end failed")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

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
				nextChangeAt: time.Now().Add(time.Duration(5+rand.Intn(11)) * time.Second),
				createdAt:    time.Now(),
			}
			orders[orderID] = order
		}

		if order.statusIdx < len(progression)-1 && time.Now().After(order.nextChangeAt) {
			order.statusIdx++
			order.nextChangeAt = time.Now().Add(time.Duration(5+rand.Intn(11)) * time.Second)
			slog.Info("order advanced", "order_id", orderID, "status", progression[order.statusIdx])
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

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"order_id":     orderID,
			"status":       statusFor(orderID),
			"amount":       29.99,
			"service_name": "Celtic Cross Reading",
			"created_at":   time.Now().Format(time.RFC3339),
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

	if err := http.ListenAndServe(":9999", mux); err != nil {
		slog.Error("mock server error", "error", err)
		os.Exit(1)
	}
}
