package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/orderpulse"
)

func main() {
	// start mock Order Service (see mock_server.go)
	go StartMockOrderService(":9999")
	time.Sleep(100 * time.Millisecond)

	tracker, err := orderpulse.New(
		orderpulse.WithBaseURL("http://localhost:9999"),
		orderpulse.WithBaseDelay(1*time.Second),
		orderpulse.WithMaxDelay(8*time.Second),
		orderpulse.WithMaxAttempts(30),
		orderpulse.WithObserver(func(obs orderpulse.Observation) {
			slog.Info("observed",
				"order_id", obs.OrderID,
				"status", obs.Status.String(),
				"attempt", obs.Attempt,
				"next_delay", obs.NextDelay.String(),
			)
		}),
	)
	if err != nil {
		slog.Error("failed to create tracker", "error", err)
		os.Exit(1)
	}
	defer tracker.Close()

	fmt.Println()
	fmt.Println("  OrderPulse Demo")
	fmt.Println("  Tracking three orders against a mock Order Service:")
	fmt.Println("  • tarot-1001   completes after a couple of transitions")
	fmt.Println("  • doomed-42    ends in the failed status")
	fmt.Println("  • missing-7    rejected with 404, zero retries")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results, err := tracker.TrackAll(ctx, "tarot-1001", "doomed-42", "missing-7")
	if err != nil {
		slog.Error("tracking error", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	for _, result := range results {
		switch result.State {
		case orderpulse.StateCompleted:
			fmt.Printf("  %s completed", result.OrderID)
			if result.Invoice != nil {
				fmt.Printf(" — invoice at %s", result.Invoice.SignedURL)
			}
			fmt.Println()
		case orderpulse.StateExhausted:
			fmt.Printf("  %s still processing, check back later\n", result.OrderID)
		default:
			fmt.Printf("  %s %s: %v\n", result.OrderID, result.State, result.Err)
		}
	}
}
