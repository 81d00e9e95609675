package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/orderpulse"
	"github.com/jpalmerr/orderpulse/config"
	"github.com/jpalmerr/orderpulse/internal/server"
	"github.com/jpalmerr/orderpulse/internal/store"
)

// serveCmd tracks the configured orders and serves the status API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Track configured orders and serve the status API",
	Long: `Track every order listed in the config file and expose the latest
observations over HTTP:

  GET /api/orders            all tracked orders as JSON
  GET /api/orders/{id}       one tracked order as JSON
  GET /api/events            Server-Sent Events stream of updates

The server keeps running after all sessions settle, so late clients can
still read the final states. It runs until interrupted (Ctrl+C) or
SIGTERM.

Example:
  orderpulse serve -c config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addClientFlags(serveCmd)
	serveCmd.Flags().Int("port", 0, "status API port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Port = port
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if len(cfg.Orders) == 0 {
		return errors.New("no orders to track (set 'orders' in the config)")
	}

	st := store.NewMemoryStore()

	opts := append(config.BuildOptions(cfg),
		orderpulse.WithLogger(logger),
		orderpulse.WithObserver(func(obs orderpulse.Observation) {
			st.Update(observationToStore(obs, string(orderpulse.StatePolling)))
		}),
	)
	tracker, err := orderpulse.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create tracker: %w", err)
	}
	defer tracker.Close()

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := server.NewServer(st, cfg.Port, logger)
	if err := httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start status API: %w", err)
	}

	logger.Info("status API available", "url", fmt.Sprintf("http://localhost:%d", cfg.Port))
	logger.Info("tracking orders", "count", len(cfg.Orders))

	// sessions run in the background; the server outlives them so late
	// clients can still read the final states
	go func() {
		results, err := tracker.TrackAll(ctx, cfg.Orders...)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("tracking failed", "error", err)
			}
			return
		}
		for _, result := range results {
			st.Update(resultToStore(result))
			logger.Info("order settled",
				"order_id", result.OrderID,
				"state", result.State.String(),
			)
		}
	}()

	<-ctx.Done()
	logger.Info("orderpulse stopped")
	return nil
}

// observationToStore converts a public observation to the storage type.
func observationToStore(obs orderpulse.Observation, sessionState string) store.Observation {
	var errStr *string
	if obs.Err != nil {
		s := obs.Err.Error()
		errStr = &s
	}

	return store.Observation{
		OrderID:      obs.OrderID,
		SessionID:    obs.SessionID,
		Status:       obs.Status.String(),
		SessionState: sessionState,
		Attempt:      obs.Attempt,
		LatencyMs:    obs.Latency.Milliseconds(),
		CheckedAt:    obs.CheckedAt,
		Error:        errStr,
	}
}

// resultToStore converts a terminal session result to the storage type.
func resultToStore(result orderpulse.Result) store.Observation {
	var errStr *string
	if result.Err != nil {
		s := result.Err.Error()
		errStr = &s
	}

	status := ""
	if result.Order != nil {
		status = result.Order.Status.String()
	}

	return store.Observation{
		OrderID:      result.OrderID,
		Status:       status,
		SessionState: result.State.String(),
		CheckedAt:    time.Now(),
		Error:        errStr,
	}
}
