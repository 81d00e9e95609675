package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/orderpulse"
	"github.com/jpalmerr/orderpulse/config"
)

// statusCmd fetches an order's status once, without polling.
var statusCmd = &cobra.Command{
	Use:   "status <order-id>",
	Short: "Fetch an order's current status once",
	Long: `Fetch the current status of a single order from the Order Service.

Unlike watch, this issues exactly one request and reports whatever the
service says right now. No invoice is fetched.

Example:
  orderpulse status abc123 --base-url https://api.example.com
  orderpulse status abc123 -c config.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	addClientFlags(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// a single-attempt session with no invoice fetch is a one-shot lookup
	opts := append(config.BuildOptions(cfg),
		orderpulse.WithLogger(logger),
		orderpulse.WithMaxAttempts(1),
		orderpulse.WithInvoiceFetch(false),
	)
	tracker, err := orderpulse.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create tracker: %w", err)
	}
	defer tracker.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session, err := tracker.Track(ctx, args[0])
	if err != nil {
		return err
	}

	result, err := session.Wait(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if result.Order != nil {
		fmt.Fprintf(out, "%s: %s\n", result.OrderID, result.Order.Status)
		if result.Order.ServiceName != "" {
			fmt.Fprintf(out, "  service: %s\n", result.Order.ServiceName)
		}
		if result.Order.ReaderName != "" {
			fmt.Fprintf(out, "  reader:  %s\n", result.Order.ReaderName)
		}
		return nil
	}

	if errors.Is(result.Err, orderpulse.ErrOrderNotFound) {
		return fmt.Errorf("order %s not found", result.OrderID)
	}
	return fmt.Errorf("could not fetch order %s: %w", result.OrderID, result.Err)
}
