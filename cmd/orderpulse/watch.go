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
)

// watchCmd polls one or more orders until every session terminates.
var watchCmd = &cobra.Command{
	Use:   "watch [order-id...]",
	Short: "Poll orders until they reach a terminal state",
	Long: `Poll the Order Service for one or more orders until each reaches a
terminal state (completed or failed), the attempt budget runs out, or the
command is interrupted.

Order ids come from the arguments, or from the 'orders' list in the config
file when no arguments are given. For completed orders the short-lived
signed invoice URL is printed.

Exit codes:
  0 - every order completed
  1 - at least one order failed, was not found, or is still pending

Example:
  orderpulse watch abc123 --base-url https://api.example.com
  orderpulse watch abc123 def456 -c config.yaml
  orderpulse watch -c config.yaml`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addClientFlags(watchCmd)
}

// addClientFlags registers the Order Service connection flags shared by
// the watch, status, and serve commands.
func addClientFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "path to config file")
	cmd.Flags().String("base-url", "", "Order Service base URL (overrides config)")
	cmd.Flags().Duration("timeout", 0, "per-request timeout (overrides config)")
	cmd.Flags().Duration("base-delay", 0, "initial wait between attempts (overrides config)")
	cmd.Flags().Duration("max-delay", 0, "backoff ceiling (overrides config)")
	cmd.Flags().Int("max-attempts", 0, "request budget per order (overrides config)")
	cmd.Flags().Bool("no-invoice", false, "skip fetching the invoice URL for completed orders")
}

// loadConfig loads the config file if one was given and applies flag
// overrides on top. A missing config file with a --base-url flag still
// yields a usable config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config

	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = &config.Config{}
	}

	if baseURL, _ := cmd.Flags().GetString("base-url"); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("a base URL is required (--base-url or base_url in config)")
	}

	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		cfg.RequestTimeout = config.Duration(timeout)
	}
	if baseDelay, _ := cmd.Flags().GetDuration("base-delay"); baseDelay > 0 {
		cfg.BaseDelay = config.Duration(baseDelay)
	}
	if maxDelay, _ := cmd.Flags().GetDuration("max-delay"); maxDelay > 0 {
		cfg.MaxDelay = config.Duration(maxDelay)
	}
	if maxAttempts, _ := cmd.Flags().GetInt("max-attempts"); maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}
	if noInvoice, _ := cmd.Flags().GetBool("no-invoice"); noInvoice {
		disabled := false
		cfg.FetchInvoice = &disabled
	}

	// defaults for the flag-only path; config files get these from Parse
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = config.Duration(10 * time.Second)
	}
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = config.Duration(1 * time.Second)
	}
	if cfg.MaxDelay == 0 {
		cfg.MaxDelay = config.Duration(30 * time.Second)
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 10
	}

	return cfg, nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	orderIDs := args
	if len(orderIDs) == 0 {
		orderIDs = cfg.Orders
	}
	if len(orderIDs) == 0 {
		return errors.New("no orders to watch (pass order ids or set 'orders' in the config)")
	}

	opts := append(config.BuildOptions(cfg), orderpulse.WithLogger(logger))
	tracker, err := orderpulse.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create tracker: %w", err)
	}
	defer tracker.Close()

	// cancel on SIGINT/SIGTERM; sessions abort cooperatively
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("watching orders", "count", len(orderIDs))

	results, err := tracker.TrackAll(ctx, orderIDs...)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("watch interrupted")
			return nil
		}
		return fmt.Errorf("watch failed: %w", err)
	}

	allCompleted := true
	for _, result := range results {
		printResult(cmd, result)
		if result.State != orderpulse.StateCompleted {
			allCompleted = false
		}
	}

	if !allCompleted {
		return errors.New("not all orders completed")
	}
	return nil
}

// printResult writes a human-readable outcome line for one order.
func printResult(cmd *cobra.Command, result orderpulse.Result) {
	out := cmd.OutOrStdout()

	switch result.State {
	case orderpulse.StateCompleted:
		fmt.Fprintf(out, "%s: completed\n", result.OrderID)
		if result.Order != nil && result.Order.ServiceName != "" {
			fmt.Fprintf(out, "  service: %s\n", result.Order.ServiceName)
		}
		if result.Invoice != nil {
			fmt.Fprintf(out, "  invoice: %s\n", result.Invoice.SignedURL)
		} else if result.Err != nil {
			fmt.Fprintf(out, "  invoice unavailable: %v\n", result.Err)
		}

	case orderpulse.StateFailed:
		if errors.Is(result.Err, orderpulse.ErrOrderNotFound) {
			fmt.Fprintf(out, "%s: not found\n", result.OrderID)
		} else {
			fmt.Fprintf(out, "%s: failed\n", result.OrderID)
		}

	case orderpulse.StateExhausted:
		fmt.Fprintf(out, "%s: still processing, check back later\n", result.OrderID)

	case orderpulse.StateAborted:
		fmt.Fprintf(out, "%s: cancelled\n", result.OrderID)
	}
}
