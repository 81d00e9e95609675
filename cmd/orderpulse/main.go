// Package main is the entry point for the orderpulse CLI.
//
// OrderPulse can be used either as a library (SDK) or as a standalone
// binary. This CLI provides the standalone binary approach.
//
// Usage:
//
//	orderpulse watch abc123              # Poll an order until it settles
//	orderpulse status abc123             # One-shot status check
//	orderpulse serve -c config.yaml      # Track orders and serve the status API
//	orderpulse validate -c config.yaml   # Validate configuration
//	orderpulse version                   # Show version info
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "orderpulse",
	Short: "Track marketplace orders until they settle",
	Long: `OrderPulse polls the Order Service for order status until each order
reaches a terminal state, using exponential backoff with jitter and a
bounded attempt budget.

Quick start:
  orderpulse watch abc123 --base-url https://api.example.com

Or with a config file:
  base_url: https://api.example.com
  max_attempts: 10
  orders:
    - abc123

  orderpulse watch -c orderpulse.yaml`,
	// No Run/RunE means this just shows help when called without subcommands
}

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this orderpulse binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("orderpulse %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
