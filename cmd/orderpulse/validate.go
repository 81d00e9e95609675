package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/orderpulse/config"
)

// validateCmd validates a config file without contacting the Order Service.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate an orderpulse configuration file without issuing any requests.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  orderpulse validate -c config.yaml
  orderpulse validate --config /etc/orderpulse/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Base URL:     %s\n", cfg.BaseURL)
	fmt.Fprintf(out, "  Base delay:   %s\n", cfg.BaseDelay.Duration())
	fmt.Fprintf(out, "  Max delay:    %s\n", cfg.MaxDelay.Duration())
	fmt.Fprintf(out, "  Max attempts: %d\n", cfg.MaxAttempts)
	fmt.Fprintf(out, "  Orders:       %d\n", len(cfg.Orders))

	return nil
}
