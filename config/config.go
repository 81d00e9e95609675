// Package config provides YAML configuration parsing for the orderpulse
// CLI.
//
// This package enables running orderpulse as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	base_url: https://api.example.com
//	request_timeout: 10s
//	base_delay: 1s
//	max_delay: 30s
//	max_attempts: 10
//	headers:
//	  Authorization: Bearer ${ORDER_API_TOKEN}
//
//	orders:
//	  - abc123
//	  - def456
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// minBaseDelay is the minimum allowed base delay for production configs.
// This prevents accidental DoS of the Order Service with overly aggressive
// polling.
const minBaseDelay = 100 * time.Millisecond

// Config is the root configuration structure for the orderpulse CLI.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// BaseURL is the root URL of the Order Service. Required.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	BaseURL string `yaml:"base_url"`

	// Port is the HTTP port for the status API (serve command only).
	// Defaults to 8080.
	Port int `yaml:"port"`

	// RequestTimeout is the per-request HTTP timeout.
	// Accepts duration strings like "10s", "1m", "500ms". Defaults to 10s.
	RequestTimeout Duration `yaml:"request_timeout"`

	// BaseDelay is the initial wait between poll attempts. Defaults to 1s.
	BaseDelay Duration `yaml:"base_delay"`

	// MaxDelay is the backoff ceiling. Defaults to 30s.
	MaxDelay Duration `yaml:"max_delay"`

	// Jitter is the jitter fraction applied to each delay, in [0, 1].
	// nil means the SDK default (0.1); an explicit 0 disables jitter.
	Jitter *float64 `yaml:"jitter"`

	// MaxAttempts is the request budget per poll session. Defaults to 10.
	MaxAttempts int `yaml:"max_attempts"`

	// RateLimit caps the sustained request rate (requests per second)
	// across all sessions. Zero disables client-side rate limiting.
	RateLimit float64 `yaml:"rate_limit"`

	// RateBurst is the burst size for the rate limiter.
	RateBurst int `yaml:"rate_burst"`

	// FetchInvoice fetches the invoice URL once after an order completes.
	// nil means enabled.
	FetchInvoice *bool `yaml:"fetch_invoice"`

	// Headers are custom HTTP headers sent with every request.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`

	// Orders is the list of order ids to track (watch and serve commands).
	Orders []string `yaml:"orders"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with
// environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		// submatches[2] is ":-..." (non-empty if default syntax was used)
		// submatches[3] is the actual default value (may be empty for ${VAR:-})
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before validation.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in BaseURL and Header values.
// Defaults are applied for Port (8080), RequestTimeout (10s), BaseDelay
// (1s), MaxDelay (30s), and MaxAttempts (10).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = Duration(10 * time.Second)
	}
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = Duration(1 * time.Second)
	}
	if cfg.MaxDelay == 0 {
		cfg.MaxDelay = Duration(30 * time.Second)
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 10
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	expanded, err := expandEnvVars(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	c.BaseURL = expanded

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("base_url scheme must be http or https, got %q", parsedURL.Scheme)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.RequestTimeout.Duration() <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout.Duration())
	}

	if c.BaseDelay.Duration() < minBaseDelay {
		return fmt.Errorf("base_delay must be at least %s, got %s", minBaseDelay, c.BaseDelay.Duration())
	}
	if c.MaxDelay.Duration() < c.BaseDelay.Duration() {
		return fmt.Errorf("max_delay (%s) cannot be smaller than base_delay (%s)",
			c.MaxDelay.Duration(), c.BaseDelay.Duration())
	}

	if c.Jitter != nil && (*c.Jitter < 0 || *c.Jitter > 1) {
		return fmt.Errorf("jitter must be in [0, 1], got %v", *c.Jitter)
	}

	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative, got %v", c.RateLimit)
	}
	if c.RateBurst < 0 {
		return fmt.Errorf("rate_burst cannot be negative, got %d", c.RateBurst)
	}

	for k, v := range c.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("headers[%s]: %w", k, err)
		}
		c.Headers[k] = expanded
	}

	for i, orderID := range c.Orders {
		if orderID == "" {
			return fmt.Errorf("orders[%d]: order id cannot be empty", i)
		}
	}

	return nil
}
