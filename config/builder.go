package config

import (
	"sort"

	"github.com/jpalmerr/orderpulse"
)

// BuildOptions converts parsed configuration into SDK options for
// [orderpulse.New].
//
// The returned slice reflects only what the config sets explicitly plus
// required fields; SDK defaults fill the rest.
func BuildOptions(cfg *Config) []orderpulse.Option {
	opts := []orderpulse.Option{
		orderpulse.WithBaseURL(cfg.BaseURL),
		orderpulse.WithRequestTimeout(cfg.RequestTimeout.Duration()),
		orderpulse.WithBaseDelay(cfg.BaseDelay.Duration()),
		orderpulse.WithMaxDelay(cfg.MaxDelay.Duration()),
		orderpulse.WithMaxAttempts(cfg.MaxAttempts),
	}

	if cfg.Jitter != nil {
		opts = append(opts, orderpulse.WithJitter(*cfg.Jitter))
	}

	if cfg.RateLimit > 0 {
		opts = append(opts, orderpulse.WithRateLimit(cfg.RateLimit, cfg.RateBurst))
	}

	if cfg.FetchInvoice != nil {
		opts = append(opts, orderpulse.WithInvoiceFetch(*cfg.FetchInvoice))
	}

	if len(cfg.Headers) > 0 {
		opts = append(opts, orderpulse.WithHeaders(mapToKeyValuePairs(cfg.Headers)...))
	}

	return opts
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
