package config

import (
	"reflect"
	"testing"
	"time"
)

func TestBuildOptions_Minimal(t *testing.T) {
	cfg, err := Parse([]byte(`base_url: https://api.example.com`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	opts := BuildOptions(cfg)

	// base URL, timeout, base delay, max delay, attempts
	if len(opts) != 5 {
		t.Errorf("BuildOptions() = %d options, want 5", len(opts))
	}
}

func TestBuildOptions_Full(t *testing.T) {
	jitter := 0.2
	fetchInvoice := false
	cfg := &Config{
		BaseURL:        "https://api.example.com",
		Port:           8080,
		RequestTimeout: Duration(10 * time.Second),
		BaseDelay:      Duration(time.Second),
		MaxDelay:       Duration(30 * time.Second),
		Jitter:         &jitter,
		MaxAttempts:    10,
		RateLimit:      5,
		RateBurst:      2,
		FetchInvoice:   &fetchInvoice,
		Headers:        map[string]string{"Authorization": "Bearer x"},
	}

	opts := BuildOptions(cfg)

	// 5 base options + jitter + rate limit + invoice + headers
	if len(opts) != 9 {
		t.Errorf("BuildOptions() = %d options, want 9", len(opts))
	}
}

func TestMapToKeyValuePairs_Sorted(t *testing.T) {
	pairs := mapToKeyValuePairs(map[string]string{
		"X-Request-ID":  "r1",
		"Authorization": "Bearer x",
		"X-Region":      "eu-west-1",
	})

	want := []string{
		"Authorization", "Bearer x",
		"X-Region", "eu-west-1",
		"X-Request-ID", "r1",
	}
	if !reflect.DeepEqual(pairs, want) {
		t.Errorf("mapToKeyValuePairs() = %v, want %v", pairs, want)
	}
}
