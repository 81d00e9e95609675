package orderpulse

import "testing"

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Status
	}{
		{"plain", "completed", StatusCompleted},
		{"uppercase", "COMPLETED", StatusCompleted},
		{"mixed case", "Processing", StatusProcessing},
		{"whitespace", "  pending\n", StatusPending},
		{"unknown preserved", "awaiting_reader", Status("awaiting_reader")},
		{"empty", "", Status("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseStatus(tt.raw); got != tt.want {
				t.Errorf("ParseStatus(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusProcessing, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{Status("awaiting_reader"), false},
		{Status(""), false},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("Status(%q).Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestStatus_Known(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed} {
		if !s.Known() {
			t.Errorf("Status(%q).Known() = false, want true", s)
		}
	}

	if Status("awaiting_reader").Known() {
		t.Error(`Status("awaiting_reader").Known() = true, want false`)
	}
}
