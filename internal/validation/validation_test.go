package validation

import (
	"strings"
	"testing"
)

func TestTrimAndLimit(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"trims whitespace", "  hello  ", 100, "hello"},
		{"caps at max", strings.Repeat("a", 10), 4, "aaaa"},
		{"zero max means no cap", strings.Repeat("b", 10), 0, strings.Repeat("b", 10)},
		{"empty input", "   ", 100, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndLimit(tt.input, tt.max); got != tt.want {
				t.Errorf("TrimAndLimit(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}

func TestMaxMessageLength(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want int
	}{
		{"default", "", 4000},
		{"configured", "500", 500},
		{"invalid falls back", "not-a-number", 4000},
		{"non-positive falls back", "0", 4000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MAX_MESSAGE_LENGTH", tt.env)
			if got := MaxMessageLength(); got != tt.want {
				t.Errorf("MaxMessageLength() = %d, want %d", got, tt.want)
			}
		})
	}
}
