package utils

import "testing"

func TestCanonicalDomain(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple domain",
			input:    "example.com",
			expected: "example.com",
		},
		{
			name:     "trailing dot stripped",
			input:    "example.com.",
			expected: "example.com",
		},
		{
			name:     "multiple trailing dots stripped",
			input:    "example.com...",
			expected: "example.com",
		},
		{
			name:     "uppercase lowered",
			input:    "EXAMPLE.COM",
			expected: "example.com",
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "  ads.example.net  ",
			expected: "ads.example.net",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalDomain(tt.input); got != tt.expected {
				t.Errorf("CanonicalDomain(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
