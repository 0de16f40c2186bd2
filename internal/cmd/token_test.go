package cmd

import "testing"

func TestMaskToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"long token", "eyJ0eXAiOiJKV1QiLCJhbGciOiJSUzI1NiJ9", "eyJ0eXAi...NiJ9"},
		{"short token kept whole", "short-token", "short-token"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := maskToken(tt.token); got != tt.want {
				t.Fatalf("maskToken(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}
