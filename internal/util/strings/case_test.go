package strings

import "testing"

func TestToKebabCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"myEval", "my-eval"},
		{"toneCheck", "tone-check"},
		{"XMLParser", "xml-parser"},
		{"parseHTTPRequest", "parse-http-request"},
		{"already-kebab", "already-kebab"},
		{"snake_case_name", "snake-case-name"},
		{"v2Check", "v2-check"},
		{"simple", "simple"},
		{"ABC", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ToKebabCase(tt.input); got != tt.expected {
				t.Errorf("ToKebabCase(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestToCamelCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"user_profile", "userProfile"},
		{"user_profile_info", "userProfileInfo"},
		{"tone-check", "toneCheck"},
		{"simple", "simple"},
		{"Already", "already"},
		{"alreadyCamel", "alreadyCamel"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ToCamelCase(tt.input); got != tt.expected {
				t.Errorf("ToCamelCase(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

// The collision scenario the registry generator must catch: two different
// parent/child splits camel-casing to the same identifier.
func TestToCamelCaseCollision(t *testing.T) {
	a := ToCamelCase("user_profile" + "_" + "info")
	b := ToCamelCase("user" + "_" + "profile_info")
	if a != b {
		t.Fatalf("expected identical identifiers, got %q and %q", a, b)
	}
	if a != "userProfileInfo" {
		t.Fatalf("expected userProfileInfo, got %q", a)
	}
}
