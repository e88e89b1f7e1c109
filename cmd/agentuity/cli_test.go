package main

import (
	"testing"
)

func TestParseEnv(t *testing.T) {
	env, err := parseEnv([]string{"API_URL=https://api.example.com", "EMPTY="})
	if err != nil {
		t.Fatal(err)
	}
	if env["API_URL"] != "https://api.example.com" {
		t.Errorf("API_URL = %q", env["API_URL"])
	}
	if v, ok := env["EMPTY"]; !ok || v != "" {
		t.Errorf("EMPTY = %q, %v", v, ok)
	}

	if _, err := parseEnv([]string{"NOEQUALS"}); err == nil {
		t.Error("expected error for missing '='")
	}
	if _, err := parseEnv([]string{"=value"}); err == nil {
		t.Error("expected error for empty key")
	}

	env, err = parseEnv(nil)
	if err != nil || env != nil {
		t.Errorf("parseEnv(nil) = %v, %v", env, err)
	}
}

func TestDevCommandFlags(t *testing.T) {
	for _, name := range []string{"port", "verbose"} {
		if devCmd.Flags().Lookup(name) == nil {
			t.Errorf("dev command is missing the --%s flag", name)
		}
	}
}

func TestValidateProjectName(t *testing.T) {
	valid := []string{"helpdesk", "my-project", "agents_v2"}
	for _, name := range valid {
		if err := validateProjectName(name); err != nil {
			t.Errorf("validateProjectName(%q) = %v", name, err)
		}
	}

	invalid := []string{"", "  ", "../escape", "a/b", `a\b`, ".hidden"}
	for _, name := range invalid {
		if err := validateProjectName(name); err == nil {
			t.Errorf("validateProjectName(%q) should fail", name)
		}
	}
}
