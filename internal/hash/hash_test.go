package hash

import "testing"

func TestContentDeterministic(t *testing.T) {
	a := Content("proj_123", "dep_456", "agents/support/agent.ts")
	b := Content("proj_123", "dep_456", "agents/support/agent.ts")

	if a != b {
		t.Errorf("same inputs produced different digests: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars for SHA-256, got %d", len(a))
	}
}

func TestIDDeterministic(t *testing.T) {
	a := ID("proj_123", "dep_456", "agents/support/agent.ts", "support", "v1")
	b := ID("proj_123", "dep_456", "agents/support/agent.ts", "support", "v1")

	if a != b {
		t.Errorf("same inputs produced different digests: %s vs %s", a, b)
	}
	if len(a) != 40 {
		t.Errorf("expected 40 hex chars for SHA-1, got %d", len(a))
	}
}

func TestOrderMatters(t *testing.T) {
	if ID("a", "b") == ID("b", "a") {
		t.Error("reordered parts must not produce the same ID")
	}
}

func TestPartBoundaries(t *testing.T) {
	// ("ab","c") and ("a","bc") concatenate identically without a separator.
	if ID("ab", "c") == ID("a", "bc") {
		t.Error("part boundaries must contribute to the digest")
	}
	if Content("ab", "c") == Content("a", "bc") {
		t.Error("part boundaries must contribute to the digest")
	}
}
