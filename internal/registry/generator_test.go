package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentuity/cli/internal/metadata"
)

func record(name, parent, identifier, filename string, subs ...metadata.AgentRecord) metadata.AgentRecord {
	return metadata.AgentRecord{
		ModuleMetadata: metadata.ModuleMetadata{
			Name:       name,
			Parent:     parent,
			Identifier: identifier,
			Filename:   filename,
		},
		Subagents: subs,
	}
}

func TestGenerateRegistrySource(t *testing.T) {
	gen := NewGenerator([]metadata.AgentRecord{
		record("billing", "", "billing", "src/agents/billing/agent.ts",
			record("invoices", "billing", "billingInvoices", "src/agents/billing/invoices/agent.ts")),
		record("support", "", "support", "src/agents/support/agent.ts"),
	})

	registrySrc, clientSrc, err := gen.Generate()
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		`import billing from "./billing/agent";`,
		`import billingInvoices from "./billing/invoices/agent";`,
		`import support from "./support/agent";`,
		"billing: {\n\t\t...billing,\n\t\tinvoices: billingInvoices,\n\t},",
		"support: support,",
		"export type AgentRegistry = typeof registry;",
		"export type AgentName = keyof AgentRegistry;",
	} {
		if !strings.Contains(registrySrc, want) {
			t.Errorf("registry source missing %q:\n%s", want, registrySrc)
		}
	}

	for _, want := range []string{
		`"billing": typeof import("./billing/agent").default;`,
		`"billing.invoices": typeof import("./billing/invoices/agent").default;`,
		`"support": typeof import("./support/agent").default;`,
	} {
		if !strings.Contains(clientSrc, want) {
			t.Errorf("client source missing %q:\n%s", want, clientSrc)
		}
	}
}

func TestGenerateIdentifierCollision(t *testing.T) {
	// user_profile/info and user/profile_info both camel-case to
	// userProfileInfo.
	gen := NewGenerator([]metadata.AgentRecord{
		record("user_profile", "", "userProfile", "src/agents/user_profile/agent.ts",
			record("info", "user_profile", "userProfileInfo", "src/agents/user_profile/info/agent.ts")),
		record("user", "", "user", "src/agents/user/agent.ts",
			record("profile_info", "user", "userProfileInfo", "src/agents/user/profile_info/agent.ts")),
	})

	registrySrc, clientSrc, err := gen.Generate()
	if err == nil {
		t.Fatal("expected identifier collision error")
	}
	if registrySrc != "" || clientSrc != "" {
		t.Error("collision must produce no output")
	}
	msg := err.Error()
	if !strings.Contains(msg, "userProfileInfo") {
		t.Errorf("error should name the colliding identifier: %v", err)
	}
	if !strings.Contains(msg, "user_profile/info") || !strings.Contains(msg, "user/profile_info") {
		t.Errorf("error should name both colliding agents: %v", err)
	}
}

func TestGenerateReservedChildName(t *testing.T) {
	gen := NewGenerator([]metadata.AgentRecord{
		record("billing", "", "billing", "src/agents/billing/agent.ts",
			record("run", "billing", "billingRun", "src/agents/billing/run/agent.ts")),
	})
	_, _, err := gen.Generate()
	if err == nil {
		t.Fatal("expected reserved-name error")
	}
	msg := err.Error()
	if !strings.Contains(msg, `"run"`) || !strings.Contains(msg, `"billing"`) {
		t.Errorf("error should name the parent/child pair: %v", err)
	}
}

func TestGenerateQuotedKeys(t *testing.T) {
	gen := NewGenerator([]metadata.AgentRecord{
		record("my-agent", "", "myAgent", "src/agents/my-agent/agent.ts"),
	})
	registrySrc, _, err := gen.Generate()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(registrySrc, `"my-agent": myAgent,`) {
		t.Errorf("hyphenated key not quoted:\n%s", registrySrc)
	}
}

func TestWriteOverwritesPreviousOutput(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, RegistryFile)
	if err := os.WriteFile(stale, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	gen := NewGenerator([]metadata.AgentRecord{
		record("support", "", "support", "src/agents/support/agent.ts"),
	})
	if err := gen.Write(dir); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(stale)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "export const registry") {
		t.Errorf("previous output not overwritten:\n%s", data)
	}
	if _, err := os.Stat(filepath.Join(dir, ClientsFile)); err != nil {
		t.Errorf("clients file not written: %v", err)
	}
}
