package metadata

import (
	"strings"
	"testing"

	"github.com/agentuity/cli/internal/hash"
)

func findRoute(t *testing.T, routes []RouteDefinition, method string) RouteDefinition {
	t.Helper()
	for _, r := range routes {
		if r.Method == method {
			return r
		}
	}
	t.Fatalf("no %s route in %+v", method, routes)
	return RouteDefinition{}
}

func TestExtractRoutesAgentPrefix(t *testing.T) {
	src := `import { createRouter } from "@agentuity/runtime";

const router = createRouter();
router.get("/status");
router.post("/messages/");
router.stream("/updates");
export default router;
`
	res, err := ExtractRoutes(agentInput("src/agents/support/route.ts", src))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Routes) != 3 {
		t.Fatalf("found %d routes", len(res.Routes))
	}

	get := findRoute(t, res.Routes, "GET")
	if get.Path != "/agent/support/status" {
		t.Errorf("GET path = %q", get.Path)
	}
	if get.Type != "http" {
		t.Errorf("GET type = %q", get.Type)
	}

	post := findRoute(t, res.Routes, "POST")
	if post.Path != "/agent/support/messages" {
		t.Errorf("trailing slash not stripped: %q", post.Path)
	}

	stream := findRoute(t, res.Routes, "STREAM")
	if stream.Type != "stream" {
		t.Errorf("stream type = %q", stream.Type)
	}
	if stream.Path != "/agent/support/updates" {
		t.Errorf("stream path = %q", stream.Path)
	}

	if res.Source != src {
		t.Error("route modules must not be rewritten")
	}
}

func TestExtractRoutesAPIPrefix(t *testing.T) {
	src := `const r = createRouter();
r.put("/config");
export default r;
`
	res, err := ExtractRoutes(agentInput("src/apis/admin/route.ts", src))
	if err != nil {
		t.Fatal(err)
	}
	put := findRoute(t, res.Routes, "PUT")
	if put.Path != "/api/admin/config" {
		t.Errorf("path = %q", put.Path)
	}
}

func TestExtractRoutesAPIDirNamedAgents(t *testing.T) {
	src := `const r = createRouter();
r.get("/list");
export default r;
`
	res, err := ExtractRoutes(agentInput("src/apis/agents/route.ts", src))
	if err != nil {
		t.Fatal(err)
	}
	if res.Routes[0].Path != "/api/agents/list" {
		t.Errorf("path = %q, want the /api prefix for modules under src/apis", res.Routes[0].Path)
	}
}

func TestExtractRoutesSubagentRouteName(t *testing.T) {
	src := `const r = createRouter();
r.get("/list");
export default r;
`
	res, err := ExtractRoutes(agentInput("src/agents/billing/invoices/route.ts", src))
	if err != nil {
		t.Fatal(err)
	}
	if res.Routes[0].Path != "/agent/billing/invoices/list" {
		t.Errorf("subagent path = %q", res.Routes[0].Path)
	}
}

func TestExtractRoutesTriggers(t *testing.T) {
	src := `const r = createRouter();
r.sms({ number: "+15555550100" });
r.email("inbox@example.com");
r.cron("0 * * * *");
export default r;
`
	res, err := ExtractRoutes(agentInput("src/agents/support/route.ts", src))
	if err != nil {
		t.Fatal(err)
	}

	sms := findRoute(t, res.Routes, "SMS")
	if sms.Path != "/agent/support/"+hash.ID("+15555550100") {
		t.Errorf("sms path = %q", sms.Path)
	}
	if sms.Config["number"] != "+15555550100" {
		t.Errorf("sms config = %+v", sms.Config)
	}

	email := findRoute(t, res.Routes, "EMAIL")
	if email.Config["address"] != "inbox@example.com" {
		t.Errorf("email config = %+v", email.Config)
	}
	if !strings.HasPrefix(email.Path, "/agent/support/") {
		t.Errorf("email path = %q", email.Path)
	}

	cron := findRoute(t, res.Routes, "CRON")
	if cron.Config["expression"] != "0 * * * *" {
		t.Errorf("cron config = %+v", cron.Config)
	}
}

func TestExtractRoutesDeterministicIDs(t *testing.T) {
	src := `const r = createRouter();
r.get("/a");
export default r;
`
	in := agentInput("src/agents/support/route.ts", src)
	a, err := ExtractRoutes(in)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ExtractRoutes(in)
	if err != nil {
		t.Fatal(err)
	}
	if a.Routes[0].ID == "" || a.Routes[0].ID != b.Routes[0].ID {
		t.Errorf("route IDs not deterministic: %q vs %q", a.Routes[0].ID, b.Routes[0].ID)
	}
}

func TestExtractRoutesMissingRouter(t *testing.T) {
	_, err := ExtractRoutes(agentInput("src/agents/support/route.ts", "export default {};\n"))
	if err == nil {
		t.Fatal("expected missing-router error")
	}
	if !strings.Contains(err.Error(), "createRouter") {
		t.Errorf("error should name the constructor: %v", err)
	}
}

func TestExtractRoutesDirectDefaultExport(t *testing.T) {
	res, err := ExtractRoutes(agentInput("src/agents/support/route.ts",
		"export default createRouter();\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Routes) != 0 {
		t.Errorf("direct default export carries no registrations, got %+v", res.Routes)
	}
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/agent//support///status": "/agent/support/status",
		"/api/admin/":              "/api/admin",
		"//":                       "/",
		"":                         "/",
	}
	for in, want := range cases {
		if got := NormalizePath(in); got != want {
			t.Errorf("NormalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}
