package source

import "testing"

const agentModule = `import { createAgent } from "@agentuity/runtime";

export default createAgent({
	metadata: {
		name: "support",
		description: "Answers support tickets",
	},
	run: async (input) => {
		return input;
	},
});
`

func TestParseAgentModule(t *testing.T) {
	m := Parse(agentModule)

	if len(m.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(m.Statements))
	}

	imp, ok := m.Statements[0].(*ImportStmt)
	if !ok {
		t.Fatalf("expected ImportStmt, got %T", m.Statements[0])
	}
	if imp.Path != "@agentuity/runtime" {
		t.Errorf("import path = %q", imp.Path)
	}
	if imp.SideEffect {
		t.Error("import with binding clause flagged as side-effect")
	}

	def, ok := m.Statements[1].(*ExportDefaultStmt)
	if !ok {
		t.Fatalf("expected ExportDefaultStmt, got %T", m.Statements[1])
	}
	call := AsCall(def.Expr)
	if call == nil {
		t.Fatal("default export is not a call")
	}
	if CalleeName(call.Callee) != "createAgent" {
		t.Errorf("callee = %q", CalleeName(call.Callee))
	}

	obj, ok := call.Args[0].(*ObjectLit)
	if !ok {
		t.Fatalf("first arg is %T, not object literal", call.Args[0])
	}
	meta := obj.Prop("metadata")
	if meta == nil {
		t.Fatal("metadata property not found")
	}
	metaObj, ok := meta.Value.(*ObjectLit)
	if !ok {
		t.Fatalf("metadata value is %T", meta.Value)
	}
	if name, _ := StringValue(metaObj.Prop("name").Value); name != "support" {
		t.Errorf("metadata.name = %q", name)
	}
	// run is an arrow function: present but opaque
	if obj.Prop("run") == nil {
		t.Error("run property not preserved")
	}
}

func TestParseVarDeclAndAliasedDefault(t *testing.T) {
	src := `const router = createRouter();
router.get("/a", handler);
export default router;
`
	m := Parse(src)
	if len(m.Statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(m.Statements))
	}

	decl, ok := m.Statements[0].(*VarDeclStmt)
	if !ok {
		t.Fatalf("expected VarDeclStmt, got %T", m.Statements[0])
	}
	if decl.Name != "router" || CalleeName(AsCall(decl.Init).Callee) != "createRouter" {
		t.Errorf("decl = %q init callee = %q", decl.Name, CalleeName(AsCall(decl.Init).Callee))
	}

	es, ok := m.Statements[1].(*ExprStmt)
	if !ok {
		t.Fatalf("expected ExprStmt, got %T", m.Statements[1])
	}
	call := AsCall(es.Expr)
	member, ok := call.Callee.(*MemberExpr)
	if !ok {
		t.Fatalf("callee is %T", call.Callee)
	}
	if member.Property != "get" {
		t.Errorf("method = %q", member.Property)
	}
	if path, _ := StringValue(call.Args[0]); path != "/a" {
		t.Errorf("path arg = %q", path)
	}

	def, ok := m.Statements[2].(*ExportDefaultStmt)
	if !ok {
		t.Fatalf("expected ExportDefaultStmt, got %T", m.Statements[2])
	}
	if id, ok := def.Expr.(*Ident); !ok || id.Name != "router" {
		t.Errorf("default export expr = %#v", def.Expr)
	}
}

func TestParseExportNamed(t *testing.T) {
	m := Parse(`export { foo as bar, baz };`)
	stmt, ok := m.Statements[0].(*ExportNamedStmt)
	if !ok {
		t.Fatalf("expected ExportNamedStmt, got %T", m.Statements[0])
	}
	if len(stmt.Names) != 2 {
		t.Fatalf("expected 2 names, got %d", len(stmt.Names))
	}
	if stmt.Names[0].Local != "foo" || stmt.Names[0].Exported != "bar" {
		t.Errorf("first name = %+v", stmt.Names[0])
	}
	if stmt.Names[1].Local != "baz" || stmt.Names[1].Exported != "baz" {
		t.Errorf("second name = %+v", stmt.Names[1])
	}
}

func TestParseToleratesBrokenInput(t *testing.T) {
	// Unterminated call, stray brace, half a statement: must not panic and
	// must still surface the recognizable prefix.
	srcs := []string{
		`export default createAgent({ metadata: { name: "x"`,
		`const x = `,
		`}`,
		``,
		"const a = 1\nconst b = createEval({})",
	}
	for _, src := range srcs {
		m := Parse(src)
		_ = m.Statements
	}

	m := Parse("const a = 1\nconst b = createEval({})")
	if len(m.Statements) != 2 {
		t.Fatalf("ASI split failed: %d statements", len(m.Statements))
	}
	b := m.Statements[1].(*VarDeclStmt)
	if b.Name != "b" || CalleeName(AsCall(b.Init).Callee) != "createEval" {
		t.Errorf("second decl = %q", b.Name)
	}
}

func TestApplyEditsReverseOrder(t *testing.T) {
	src := "aaa bbb ccc"
	out := ApplyEdits(src, []Edit{
		{Start: 0, End: 3, Text: "AAA"},
		{Start: 8, End: 11, Text: "CCC"},
		{Start: 4, End: 7, Text: "BBB"},
	})
	if out != "AAA BBB CCC" {
		t.Errorf("got %q", out)
	}

	// Insertions at the same anchor keep their add order.
	out = ApplyEdits("ad", []Edit{
		{Start: 1, End: 1, Text: "b"},
		{Start: 1, End: 1, Text: "c"},
	})
	if out != "abcd" {
		t.Errorf("got %q", out)
	}
}
