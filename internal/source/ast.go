package source

// Span is a half-open byte range [Start, End) into the original source text
type Span struct {
	Start int
	End   int
}

// Node is any parsed element carrying its source span
type Node interface {
	Span() Span
}

// Module is the parse result for one source file
type Module struct {
	Source     string
	Statements []Statement
}

// Text returns the original source text covered by the span.
func (m *Module) Text(s Span) string {
	if s.Start < 0 || s.End > len(m.Source) || s.Start > s.End {
		return ""
	}
	return m.Source[s.Start:s.End]
}

// Statement is a top-level statement
type Statement interface {
	Node
	stmtNode()
}

// ImportStmt is an import declaration. SideEffect marks bare imports with no
// binding clause (`import "./eval"`).
type ImportStmt struct {
	Loc        Span
	Path       string
	SideEffect bool
}

// ExportDefaultStmt is `export default <expr>`
type ExportDefaultStmt struct {
	Loc  Span
	Expr Expr
}

// ExportName is one entry of an `export { local as exported }` clause
type ExportName struct {
	Local    string
	Exported string
}

// ExportNamedStmt is `export { a, b as c }`, optionally re-exporting with a
// `from` clause
type ExportNamedStmt struct {
	Loc   Span
	Names []ExportName
	From  string
}

// VarDeclStmt is a single-name `const/let/var name = init` declaration,
// possibly prefixed with `export`
type VarDeclStmt struct {
	Loc      Span
	Keyword  string
	Name     string
	Init     Expr // nil when the declaration has no initializer
	Exported bool
}

// ExprStmt is an expression used as a statement
type ExprStmt struct {
	Loc  Span
	Expr Expr
}

// RawStmt is any statement the parser does not model
type RawStmt struct {
	Loc Span
}

func (s *ImportStmt) Span() Span        { return s.Loc }
func (s *ExportDefaultStmt) Span() Span { return s.Loc }
func (s *ExportNamedStmt) Span() Span   { return s.Loc }
func (s *VarDeclStmt) Span() Span       { return s.Loc }
func (s *ExprStmt) Span() Span          { return s.Loc }
func (s *RawStmt) Span() Span           { return s.Loc }

func (s *ImportStmt) stmtNode()        {}
func (s *ExportDefaultStmt) stmtNode() {}
func (s *ExportNamedStmt) stmtNode()   {}
func (s *VarDeclStmt) stmtNode()       {}
func (s *ExprStmt) stmtNode()          {}
func (s *RawStmt) stmtNode()           {}

// Expr is a parsed expression
type Expr interface {
	Node
	exprNode()
}

// Ident is a bare identifier reference
type Ident struct {
	Loc  Span
	Name string
}

// StringLit is a quoted string literal; Value holds the unquoted text
type StringLit struct {
	Loc   Span
	Value string
}

// NumberLit is a numeric literal
type NumberLit struct {
	Loc Span
	Raw string
}

// TemplateLit is a backtick template literal, kept opaque
type TemplateLit struct {
	Loc Span
}

// CallExpr is `callee(arg, ...)`
type CallExpr struct {
	Loc    Span
	Callee Expr
	Args   []Expr
	LParen int // offset of the opening paren
	RParen int // offset of the closing paren
}

// MemberExpr is `object.property`
type MemberExpr struct {
	Loc      Span
	Object   Expr
	Property string
}

// Property is one `key: value` entry of an object literal. Raw properties
// (spreads, methods, computed keys) keep their span but no key/value model.
type Property struct {
	Loc   Span
	Key   string
	Value Expr // nil for raw properties
}

// ObjectLit is `{ key: value, ... }`
type ObjectLit struct {
	Loc    Span
	Props  []*Property
	LBrace int // offset of the opening brace
	RBrace int // offset of the closing brace
}

// Prop returns the property with the given key, or nil.
func (o *ObjectLit) Prop(key string) *Property {
	for _, p := range o.Props {
		if p.Key == key {
			return p
		}
	}
	return nil
}

// RawExpr is any expression the parser does not model
type RawExpr struct {
	Loc Span
}

func (e *Ident) Span() Span       { return e.Loc }
func (e *StringLit) Span() Span   { return e.Loc }
func (e *NumberLit) Span() Span   { return e.Loc }
func (e *TemplateLit) Span() Span { return e.Loc }
func (e *CallExpr) Span() Span    { return e.Loc }
func (e *MemberExpr) Span() Span  { return e.Loc }
func (e *ObjectLit) Span() Span   { return e.Loc }
func (e *Property) Span() Span    { return e.Loc }
func (e *RawExpr) Span() Span     { return e.Loc }

func (e *Ident) exprNode()       {}
func (e *StringLit) exprNode()   {}
func (e *NumberLit) exprNode()   {}
func (e *TemplateLit) exprNode() {}
func (e *CallExpr) exprNode()    {}
func (e *MemberExpr) exprNode()  {}
func (e *ObjectLit) exprNode()   {}
func (e *Property) exprNode()    {}
func (e *RawExpr) exprNode()     {}

// CalleeName returns the rightmost name of a call target: `createAgent(...)`
// and `sdk.createAgent(...)` both report "createAgent". Empty when the callee
// has no name.
func CalleeName(e Expr) string {
	switch c := e.(type) {
	case *Ident:
		return c.Name
	case *MemberExpr:
		return c.Property
	default:
		return ""
	}
}

// AsCall unwraps e to a CallExpr, or nil.
func AsCall(e Expr) *CallExpr {
	c, _ := e.(*CallExpr)
	return c
}

// StringValue returns the literal value when e is a string literal.
func StringValue(e Expr) (string, bool) {
	if s, ok := e.(*StringLit); ok {
		return s.Value, true
	}
	return "", false
}
