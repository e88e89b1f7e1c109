package source

// Parser shapes a token stream into statement-level structure. It models only
// what the metadata extractor reads: imports, exports, variable declarations,
// calls, member access, object and string literals. Everything else degrades
// to a raw node spanning its source text, so Parse never fails.
type Parser struct {
	tokens  []Token
	current int
}

// Parse parses module source text. It always returns a module; malformed
// input yields raw statements rather than errors.
func Parse(src string) *Module {
	p := &Parser{tokens: Lex(src)}
	m := &Module{Source: src}
	for !p.isAtEnd() {
		m.Statements = append(m.Statements, p.parseStatement())
	}
	return m
}

// statementKeywords are constructs parsed as opaque raw statements.
var statementKeywords = map[string]bool{
	"function": true, "class": true, "if": true, "for": true, "while": true,
	"do": true, "switch": true, "try": true, "throw": true, "return": true,
	"type": true, "interface": true, "enum": true, "declare": true,
	"namespace": true, "async": true,
}

func (p *Parser) parseStatement() Statement {
	start := p.peek()

	switch {
	case start.Is("import"):
		return p.parseImport()
	case start.Is("export"):
		return p.parseExport()
	case start.Is("const") || start.Is("let") || start.Is("var"):
		return p.parseVarDecl(start.Start, false)
	case start.Type == TOKEN_IDENT && statementKeywords[start.Lexeme]:
		return p.rawStatement()
	case startsExpression(start.Type):
		expr := p.parseExpr()
		end := p.skipToStatementEnd()
		if end < expr.Span().End {
			end = expr.Span().End
		}
		return &ExprStmt{Loc: Span{start.Start, end}, Expr: expr}
	default:
		return p.rawStatement()
	}
}

func (p *Parser) parseImport() Statement {
	start := p.advance() // import
	sideEffect := p.peek().Type == TOKEN_STRING
	mark := p.current
	end := p.skipToStatementEnd()

	path := ""
	for i := mark; i < p.current && i < len(p.tokens); i++ {
		if p.tokens[i].Type == TOKEN_STRING {
			path = p.tokens[i].Value
			break
		}
	}
	return &ImportStmt{Loc: Span{start.Start, end}, Path: path, SideEffect: sideEffect}
}

func (p *Parser) parseExport() Statement {
	start := p.advance() // export

	switch {
	case p.peek().Is("default"):
		p.advance()
		expr := p.parseExpr()
		end := p.skipToStatementEnd()
		if end < expr.Span().End {
			end = expr.Span().End
		}
		return &ExportDefaultStmt{Loc: Span{start.Start, end}, Expr: expr}

	case p.peek().Type == TOKEN_LBRACE:
		p.advance()
		stmt := &ExportNamedStmt{}
		for !p.isAtEnd() && p.peek().Type != TOKEN_RBRACE {
			if p.peek().Type != TOKEN_IDENT {
				p.advance()
				continue
			}
			name := ExportName{Local: p.advance().Lexeme}
			name.Exported = name.Local
			if p.peek().Is("as") && p.peekNext().Type == TOKEN_IDENT {
				p.advance()
				name.Exported = p.advance().Lexeme
			}
			stmt.Names = append(stmt.Names, name)
			if p.peek().Type == TOKEN_COMMA {
				p.advance()
			}
		}
		if p.peek().Type == TOKEN_RBRACE {
			p.advance()
		}
		if p.peek().Is("from") && p.peekNext().Type == TOKEN_STRING {
			p.advance()
			stmt.From = p.advance().Value
		}
		end := p.previous().End
		if p.peek().Type == TOKEN_SEMICOLON {
			end = p.advance().End
		}
		stmt.Loc = Span{start.Start, end}
		return stmt

	case p.peek().Is("const") || p.peek().Is("let") || p.peek().Is("var"):
		return p.parseVarDecl(start.Start, true)

	default:
		// export function/class/type/etc: opaque
		end := p.skipToStatementEnd()
		if end < start.End {
			end = start.End
		}
		return &RawStmt{Loc: Span{start.Start, end}}
	}
}

func (p *Parser) parseVarDecl(start int, exported bool) Statement {
	kw := p.advance() // const/let/var
	if p.peek().Type != TOKEN_IDENT {
		// destructuring or malformed: opaque
		end := p.skipToStatementEnd()
		if end < kw.End {
			end = kw.End
		}
		return &RawStmt{Loc: Span{start, end}}
	}
	name := p.advance()

	// Optional TS type annotation: consume loosely up to the initializer.
	if p.peek().Type == TOKEN_COLON {
		p.advance()
		for !p.isAtEnd() && p.peek().Type != TOKEN_EQUAL &&
			p.peek().Type != TOKEN_SEMICOLON && p.peek().Line == name.Line {
			p.advance()
		}
	}

	var init Expr
	if p.peek().Type == TOKEN_EQUAL {
		p.advance()
		init = p.parseExpr()
	}
	end := p.skipToStatementEnd()
	if end < name.End {
		end = name.End
	}
	return &VarDeclStmt{
		Loc:      Span{start, end},
		Keyword:  kw.Lexeme,
		Name:     name.Lexeme,
		Init:     init,
		Exported: exported,
	}
}

func (p *Parser) rawStatement() Statement {
	start := p.advance()
	end := p.skipToStatementEnd()
	if end < start.End {
		end = start.End
	}
	return &RawStmt{Loc: Span{start.Start, end}}
}

func (p *Parser) parseExpr() Expr {
	// Prefix keywords are consumed but not modeled.
	for p.peek().Is("await") || p.peek().Is("new") || p.peek().Is("async") {
		p.advance()
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *Parser) parsePrimary() Expr {
	t := p.peek()

	switch t.Type {
	case TOKEN_IDENT:
		p.advance()
		if p.peek().Type == TOKEN_ARROW {
			return p.finishArrow(t.Start)
		}
		return &Ident{Loc: Span{t.Start, t.End}, Name: t.Lexeme}
	case TOKEN_STRING:
		p.advance()
		return &StringLit{Loc: Span{t.Start, t.End}, Value: t.Value}
	case TOKEN_NUMBER:
		p.advance()
		return &NumberLit{Loc: Span{t.Start, t.End}, Raw: t.Lexeme}
	case TOKEN_TEMPLATE:
		p.advance()
		return &TemplateLit{Loc: Span{t.Start, t.End}}
	case TOKEN_LBRACE:
		return p.parseObjectLit()
	case TOKEN_LBRACKET:
		end := p.skipBalanced()
		return &RawExpr{Loc: Span{t.Start, end}}
	case TOKEN_LPAREN:
		end := p.skipBalanced()
		if p.peek().Type == TOKEN_ARROW {
			return p.finishArrow(t.Start)
		}
		return &RawExpr{Loc: Span{t.Start, end}}
	default:
		p.advance()
		return &RawExpr{Loc: Span{t.Start, t.End}}
	}
}

// finishArrow consumes an arrow function body whose parameters were already
// consumed. Arrow functions are opaque to the extractor.
func (p *Parser) finishArrow(start int) Expr {
	p.advance() // =>
	var end int
	if p.peek().Type == TOKEN_LBRACE {
		end = p.skipBalanced()
	} else {
		body := p.parseExpr()
		end = body.Span().End
	}
	return &RawExpr{Loc: Span{start, end}}
}

func (p *Parser) parsePostfix(e Expr) Expr {
	for {
		switch p.peek().Type {
		case TOKEN_DOT:
			if p.peekNext().Type != TOKEN_IDENT {
				return e
			}
			p.advance()
			prop := p.advance()
			e = &MemberExpr{
				Loc:      Span{e.Span().Start, prop.End},
				Object:   e,
				Property: prop.Lexeme,
			}
		case TOKEN_LPAREN:
			e = p.finishCall(e)
		default:
			return e
		}
	}
}

func (p *Parser) finishCall(callee Expr) Expr {
	lp := p.advance() // (
	call := &CallExpr{Callee: callee, LParen: lp.Start}

	for !p.isAtEnd() && p.peek().Type != TOKEN_RPAREN {
		arg := p.parseExpr()
		call.Args = append(call.Args, arg)
		p.skipToListEnd(TOKEN_RPAREN)
		if p.peek().Type == TOKEN_COMMA {
			p.advance()
		}
	}

	rp := p.peek()
	if rp.Type == TOKEN_RPAREN {
		p.advance()
	} else {
		rp = p.previous()
	}
	call.RParen = rp.Start
	call.Loc = Span{callee.Span().Start, rp.End}
	return call
}

func (p *Parser) parseObjectLit() Expr {
	lb := p.advance() // {
	obj := &ObjectLit{LBrace: lb.Start}

	for !p.isAtEnd() && p.peek().Type != TOKEN_RBRACE {
		if prop := p.parseProperty(); prop != nil {
			obj.Props = append(obj.Props, prop)
		}
		if p.peek().Type == TOKEN_COMMA {
			p.advance()
		}
	}

	rb := p.peek()
	if rb.Type == TOKEN_RBRACE {
		p.advance()
	} else {
		rb = p.previous()
	}
	obj.RBrace = rb.Start
	obj.Loc = Span{lb.Start, rb.End}
	return obj
}

func (p *Parser) parseProperty() *Property {
	t := p.peek()

	if t.Type == TOKEN_SPREAD {
		p.advance()
		p.parseExpr()
		p.skipToListEnd(TOKEN_RBRACE)
		return &Property{Loc: Span{t.Start, p.previous().End}}
	}

	if t.Type == TOKEN_IDENT || t.Type == TOKEN_STRING || t.Type == TOKEN_NUMBER {
		key := t.Lexeme
		if t.Type == TOKEN_STRING {
			key = t.Value
		}
		p.advance()

		if p.peek().Type == TOKEN_COLON {
			p.advance()
			value := p.parseExpr()
			end := p.previous().End
			p.skipToListEnd(TOKEN_RBRACE)
			if p.previous().End > end {
				end = p.previous().End
			}
			return &Property{Loc: Span{t.Start, end}, Key: key, Value: value}
		}
		if p.peek().Type == TOKEN_COMMA || p.peek().Type == TOKEN_RBRACE {
			// shorthand property
			return &Property{
				Loc:   Span{t.Start, t.End},
				Key:   key,
				Value: &Ident{Loc: Span{t.Start, t.End}, Name: t.Lexeme},
			}
		}
		// method shorthand or anything else: keep the key, skip the rest
		p.skipToListEnd(TOKEN_RBRACE)
		return &Property{Loc: Span{t.Start, p.previous().End}, Key: key}
	}

	// computed key or unexpected token
	p.advance()
	p.skipToListEnd(TOKEN_RBRACE)
	return &Property{Loc: Span{t.Start, p.previous().End}}
}

// skipToListEnd consumes tokens until a depth-zero comma or the given closer,
// leaving both unconsumed.
func (p *Parser) skipToListEnd(closer TokenType) {
	depth := 0
	for !p.isAtEnd() {
		t := p.peek()
		if depth == 0 && (t.Type == TOKEN_COMMA || t.Type == closer) {
			return
		}
		switch t.Type {
		case TOKEN_LPAREN, TOKEN_LBRACE, TOKEN_LBRACKET:
			depth++
		case TOKEN_RPAREN, TOKEN_RBRACE, TOKEN_RBRACKET:
			if depth == 0 {
				return
			}
			depth--
		}
		p.advance()
	}
}

// skipBalanced consumes from the opener at the current position through its
// matching closer and returns the end offset.
func (p *Parser) skipBalanced() int {
	p.advance()
	depth := 1
	for !p.isAtEnd() && depth > 0 {
		switch p.peek().Type {
		case TOKEN_LPAREN, TOKEN_LBRACE, TOKEN_LBRACKET:
			depth++
		case TOKEN_RPAREN, TOKEN_RBRACE, TOKEN_RBRACKET:
			depth--
		}
		p.advance()
	}
	return p.previous().End
}

// skipToStatementEnd consumes through the end of the current statement: a
// depth-zero semicolon, or an automatic-semicolon boundary (a token that can
// end an expression followed by an identifier on a later line). Returns the
// end offset of the last consumed token.
func (p *Parser) skipToStatementEnd() int {
	depth := 0
	for !p.isAtEnd() {
		t := p.peek()
		if depth == 0 {
			if t.Type == TOKEN_SEMICOLON {
				p.advance()
				return p.previous().End
			}
			if p.current > 0 && asiBoundary(p.previous(), t) {
				return p.previous().End
			}
		}
		switch t.Type {
		case TOKEN_LPAREN, TOKEN_LBRACE, TOKEN_LBRACKET:
			depth++
		case TOKEN_RPAREN, TOKEN_RBRACE, TOKEN_RBRACKET:
			if depth > 0 {
				depth--
			}
		}
		p.advance()
	}
	return p.previous().End
}

// asiBoundary is a loose automatic-semicolon-insertion heuristic: a new
// statement begins when an identifier opens a later line after a token that
// can terminate an expression.
func asiBoundary(prev, next Token) bool {
	if next.Line <= prev.Line || next.Type != TOKEN_IDENT {
		return false
	}
	switch prev.Type {
	case TOKEN_IDENT, TOKEN_STRING, TOKEN_NUMBER, TOKEN_TEMPLATE,
		TOKEN_RPAREN, TOKEN_RBRACKET, TOKEN_RBRACE:
		return true
	}
	return false
}

func startsExpression(t TokenType) bool {
	switch t {
	case TOKEN_IDENT, TOKEN_STRING, TOKEN_NUMBER, TOKEN_TEMPLATE,
		TOKEN_LPAREN, TOKEN_LBRACE, TOKEN_LBRACKET:
		return true
	}
	return false
}

func (p *Parser) peek() Token {
	if p.current >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current]
}

func (p *Parser) peekNext() Token {
	if p.current+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+1]
}

func (p *Parser) previous() Token {
	if p.current == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.current-1]
}

func (p *Parser) advance() Token {
	t := p.peek()
	if p.current < len(p.tokens)-1 {
		p.current++
	}
	return t
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == TOKEN_EOF
}
