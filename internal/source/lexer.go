// Package source is a loose lexer and parser for JavaScript/TypeScript
// module text. It recognizes exactly the statement and expression shapes the
// metadata extractor needs and degrades everything else to opaque raw nodes,
// so parsing never fails on partial or invalid input. Every node carries byte
// spans into the original text; rewrites are expressed as span-anchored edits
// spliced back into that text, which leaves unrelated statements untouched.
package source

// Lexer tokenizes module source text. It never reports errors: malformed
// input (an unterminated string, a stray byte) still produces tokens.
type Lexer struct {
	source      []byte
	start       int // start offset of current token
	current     int // current offset in source
	line        int // current line number
	column      int // current column number
	startLine   int
	startColumn int
	tokens      []Token
}

// Lex scans the full source and returns its tokens, terminated by TOKEN_EOF.
func Lex(source string) []Token {
	l := &Lexer{
		source: []byte(source),
		line:   1,
		column: 1,
		tokens: make([]Token, 0, len(source)/8),
	}
	for !l.isAtEnd() {
		l.start = l.current
		l.startLine = l.line
		l.startColumn = l.column
		l.scanToken()
	}
	l.tokens = append(l.tokens, Token{
		Type:   TOKEN_EOF,
		Start:  l.current,
		End:    l.current,
		Line:   l.line,
		Column: l.column,
	})
	return l.tokens
}

func (l *Lexer) scanToken() {
	c := l.advance()

	switch c {
	case ' ', '\t', '\r', '\n':
		return
	case '(':
		l.addToken(TOKEN_LPAREN)
	case ')':
		l.addToken(TOKEN_RPAREN)
	case '{':
		l.addToken(TOKEN_LBRACE)
	case '}':
		l.addToken(TOKEN_RBRACE)
	case '[':
		l.addToken(TOKEN_LBRACKET)
	case ']':
		l.addToken(TOKEN_RBRACKET)
	case ',':
		l.addToken(TOKEN_COMMA)
	case ':':
		l.addToken(TOKEN_COLON)
	case ';':
		l.addToken(TOKEN_SEMICOLON)
	case '.':
		if l.peek() == '.' && l.peekNext() == '.' {
			l.advance()
			l.advance()
			l.addToken(TOKEN_SPREAD)
		} else if isDigit(l.peek()) {
			l.scanNumber()
		} else {
			l.addToken(TOKEN_DOT)
		}
	case '=':
		if l.match('>') {
			l.addToken(TOKEN_ARROW)
		} else if l.peek() == '=' {
			for l.match('=') {
			}
			l.addToken(TOKEN_PUNCT)
		} else {
			l.addToken(TOKEN_EQUAL)
		}
	case '/':
		if l.match('/') {
			for !l.isAtEnd() && l.peek() != '\n' {
				l.advance()
			}
		} else if l.match('*') {
			l.scanBlockComment()
		} else {
			l.addToken(TOKEN_PUNCT)
		}
	case '\'', '"':
		l.scanString(c)
	case '`':
		l.scanTemplate()
	default:
		if isDigit(c) {
			l.scanNumber()
		} else if isIdentStart(c) {
			l.scanIdent()
		} else {
			l.addToken(TOKEN_PUNCT)
		}
	}
}

func (l *Lexer) scanString(quote byte) {
	for !l.isAtEnd() {
		c := l.peek()
		if c == '\\' {
			l.advance()
			if !l.isAtEnd() {
				l.advance()
			}
			continue
		}
		if c == quote || c == '\n' {
			break
		}
		l.advance()
	}
	value := string(l.source[l.start+1 : l.current])
	if !l.isAtEnd() && l.peek() == quote {
		l.advance()
	}
	// Unterminated strings keep whatever was scanned; loose by design.
	l.addTokenValue(TOKEN_STRING, value)
}

func (l *Lexer) scanTemplate() {
	depth := 0 // ${ ... } interpolation nesting
	for !l.isAtEnd() {
		c := l.peek()
		if c == '\\' {
			l.advance()
			if !l.isAtEnd() {
				l.advance()
			}
			continue
		}
		if c == '$' && l.peekNext() == '{' {
			depth++
			l.advance()
			l.advance()
			continue
		}
		if c == '}' && depth > 0 {
			depth--
			l.advance()
			continue
		}
		if c == '`' && depth == 0 {
			l.advance()
			break
		}
		l.advance()
	}
	l.addToken(TOKEN_TEMPLATE)
}

func (l *Lexer) scanBlockComment() {
	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return
		}
		l.advance()
	}
}

func (l *Lexer) scanNumber() {
	for !l.isAtEnd() && isNumberChar(l.peek()) {
		l.advance()
	}
	l.addToken(TOKEN_NUMBER)
}

func (l *Lexer) scanIdent() {
	for !l.isAtEnd() && isIdentPart(l.peek()) {
		l.advance()
	}
	l.addToken(TOKEN_IDENT)
}

func (l *Lexer) addToken(t TokenType) {
	l.addTokenValue(t, "")
}

func (l *Lexer) addTokenValue(t TokenType, value string) {
	l.tokens = append(l.tokens, Token{
		Type:   t,
		Lexeme: string(l.source[l.start:l.current]),
		Value:  value,
		Start:  l.start,
		End:    l.current,
		Line:   l.startLine,
		Column: l.startColumn,
	})
}

func (l *Lexer) advance() byte {
	c := l.source[l.current]
	l.current++
	if c == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return c
}

func (l *Lexer) match(expected byte) bool {
	if l.isAtEnd() || l.source[l.current] != expected {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.current]
}

func (l *Lexer) peekNext() byte {
	if l.current+1 >= len(l.source) {
		return 0
	}
	return l.source[l.current+1]
}

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isNumberChar(c byte) bool {
	// Loose: covers decimal, hex, octal, binary, exponents and separators.
	return isDigit(c) || c == '.' || c == '_' ||
		(c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') ||
		c == 'x' || c == 'X' || c == 'o' || c == 'O' || c == 'n'
}
