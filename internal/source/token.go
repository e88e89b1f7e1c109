package source

// TokenType identifies the kind of a lexed token
type TokenType int

const (
	TOKEN_EOF TokenType = iota
	TOKEN_IDENT
	TOKEN_STRING
	TOKEN_TEMPLATE
	TOKEN_NUMBER
	TOKEN_LPAREN
	TOKEN_RPAREN
	TOKEN_LBRACE
	TOKEN_RBRACE
	TOKEN_LBRACKET
	TOKEN_RBRACKET
	TOKEN_COMMA
	TOKEN_COLON
	TOKEN_SEMICOLON
	TOKEN_DOT
	TOKEN_SPREAD
	TOKEN_EQUAL
	TOKEN_ARROW
	TOKEN_PUNCT // any operator or punctuation not listed above
)

// Token is a single lexed token with byte offsets into the original source
type Token struct {
	Type   TokenType
	Lexeme string // raw source text of the token
	Value  string // unquoted contents for TOKEN_STRING
	Start  int    // byte offset of first character
	End    int    // byte offset one past the last character
	Line   int    // 1-based line number
	Column int    // 1-based column number
}

// Is reports whether the token is an identifier with the given name.
func (t Token) Is(name string) bool {
	return t.Type == TOKEN_IDENT && t.Lexeme == name
}
