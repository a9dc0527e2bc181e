package extractor

import (
	"fmt"
	"strings"
)

// TokenKind classifies a lexical item.
type TokenKind int

const (
	TokenIdent TokenKind = iota
	TokenKeyword
	TokenPunct
	TokenComment
	TokenDocComment
	TokenString // string and char literals, contents opaque
	TokenOther  // numbers, lifetimes, anything else
)

// Token is one lexical item. Pos and End are byte offsets into the source
// text so callers can recover raw spans verbatim; Line and Col are 1-based.
type Token struct {
	Kind TokenKind
	Text string
	Line int
	Col  int
	Pos  int
	End  int
}

// rustKeywords is the set of words the recognizer cares about plus the
// common reserved words, so they never get mistaken for entity names.
var rustKeywords = map[string]bool{
	"pub": true, "fn": true, "struct": true, "impl": true,
	"async": true, "unsafe": true, "const": true, "static": true,
	"use": true, "mod": true, "trait": true, "enum": true, "type": true,
	"let": true, "mut": true, "ref": true, "move": true, "dyn": true,
	"for": true, "while": true, "loop": true, "match": true, "if": true,
	"else": true, "return": true, "where": true, "in": true, "as": true,
	"self": true, "Self": true, "crate": true, "super": true, "extern": true,
}

// scanner converts raw text into a lazily produced token sequence. It owns
// no state beyond its cursor, so every extraction call gets its own scanner
// and files can be processed in parallel.
type scanner struct {
	src   string
	pos   int
	line  int
	col   int
	diags *[]Diagnostic
}

func newScanner(src string, diags *[]Diagnostic) *scanner {
	return &scanner{src: src, pos: 0, line: 1, col: 1, diags: diags}
}

func (s *scanner) report(kind DiagnosticKind, line, col int, format string, args ...interface{}) {
	*s.diags = append(*s.diags, Diagnostic{
		Kind:    kind,
		Line:    line,
		Column:  col,
		Message: fmt.Sprintf(format, args...),
	})
}

func (s *scanner) eof() bool { return s.pos >= len(s.src) }

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) peekAt(off int) byte {
	if s.pos+off >= len(s.src) {
		return 0
	}
	return s.src[s.pos+off]
}

func (s *scanner) advance() byte {
	c := s.src[s.pos]
	s.pos++
	if c == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return c
}

// next produces the next token, or ok=false at end of input.
func (s *scanner) next() (Token, bool) {
	for !s.eof() {
		c := s.peek()
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			s.advance()
			continue
		}
		break
	}
	if s.eof() {
		return Token{}, false
	}

	start, line, col := s.pos, s.line, s.col
	c := s.peek()

	switch {
	case c == '/' && s.peekAt(1) == '/':
		return s.scanLineComment(start, line, col), true
	case c == '/' && s.peekAt(1) == '*':
		return s.scanBlockComment(start, line, col), true
	case c == '"':
		return s.scanString(start, line, col), true
	case c == 'r' && (s.peekAt(1) == '"' || s.peekAt(1) == '#'):
		if tok, ok := s.scanRawString(start, line, col); ok {
			return tok, true
		}
		// Not actually a raw string: fall through to identifier.
		fallthrough
	case isIdentStart(c):
		return s.scanIdent(start, line, col), true
	case c == '\'':
		return s.scanCharOrLifetime(start, line, col), true
	case c >= '0' && c <= '9':
		return s.scanNumber(start, line, col), true
	default:
		s.advance()
		return s.token(TokenPunct, start, line, col), true
	}
}

func (s *scanner) token(kind TokenKind, start, line, col int) Token {
	return Token{
		Kind: kind,
		Text: s.src[start:s.pos],
		Line: line,
		Col:  col,
		Pos:  start,
		End:  s.pos,
	}
}

func (s *scanner) scanLineComment(start, line, col int) Token {
	for !s.eof() && s.peek() != '\n' {
		s.advance()
	}
	text := s.src[start:s.pos]
	kind := TokenComment
	// `///` and `//!` are documentation; `////...` dividers are not.
	if (strings.HasPrefix(text, "///") && !strings.HasPrefix(text, "////")) ||
		strings.HasPrefix(text, "//!") {
		kind = TokenDocComment
	}
	return s.token(kind, start, line, col)
}

func (s *scanner) scanBlockComment(start, line, col int) Token {
	s.advance() // '/'
	s.advance() // '*'
	depth := 1
	for !s.eof() && depth > 0 {
		if s.peek() == '/' && s.peekAt(1) == '*' {
			s.advance()
			s.advance()
			depth++
			continue
		}
		if s.peek() == '*' && s.peekAt(1) == '/' {
			s.advance()
			s.advance()
			depth--
			continue
		}
		s.advance()
	}
	if depth > 0 {
		s.report(DiagUnterminatedLiteral, line, col, "block comment not closed before end of file")
	}
	text := s.src[start:s.pos]
	kind := TokenComment
	if (strings.HasPrefix(text, "/**") && !strings.HasPrefix(text, "/***") && text != "/**/") ||
		strings.HasPrefix(text, "/*!") {
		kind = TokenDocComment
	}
	return s.token(kind, start, line, col)
}

// scanString consumes a plain string literal. A literal that reaches a line
// boundary without closing is reported and the scanner resumes on the next
// line, so one bad literal never poisons the rest of the file.
func (s *scanner) scanString(start, line, col int) Token {
	s.advance() // opening quote
	for !s.eof() {
		c := s.peek()
		if c == '\\' {
			s.advance()
			if !s.eof() {
				s.advance()
			}
			continue
		}
		if c == '\n' {
			s.report(DiagUnterminatedLiteral, line, col, "string literal not closed before end of line")
			s.advance() // resynchronize past the line boundary
			return s.token(TokenString, start, line, col)
		}
		s.advance()
		if c == '"' {
			return s.token(TokenString, start, line, col)
		}
	}
	s.report(DiagUnterminatedLiteral, line, col, "string literal not closed before end of file")
	return s.token(TokenString, start, line, col)
}

// scanRawString consumes r"..." or r#"..."# with any number of hashes.
// Raw strings may span lines. Returns ok=false if the input only looked
// like a raw string opener.
func (s *scanner) scanRawString(start, line, col int) (Token, bool) {
	off := 1 // past 'r'
	hashes := 0
	for s.peekAt(off) == '#' {
		hashes++
		off++
	}
	if s.peekAt(off) != '"' {
		return Token{}, false
	}
	for i := 0; i <= off; i++ {
		s.advance()
	}
	closer := `"` + strings.Repeat("#", hashes)
	if idx := strings.Index(s.src[s.pos:], closer); idx >= 0 {
		for i := 0; i < idx+len(closer); i++ {
			s.advance()
		}
		return s.token(TokenString, start, line, col), true
	}
	for !s.eof() {
		s.advance()
	}
	s.report(DiagUnterminatedLiteral, line, col, "raw string literal not closed before end of file")
	return s.token(TokenString, start, line, col), true
}

// scanCharOrLifetime disambiguates 'x' char literals from 'a lifetimes by
// looking for a closing quote within the next few bytes.
func (s *scanner) scanCharOrLifetime(start, line, col int) Token {
	if s.peekAt(1) == '\\' {
		// Escaped char like '\n' or '\u{1F600}'.
		s.advance()
		s.advance()
		for !s.eof() && s.peek() != '\'' && s.peek() != '\n' {
			s.advance()
		}
		if s.eof() || s.peek() == '\n' {
			s.report(DiagUnterminatedLiteral, line, col, "char literal not closed")
			return s.token(TokenString, start, line, col)
		}
		s.advance()
		return s.token(TokenString, start, line, col)
	}
	if s.peekAt(2) == '\'' && s.peekAt(1) != '\'' {
		s.advance()
		s.advance()
		s.advance()
		return s.token(TokenString, start, line, col)
	}
	// A lifetime such as 'a, or a stray apostrophe.
	s.advance()
	for !s.eof() && isIdentPart(s.peek()) {
		s.advance()
	}
	return s.token(TokenOther, start, line, col)
}

func (s *scanner) scanIdent(start, line, col int) Token {
	for !s.eof() && isIdentPart(s.peek()) {
		s.advance()
	}
	tok := s.token(TokenIdent, start, line, col)
	if rustKeywords[tok.Text] {
		tok.Kind = TokenKeyword
	}
	return tok
}

func (s *scanner) scanNumber(start, line, col int) Token {
	for !s.eof() && (isIdentPart(s.peek()) || s.peek() == '.') {
		s.advance()
	}
	return s.token(TokenOther, start, line, col)
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
