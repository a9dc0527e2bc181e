package extractor

import "strings"

// tokenCursor pulls tokens from the scanner on demand and supports a small
// pushback buffer for the single-token lookahead the recognizer needs.
type tokenCursor struct {
	sc      *scanner
	pending []Token
}

func (c *tokenCursor) next() (Token, bool) {
	if n := len(c.pending); n > 0 {
		tok := c.pending[n-1]
		c.pending = c.pending[:n-1]
		return tok, true
	}
	return c.sc.next()
}

func (c *tokenCursor) unread(tok Token) {
	c.pending = append(c.pending, tok)
}

// recognizer walks the token stream and identifies declaration shapes. It is
// an explicit state machine: the top-level scan loop waits for a declaration
// start, qualifier collection accumulates modifiers into a set, the
// signature parsers consume one declaration head, and body handling closes
// the declaration at its matching brace or semicolon. Malformed regions
// degrade into diagnostics and the loop resumes at the next recognizable
// token; there is no backtracking.
type recognizer struct {
	src   string
	cur   *tokenCursor
	diags *[]Diagnostic
	docs  docRun
	build *modelBuilder
}

func (r *recognizer) report(kind DiagnosticKind, line, col int, msg string) {
	*r.diags = append(*r.diags, Diagnostic{Kind: kind, Line: line, Column: col, Message: msg})
}

// declStarters are the keywords that may open a recognized declaration.
var declStarters = map[string]bool{
	"pub": true, "const": true, "async": true, "unsafe": true,
	"fn": true, "struct": true, "impl": true,
}

// scanTopLevel is the ExpectingDeclarationStart state: it consumes tokens
// until a declaration or skippable construct begins.
func (r *recognizer) scanTopLevel() {
	for {
		tok, ok := r.cur.next()
		if !ok {
			return
		}
		switch {
		case tok.Kind == TokenDocComment:
			r.docs.observe(tok)
		case tok.Kind == TokenComment:
			r.docs.reset()
		case tok.Kind == TokenKeyword && declStarters[tok.Text]:
			r.parseDeclaration(tok, nil)
		case tok.Kind == TokenKeyword:
			// use, mod, trait, enum, static, type and friends: not modeled.
			r.docs.reset()
			r.skipConstruct()
		case tok.Kind == TokenPunct && tok.Text == "#":
			r.skipAttribute()
		case tok.Kind == TokenPunct && tok.Text == "{":
			r.docs.reset()
			r.skipBraces(tok)
		default:
			r.docs.reset()
		}
	}
}

// skipAttribute consumes a `#[...]` or `#![...]` group. Attributes sit
// between a doc comment and its declaration, so they bridge the doc run
// instead of breaking it.
func (r *recognizer) skipAttribute() {
	tok, ok := r.cur.next()
	if !ok {
		return
	}
	if tok.Kind == TokenPunct && tok.Text == "!" {
		tok, ok = r.cur.next()
		if !ok {
			return
		}
	}
	if !(tok.Kind == TokenPunct && tok.Text == "[") {
		r.cur.unread(tok)
		r.docs.reset()
		return
	}
	depth := 1
	last := tok
	for depth > 0 {
		t, ok := r.cur.next()
		if !ok {
			return
		}
		last = t
		if t.Kind != TokenPunct {
			continue
		}
		switch t.Text {
		case "[":
			depth++
		case "]":
			depth--
		}
	}
	r.docs.bridge(tokenEndLine(last))
}

// skipConstruct discards an unrecognized construct: everything up to a
// top-level semicolon or one balanced brace block, whichever comes first.
func (r *recognizer) skipConstruct() {
	for {
		tok, ok := r.cur.next()
		if !ok {
			return
		}
		if tok.Kind != TokenPunct {
			continue
		}
		switch tok.Text {
		case ";":
			return
		case "{":
			r.skipBraces(tok)
			return
		case "}":
			// Stray closer; hand it back so an enclosing block can end.
			r.cur.unread(tok)
			return
		}
	}
}

// skipBraces consumes a balanced brace block whose opener has already been
// read. Literal and comment braces never arrive as punctuation, so counting
// is purely token-kind driven. Returns the closing line, or the last line
// seen with ok=false when the file ends first.
func (r *recognizer) skipBraces(open Token) (int, bool) {
	depth := 1
	last := open
	for depth > 0 {
		tok, ok := r.cur.next()
		if !ok {
			return tokenEndLine(last), false
		}
		last = tok
		if tok.Kind != TokenPunct {
			continue
		}
		switch tok.Text {
		case "{":
			depth++
		case "}":
			depth--
		}
	}
	return last.Line, true
}

// qualifierSet is the InQualifiers accumulator. Keywords are consumed in any
// order into flags; a repeated keyword is contradictory and reported, but
// the declaration is still recognized with the set collected so far.
type qualifierSet struct {
	quals    Qualifiers
	seen     map[string]bool
	reported bool
}

func newQualifierSet() *qualifierSet {
	return &qualifierSet{
		quals: Qualifiers{Visibility: VisibilityPrivate},
		seen:  make(map[string]bool),
	}
}

func (q *qualifierSet) consume(r *recognizer, tok Token) {
	if q.seen[tok.Text] && !q.reported {
		r.report(DiagUnrecognizedQualifiers, tok.Line, tok.Col,
			"repeated qualifier "+tok.Text)
		q.reported = true
	}
	q.seen[tok.Text] = true
	switch tok.Text {
	case "pub":
		q.quals.Visibility = VisibilityPublic
	case "async":
		q.quals.IsAsync = true
	case "unsafe":
		q.quals.IsUnsafe = true
	case "const":
		q.quals.IsConst = true
	}
}

// parseDeclaration runs the InQualifiers state starting at first, then
// dispatches on the declaration keyword. owner is non-nil when parsing
// inside an impl block. Constructs that only share a qualifier prefix with a
// declaration (pub use, pub trait, const items) are skipped silently.
func (r *recognizer) parseDeclaration(first Token, owner *ImplBlockEntity) {
	qs := newQualifierSet()
	tok := first
	for {
		switch tok.Text {
		case "pub":
			qs.consume(r, tok)
			// Restricted visibility: pub(crate), pub(in path).
			if next, ok := r.cur.next(); ok {
				if next.Kind == TokenPunct && next.Text == "(" {
					r.skipParens()
				} else {
					r.cur.unread(next)
				}
			}
		case "const", "async", "unsafe":
			qs.consume(r, tok)
		case "fn":
			r.parseFunction(qs.quals, first.Line, owner)
			return
		case "struct":
			if owner == nil {
				r.parseStruct(qs.quals, first.Line)
			} else {
				r.docs.reset()
				r.skipConstruct()
			}
			return
		case "impl":
			if owner == nil {
				r.parseImplBlock(first.Line)
			} else {
				r.docs.reset()
				r.skipConstruct()
			}
			return
		default:
			// Qualifier prefix without a recognized declaration keyword.
			r.docs.reset()
			r.cur.unread(tok)
			r.skipConstruct()
			return
		}
		next, ok := r.cur.next()
		if !ok {
			return
		}
		tok = next
	}
}

// skipParens consumes a balanced parenthesis group whose opener has been read.
func (r *recognizer) skipParens() {
	depth := 1
	for depth > 0 {
		tok, ok := r.cur.next()
		if !ok {
			return
		}
		if tok.Kind != TokenPunct {
			continue
		}
		switch tok.Text {
		case "(":
			depth++
		case ")":
			depth--
		}
	}
}

// parseStruct handles `struct Name<..> { .. }` plus the tuple and unit
// forms, which terminate at a semicolon instead of a brace block.
func (r *recognizer) parseStruct(quals Qualifiers, startLine int) {
	name, ok := r.expectIdent()
	if !ok {
		r.docs.reset()
		r.skipConstruct()
		return
	}
	doc := r.docs.take(startLine)

	st := StructEntity{
		Name:       name.Text,
		Qualifiers: quals,
		Doc:        doc,
		Span:       Span{StartLine: startLine, EndLine: startLine},
	}

	for {
		tok, ok := r.cur.next()
		if !ok {
			r.report(DiagUnbalancedBraces, startLine, 0,
				"struct "+st.Name+" not terminated before end of file")
			r.build.addStruct(st)
			return
		}
		if tok.Kind == TokenPunct {
			switch tok.Text {
			case "<":
				st.Qualifiers.Generics = r.parseGenericParams()
				continue
			case "(":
				// Tuple struct body; the declaration still ends at `;`.
				r.skipParens()
				continue
			case ";":
				st.Span.EndLine = tok.Line
				r.build.addStruct(st)
				return
			case "{":
				end, balanced := r.skipBraces(tok)
				if !balanced {
					r.report(DiagUnbalancedBraces, tok.Line, tok.Col,
						"struct "+st.Name+" body not closed before end of file")
				}
				st.Span.EndLine = end
				r.build.addStruct(st)
				return
			}
		}
		// where clauses and trailing bounds are scanned over.
	}
}

// parseImplBlock handles `impl<..> Name { fn* }`. Trait impls written as
// `impl Trait for Name` associate their methods with Name. The target is
// recorded verbatim; resolution to a struct is the caller's concern.
func (r *recognizer) parseImplBlock(startLine int) {
	r.docs.reset()

	impl := ImplBlockEntity{
		Methods: []FunctionEntity{},
		Span:    Span{StartLine: startLine, EndLine: startLine},
	}

	// Scan the impl head for the target name.
	for {
		tok, ok := r.cur.next()
		if !ok {
			return
		}
		if tok.Kind == TokenPunct && tok.Text == "<" {
			r.skipAngles()
			continue
		}
		if tok.Kind == TokenIdent {
			impl.Target = tok.Text
			continue
		}
		if tok.Kind == TokenKeyword && tok.Text == "for" {
			// `impl Trait for Type`: the type after `for` wins.
			impl.Target = ""
			continue
		}
		if tok.Kind == TokenPunct && tok.Text == "{" {
			r.parseImplBody(tok, &impl)
			return
		}
		if tok.Kind == TokenPunct && tok.Text == ";" {
			// Malformed or foreign impl form; nothing to model.
			return
		}
	}
}

// parseImplBody collects nested function declarations until the block's
// closing brace, recursing into the declaration recognizer scoped to the
// block's brace span.
func (r *recognizer) parseImplBody(open Token, impl *ImplBlockEntity) {
	r.docs.reset()
	last := open
	for {
		tok, ok := r.cur.next()
		if !ok {
			r.report(DiagUnbalancedBraces, open.Line, open.Col,
				"impl "+impl.Target+" not closed before end of file")
			impl.Span.EndLine = tokenEndLine(last)
			r.build.addImpl(*impl)
			return
		}
		last = tok
		switch {
		case tok.Kind == TokenDocComment:
			r.docs.observe(tok)
		case tok.Kind == TokenComment:
			r.docs.reset()
		case tok.Kind == TokenKeyword && declStarters[tok.Text]:
			r.parseDeclaration(tok, impl)
		case tok.Kind == TokenKeyword:
			r.docs.reset()
			r.skipConstruct()
		case tok.Kind == TokenPunct && tok.Text == "#":
			r.skipAttribute()
		case tok.Kind == TokenPunct && tok.Text == "{":
			r.docs.reset()
			r.skipBraces(tok)
		case tok.Kind == TokenPunct && tok.Text == "}":
			impl.Span.EndLine = tok.Line
			r.build.addImpl(*impl)
			return
		default:
			r.docs.reset()
		}
	}
}

// parseFunction is the InSignature state for `fn`: name, generic parameter
// list, parameters, optional return type, then the InBody state, which is
// either a balanced brace block or a bare semicolon.
func (r *recognizer) parseFunction(quals Qualifiers, startLine int, owner *ImplBlockEntity) {
	name, ok := r.expectIdent()
	if !ok {
		r.docs.reset()
		r.skipConstruct()
		return
	}
	doc := r.docs.take(startLine)

	fn := FunctionEntity{
		Name:       name.Text,
		Qualifiers: quals,
		Doc:        doc,
		Span:       Span{StartLine: startLine, EndLine: startLine},
	}

	tok, ok := r.cur.next()
	if !ok {
		r.reportUnclosedFn(fn, owner, startLine)
		return
	}
	if tok.Kind == TokenPunct && tok.Text == "<" {
		fn.Qualifiers.Generics = r.parseGenericParams()
		tok, ok = r.cur.next()
		if !ok {
			r.reportUnclosedFn(fn, owner, startLine)
			return
		}
	}
	if tok.Kind == TokenPunct && tok.Text == "(" {
		fn.Params = r.parseParams()
		tok, ok = r.cur.next()
		if !ok {
			r.reportUnclosedFn(fn, owner, startLine)
			return
		}
	}

	// Optional `-> ReturnType`, captured verbatim up to the body.
	if tok.Kind == TokenPunct && tok.Text == "-" {
		arrow, ok2 := r.cur.next()
		if ok2 && arrow.Kind == TokenPunct && arrow.Text == ">" && arrow.Pos == tok.End {
			ret, stop, ok3 := r.captureUntilBody()
			if !ok3 {
				r.reportUnclosedFn(fn, owner, startLine)
				return
			}
			fn.ReturnType = ret
			tok = stop
		} else if ok2 {
			r.cur.unread(arrow)
		}
	}

	// Scan over where clauses to the body.
	for !(tok.Kind == TokenPunct && (tok.Text == "{" || tok.Text == ";")) {
		next, ok2 := r.cur.next()
		if !ok2 {
			r.reportUnclosedFn(fn, owner, startLine)
			return
		}
		tok = next
	}

	if tok.Text == ";" {
		// Signature-only declaration (trait-style); span ends here.
		fn.Span.EndLine = tok.Line
	} else {
		end, balanced := r.skipBraces(tok)
		if !balanced {
			r.report(DiagUnbalancedBraces, tok.Line, tok.Col,
				"body of fn "+fn.Name+" not closed before end of file")
		}
		fn.Span.EndLine = end
	}
	r.emitFunction(fn, owner)
}

func (r *recognizer) reportUnclosedFn(fn FunctionEntity, owner *ImplBlockEntity, startLine int) {
	r.report(DiagUnbalancedBraces, startLine, 0,
		"fn "+fn.Name+" not terminated before end of file")
	fn.Span.EndLine = r.cur.sc.line
	r.emitFunction(fn, owner)
}

func (r *recognizer) emitFunction(fn FunctionEntity, owner *ImplBlockEntity) {
	if owner != nil {
		owner.Methods = append(owner.Methods, fn)
		return
	}
	r.build.addFunction(fn)
}

// captureUntilBody slices the raw return-type text: everything after the
// arrow until a top-level `{`, `;` or `where`. The stopping token is
// returned unconsumed by the capture.
func (r *recognizer) captureUntilBody() (string, Token, bool) {
	startPos := -1
	depth := 0
	for {
		tok, ok := r.cur.next()
		if !ok {
			return "", Token{}, false
		}
		if startPos < 0 {
			startPos = tok.Pos
		}
		if tok.Kind == TokenKeyword && tok.Text == "where" && depth == 0 {
			return strings.TrimSpace(r.src[startPos:tok.Pos]), tok, true
		}
		if tok.Kind != TokenPunct {
			continue
		}
		switch tok.Text {
		case "(", "[", "<":
			depth++
		case ")", "]", ">":
			if depth > 0 {
				depth--
			}
		case "{", ";":
			if depth == 0 {
				return strings.TrimSpace(r.src[startPos:tok.Pos]), tok, true
			}
		}
	}
}

// parseGenericParams consumes `<...>` after the opener has been read and
// returns the declared parameter names in order. Bounds after `:` and
// defaults after `=` are scanned over; lifetimes count as parameters.
func (r *recognizer) parseGenericParams() []string {
	var names []string
	depth := 1
	expectName := true
	for {
		tok, ok := r.cur.next()
		if !ok {
			return names
		}
		if tok.Kind == TokenPunct {
			switch tok.Text {
			case "<":
				depth++
				continue
			case ">":
				depth--
				if depth == 0 {
					return names
				}
				continue
			case ",":
				if depth == 1 {
					expectName = true
				}
				continue
			case ":", "=":
				if depth == 1 {
					expectName = false
				}
				continue
			}
		}
		if depth != 1 || !expectName {
			continue
		}
		switch {
		case tok.Kind == TokenIdent:
			names = append(names, tok.Text)
			expectName = false
		case tok.Kind == TokenOther && strings.HasPrefix(tok.Text, "'"):
			names = append(names, tok.Text)
			expectName = false
		case tok.Kind == TokenKeyword && tok.Text == "const":
			// const generic: the name follows.
		}
	}
}

// parseParams consumes a parameter list after the opening paren has been
// read. Each parameter keeps its raw type text verbatim; receiver forms
// (self, &self, &mut self) are boundary markers, not modeled parameters.
func (r *recognizer) parseParams() []Parameter {
	var params []Parameter
	var seg []Token
	parenDepth := 1
	angleDepth := 0

	flush := func() {
		if p, ok := r.paramFromTokens(seg); ok {
			params = append(params, p)
		}
		seg = seg[:0]
	}

	for {
		tok, ok := r.cur.next()
		if !ok {
			flush()
			return params
		}
		if tok.Kind == TokenPunct {
			switch tok.Text {
			case "(", "[", "{":
				parenDepth++
			case ")", "]", "}":
				parenDepth--
				if parenDepth == 0 {
					flush()
					return params
				}
			case "<":
				angleDepth++
			case ">":
				if angleDepth > 0 {
					angleDepth--
				}
			case ",":
				if parenDepth == 1 && angleDepth == 0 {
					flush()
					continue
				}
			}
		}
		seg = append(seg, tok)
	}
}

// paramFromTokens builds one Parameter from a comma-delimited segment.
func (r *recognizer) paramFromTokens(seg []Token) (Parameter, bool) {
	if len(seg) == 0 {
		return Parameter{}, false
	}
	if isReceiver(seg) {
		return Parameter{}, false
	}

	// Name: the first identifier, skipping `mut` and reference sigils.
	nameIdx := -1
	for i, tok := range seg {
		if tok.Kind == TokenKeyword && (tok.Text == "mut" || tok.Text == "ref") {
			continue
		}
		if tok.Kind == TokenIdent {
			nameIdx = i
			break
		}
		if tok.Kind == TokenPunct && tok.Text == "&" {
			continue
		}
		break
	}

	raw := strings.TrimSpace(r.src[seg[0].Pos:seg[len(seg)-1].End])
	if nameIdx < 0 {
		return Parameter{Type: raw}, true
	}

	p := Parameter{Name: seg[nameIdx].Text}
	// Type: everything after the first top-level colon.
	for i := nameIdx + 1; i < len(seg); i++ {
		if seg[i].Kind == TokenPunct && seg[i].Text == ":" {
			if i+1 < len(seg) {
				p.Type = strings.TrimSpace(r.src[seg[i+1].Pos:seg[len(seg)-1].End])
			}
			return p, true
		}
	}
	// No colon: malformed or pattern-only parameter, keep the raw text.
	p.Name = ""
	p.Type = raw
	return p, true
}

// isReceiver reports whether a segment is a self receiver form.
func isReceiver(seg []Token) bool {
	for _, tok := range seg {
		if tok.Kind == TokenKeyword && tok.Text == "self" {
			// `self: Type` is an explicit typed receiver, still a receiver.
			return true
		}
		if tok.Kind == TokenPunct && tok.Text == "&" {
			continue
		}
		if tok.Kind == TokenKeyword && tok.Text == "mut" {
			continue
		}
		if tok.Kind == TokenOther && strings.HasPrefix(tok.Text, "'") {
			continue
		}
		return false
	}
	return false
}

// skipAngles consumes a balanced `<...>` group whose opener has been read.
func (r *recognizer) skipAngles() {
	depth := 1
	for depth > 0 {
		tok, ok := r.cur.next()
		if !ok {
			return
		}
		if tok.Kind != TokenPunct {
			continue
		}
		switch tok.Text {
		case "<":
			depth++
		case ">":
			depth--
		}
	}
}

// expectIdent reads the next token and requires an identifier.
func (r *recognizer) expectIdent() (Token, bool) {
	tok, ok := r.cur.next()
	if !ok {
		return Token{}, false
	}
	if tok.Kind != TokenIdent {
		r.cur.unread(tok)
		return Token{}, false
	}
	return tok, true
}
