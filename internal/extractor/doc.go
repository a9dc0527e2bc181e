package extractor

import "strings"

// docRun accumulates the contiguous run of documentation-comment tokens seen
// immediately before a candidate declaration. Any blank line, ordinary
// comment or unrelated token breaks the run.
type docRun struct {
	tokens []Token
	// bridge extends the run across attribute lines, which sit between a
	// doc comment and its declaration without detaching it.
	bridgeEnd int
}

// observe feeds the run with a doc-comment token. A gap of more than one
// line since the previous doc token starts a fresh run.
func (r *docRun) observe(tok Token) {
	if len(r.tokens) > 0 && tok.Line-r.endLine() > 1 {
		r.tokens = r.tokens[:0]
	}
	r.bridgeEnd = 0
	r.tokens = append(r.tokens, tok)
}

// bridge marks lines up to endLine as transparent for contiguity, keeping
// the run alive across an attribute that directly follows it.
func (r *docRun) bridge(endLine int) {
	if len(r.tokens) == 0 {
		return
	}
	if endLine-r.endLine() > 1 {
		r.reset()
		return
	}
	r.bridgeEnd = endLine
}

// reset discards the run; called whenever a non-doc token interrupts it.
func (r *docRun) reset() {
	r.tokens = r.tokens[:0]
	r.bridgeEnd = 0
}

func (r *docRun) endLine() int {
	end := 0
	if n := len(r.tokens); n > 0 {
		end = tokenEndLine(r.tokens[n-1])
	}
	if r.bridgeEnd > end {
		end = r.bridgeEnd
	}
	return end
}

// take returns the collected DocComment if the run ends directly above
// declLine, or nil when the run is empty or separated by a blank line.
// The run is consumed either way. Collection is positional and pure, so
// re-running it at the same position yields the same result.
func (r *docRun) take(declLine int) *DocComment {
	defer r.reset()
	if len(r.tokens) == 0 {
		return nil
	}
	if declLine-r.endLine() > 1 {
		return nil
	}
	var lines []string
	for _, tok := range r.tokens {
		lines = append(lines, cleanDocToken(tok.Text)...)
	}
	return &DocComment{Lines: lines}
}

// tokenEndLine is the line a token ends on; only block comments span lines.
func tokenEndLine(tok Token) int {
	return tok.Line + strings.Count(tok.Text, "\n")
}

// cleanDocToken strips comment markers from a doc token, yielding one entry
// per source line.
func cleanDocToken(raw string) []string {
	if strings.HasPrefix(raw, "//") {
		line := strings.TrimPrefix(raw, "///")
		line = strings.TrimPrefix(line, "//!")
		return []string{strings.TrimSpace(line)}
	}

	// Block form: /** ... */ or /*! ... */
	body := strings.TrimPrefix(raw, "/**")
	body = strings.TrimPrefix(body, "/*!")
	body = strings.TrimSuffix(body, "*/")

	var lines []string
	for _, l := range strings.Split(body, "\n") {
		l = strings.TrimSpace(l)
		l = strings.TrimPrefix(l, "*")
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
