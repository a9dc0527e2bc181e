package extractor

// SourceFile is the unit of input: an identifier (usually a path) plus the
// full raw text. The extractor never touches the filesystem; whoever
// discovers files hands the text in.
type SourceFile struct {
	Name string
	Text string
}

// Span is the inclusive line range a declaration occupies in its file.
// Granularity is the line: sibling declarations written on the same
// physical line share their boundary lines, so non-overlap between
// siblings holds at line granularity only.
type Span struct {
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
}

// Contains reports whether other lies fully inside s.
func (s Span) Contains(other Span) bool {
	return s.StartLine <= other.StartLine && other.EndLine <= s.EndLine
}

// DocComment is the documentation block attached to a declaration, one entry
// per source line, comment markers stripped. A nil DocComment means the
// declaration had no documentation.
type DocComment struct {
	Lines []string `json:"lines"`
}

// Text joins the doc lines into a single block.
func (d *DocComment) Text() string {
	if d == nil {
		return ""
	}
	out := ""
	for i, l := range d.Lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

// Visibility of a declaration. Anything that is not `pub` is private.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Qualifiers is the set of modifiers attached to a declaration. Order of
// appearance in source carries no meaning and is not preserved.
type Qualifiers struct {
	Visibility Visibility `json:"visibility"`
	IsAsync    bool       `json:"is_async,omitempty"`
	IsUnsafe   bool       `json:"is_unsafe,omitempty"`
	IsConst    bool       `json:"is_const,omitempty"`
	// Generics holds the generic parameter names in declaration order,
	// empty for non-generic declarations.
	Generics []string `json:"generics,omitempty"`
}

// Parameter is a function parameter: a name plus the raw, unparsed type
// text. The type system is out of scope, so the type is kept verbatim.
type Parameter struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// FunctionEntity describes a free function or a method.
type FunctionEntity struct {
	Name       string      `json:"name"`
	Qualifiers Qualifiers  `json:"qualifiers"`
	Params     []Parameter `json:"params,omitempty"`
	ReturnType string      `json:"return_type,omitempty"`
	Doc        *DocComment `json:"doc,omitempty"`
	Span       Span        `json:"span"`
}

// StructEntity describes a struct declaration. Field details are out of
// scope; only the declaration itself is modeled.
type StructEntity struct {
	Name       string      `json:"name"`
	Qualifiers Qualifiers  `json:"qualifiers"`
	Doc        *DocComment `json:"doc,omitempty"`
	Span       Span        `json:"span"`
}

// ImplBlockEntity groups the methods declared for a named struct. Target is
// the struct name exactly as written; it is an advisory, name-based link and
// need not resolve to a StructEntity in the same file.
type ImplBlockEntity struct {
	Target  string           `json:"target"`
	Methods []FunctionEntity `json:"methods"`
	Span    Span             `json:"span"`
}

// DiagnosticKind classifies a recoverable parse issue.
type DiagnosticKind string

const (
	// DiagUnterminatedLiteral marks a string, char or block comment that was
	// not closed before the end of its line or the end of the file.
	DiagUnterminatedLiteral DiagnosticKind = "unterminated_literal"
	// DiagUnbalancedBraces marks a declaration body not closed before EOF.
	DiagUnbalancedBraces DiagnosticKind = "unbalanced_braces"
	// DiagUnrecognizedQualifiers marks a contradictory qualifier sequence,
	// e.g. a repeated keyword like `pub pub fn`.
	DiagUnrecognizedQualifiers DiagnosticKind = "unrecognized_qualifier_combination"
)

// Diagnostic records a parse issue that was recovered from instead of
// aborting extraction.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Line    int            `json:"line"`
	Column  int            `json:"column,omitempty"`
	Message string         `json:"message"`
}

// Result is the complete entity model extracted from one SourceFile.
// All sequences are in source order. Results are never mutated after the
// extractor returns them.
type Result struct {
	File        string            `json:"file"`
	Structs     []StructEntity    `json:"structs"`
	ImplBlocks  []ImplBlockEntity `json:"impl_blocks"`
	Functions   []FunctionEntity  `json:"functions"`
	Diagnostics []Diagnostic      `json:"diagnostics,omitempty"`
}
