// Package extractor turns raw Rust source text into a structured inventory
// of its declared entities: structs, impl blocks, methods and free
// functions, together with their qualifiers and doc comments.
//
// The extractor is a resilient front-end, not a compiler: it recognizes
// syntactic shape under a permissive grammar and degrades malformed input
// into diagnostics instead of failing. It performs no I/O and keeps no
// shared state, so distinct files can be extracted concurrently.
package extractor

// Options tunes extraction policy.
type Options struct {
	// IncludeMain models a top-level `fn main` as an ordinary function
	// instead of excluding it from the result.
	IncludeMain bool
}

// Extractor extracts the entity model from single source files. The zero
// value is usable; one Extractor may be shared across goroutines.
type Extractor struct {
	opts Options
}

// New creates an extractor with the given options.
func New(opts Options) *Extractor {
	return &Extractor{opts: opts}
}

// Extract parses one file's text and returns its complete entity model.
// It never fails: malformed regions are recorded as diagnostics and
// extraction continues at the next recognizable token. Empty or
// whitespace-only input yields a result with empty entity sequences and no
// diagnostics.
func (e *Extractor) Extract(file SourceFile) *Result {
	var diags []Diagnostic

	builder := newModelBuilder(file.Name, e.opts.IncludeMain)
	rec := &recognizer{
		src:   file.Text,
		cur:   &tokenCursor{sc: newScanner(file.Text, &diags)},
		diags: &diags,
		build: builder,
	}
	rec.scanTopLevel()

	return builder.finish(diags)
}
