package extractor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractFixture(t *testing.T, opts Options) *Result {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", "sample.rs"))
	require.NoError(t, err)

	ext := New(opts)
	return ext.Extract(SourceFile{Name: "sample.rs", Text: string(raw)})
}

func TestExtract_Fixture(t *testing.T) {
	res := extractFixture(t, Options{})

	t.Run("No diagnostics", func(t *testing.T) {
		assert.Empty(t, res.Diagnostics)
	})

	t.Run("Structs", func(t *testing.T) {
		require.Len(t, res.Structs, 1)
		st := res.Structs[0]
		assert.Equal(t, "Calculator", st.Name)
		assert.Equal(t, VisibilityPublic, st.Qualifiers.Visibility)
		assert.Empty(t, st.Qualifiers.Generics)
		require.NotNil(t, st.Doc)
		assert.Equal(t, "A simple struct", st.Doc.Text())
	})

	t.Run("Impl block", func(t *testing.T) {
		require.Len(t, res.ImplBlocks, 1)
		impl := res.ImplBlocks[0]
		assert.Equal(t, "Calculator", impl.Target)

		var names []string
		for _, m := range impl.Methods {
			names = append(names, m.Name)
		}
		assert.Equal(t, []string{"new", "add", "get_value", "fetch_data", "raw_pointer_operation"}, names)

		byName := make(map[string]FunctionEntity)
		for _, m := range impl.Methods {
			byName[m.Name] = m
		}

		assert.True(t, byName["fetch_data"].Qualifiers.IsAsync)
		assert.False(t, byName["fetch_data"].Qualifiers.IsUnsafe)
		assert.True(t, byName["raw_pointer_operation"].Qualifiers.IsUnsafe)
		assert.False(t, byName["raw_pointer_operation"].Qualifiers.IsAsync)

		newFn := byName["new"]
		require.Len(t, newFn.Params, 1)
		assert.Equal(t, "initial", newFn.Params[0].Name)
		assert.Equal(t, "i32", newFn.Params[0].Type)
		assert.Equal(t, "Self", newFn.ReturnType)
		require.NotNil(t, newFn.Doc)
		assert.Equal(t, "Creates a new Calculator", newFn.Doc.Text())

		// Receiver forms are boundaries, not parameters.
		add := byName["add"]
		require.Len(t, add.Params, 1)
		assert.Equal(t, "x", add.Params[0].Name)
	})

	t.Run("Top-level functions", func(t *testing.T) {
		var names []string
		for _, fn := range res.Functions {
			names = append(names, fn.Name)
		}
		assert.Equal(t, []string{"calculate_sum", "process_data", "async_operation", "const_operation"}, names)

		byName := make(map[string]FunctionEntity)
		for _, fn := range res.Functions {
			byName[fn.Name] = fn
		}

		assert.Equal(t, []string{"T"}, byName["process_data"].Qualifiers.Generics)
		assert.True(t, byName["async_operation"].Qualifiers.IsAsync)
		assert.True(t, byName["const_operation"].Qualifiers.IsConst)
		assert.Equal(t, VisibilityPrivate, byName["process_data"].Qualifiers.Visibility)
		assert.Equal(t, VisibilityPublic, byName["calculate_sum"].Qualifiers.Visibility)
		assert.Equal(t, "Result<(), Box<dyn std::error::Error>>", byName["async_operation"].ReturnType)
	})

	t.Run("Method spans nest inside the impl span", func(t *testing.T) {
		impl := res.ImplBlocks[0]
		for _, m := range impl.Methods {
			assert.True(t, impl.Span.Contains(m.Span), "method %s escapes impl span", m.Name)
		}
	})

	t.Run("Sibling spans do not overlap", func(t *testing.T) {
		for i := 1; i < len(res.Functions); i++ {
			prev, cur := res.Functions[i-1], res.Functions[i]
			assert.Less(t, prev.Span.EndLine, cur.Span.StartLine)
		}
	})
}

func TestExtract_MainPolicy(t *testing.T) {
	t.Run("Excluded by default", func(t *testing.T) {
		res := extractFixture(t, Options{})
		for _, fn := range res.Functions {
			assert.NotEqual(t, "main", fn.Name)
		}
	})

	t.Run("Included on request", func(t *testing.T) {
		res := extractFixture(t, Options{IncludeMain: true})
		var found bool
		for _, fn := range res.Functions {
			if fn.Name == "main" {
				found = true
			}
		}
		assert.True(t, found)
	})
}

func TestExtract_OnlyFreeFunctions(t *testing.T) {
	src := `
fn one() {}

fn two(a: i32) -> i32 { a }

pub fn three() {}
`
	res := New(Options{}).Extract(SourceFile{Name: "free.rs", Text: src})
	assert.Len(t, res.Functions, 3)
	assert.Empty(t, res.ImplBlocks)
	assert.Empty(t, res.Structs)
	assert.Empty(t, res.Diagnostics)
}

func TestExtract_DocAssociation(t *testing.T) {
	t.Run("Adjacent doc attaches", func(t *testing.T) {
		src := "/// line one\n/// line two\nfn documented() {}\n"
		res := New(Options{}).Extract(SourceFile{Name: "doc.rs", Text: src})
		require.Len(t, res.Functions, 1)
		require.NotNil(t, res.Functions[0].Doc)
		assert.Equal(t, []string{"line one", "line two"}, res.Functions[0].Doc.Lines)
	})

	t.Run("Blank line detaches", func(t *testing.T) {
		src := "/// orphaned\n\nfn lonely() {}\n"
		res := New(Options{}).Extract(SourceFile{Name: "doc.rs", Text: src})
		require.Len(t, res.Functions, 1)
		assert.Nil(t, res.Functions[0].Doc)
	})

	t.Run("Ordinary comment detaches", func(t *testing.T) {
		src := "/// doc\n// plain comment\nfn f() {}\n"
		res := New(Options{}).Extract(SourceFile{Name: "doc.rs", Text: src})
		require.Len(t, res.Functions, 1)
		assert.Nil(t, res.Functions[0].Doc)
	})

	t.Run("Attribute bridges the run", func(t *testing.T) {
		src := "/// documented struct\n#[derive(Debug, Clone)]\npub struct Tagged {\n    id: u64,\n}\n"
		res := New(Options{}).Extract(SourceFile{Name: "doc.rs", Text: src})
		require.Len(t, res.Structs, 1)
		require.NotNil(t, res.Structs[0].Doc)
		assert.Equal(t, "documented struct", res.Structs[0].Doc.Text())
	})
}

func TestExtract_QualifierOrderIndependent(t *testing.T) {
	a := New(Options{}).Extract(SourceFile{Name: "a.rs", Text: "pub async unsafe fn f() {}\n"})
	b := New(Options{}).Extract(SourceFile{Name: "a.rs", Text: "pub unsafe async fn f() {}\n"})
	require.Len(t, a.Functions, 1)
	require.Len(t, b.Functions, 1)
	assert.Equal(t, a.Functions[0].Qualifiers, b.Functions[0].Qualifiers)
	assert.Empty(t, a.Diagnostics)
	assert.Empty(t, b.Diagnostics)
}

func TestExtract_RepeatedQualifier(t *testing.T) {
	res := New(Options{}).Extract(SourceFile{Name: "bad.rs", Text: "pub pub fn f() {}\n"})
	require.Len(t, res.Functions, 1, "declaration is still recognized")
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, DiagUnrecognizedQualifiers, res.Diagnostics[0].Kind)
}

func TestExtract_Idempotent(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("testdata", "sample.rs"))
	require.NoError(t, err)

	file := SourceFile{Name: "sample.rs", Text: string(raw)}
	ext := New(Options{})
	assert.Equal(t, ext.Extract(file), ext.Extract(file))
}

func TestExtract_UnbalancedBraceAtEOF(t *testing.T) {
	src := `
pub struct Early {
    value: i32,
}

fn complete() {}

fn truncated() {
    let x = 1;
`
	res := New(Options{}).Extract(SourceFile{Name: "cut.rs", Text: src})

	assert.Len(t, res.Structs, 1)
	require.Len(t, res.Functions, 2, "entities before the break survive")
	assert.Equal(t, "truncated", res.Functions[1].Name)

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, DiagUnbalancedBraces, res.Diagnostics[0].Kind)
}

func TestExtract_UnterminatedString(t *testing.T) {
	src := `
fn broken() {
    let s = "never closed;
}

fn after() {}
`
	res := New(Options{}).Extract(SourceFile{Name: "lit.rs", Text: src})

	var names []string
	for _, fn := range res.Functions {
		names = append(names, fn.Name)
	}
	assert.Equal(t, []string{"broken", "after"}, names)

	require.NotEmpty(t, res.Diagnostics)
	assert.Equal(t, DiagUnterminatedLiteral, res.Diagnostics[0].Kind)
}

func TestExtract_EmptyInput(t *testing.T) {
	for _, src := range []string{"", "   \n\t\n"} {
		res := New(Options{}).Extract(SourceFile{Name: "empty.rs", Text: src})
		assert.NotNil(t, res.Structs)
		assert.Empty(t, res.Structs)
		assert.Empty(t, res.ImplBlocks)
		assert.Empty(t, res.Functions)
		assert.Empty(t, res.Diagnostics)
	}
}

func TestExtract_SkipsUnmodeledConstructs(t *testing.T) {
	src := `
use std::fmt;

mod helpers {
    pub fn hidden() {}
}

trait Greeter {
    fn greet(&self);
}

enum Mode { On, Off }

static BANNER: &str = "hello";

pub fn visible() {}
`
	res := New(Options{}).Extract(SourceFile{Name: "mixed.rs", Text: src})
	require.Len(t, res.Functions, 1)
	assert.Equal(t, "visible", res.Functions[0].Name)
	assert.Empty(t, res.Structs)
	assert.Empty(t, res.ImplBlocks)
	assert.Empty(t, res.Diagnostics)
}

func TestExtract_StructForms(t *testing.T) {
	src := `
pub struct Unit;

struct Tuple(i32, String);

pub struct Generic<T, U> {
    left: T,
    right: U,
}
`
	res := New(Options{}).Extract(SourceFile{Name: "forms.rs", Text: src})
	require.Len(t, res.Structs, 3)
	assert.Equal(t, "Unit", res.Structs[0].Name)
	assert.Equal(t, "Tuple", res.Structs[1].Name)
	assert.Equal(t, VisibilityPrivate, res.Structs[1].Qualifiers.Visibility)
	assert.Equal(t, "Generic", res.Structs[2].Name)
	assert.Equal(t, []string{"T", "U"}, res.Structs[2].Qualifiers.Generics)
	assert.Empty(t, res.Diagnostics)
}

func TestExtract_TraitImplTargetsType(t *testing.T) {
	src := `
impl Display for Report {
    fn fmt(&self, f: Formatter) -> Result {
        unimplemented!()
    }
}
`
	res := New(Options{}).Extract(SourceFile{Name: "trait_impl.rs", Text: src})
	require.Len(t, res.ImplBlocks, 1)
	assert.Equal(t, "Report", res.ImplBlocks[0].Target)
	require.Len(t, res.ImplBlocks[0].Methods, 1)
	assert.Equal(t, "fmt", res.ImplBlocks[0].Methods[0].Name)
}

func TestExtract_SignatureOnlyFunction(t *testing.T) {
	// Trait-style signatures end at a bare semicolon instead of a body.
	src := "pub fn declared_only(a: i32) -> bool;\n"
	res := New(Options{}).Extract(SourceFile{Name: "sig.rs", Text: src})
	require.Len(t, res.Functions, 1)
	assert.Equal(t, "declared_only", res.Functions[0].Name)
	assert.Equal(t, "bool", res.Functions[0].ReturnType)
	assert.Empty(t, res.Diagnostics)
}
