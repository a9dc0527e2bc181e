package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rustmap/internal/extractor"
	"rustmap/internal/inventory"
)

func testInventory(t *testing.T) *inventory.Inventory {
	t.Helper()
	inv := inventory.New()
	ext := extractor.New(extractor.Options{})
	inv.AddResult(ext.Extract(extractor.SourceFile{Name: "calc.rs", Text: `
/// A simple struct
pub struct Calculator {
    value: i32,
}

impl Calculator {
    pub fn new(initial: i32) -> Self {}
    pub async fn fetch_data(&self) -> Result<String, String> {}
    pub unsafe fn raw_pointer_operation(&self) -> *const i32 {}
}

/// A free function
pub fn calculate_sum(a: i32, b: i32) -> i32 {}
`}))
	inv.AddResult(ext.Extract(extractor.SourceFile{Name: "broken.rs", Text: "fn cut() {\n"}))
	inv.ResolveLinks()
	return inv
}

func fixedClockGenerator() *MarkdownGenerator {
	g := NewMarkdownGenerator()
	g.Now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return g
}

func TestMarkdown_Generate(t *testing.T) {
	g := fixedClockGenerator()
	out := g.Generate(testInventory(t))

	t.Run("Header and stats", func(t *testing.T) {
		assert.Contains(t, out, "# Rust Entity Inventory")
		assert.Contains(t, out, "2026-01-02T03:04:05Z")
		assert.Contains(t, out, "| 2 | 1 | 1 | 3 | 2 | 1 |")
	})

	t.Run("Per-file sections", func(t *testing.T) {
		assert.Contains(t, out, "## `calc.rs`")
		assert.Contains(t, out, "## `broken.rs`")
		assert.Contains(t, out, "### struct `Calculator`")
		assert.Contains(t, out, "> A simple struct")
		assert.Contains(t, out, "### impl `Calculator`")
	})

	t.Run("Qualifier badges", func(t *testing.T) {
		assert.Contains(t, out, "| `fetch_data` | `pub` `async` |")
		assert.Contains(t, out, "| `raw_pointer_operation` | `pub` `unsafe` |")
	})

	t.Run("Free functions", func(t *testing.T) {
		assert.Contains(t, out, "### Functions")
		assert.Contains(t, out, "calculate_sum")
		assert.Contains(t, out, "A free function")
	})

	t.Run("Diagnostics appendix", func(t *testing.T) {
		assert.Contains(t, out, "## Diagnostics")
		assert.Contains(t, out, "unbalanced_braces")
	})
}

func TestMarkdown_NoDiagnosticsNoAppendix(t *testing.T) {
	inv := inventory.New()
	ext := extractor.New(extractor.Options{})
	inv.AddResult(ext.Extract(extractor.SourceFile{Name: "ok.rs", Text: "pub fn fine() {}\n"}))

	out := fixedClockGenerator().Generate(inv)
	assert.NotContains(t, out, "## Diagnostics")
}

func TestMarkdown_Deterministic(t *testing.T) {
	g := fixedClockGenerator()
	inv := testInventory(t)
	assert.Equal(t, g.Generate(inv), g.Generate(inv))
}

func TestMarkdown_WriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "docs")
	path, err := fixedClockGenerator().WriteFile(testInventory(t), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "inventory.md"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "# Rust Entity Inventory")
}
