// Package report renders an inventory as a markdown document.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rustmap/internal/inventory"
)

// MarkdownGenerator produces the inventory report in Markdown format.
type MarkdownGenerator struct {
	// Now is injectable for deterministic output in tests.
	Now func() time.Time
}

func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{Now: time.Now}
}

// Generate renders the full report: a stats summary, one section per file
// with its structs, impl methods and free functions, and a diagnostics
// appendix when any were recorded.
func (g *MarkdownGenerator) Generate(inv *inventory.Inventory) string {
	var b strings.Builder

	stats := inv.Stats()
	fmt.Fprintf(&b, "# Rust Entity Inventory\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", g.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "| Files | Structs | Impl Blocks | Methods | Functions | Diagnostics |\n")
	fmt.Fprintf(&b, "|---|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %d |\n\n",
		stats.Files, stats.Structs, stats.ImplBlocks, stats.Methods, stats.Functions, stats.Diagnostics)

	for _, file := range inv.Files() {
		g.writeFileSection(&b, inv, file)
	}

	if len(inv.Diagnostics) > 0 {
		g.writeDiagnostics(&b, inv)
	}

	return b.String()
}

// WriteFile renders the report and writes it under outputDir.
func (g *MarkdownGenerator) WriteFile(inv *inventory.Inventory, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	path := filepath.Join(outputDir, "inventory.md")
	if err := os.WriteFile(path, []byte(g.Generate(inv)), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

func (g *MarkdownGenerator) writeFileSection(b *strings.Builder, inv *inventory.Inventory, file string) {
	fmt.Fprintf(b, "## `%s`\n\n", file)

	entities := inv.EntitiesInFile(file)

	for _, e := range entities {
		if e.Kind != inventory.KindStruct {
			continue
		}
		fmt.Fprintf(b, "### struct `%s`%s (L%d-L%d)\n\n", e.Name, genericSuffix(e), e.StartLine, e.EndLine)
		if e.Doc != "" {
			fmt.Fprintf(b, "> %s\n\n", strings.ReplaceAll(e.Doc, "\n", " "))
		}
	}

	for _, e := range entities {
		if e.Kind != inventory.KindImplBlock {
			continue
		}
		fmt.Fprintf(b, "### impl `%s` (L%d-L%d)\n\n", e.Name, e.StartLine, e.EndLine)
		methods := inv.MethodsOf(e.ID)
		if len(methods) == 0 {
			continue
		}
		fmt.Fprintf(b, "| Method | Qualifiers | Signature | Lines |\n")
		fmt.Fprintf(b, "|---|---|---|---|\n")
		for _, m := range methods {
			fmt.Fprintf(b, "| `%s` | %s | `%s` | L%d-L%d |\n",
				m.Name, badges(m), m.Signature, m.StartLine, m.EndLine)
		}
		fmt.Fprintf(b, "\n")
	}

	var wroteHeader bool
	for _, e := range entities {
		if e.Kind != inventory.KindFunction {
			continue
		}
		if !wroteHeader {
			fmt.Fprintf(b, "### Functions\n\n")
			wroteHeader = true
		}
		fmt.Fprintf(b, "- `%s` %s (L%d-L%d)\n", e.Signature, badges(e), e.StartLine, e.EndLine)
		if e.Doc != "" {
			fmt.Fprintf(b, "  - %s\n", strings.ReplaceAll(e.Doc, "\n", " "))
		}
	}
	if wroteHeader {
		fmt.Fprintf(b, "\n")
	}
}

func (g *MarkdownGenerator) writeDiagnostics(b *strings.Builder, inv *inventory.Inventory) {
	fmt.Fprintf(b, "## Diagnostics\n\n")
	fmt.Fprintf(b, "| File | Kind | Line | Message |\n")
	fmt.Fprintf(b, "|---|---|---|---|\n")
	for _, d := range inv.Diagnostics {
		fmt.Fprintf(b, "| `%s` | %s | %d | %s |\n",
			d.File, d.Diagnostic.Kind, d.Diagnostic.Line, d.Diagnostic.Message)
	}
	fmt.Fprintf(b, "\n")
}

// badges renders qualifier markers like `pub` `async` in report tables.
func badges(e *inventory.Entity) string {
	var parts []string
	if e.Visibility == "public" {
		parts = append(parts, "`pub`")
	}
	if e.IsConst {
		parts = append(parts, "`const`")
	}
	if e.IsAsync {
		parts = append(parts, "`async`")
	}
	if e.IsUnsafe {
		parts = append(parts, "`unsafe`")
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " ")
}

func genericSuffix(e *inventory.Entity) string {
	if len(e.Generics) == 0 {
		return ""
	}
	return fmt.Sprintf("`<%s>`", strings.Join(e.Generics, ", "))
}
