package inventory

import "rustmap/internal/extractor"

type EntityKind string

const (
	KindStruct    EntityKind = "struct"
	KindImplBlock EntityKind = "impl_block"
	KindFunction  EntityKind = "function"
	KindMethod    EntityKind = "method"
)

// Entity is the inventory-domain record. It is a flattened view of the
// extractor model, carrying everything persistence and reporting need
// without holding on to the per-file Result.
type Entity struct {
	ID         string     `json:"id"`
	File       string     `json:"file"`
	Kind       EntityKind `json:"kind"`
	Name       string     `json:"name"`
	Owner      string     `json:"owner,omitempty"` // impl target for methods
	Visibility string     `json:"visibility,omitempty"`
	IsAsync    bool       `json:"is_async,omitempty"`
	IsUnsafe   bool       `json:"is_unsafe,omitempty"`
	IsConst    bool       `json:"is_const,omitempty"`
	Generics   []string   `json:"generics,omitempty"`
	Signature  string     `json:"signature,omitempty"`
	Doc        string     `json:"doc,omitempty"`
	StartLine  int        `json:"start_line"`
	EndLine    int        `json:"end_line"`
	// Order preserves source position among the file's entities of the
	// same nesting level, so reports can list them as written.
	Order int `json:"order"`
}

// Link connects an impl block to the struct its target name resolved to.
// Links are advisory: an impl whose target has no matching struct simply
// has no link, which is legal.
type Link struct {
	ImplID   string `json:"impl_id"`
	StructID string `json:"struct_id"`
	Target   string `json:"target"`
}

// FileDiagnostic pairs an extraction diagnostic with the file it came from.
type FileDiagnostic struct {
	File       string `json:"file"`
	Diagnostic extractor.Diagnostic
}

// Stats summarizes an inventory.
type Stats struct {
	Files       int `json:"files"`
	Structs     int `json:"structs"`
	ImplBlocks  int `json:"impl_blocks"`
	Functions   int `json:"functions"`
	Methods     int `json:"methods"`
	Diagnostics int `json:"diagnostics"`
	Linked      int `json:"linked"`
	Unresolved  int `json:"unresolved"`
}
