package extractor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// StructID returns a deterministic identifier for a struct declaration.
// The same declaration in the same file always hashes to the same ID, so
// incremental re-extraction produces stable keys.
func StructID(file string, st *StructEntity) string {
	return buildID(file, "struct", "", st.Name, structSignature(st), st.Span.StartLine)
}

// ImplBlockID returns a deterministic identifier for an impl block. The
// start line is part of the fingerprint: a target may have several impl
// blocks in one file, and otherwise-identical blocks must keep distinct IDs.
func ImplBlockID(file string, impl *ImplBlockEntity) string {
	sig := fmt.Sprintf("impl %s [%d methods]", impl.Target, len(impl.Methods))
	return buildID(file, "impl", impl.Target, impl.Target, sig, impl.Span.StartLine)
}

// FunctionID returns a deterministic identifier for a function or method.
// owner is the impl target for methods, empty for free functions.
func FunctionID(file, owner string, fn *FunctionEntity) string {
	kind := "function"
	if owner != "" {
		kind = "method"
	}
	return buildID(file, kind, owner, fn.Name, FunctionSignature(fn), fn.Span.StartLine)
}

// FunctionSignature renders the canonical one-line signature the ID hash is
// derived from. Qualifiers appear in a fixed order regardless of how the
// source spelled them.
func FunctionSignature(fn *FunctionEntity) string {
	var b strings.Builder
	if fn.Qualifiers.Visibility == VisibilityPublic {
		b.WriteString("pub ")
	}
	if fn.Qualifiers.IsConst {
		b.WriteString("const ")
	}
	if fn.Qualifiers.IsAsync {
		b.WriteString("async ")
	}
	if fn.Qualifiers.IsUnsafe {
		b.WriteString("unsafe ")
	}
	b.WriteString("fn ")
	b.WriteString(fn.Name)
	if len(fn.Qualifiers.Generics) > 0 {
		b.WriteString("<" + strings.Join(fn.Qualifiers.Generics, ", ") + ">")
	}
	b.WriteString("(")
	for i, p := range fn.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.Name != "" {
			b.WriteString(p.Name + ": ")
		}
		b.WriteString(p.Type)
	}
	b.WriteString(")")
	if fn.ReturnType != "" {
		b.WriteString(" -> " + fn.ReturnType)
	}
	return b.String()
}

func structSignature(st *StructEntity) string {
	sig := "struct " + st.Name
	if st.Qualifiers.Visibility == VisibilityPublic {
		sig = "pub " + sig
	}
	if len(st.Qualifiers.Generics) > 0 {
		sig += "<" + strings.Join(st.Qualifiers.Generics, ", ") + ">"
	}
	return sig
}

// buildID hashes the fingerprint fields into a short stable ID. startLine
// anchors the declaration's position, so duplicate declarations with equal
// signatures (permissive input allows them) never collide.
func buildID(file, kind, owner, name, signature string, startLine int) string {
	if name == "" {
		name = "_"
	}
	fingerprint := strings.Join([]string{
		file,
		kind,
		owner,
		name,
		strconv.Itoa(startLine),
		canonicalize(signature),
	}, "|")

	sum := sha256.Sum256([]byte(fingerprint))
	short := hex.EncodeToString(sum[:8])
	return fmt.Sprintf("%s:%s:%s:%s", file, kind, name, short)
}

func canonicalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return whitespaceRe.ReplaceAllString(s, " ")
}
