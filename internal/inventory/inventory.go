// Package inventory aggregates per-file extraction results into a
// project-wide entity inventory with a name index and advisory links from
// impl blocks to the structs their targets name.
package inventory

import (
	"sort"

	"rustmap/internal/extractor"
)

// Inventory manages entities and their relationships across files.
type Inventory struct {
	Entities    map[string]*Entity
	Links       []Link
	Diagnostics []FileDiagnostic

	// structsByName: struct name -> []ID, for resolving impl targets.
	structsByName map[string][]string
	// byFile: file -> IDs of every entity extracted from it, for removal.
	byFile map[string][]string
}

// New creates an empty inventory.
func New() *Inventory {
	return &Inventory{
		Entities:      make(map[string]*Entity),
		Links:         []Link{},
		structsByName: make(map[string][]string),
		byFile:        make(map[string][]string),
	}
}

// AddResult folds one file's extraction result into the inventory. Adding a
// file that is already present replaces its previous entities.
func (inv *Inventory) AddResult(res *extractor.Result) {
	if res == nil {
		return
	}
	inv.RemoveFile(res.File)

	order := 0
	for i := range res.Structs {
		st := &res.Structs[i]
		e := &Entity{
			ID:         extractor.StructID(res.File, st),
			File:       res.File,
			Kind:       KindStruct,
			Name:       st.Name,
			Visibility: string(st.Qualifiers.Visibility),
			Generics:   st.Qualifiers.Generics,
			Doc:        docText(st.Doc),
			StartLine:  st.Span.StartLine,
			EndLine:    st.Span.EndLine,
			Order:      order,
		}
		order++
		inv.add(e)
		inv.structsByName[st.Name] = append(inv.structsByName[st.Name], e.ID)
	}

	for i := range res.ImplBlocks {
		impl := &res.ImplBlocks[i]
		implID := extractor.ImplBlockID(res.File, impl)
		inv.add(&Entity{
			ID:        implID,
			File:      res.File,
			Kind:      KindImplBlock,
			Name:      impl.Target,
			StartLine: impl.Span.StartLine,
			EndLine:   impl.Span.EndLine,
			Order:     order,
		})
		order++
		for j := range impl.Methods {
			m := &impl.Methods[j]
			inv.add(&Entity{
				ID:         extractor.FunctionID(res.File, impl.Target, m),
				File:       res.File,
				Kind:       KindMethod,
				Name:       m.Name,
				Owner:      impl.Target,
				Visibility: string(m.Qualifiers.Visibility),
				IsAsync:    m.Qualifiers.IsAsync,
				IsUnsafe:   m.Qualifiers.IsUnsafe,
				IsConst:    m.Qualifiers.IsConst,
				Generics:   m.Qualifiers.Generics,
				Signature:  extractor.FunctionSignature(m),
				Doc:        docText(m.Doc),
				StartLine:  m.Span.StartLine,
				EndLine:    m.Span.EndLine,
				Order:      j,
			})
		}
	}

	for i := range res.Functions {
		fn := &res.Functions[i]
		inv.add(&Entity{
			ID:         extractor.FunctionID(res.File, "", fn),
			File:       res.File,
			Kind:       KindFunction,
			Name:       fn.Name,
			Visibility: string(fn.Qualifiers.Visibility),
			IsAsync:    fn.Qualifiers.IsAsync,
			IsUnsafe:   fn.Qualifiers.IsUnsafe,
			IsConst:    fn.Qualifiers.IsConst,
			Generics:   fn.Qualifiers.Generics,
			Signature:  extractor.FunctionSignature(fn),
			Doc:        docText(fn.Doc),
			StartLine:  fn.Span.StartLine,
			EndLine:    fn.Span.EndLine,
			Order:      order,
		})
		order++
	}

	for _, d := range res.Diagnostics {
		inv.Diagnostics = append(inv.Diagnostics, FileDiagnostic{File: res.File, Diagnostic: d})
	}
}

func (inv *Inventory) add(e *Entity) {
	inv.Entities[e.ID] = e
	inv.byFile[e.File] = append(inv.byFile[e.File], e.ID)
}

// RemoveFile drops every entity, link and diagnostic that came from the
// given file, so the file can be re-extracted after a change.
func (inv *Inventory) RemoveFile(file string) {
	ids, ok := inv.byFile[file]
	if !ok {
		return
	}
	removed := make(map[string]bool, len(ids))
	for _, id := range ids {
		removed[id] = true
		if e := inv.Entities[id]; e != nil && e.Kind == KindStruct {
			inv.structsByName[e.Name] = without(inv.structsByName[e.Name], id)
			if len(inv.structsByName[e.Name]) == 0 {
				delete(inv.structsByName, e.Name)
			}
		}
		delete(inv.Entities, id)
	}
	delete(inv.byFile, file)

	kept := inv.Links[:0]
	for _, l := range inv.Links {
		if !removed[l.ImplID] && !removed[l.StructID] {
			kept = append(kept, l)
		}
	}
	inv.Links = kept

	keptDiags := inv.Diagnostics[:0]
	for _, d := range inv.Diagnostics {
		if d.File != file {
			keptDiags = append(keptDiags, d)
		}
	}
	inv.Diagnostics = keptDiags
}

// ResolveLinks rebuilds the impl-to-struct links from the current entity
// set. An impl target matching several structs (same name in different
// files) links to all of them; a target with no match stays unlinked.
func (inv *Inventory) ResolveLinks() {
	inv.Links = []Link{}
	for _, e := range sortedEntities(inv.Entities) {
		if e.Kind != KindImplBlock {
			continue
		}
		for _, structID := range inv.structsByName[e.Name] {
			inv.Links = append(inv.Links, Link{
				ImplID:   e.ID,
				StructID: structID,
				Target:   e.Name,
			})
		}
	}
}

// Restore replaces the inventory contents with persisted state and
// rebuilds the lookup indexes. Used when loading a snapshot from storage.
func (inv *Inventory) Restore(entities []*Entity, links []Link, diags []FileDiagnostic) {
	inv.Entities = make(map[string]*Entity, len(entities))
	inv.structsByName = make(map[string][]string)
	inv.byFile = make(map[string][]string)
	for _, e := range entities {
		inv.add(e)
		if e.Kind == KindStruct {
			inv.structsByName[e.Name] = append(inv.structsByName[e.Name], e.ID)
		}
	}
	inv.Links = links
	if inv.Links == nil {
		inv.Links = []Link{}
	}
	inv.Diagnostics = diags
}

// MethodsOf returns the methods of an impl block in source order.
func (inv *Inventory) MethodsOf(implID string) []*Entity {
	impl := inv.Entities[implID]
	if impl == nil {
		return nil
	}
	var methods []*Entity
	for _, e := range inv.Entities {
		if e.Kind == KindMethod && e.File == impl.File && e.Owner == impl.Name &&
			impl.StartLine <= e.StartLine && e.EndLine <= impl.EndLine {
			methods = append(methods, e)
		}
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i].StartLine < methods[j].StartLine })
	return methods
}

// Files returns the files present in the inventory, sorted.
func (inv *Inventory) Files() []string {
	files := make([]string, 0, len(inv.byFile))
	for f := range inv.byFile {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// EntitiesInFile returns a file's entities ordered by start line.
func (inv *Inventory) EntitiesInFile(file string) []*Entity {
	var out []*Entity
	for _, id := range inv.byFile[file] {
		if e := inv.Entities[id]; e != nil {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartLine != out[j].StartLine {
			return out[i].StartLine < out[j].StartLine
		}
		return out[i].Order < out[j].Order
	})
	return out
}

// Stats summarizes the inventory, including how many impl blocks resolved
// to a struct and how many targets stayed unresolved.
func (inv *Inventory) Stats() Stats {
	s := Stats{
		Files:       len(inv.byFile),
		Diagnostics: len(inv.Diagnostics),
	}
	linked := make(map[string]bool)
	for _, l := range inv.Links {
		linked[l.ImplID] = true
	}
	for _, e := range inv.Entities {
		switch e.Kind {
		case KindStruct:
			s.Structs++
		case KindImplBlock:
			s.ImplBlocks++
			if linked[e.ID] {
				s.Linked++
			} else {
				s.Unresolved++
			}
		case KindFunction:
			s.Functions++
		case KindMethod:
			s.Methods++
		}
	}
	return s
}

func sortedEntities(m map[string]*Entity) []*Entity {
	out := make([]*Entity, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].StartLine < out[j].StartLine
	})
	return out
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

func docText(doc *extractor.DocComment) string {
	if doc == nil {
		return ""
	}
	return doc.Text()
}
