package extractor

// modelBuilder assembles recognized declarations into a Result. Entities
// arrive in source order and are appended as-is; the builder applies no
// name resolution, only the entry-point policy.
type modelBuilder struct {
	result      *Result
	includeMain bool
}

func newModelBuilder(file string, includeMain bool) *modelBuilder {
	return &modelBuilder{
		result: &Result{
			File:       file,
			Structs:    []StructEntity{},
			ImplBlocks: []ImplBlockEntity{},
			Functions:  []FunctionEntity{},
		},
		includeMain: includeMain,
	}
}

func (b *modelBuilder) addStruct(st StructEntity) {
	b.result.Structs = append(b.result.Structs, st)
}

func (b *modelBuilder) addImpl(impl ImplBlockEntity) {
	b.result.ImplBlocks = append(b.result.ImplBlocks, impl)
}

// addFunction records a top-level function. The entry point `main` is left
// out unless the caller opted in; it is an executable detail, not part of a
// crate's surface.
func (b *modelBuilder) addFunction(fn FunctionEntity) {
	if fn.Name == "main" && !b.includeMain {
		return
	}
	b.result.Functions = append(b.result.Functions, fn)
}

func (b *modelBuilder) finish(diags []Diagnostic) *Result {
	b.result.Diagnostics = diags
	return b.result
}
