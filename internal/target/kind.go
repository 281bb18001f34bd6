package target

import "github.com/zclconf/go-cty/cty"

// Well-known field names shared by most kinds.
const (
	FieldDependencies = "dependencies"
	FieldSources      = "sources"
)

// FieldDef declares one field of a kind's schema.
type FieldDef struct {
	Name     string
	Type     cty.Type
	Required bool
	// Default is used when a declaration omits the field. cty.NilVal means
	// the field is null when absent.
	Default cty.Value
}

// Kind is the closed schema of one target type. Kinds are immutable after
// registration.
type Kind struct {
	// Name is the declaration alias, e.g. `target` or `filegroup`.
	Name string
	// Fields is the ordered schema; declarations may only set these.
	Fields []FieldDef

	// DepsFieldKind identifies the flavor of this kind's dependencies field
	// for injection dispatch. Field kinds form an ancestry chain maintained
	// by the registry; hooks registered for an ancestor also fire.
	DepsFieldKind string
	// SourcesFieldKind identifies the flavor of the sources field for
	// inference dispatch.
	SourcesFieldKind string

	// SupportsTransitiveExcludes opts the dependencies field in to `!!`
	// entries.
	SupportsTransitiveExcludes bool

	// Generator marks kinds whose declarations expand into generated
	// targets. FineGrained generators produce one file-level target per
	// matched source file; generators without it are addressed as a whole.
	Generator   bool
	FineGrained bool

	// SecondaryOwnerFields are names of fields whose string value names a
	// file path this target claims beyond its sources, e.g. an entry point.
	SecondaryOwnerFields []string
	// SpecialCasedDepsFields are address-list fields that are merged into
	// dependency edges only when a caller opts in.
	SpecialCasedDepsFields []string
}

// Field returns the schema entry for the named field.
func (k *Kind) Field(name string) (FieldDef, bool) {
	for _, f := range k.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// HasField reports whether the schema declares the named field.
func (k *Kind) HasField(name string) bool {
	_, ok := k.Field(name)
	return ok
}
