package target

import (
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/williamscs/pants/internal/address"
)

// Target is one resolved declaration: an address plus the validated field
// values of its kind. Targets are immutable once constructed.
type Target struct {
	addr   address.Address
	kind   *Kind
	values map[string]cty.Value
}

// NoSuchFieldError is returned by field lookups for names absent from the
// target kind's schema.
type NoSuchFieldError struct {
	Kind  string
	Field string
}

func (e *NoSuchFieldError) Error() string {
	return fmt.Sprintf("kind %q has no field %q", e.Kind, e.Field)
}

// New validates the given field values against the kind's schema and returns
// the target. Unknown fields, missing required fields, and unconvertible
// values are errors.
func New(kind *Kind, addr address.Address, values map[string]cty.Value) (*Target, error) {
	normalized := make(map[string]cty.Value, len(values))
	for name, v := range values {
		def, ok := kind.Field(name)
		if !ok {
			return nil, &NoSuchFieldError{Kind: kind.Name, Field: name}
		}
		converted, err := convert.Convert(v, def.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q of %s: %w", name, addr, err)
		}
		normalized[name] = converted
	}
	for _, def := range kind.Fields {
		if _, ok := normalized[def.Name]; ok {
			continue
		}
		if def.Required {
			return nil, fmt.Errorf("field %q of %s is required by kind %q", def.Name, addr, kind.Name)
		}
	}
	return &Target{addr: addr, kind: kind, values: normalized}, nil
}

// Address returns the target's canonical address.
func (t *Target) Address() address.Address { return t.addr }

// Kind returns the target's schema.
func (t *Target) Kind() *Kind { return t.kind }

// Field performs a checked lookup: an error for fields outside the schema, a
// default or null value for declared-but-unset fields.
func (t *Target) Field(name string) (cty.Value, error) {
	def, ok := t.kind.Field(name)
	if !ok {
		return cty.NilVal, &NoSuchFieldError{Kind: t.kind.Name, Field: name}
	}
	if v, ok := t.values[name]; ok {
		return v, nil
	}
	if def.Default != cty.NilVal {
		return def.Default, nil
	}
	return cty.NullVal(def.Type), nil
}

// StringListField returns the named field as a string slice; nil when the
// field is null or empty.
func (t *Target) StringListField(name string) ([]string, error) {
	v, err := t.Field(name)
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return nil, nil
	}
	var out []string
	for it := v.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		if elem.Type() != cty.String || elem.IsNull() {
			return nil, fmt.Errorf("field %q of %s: expected a list of strings", name, t.addr)
		}
		out = append(out, elem.AsString())
	}
	return out, nil
}

// StringField returns the named field as a string, "" when null.
func (t *Target) StringField(name string) (string, error) {
	v, err := t.Field(name)
	if err != nil {
		return "", err
	}
	if v.IsNull() {
		return "", nil
	}
	if v.Type() != cty.String {
		return "", fmt.Errorf("field %q of %s: expected a string", name, t.addr)
	}
	return v.AsString(), nil
}

// WithAddress derives a copy of the target bound to a different address, used
// when a generator produces its file-level targets.
func (t *Target) WithAddress(addr address.Address) *Target {
	return &Target{addr: addr, kind: t.kind, values: t.values}
}

// WithField derives a copy with one field value replaced.
func (t *Target) WithField(name string, v cty.Value) *Target {
	values := make(map[string]cty.Value, len(t.values)+1)
	for k, old := range t.values {
		values[k] = old
	}
	values[name] = v
	return &Target{addr: t.addr, kind: t.kind, values: values}
}

// String renders the target for logs and error messages.
func (t *Target) String() string {
	return fmt.Sprintf("%s(%s)", t.kind.Name, t.addr.Spec())
}

// SortTargets sorts targets in place by address, the deterministic order used
// for all stable output.
func SortTargets(targets []*Target) {
	sort.Slice(targets, func(i, j int) bool { return targets[i].addr.Less(targets[j].addr) })
}
