package target

import (
	"fmt"
	"sort"
	"strings"

	"github.com/williamscs/pants/internal/address"
)

// DependencyEntry is one raw element of a dependencies field, split into the
// address spec and its exclusion marker.
type DependencyEntry struct {
	Spec string
	// Ignore is set for entries prefixed with "!".
	Ignore bool
	// Transitive is additionally set for entries prefixed with "!!".
	Transitive bool
}

// ParseDependencyEntry splits the "!" and "!!" prefixes off one raw
// dependencies element.
func ParseDependencyEntry(raw string) DependencyEntry {
	if rest, ok := strings.CutPrefix(raw, "!!"); ok {
		return DependencyEntry{Spec: rest, Ignore: true, Transitive: true}
	}
	if rest, ok := strings.CutPrefix(raw, "!"); ok {
		return DependencyEntry{Spec: rest, Ignore: true}
	}
	return DependencyEntry{Spec: raw}
}

// TransitiveExcludesNotSupportedError reports a "!!" entry on a target whose
// kind has not opted in to transitive excludes.
type TransitiveExcludesNotSupportedError struct {
	BadEntry       string
	Address        address.Address
	Kind           string
	SupportedKinds []string
}

func (e *TransitiveExcludesNotSupportedError) Error() string {
	kinds := append([]string(nil), e.SupportedKinds...)
	sort.Strings(kinds)
	return fmt.Sprintf(
		"transitive exclude %q is not supported on %s targets like %s; "+
			"use a single "+`"!"`+" for a direct exclude, or declare the exclude on a target "+
			"of one of these kinds: %s",
		e.BadEntry, e.Kind, e.Address.Spec(), strings.Join(kinds, ", "),
	)
}
