package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/williamscs/pants/internal/target"
)

// Implementation is one registered way to perform a named operation. A kind
// is applicable when it declares every required field.
type Implementation struct {
	Name           string
	Operation      string
	RequiredFields []string
}

// AppliesTo reports whether the implementation can run against targets of
// the given kind.
func (im *Implementation) AppliesTo(k *target.Kind) bool {
	for _, f := range im.RequiredFields {
		if !k.HasField(f) {
			return false
		}
	}
	return true
}

// RegisterImplementation registers an implementation under its operation.
func (r *Registry) RegisterImplementation(im *Implementation) {
	for _, existing := range r.implementations[im.Operation] {
		if existing.Name == im.Name {
			panic(fmt.Sprintf("implementation '%s' of operation '%s' already registered", im.Name, im.Operation))
		}
	}
	slog.Debug("Registering operation implementation.", "operation", im.Operation, "name", im.Name)
	r.implementations[im.Operation] = append(r.implementations[im.Operation], im)
}

// Implementations returns every implementation registered for an operation.
func (r *Registry) Implementations(operation string) []*Implementation {
	return r.implementations[operation]
}

// KindsForOperation lists the registered kinds that some implementation of
// the operation applies to, sorted by alias.
func (r *Registry) KindsForOperation(operation string) []string {
	var out []string
	for alias, k := range r.kinds {
		for _, im := range r.implementations[operation] {
			if im.AppliesTo(k) {
				out = append(out, alias)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// AmbiguousImplementationsError reports that a caller needed exactly one
// applicable implementation of an operation and found several.
type AmbiguousImplementationsError struct {
	Operation  string
	Kind       string
	Candidates []*Implementation
}

func (e *AmbiguousImplementationsError) Error() string {
	names := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		names[i] = c.Name
	}
	sort.Strings(names)
	return fmt.Sprintf("multiple implementations of %s apply to %s targets: %s",
		e.Operation, e.Kind, strings.Join(names, ", "))
}

// ImplementationFor selects the single implementation of an operation
// applicable to a kind. It returns nil when none applies and an
// AmbiguousImplementationsError when more than one does.
func (r *Registry) ImplementationFor(operation string, k *target.Kind) (*Implementation, error) {
	var matches []*Implementation
	for _, im := range r.implementations[operation] {
		if im.AppliesTo(k) {
			matches = append(matches, im)
		}
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, &AmbiguousImplementationsError{Operation: operation, Kind: k.Name, Candidates: matches}
	}
}

// ApplicableTargets filters targets to those some implementation of the
// operation applies to.
func (r *Registry) ApplicableTargets(operation string, targets []*target.Target) []*target.Target {
	var out []*target.Target
	for _, t := range targets {
		for _, im := range r.implementations[operation] {
			if im.AppliesTo(t.Kind()) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}
