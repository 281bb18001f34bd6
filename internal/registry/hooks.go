package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/williamscs/pants/internal/address"
	"github.com/williamscs/pants/internal/fsutil"
	"github.com/williamscs/pants/internal/target"
)

// InjectionRequest carries the target whose dependencies field is being
// resolved.
type InjectionRequest struct {
	Target *target.Target
}

// InjectionHook returns additional dependency addresses for a target,
// unconditionally. Hooks fire for the target's dependency-field kind and all
// of its ancestors.
type InjectionHook func(ctx context.Context, req InjectionRequest) ([]address.Address, error)

// RegisteredInjection pairs an injection hook with its diagnostic name.
type RegisteredInjection struct {
	Name string
	Fn   InjectionHook
}

// RegisterInjection registers an injection hook against a dependency-field
// kind.
func (r *Registry) RegisterInjection(depsFieldKind string, reg *RegisteredInjection) {
	slog.Debug("Registering dependency injection hook.", "fieldKind", depsFieldKind, "name", reg.Name)
	r.injections[depsFieldKind] = append(r.injections[depsFieldKind], reg)
}

// InjectionsFor returns every hook applicable to the given dependency-field
// kind, including those registered against its ancestors.
func (r *Registry) InjectionsFor(depsFieldKind string) []*RegisteredInjection {
	var out []*RegisteredInjection
	for _, fk := range r.fieldKindChain(depsFieldKind) {
		out = append(out, r.injections[fk]...)
	}
	return out
}

// InferenceRequest carries the target whose sources are being inspected and
// the snapshot to read file contents from.
type InferenceRequest struct {
	Target   *target.Target
	Sources  []string // paths relative to the repository root
	Snapshot fsutil.Snapshot
}

// AmbiguousGroup is one unresolved reference with the candidate addresses an
// inferrer could not choose between. The resolver disambiguates via explicit
// ignores or drops the group with a warning.
type AmbiguousGroup struct {
	Reference  string
	Candidates []address.Address
}

// InferenceResult is what one inference hook derived from a target's sources.
type InferenceResult struct {
	Include   []address.Address
	Ambiguous []AmbiguousGroup
}

// InferenceHook derives dependency addresses from file contents.
type InferenceHook func(ctx context.Context, req InferenceRequest) (InferenceResult, error)

// RegisteredInferrer pairs an inference hook with its dispatch metadata.
type RegisteredInferrer struct {
	Name string
	Fn   InferenceHook
	// SiblingsInferrable marks inference precise enough to resolve sibling
	// file-level targets on its own; when any applicable inferrer sets it,
	// the resolver skips the coarse sibling fallback.
	SiblingsInferrable bool
}

// RegisterInferrer registers an inference hook against a sources-field kind.
func (r *Registry) RegisterInferrer(sourcesFieldKind string, reg *RegisteredInferrer) {
	slog.Debug("Registering dependency inference hook.", "fieldKind", sourcesFieldKind, "name", reg.Name)
	r.inferrers[sourcesFieldKind] = append(r.inferrers[sourcesFieldKind], reg)
}

// InferrersFor returns the hooks registered against a sources-field kind.
func (r *Registry) InferrersFor(sourcesFieldKind string) []*RegisteredInferrer {
	return r.inferrers[sourcesFieldKind]
}

// RegisteredCodegen declares that one generator turns sources of the input
// kinds into sources of the output kind.
type RegisteredCodegen struct {
	Name            string
	ForSourcesKinds []string
	OutputKind      string
}

// RegisterCodegen registers a code generator.
func (r *Registry) RegisterCodegen(reg *RegisteredCodegen) {
	slog.Debug("Registering code generator.", "name", reg.Name, "output", reg.OutputKind)
	r.codegens = append(r.codegens, reg)
}

// AmbiguousCodegenImplementationsError reports that more than one registered
// generator claims the same input → output conversion.
type AmbiguousCodegenImplementationsError struct {
	InputKind  string
	OutputKind string
	Candidates []*RegisteredCodegen
}

func (e *AmbiguousCodegenImplementationsError) Error() string {
	descs := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		descs[i] = fmt.Sprintf("%s (output kind %s)", c.Name, c.OutputKind)
	}
	sort.Strings(descs)
	return fmt.Sprintf("multiple code generators can generate %s from %s: %s",
		e.OutputKind, e.InputKind, strings.Join(descs, ", "))
}

// CodegenFor selects the single generator that converts inputKind sources to
// outputKind sources. It returns nil when none is registered and an
// AmbiguousCodegenImplementationsError when more than one is.
func (r *Registry) CodegenFor(inputKind, outputKind string) (*RegisteredCodegen, error) {
	var matches []*RegisteredCodegen
	for _, c := range r.codegens {
		if c.OutputKind != outputKind {
			continue
		}
		for _, in := range c.ForSourcesKinds {
			if in == inputKind {
				matches = append(matches, c)
				break
			}
		}
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, &AmbiguousCodegenImplementationsError{
			InputKind:  inputKind,
			OutputKind: outputKind,
			Candidates: matches,
		}
	}
}
