package graph

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/williamscs/pants/internal/address"
	"github.com/williamscs/pants/internal/ctxlog"
	"github.com/williamscs/pants/internal/registry"
	"github.com/williamscs/pants/internal/target"
)

// ExplicitlyProvidedDependencies is the user-authored part of a target's
// dependencies field, before injection and inference: the included addresses
// and the "!"/"!!" excluded ones. Callers that must distinguish user intent
// from inferred edges (ambiguity diagnostics, lint advice) consume this
// directly.
type ExplicitlyProvidedDependencies struct {
	Address  address.Address
	Includes []address.Address
	Ignores  []address.Address
	// TransitiveIgnores is the subset of Ignores that came from "!!"
	// entries; they are additionally excluded from whole closures rooted at
	// this target.
	TransitiveIgnores []address.Address
}

// Resolver computes one target's direct dependency addresses. It is safe for
// concurrent use.
type Resolver struct {
	index    *target.Index
	registry *registry.Registry
}

// NewResolver creates a resolver over the given index and capability
// registry.
func NewResolver(index *target.Index, reg *registry.Registry) *Resolver {
	return &Resolver{index: index, registry: reg}
}

// Index returns the resolver's target index.
func (r *Resolver) Index() *target.Index { return r.index }

// Request asks for the direct dependencies of one target.
type Request struct {
	Target *target.Target
	// IncludeSpecialCased merges the kind's special-cased address fields
	// into the result. They are excluded by default.
	IncludeSpecialCased bool
}

// ExplicitDependencies parses a target's dependencies field into includes
// and ignores. "!!" entries on kinds that have not opted in fail with
// TransitiveExcludesNotSupportedError.
func (r *Resolver) ExplicitDependencies(ctx context.Context, t *target.Target) (*ExplicitlyProvidedDependencies, error) {
	out := &ExplicitlyProvidedDependencies{Address: t.Address()}
	if !t.Kind().HasField(target.FieldDependencies) {
		return out, nil
	}
	raw, err := t.StringListField(target.FieldDependencies)
	if err != nil {
		return nil, err
	}
	for _, elem := range raw {
		entry := target.ParseDependencyEntry(elem)
		if entry.Transitive && !t.Kind().SupportsTransitiveExcludes {
			return nil, &target.TransitiveExcludesNotSupportedError{
				BadEntry:       elem,
				Address:        t.Address(),
				Kind:           t.Kind().Name,
				SupportedKinds: r.registry.KindsSupportingTransitiveExcludes(),
			}
		}
		addr, err := r.parseDependencySpec(entry.Spec, t.Address())
		if err != nil {
			return nil, fmt.Errorf("in dependencies of %s: %w", t.Address(), err)
		}
		if entry.Ignore {
			out.Ignores = append(out.Ignores, addr)
			if entry.Transitive {
				out.TransitiveIgnores = append(out.TransitiveIgnores, addr)
			}
		} else {
			out.Includes = append(out.Includes, addr)
		}
	}
	return out, nil
}

// parseDependencySpec resolves one dependency entry relative to the
// depending target's directory. Entries whose path component names an
// existing file bind as file addresses; everything else binds as a directory
// address.
func (r *Resolver) parseDependencySpec(spec string, from address.Address) (address.Address, error) {
	in, err := address.Parse(spec, from.SpecPath())
	if err != nil {
		return address.Address{}, err
	}
	if r.index.Snapshot().Exists(in.PathComponent) {
		return in.FileToAddress()
	}
	return in.DirToAddress()
}

// DirectDependencies computes the full direct dependency set of a target:
// explicit includes, injected and inferred addresses, generated-target
// edges, and sibling edges, minus the explicit ignores. The result is
// deduplicated preserving first-seen order.
func (r *Resolver) DirectDependencies(ctx context.Context, req Request) ([]address.Address, error) {
	t := req.Target
	explicit, err := r.ExplicitDependencies(ctx, t)
	if err != nil {
		return nil, err
	}

	var ordered []address.Address
	seen := make(map[address.Address]struct{})
	add := func(addr address.Address) {
		if _, dup := seen[addr]; dup {
			return
		}
		if r.isIgnored(explicit, addr) {
			return
		}
		seen[addr] = struct{}{}
		ordered = append(ordered, addr)
	}

	for _, addr := range explicit.Includes {
		add(addr)
	}

	for _, reg := range r.registry.InjectionsFor(t.Kind().DepsFieldKind) {
		injected, err := reg.Fn(ctx, registry.InjectionRequest{Target: t})
		if err != nil {
			return nil, fmt.Errorf("injection %s for %s: %w", reg.Name, t.Address(), err)
		}
		for _, addr := range injected {
			add(addr)
		}
	}

	siblingsInferrable, err := r.addInferred(ctx, t, explicit, add)
	if err != nil {
		return nil, err
	}

	if err := r.addGeneratedEdges(t, siblingsInferrable, add); err != nil {
		return nil, err
	}

	if req.IncludeSpecialCased {
		for _, field := range t.Kind().SpecialCasedDepsFields {
			specs, err := t.StringListField(field)
			if err != nil {
				return nil, err
			}
			for _, spec := range specs {
				addr, err := r.parseDependencySpec(spec, t.Address())
				if err != nil {
					return nil, fmt.Errorf("in %s of %s: %w", field, t.Address(), err)
				}
				add(addr)
			}
		}
	}

	return ordered, nil
}

// addInferred runs the inference hooks and reports whether any applicable
// hook can resolve sibling dependencies on its own.
func (r *Resolver) addInferred(ctx context.Context, t *target.Target, explicit *ExplicitlyProvidedDependencies, add func(address.Address)) (bool, error) {
	kind := t.Kind()
	if kind.SourcesFieldKind == "" || !kind.HasField(target.FieldSources) {
		return false, nil
	}
	inferrers := r.registry.InferrersFor(kind.SourcesFieldKind)
	if len(inferrers) == 0 {
		return false, nil
	}

	sources, err := r.index.SourceFiles(t)
	if err != nil {
		return false, err
	}
	full := make([]string, len(sources))
	for i, s := range sources {
		if dir := t.Address().SpecPath(); dir != "" {
			full[i] = path.Join(dir, s)
		} else {
			full[i] = s
		}
	}

	siblingsInferrable := false
	for _, reg := range inferrers {
		if reg.SiblingsInferrable {
			siblingsInferrable = true
		}
		result, err := reg.Fn(ctx, registry.InferenceRequest{
			Target:   t,
			Sources:  full,
			Snapshot: r.index.Snapshot(),
		})
		if err != nil {
			return false, fmt.Errorf("inference %s for %s: %w", reg.Name, t.Address(), err)
		}
		for _, addr := range result.Include {
			add(addr)
		}
		for _, group := range result.Ambiguous {
			if winner, ok := r.disambiguate(ctx, t, explicit, group); ok {
				add(winner)
			}
		}
	}
	return siblingsInferrable, nil
}

// disambiguate applies the explicit-ignore rule to one ambiguous candidate
// group: candidates the user excluded are dropped, and if exactly one
// survives it wins. Otherwise the group is dropped with a warning naming
// every candidate.
func (r *Resolver) disambiguate(ctx context.Context, t *target.Target, explicit *ExplicitlyProvidedDependencies, group registry.AmbiguousGroup) (address.Address, bool) {
	var remaining []address.Address
	for _, c := range group.Candidates {
		if !r.isIgnored(explicit, c) {
			remaining = append(remaining, c)
		}
	}
	if len(remaining) == 1 {
		return remaining[0], true
	}

	specs := make([]string, len(group.Candidates))
	for i, c := range group.Candidates {
		specs[i] = c.Spec()
	}
	ctxlog.FromContext(ctx).Warn("Ambiguous dependency inference; not adding an edge.",
		"target", t.Address().Spec(),
		"reference", group.Reference,
		"candidates", strings.Join(specs, ", "))
	return address.Address{}, false
}

// addGeneratedEdges adds the structural edges around target generation: a
// generator depends on everything it generates, and a file-level generated
// target depends on its siblings unless inference is precise enough to pick
// among them.
func (r *Resolver) addGeneratedEdges(t *target.Target, siblingsInferrable bool, add func(address.Address)) error {
	addr := t.Address()

	if t.Kind().Generator && !addr.IsGeneratedTarget() {
		generated, err := r.index.GeneratedTargets(t)
		if err != nil {
			return err
		}
		for _, g := range generated {
			add(g.Address())
		}
		return nil
	}

	if addr.IsGeneratedTarget() && !siblingsInferrable {
		generator, ok := r.index.Lookup(addr.MaybeConvertToTargetGenerator())
		if !ok {
			return nil
		}
		siblings, err := r.index.GeneratedTargets(generator)
		if err != nil {
			return err
		}
		for _, s := range siblings {
			if s.Address() != addr {
				add(s.Address())
			}
		}
	}
	return nil
}

// isIgnored applies an ignore entry to both the address itself and its
// generator form, so "!dir:gen" also removes dir's generated targets.
func (r *Resolver) isIgnored(explicit *ExplicitlyProvidedDependencies, addr address.Address) bool {
	for _, ig := range explicit.Ignores {
		if ig == addr || ig == addr.MaybeConvertToTargetGenerator() {
			return true
		}
	}
	return false
}
