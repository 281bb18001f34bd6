package registry

import (
	"fmt"
	"log/slog"

	"github.com/williamscs/pants/internal/target"
)

// Registry holds all registered kinds and hooks for a single resolution
// session. Populate it during startup; it must not be mutated once resolvers
// hold it.
type Registry struct {
	kinds map[string]*target.Kind

	// fieldKindParents records the ancestry of dependency-field kinds.
	// Injection hooks registered against an ancestor also fire for the
	// descendant.
	fieldKindParents map[string]string

	injections      map[string][]*RegisteredInjection
	inferrers       map[string][]*RegisteredInferrer
	codegens        []*RegisteredCodegen
	implementations map[string][]*Implementation
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		kinds:            make(map[string]*target.Kind),
		fieldKindParents: make(map[string]string),
		injections:       make(map[string][]*RegisteredInjection),
		inferrers:        make(map[string][]*RegisteredInferrer),
		implementations:  make(map[string][]*Implementation),
	}
}

// RegisterKind registers a target kind under its alias.
func (r *Registry) RegisterKind(k *target.Kind) {
	if _, exists := r.kinds[k.Name]; exists {
		panic(fmt.Sprintf("kind with alias '%s' already registered", k.Name))
	}
	slog.Debug("Registering target kind.", "alias", k.Name)
	r.kinds[k.Name] = k
}

// Kind returns the kind registered under the given alias.
func (r *Registry) Kind(alias string) (*target.Kind, bool) {
	k, ok := r.kinds[alias]
	return k, ok
}

// Kinds returns every registered kind keyed by alias.
func (r *Registry) Kinds() map[string]*target.Kind { return r.kinds }

// RegisterFieldKindParent records that child dependency-field kinds inherit
// the hooks of parent.
func (r *Registry) RegisterFieldKindParent(child, parent string) {
	if _, exists := r.fieldKindParents[child]; exists {
		panic(fmt.Sprintf("field kind '%s' already has a parent", child))
	}
	r.fieldKindParents[child] = parent
}

// fieldKindChain returns the field kind and all of its ancestors, nearest
// first.
func (r *Registry) fieldKindChain(fieldKind string) []string {
	chain := []string{fieldKind}
	seen := map[string]struct{}{fieldKind: {}}
	for {
		parent, ok := r.fieldKindParents[chain[len(chain)-1]]
		if !ok {
			return chain
		}
		if _, cyclic := seen[parent]; cyclic {
			return chain
		}
		seen[parent] = struct{}{}
		chain = append(chain, parent)
	}
}

// KindsSupportingTransitiveExcludes lists the aliases of registered kinds
// that accept "!!" dependency entries.
func (r *Registry) KindsSupportingTransitiveExcludes() []string {
	var out []string
	for alias, k := range r.kinds {
		if k.SupportsTransitiveExcludes {
			out = append(out, alias)
		}
	}
	return out
}
