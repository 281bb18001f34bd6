package target

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/zclconf/go-cty/cty"

	"github.com/williamscs/pants/internal/address"
	"github.com/williamscs/pants/internal/fsutil"
)

// UnknownAddressError reports an address that no declaration covers.
type UnknownAddressError struct {
	Address address.Address
	// Candidates, when set, lists the addresses that do exist under the same
	// generator or directory.
	Candidates []address.Address
}

func (e *UnknownAddressError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("no target with address %s", e.Address.Spec())
	}
	specs := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		specs[i] = c.Spec()
	}
	sort.Strings(specs)
	return fmt.Sprintf("no target with address %s; declared targets are: %s",
		e.Address.Spec(), strings.Join(specs, ", "))
}

// Index holds every declared target of one resolution session, keyed by
// address, plus the snapshot their source globs are evaluated against.
// Generator expansion is computed lazily and memoized; the index is safe for
// concurrent reads once loading is complete.
type Index struct {
	snapshot fsutil.Snapshot

	targets    map[address.Address]*Target
	buildFiles map[address.Address]string
	order      []address.Address

	mu        sync.Mutex
	generated map[address.Address][]*Target
}

// NewIndex returns an empty index over the given snapshot.
func NewIndex(snapshot fsutil.Snapshot) *Index {
	return &Index{
		snapshot:   snapshot,
		targets:    make(map[address.Address]*Target),
		buildFiles: make(map[address.Address]string),
		generated:  make(map[address.Address][]*Target),
	}
}

// Add registers a declared target and the build file it came from. Duplicate
// addresses are an error.
func (ix *Index) Add(t *Target, buildFile string) error {
	addr := t.Address()
	if prev, ok := ix.targets[addr]; ok {
		return fmt.Errorf("address %s is declared twice: %s in %s and %s in %s",
			addr.Spec(), prev, ix.buildFiles[addr], t, buildFile)
	}
	ix.targets[addr] = t
	ix.buildFiles[addr] = buildFile
	ix.order = append(ix.order, addr)
	return nil
}

// Snapshot returns the file view the index was built over.
func (ix *Index) Snapshot() fsutil.Snapshot { return ix.snapshot }

// Len returns the number of declared targets.
func (ix *Index) Len() int { return len(ix.targets) }

// All returns every declared target sorted by address. Generated targets are
// not included; see ExpandedAll.
func (ix *Index) All() []*Target {
	out := make([]*Target, 0, len(ix.targets))
	for _, addr := range ix.order {
		out = append(out, ix.targets[addr])
	}
	SortTargets(out)
	return out
}

// Lookup returns the declared target at addr, if any. It never expands
// generators.
func (ix *Index) Lookup(addr address.Address) (*Target, bool) {
	t, ok := ix.targets[addr]
	return t, ok
}

// BuildFile returns the build file a declared address came from. Generated
// and file-level addresses report their generator's build file.
func (ix *Index) BuildFile(addr address.Address) (string, bool) {
	if bf, ok := ix.buildFiles[addr]; ok {
		return bf, true
	}
	bf, ok := ix.buildFiles[addr.MaybeConvertToTargetGenerator()]
	return bf, ok
}

// Resolve returns the target an address names. Generated and file-level
// addresses are resolved through their generator's expansion; a file-level
// address on a generator that is not fine-grained falls back to the
// generator itself.
func (ix *Index) Resolve(addr address.Address) (*Target, error) {
	if t, ok := ix.targets[addr]; ok {
		return t, nil
	}
	if !addr.IsGeneratedTarget() {
		return nil, &UnknownAddressError{Address: addr, Candidates: ix.declaredIn(addr.SpecPath())}
	}

	generatorAddr := addr.MaybeConvertToTargetGenerator()
	generator, ok := ix.targets[generatorAddr]
	if !ok {
		return nil, &UnknownAddressError{Address: addr, Candidates: ix.declaredIn(addr.SpecPath())}
	}
	if !generator.Kind().FineGrained {
		return generator, nil
	}
	expanded, err := ix.GeneratedTargets(generator)
	if err != nil {
		return nil, err
	}
	candidates := make([]address.Address, 0, len(expanded))
	for _, g := range expanded {
		if g.Address() == addr {
			return g, nil
		}
		candidates = append(candidates, g.Address())
	}
	return nil, &UnknownAddressError{Address: addr, Candidates: candidates}
}

// GeneratedTargets returns the targets a generator expands into, memoized per
// index. For fine-grained generators that is one file-level target per source
// file, with the sources field narrowed to the single file. Targets of
// non-generator kinds expand to nothing.
func (ix *Index) GeneratedTargets(generator *Target) ([]*Target, error) {
	kind := generator.Kind()
	if !kind.Generator || !kind.FineGrained || generator.Address().IsGeneratedTarget() {
		return nil, nil
	}
	addr := generator.Address()

	ix.mu.Lock()
	cached, ok := ix.generated[addr]
	ix.mu.Unlock()
	if ok {
		return cached, nil
	}

	files, err := ix.SourceFiles(generator)
	if err != nil {
		return nil, err
	}
	out := make([]*Target, 0, len(files))
	for _, rel := range files {
		g := generator.WithAddress(addr.CreateFile(rel))
		g = g.WithField(FieldSources, cty.ListVal([]cty.Value{cty.StringVal(rel)}))
		out = append(out, g)
	}

	ix.mu.Lock()
	ix.generated[addr] = out
	ix.mu.Unlock()
	return out, nil
}

// Expand replaces a generator by its generated targets. A generator with no
// matching sources, and any non-generator target, expands to itself.
func (ix *Index) Expand(t *Target) ([]*Target, error) {
	generated, err := ix.GeneratedTargets(t)
	if err != nil {
		return nil, err
	}
	if len(generated) == 0 {
		return []*Target{t}, nil
	}
	return generated, nil
}

// ExpandedAll returns every declared target with generators replaced by
// their generated targets, sorted by address.
func (ix *Index) ExpandedAll() ([]*Target, error) {
	var out []*Target
	for _, t := range ix.All() {
		expanded, err := ix.Expand(t)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	SortTargets(out)
	return out, nil
}

// SourceFiles evaluates a target's sources globs against the snapshot,
// returning matched paths relative to the target's directory, sorted.
func (ix *Index) SourceFiles(t *Target) ([]string, error) {
	if !t.Kind().HasField(FieldSources) {
		return nil, nil
	}
	patterns, err := t.StringListField(FieldSources)
	if err != nil {
		return nil, err
	}
	dir := t.Address().SpecPath()
	seen := make(map[string]struct{})
	var out []string
	for _, pattern := range patterns {
		full := pattern
		if dir != "" {
			full = path.Join(dir, pattern)
		}
		matched, err := ix.snapshot.Glob(full)
		if err != nil {
			return nil, fmt.Errorf("sources of %s: %w", t.Address(), err)
		}
		for _, m := range matched {
			rel := m
			if dir != "" {
				rel = strings.TrimPrefix(m, dir+"/")
			}
			if _, dup := seen[rel]; dup {
				continue
			}
			seen[rel] = struct{}{}
			out = append(out, rel)
		}
	}
	sort.Strings(out)
	return out, nil
}

// declaredIn lists the declared addresses under one directory, for error
// messages.
func (ix *Index) declaredIn(dir string) []address.Address {
	var out []address.Address
	for _, addr := range ix.order {
		if addr.SpecPath() == dir {
			out = append(out, addr)
		}
	}
	address.Sort(out)
	return out
}
