package graph

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/williamscs/pants/internal/address"
	"github.com/williamscs/pants/internal/target"
)

// memoSize bounds the per-session result caches. Sessions rarely issue more
// than a handful of distinct closure requests; the bound only guards against
// pathological callers.
const memoSize = 512

// Engine runs transitive-closure and coarsening queries over a resolver.
// Results are memoized by exact request for the lifetime of the engine; a
// cache hit is indistinguishable from a fresh computation because every
// result is immutable.
type Engine struct {
	resolver *Resolver

	closures   *lru.Cache[string, *TransitiveTargets]
	coarsening *lru.Cache[string, *CoarsenedTargets]
}

// NewEngine creates an engine over the given resolver.
func NewEngine(resolver *Resolver) *Engine {
	closures, err := lru.New[string, *TransitiveTargets](memoSize)
	if err != nil {
		panic(err)
	}
	coarsening, err := lru.New[string, *CoarsenedTargets](memoSize)
	if err != nil {
		panic(err)
	}
	return &Engine{resolver: resolver, closures: closures, coarsening: coarsening}
}

// TransitiveTargetsRequest names the roots to compute a closure for.
type TransitiveTargetsRequest struct {
	Roots []address.Address
	// IncludeSpecialCased merges special-cased address fields into every
	// edge computation.
	IncludeSpecialCased bool
}

func (req TransitiveTargetsRequest) fingerprint() string {
	var b strings.Builder
	for _, a := range req.Roots {
		b.WriteString(a.Spec())
		b.WriteByte(0)
	}
	fmt.Fprintf(&b, "special=%t", req.IncludeSpecialCased)
	return b.String()
}

// TransitiveTargets is the closure of a set of roots. Roots holds the
// requested targets with fine-grained generators replaced by their generated
// targets; Dependencies holds everything reached through dependency edges,
// in discovery order, including roots that were re-reached as dependencies.
type TransitiveTargets struct {
	Roots        []*target.Target
	Dependencies []*target.Target
}

// Closure returns roots followed by dependencies, deduplicated.
func (tt *TransitiveTargets) Closure() []*target.Target {
	seen := make(map[address.Address]struct{}, len(tt.Roots)+len(tt.Dependencies))
	out := make([]*target.Target, 0, len(tt.Roots)+len(tt.Dependencies))
	for _, t := range tt.Roots {
		if _, dup := seen[t.Address()]; dup {
			continue
		}
		seen[t.Address()] = struct{}{}
		out = append(out, t)
	}
	for _, t := range tt.Dependencies {
		if _, dup := seen[t.Address()]; dup {
			continue
		}
		seen[t.Address()] = struct{}{}
		out = append(out, t)
	}
	return out
}

// TransitiveTargets computes the dependency closure of the requested roots.
// Cycles that pass through a file-level or generated target are tolerated;
// any other cycle fails with CycleError.
func (e *Engine) TransitiveTargets(ctx context.Context, req TransitiveTargetsRequest) (*TransitiveTargets, error) {
	key := "tt:" + req.fingerprint()
	if cached, ok := e.closures.Get(key); ok {
		return cached, nil
	}
	result, err := e.transitiveTargets(ctx, req)
	if err != nil {
		return nil, err
	}
	e.closures.Add(key, result)
	return result, nil
}

func (e *Engine) transitiveTargets(ctx context.Context, req TransitiveTargetsRequest) (*TransitiveTargets, error) {
	index := e.resolver.Index()

	// Resolve the requested roots, then replace fine-grained generators by
	// their generated targets. A generator that generates nothing stays.
	resolvedRoots := make([]*target.Target, 0, len(req.Roots))
	for _, addr := range req.Roots {
		t, err := index.Resolve(addr)
		if err != nil {
			return nil, err
		}
		resolvedRoots = append(resolvedRoots, t)
	}
	var roots []*target.Target
	for _, t := range resolvedRoots {
		expanded, err := index.Expand(t)
		if err != nil {
			return nil, err
		}
		roots = append(roots, expanded...)
	}

	// Transitive excludes are honored only when declared on the roots
	// themselves; a "!!" deep inside the graph has no effect on this
	// closure.
	var excludes []address.Address
	for _, t := range resolvedRoots {
		explicit, err := e.resolver.ExplicitDependencies(ctx, t)
		if err != nil {
			return nil, err
		}
		excludes = append(excludes, explicit.TransitiveIgnores...)
	}

	walk := &walker{
		engine:   e,
		request:  req,
		excludes: excludes,
		targets:  make(map[address.Address]*target.Target),
		edges:    make(map[address.Address][]address.Address),
		depSeen:  make(map[address.Address]struct{}),
	}
	if err := walk.run(ctx, roots); err != nil {
		return nil, err
	}

	rootAddrs := make([]address.Address, len(roots))
	for i, t := range roots {
		rootAddrs[i] = t.Address()
	}
	if err := checkCycles(rootAddrs, walk.edges); err != nil {
		return nil, err
	}

	deps := make([]*target.Target, len(walk.depOrder))
	for i, addr := range walk.depOrder {
		deps[i] = walk.targets[addr]
	}
	return &TransitiveTargets{Roots: roots, Dependencies: deps}, nil
}

// walker performs the breadth-first expansion. Edge computation for the
// targets of one level runs in parallel; everything else is serial, so the
// maps need no locking.
type walker struct {
	engine   *Engine
	request  TransitiveTargetsRequest
	excludes []address.Address

	targets  map[address.Address]*target.Target
	edges    map[address.Address][]address.Address
	depOrder []address.Address
	depSeen  map[address.Address]struct{}
}

func (w *walker) run(ctx context.Context, roots []*target.Target) error {
	level := make([]*target.Target, 0, len(roots))
	for _, t := range roots {
		if _, dup := w.targets[t.Address()]; dup {
			continue
		}
		w.targets[t.Address()] = t
		level = append(level, t)
	}

	index := w.engine.resolver.Index()
	for len(level) > 0 {
		results := make([][]address.Address, len(level))
		g, gctx := errgroup.WithContext(ctx)
		for i, t := range level {
			i, t := i, t
			g.Go(func() error {
				deps, err := w.engine.resolver.DirectDependencies(gctx, Request{
					Target:              t,
					IncludeSpecialCased: w.request.IncludeSpecialCased,
				})
				if err != nil {
					return err
				}
				results[i] = deps
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		var next []*target.Target
		for i, t := range level {
			var kept []address.Address
			for _, dep := range results[i] {
				if w.excluded(dep) {
					continue
				}
				depTarget, err := index.Resolve(dep)
				if err != nil {
					return fmt.Errorf("resolving dependency of %s: %w", t.Address(), err)
				}
				canonical := depTarget.Address()
				kept = append(kept, canonical)
				if _, dup := w.depSeen[canonical]; !dup {
					w.depSeen[canonical] = struct{}{}
					w.depOrder = append(w.depOrder, canonical)
				}
				if _, visited := w.targets[canonical]; !visited {
					w.targets[canonical] = depTarget
					next = append(next, depTarget)
				}
			}
			w.edges[t.Address()] = kept
		}
		level = next
	}
	return nil
}

func (w *walker) excluded(addr address.Address) bool {
	for _, ex := range w.excludes {
		if ex == addr || ex == addr.MaybeConvertToTargetGenerator() {
			return true
		}
	}
	return false
}

// checkCycles runs a serial depth-first search over the computed edges. A
// back edge is tolerated when the revisited address, or anything on the
// cycle after it, is a file-level or generated target; such cycles are
// resolved later by coarsening. The reported path runs from the traversal
// root, so the user sees how their request reached the cycle.
func checkCycles(roots []address.Address, edges map[address.Address][]address.Address) error {
	const (
		white = iota
		grey
		black
	)
	state := make(map[address.Address]int, len(edges))
	var stack []address.Address

	var visit func(addr address.Address) error
	visit = func(addr address.Address) error {
		state[addr] = grey
		stack = append(stack, addr)
		for _, dep := range edges[addr] {
			switch state[dep] {
			case black:
				continue
			case grey:
				if tolerableCycle(dep, stack) {
					continue
				}
				cycle := append(append([]address.Address{}, stack...), dep)
				return &CycleError{Subject: dep, Path: cycle}
			default:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[addr] = black
		return nil
	}

	for _, root := range roots {
		if state[root] == white {
			if err := visit(root); err != nil {
				return err
			}
		}
	}
	return nil
}

func tolerableCycle(subject address.Address, stack []address.Address) bool {
	if subject.IsGeneratedTarget() {
		return true
	}
	inCycle := false
	for _, a := range stack {
		if a == subject {
			inCycle = true
			continue
		}
		if inCycle && a.IsGeneratedTarget() {
			return true
		}
	}
	return false
}
