package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/williamscs/pants/internal/address"
	"github.com/williamscs/pants/internal/target"
)

// CoarsenedTarget is one strongly connected component of the dependency
// graph: a set of mutually reachable targets treated as a single node.
// Components with a single member are the common case.
type CoarsenedTarget struct {
	// Members are the component's targets, sorted by address.
	Members []*target.Target
	// Dependencies are the components reachable through member edges that
	// leave this component.
	Dependencies []*CoarsenedTarget
}

// Addresses returns the member addresses, sorted.
func (ct *CoarsenedTarget) Addresses() []address.Address {
	out := make([]address.Address, len(ct.Members))
	for i, m := range ct.Members {
		out[i] = m.Address()
	}
	return out
}

// Representative returns the component's first member by address order.
func (ct *CoarsenedTarget) Representative() *target.Target { return ct.Members[0] }

func (ct *CoarsenedTarget) String() string {
	specs := make([]string, len(ct.Members))
	for i, m := range ct.Members {
		specs[i] = m.Address().Spec()
	}
	return fmt.Sprintf("coarsened(%s)", strings.Join(specs, ", "))
}

// CoarsenedTargets is the cycle-free component graph of one request.
type CoarsenedTargets struct {
	// Components is every reachable component, dependencies before
	// dependents.
	Components []*CoarsenedTarget

	byMember map[address.Address]*CoarsenedTarget
}

// ByAddress returns the component containing the given member address.
func (cts *CoarsenedTargets) ByAddress(addr address.Address) (*CoarsenedTarget, bool) {
	ct, ok := cts.byMember[addr]
	return ct, ok
}

// CoarsenedTargetsRequest names the roots to coarsen. Roots are resolved but
// not expanded through generators.
type CoarsenedTargetsRequest struct {
	Roots               []address.Address
	IncludeSpecialCased bool
}

func (req CoarsenedTargetsRequest) fingerprint() string {
	var b strings.Builder
	for _, a := range req.Roots {
		b.WriteString(a.Spec())
		b.WriteByte(0)
	}
	fmt.Fprintf(&b, "special=%t", req.IncludeSpecialCased)
	return b.String()
}

// CoarsenedTargets computes the strongly connected components reachable from
// the requested roots and the acyclic component graph over them.
func (e *Engine) CoarsenedTargets(ctx context.Context, req CoarsenedTargetsRequest) (*CoarsenedTargets, error) {
	key := "ct:" + req.fingerprint()
	if cached, ok := e.coarsening.Get(key); ok {
		return cached, nil
	}
	result, err := e.coarsenedTargets(ctx, req)
	if err != nil {
		return nil, err
	}
	e.coarsening.Add(key, result)
	return result, nil
}

func (e *Engine) coarsenedTargets(ctx context.Context, req CoarsenedTargetsRequest) (*CoarsenedTargets, error) {
	index := e.resolver.Index()

	roots := make([]*target.Target, 0, len(req.Roots))
	for _, addr := range req.Roots {
		t, err := index.Resolve(addr)
		if err != nil {
			return nil, err
		}
		roots = append(roots, t)
	}

	walk := &walker{
		engine:  e,
		request: TransitiveTargetsRequest{IncludeSpecialCased: req.IncludeSpecialCased},
		targets: make(map[address.Address]*target.Target),
		edges:   make(map[address.Address][]address.Address),
		depSeen: make(map[address.Address]struct{}),
	}
	if err := walk.run(ctx, roots); err != nil {
		return nil, err
	}

	rootAddrs := make([]address.Address, len(roots))
	for i, t := range roots {
		rootAddrs[i] = t.Address()
	}
	// Cycles among plain targets are illegal here too; only cycles passing
	// through file-level or generated targets survive into components.
	if err := checkCycles(rootAddrs, walk.edges); err != nil {
		return nil, err
	}
	components := tarjan(rootAddrs, walk.edges)

	cts := &CoarsenedTargets{byMember: make(map[address.Address]*CoarsenedTarget)}
	for _, members := range components {
		targets := make([]*target.Target, len(members))
		for i, addr := range members {
			targets[i] = walk.targets[addr]
		}
		target.SortTargets(targets)
		ct := &CoarsenedTarget{Members: targets}
		for _, addr := range members {
			cts.byMember[addr] = ct
		}
		cts.Components = append(cts.Components, ct)
	}

	// Tarjan emits components dependencies-first, so every edge target
	// already has its component built.
	for _, ct := range cts.Components {
		seen := make(map[*CoarsenedTarget]struct{})
		for _, m := range ct.Members {
			for _, dep := range walk.edges[m.Address()] {
				depCT := cts.byMember[dep]
				if depCT == ct {
					continue
				}
				if _, dup := seen[depCT]; dup {
					continue
				}
				seen[depCT] = struct{}{}
				ct.Dependencies = append(ct.Dependencies, depCT)
			}
		}
	}
	return cts, nil
}

// tarjan computes strongly connected components over the edge map, emitted
// in reverse topological order (dependencies before dependents).
func tarjan(roots []address.Address, edges map[address.Address][]address.Address) [][]address.Address {
	type nodeState struct {
		index   int
		lowlink int
		onStack bool
	}
	states := make(map[address.Address]*nodeState)
	var stack []address.Address
	next := 0
	var components [][]address.Address

	var strongconnect func(v address.Address)
	strongconnect = func(v address.Address) {
		st := &nodeState{index: next, lowlink: next}
		next++
		states[v] = st
		stack = append(stack, v)
		st.onStack = true

		for _, w := range edges[v] {
			ws, seen := states[w]
			switch {
			case !seen:
				strongconnect(w)
				if ls := states[w].lowlink; ls < st.lowlink {
					st.lowlink = ls
				}
			case ws.onStack:
				if ws.index < st.lowlink {
					st.lowlink = ws.index
				}
			}
		}

		if st.lowlink == st.index {
			var members []address.Address
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				states[w].onStack = false
				members = append(members, w)
				if w == v {
					break
				}
			}
			components = append(components, members)
		}
	}

	for _, root := range roots {
		if _, seen := states[root]; !seen {
			strongconnect(root)
		}
	}
	return components
}
