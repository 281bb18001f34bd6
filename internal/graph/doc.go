// Package graph computes dependency edges and transitive closures over a
// target index.
//
// The Resolver turns one target's declared, injected, and inferred
// dependencies into direct edges. The Engine walks those edges breadth-first
// to build transitive closures, tolerating cycles that pass through
// file-level targets, and coarsens genuinely cyclic components into single
// nodes via strongly-connected-component analysis. Both are pure functions
// of the immutable index and registry they are constructed with; results are
// memoized per session.
package graph
