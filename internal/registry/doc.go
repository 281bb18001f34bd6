// Package registry provides the capability registry that wires plugin-style
// behavior into the graph core.
//
// The Registry maps string identifiers (kind aliases, dependency-field
// kinds, sources-field kinds) to the compiled Go hooks that extend
// resolution: dependency injection, dependency inference, code generation,
// and operation implementations. It is populated once during application
// startup and treated as immutable afterwards; every resolver receives it by
// reference and only ever reads from it, so concurrent queries need no
// locking.
package registry
