package graph

import (
	"fmt"
	"strings"

	"github.com/williamscs/pants/internal/address"
)

// CycleError reports a dependency cycle that does not pass through any
// file-level or generated target and therefore cannot be tolerated.
type CycleError struct {
	// Subject is the address the cycle was detected at.
	Subject address.Address
	// Path is the dependency chain from the traversal root down to the
	// repeated occurrence of Subject.
	Path []address.Address
}

func (e *CycleError) Error() string {
	specs := make([]string, len(e.Path))
	for i, a := range e.Path {
		specs[i] = a.Spec()
	}
	return fmt.Sprintf("the dependency graph contained a cycle:\n%s", strings.Join(specs, " -> "))
}
