package specs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/williamscs/pants/internal/address"
	"github.com/williamscs/pants/internal/registry"
	"github.com/williamscs/pants/internal/target"
)

// TooManyTargetsError reports that a caller needed exactly one target and
// the specs matched several.
type TooManyTargetsError struct {
	Candidates []address.Address
}

func (e *TooManyTargetsError) Error() string {
	specs := make([]string, len(e.Candidates))
	for i, a := range e.Candidates {
		specs[i] = a.Spec()
	}
	sort.Strings(specs)
	return fmt.Sprintf("expected exactly one target but found %d: %s",
		len(e.Candidates), strings.Join(specs, ", "))
}

// ExpectOne asserts that the given targets contain exactly one element.
// Empty input is the caller's NoApplicableTargetsError case and is returned
// as nil, nil.
func ExpectOne(targets []*target.Target) (*target.Target, error) {
	switch len(targets) {
	case 0:
		return nil, nil
	case 1:
		return targets[0], nil
	default:
		addrs := make([]address.Address, len(targets))
		for i, t := range targets {
			addrs[i] = t.Address()
		}
		return nil, &TooManyTargetsError{Candidates: addrs}
	}
}

// NoApplicableTargetsError reports that the specs matched nothing an
// operation can work on. The message depends on which spec families were
// given and on whether targets did match but had the wrong kind, so the user
// can tell "nothing matched" apart from "your files exist but don't apply".
type NoApplicableTargetsError struct {
	Operation  string
	Resolution *Resolution
	// WrongKind holds targets that matched the specs but are not applicable
	// to the operation.
	WrongKind []*target.Target
	// ApplicableKinds names every registered kind the operation supports.
	ApplicableKinds []string
}

func (e *NoApplicableTargetsError) Error() string {
	var subject string
	switch {
	case len(e.Resolution.AddressSpecs) > 0 && len(e.Resolution.FilesystemSpecs) > 0:
		subject = fmt.Sprintf("the address specs %s or the file arguments %s",
			strings.Join(e.Resolution.AddressSpecs, ", "),
			strings.Join(e.Resolution.FilesystemSpecs, ", "))
	case len(e.Resolution.AddressSpecs) > 0:
		subject = fmt.Sprintf("the address specs %s", strings.Join(e.Resolution.AddressSpecs, ", "))
	case len(e.Resolution.FilesystemSpecs) > 0:
		subject = fmt.Sprintf("the file arguments %s", strings.Join(e.Resolution.FilesystemSpecs, ", "))
	default:
		subject = "the given specs"
	}
	msg := fmt.Sprintf("no applicable targets matched %s for %s", subject, e.Operation)
	if len(e.WrongKind) > 0 {
		kinds := make(map[string]struct{})
		for _, t := range e.WrongKind {
			kinds[t.Kind().Name] = struct{}{}
		}
		names := make([]string, 0, len(kinds))
		for k := range kinds {
			names = append(names, k)
		}
		sort.Strings(names)
		msg += fmt.Sprintf("; %d matching targets exist but have inapplicable kinds: %s",
			len(e.WrongKind), strings.Join(names, ", "))
	}
	if len(e.ApplicableKinds) > 0 {
		msg += fmt.Sprintf(". The %s operation works with these target kinds: %s",
			e.Operation, strings.Join(e.ApplicableKinds, ", "))
	}
	msg += ". Run `pants targets` to list every target, then retry with an applicable one"
	return msg
}

// ApplicableTargets filters the resolved targets to those the operation
// applies to, failing with NoApplicableTargetsError when nothing survives.
func ApplicableTargets(reg *registry.Registry, operation string, res *Resolution, targets []*target.Target) ([]*target.Target, error) {
	applicable := reg.ApplicableTargets(operation, targets)
	if len(applicable) > 0 {
		return applicable, nil
	}
	return nil, &NoApplicableTargetsError{
		Operation:       operation,
		Resolution:      res,
		WrongKind:       targets,
		ApplicableKinds: reg.KindsForOperation(operation),
	}
}
