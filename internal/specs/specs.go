// Package specs turns command-line spec strings into target addresses. A
// spec is either an address (`dir:name`, `//dir#gen`) or a filesystem spec:
// a glob (`src/**/*.txt`) or a literal file path, both resolved through the
// owners index.
package specs

import (
	"context"
	"fmt"
	"strings"

	"github.com/williamscs/pants/internal/address"
	"github.com/williamscs/pants/internal/owners"
	"github.com/williamscs/pants/internal/target"
)

// Kind classifies one raw spec string.
type Kind int

const (
	// AddressSpec names a target directly.
	AddressSpec Kind = iota
	// FileLiteralSpec is a path to a single file.
	FileLiteralSpec
	// FileGlobSpec is a glob over file paths.
	FileGlobSpec
)

// Classify decides how a raw spec string will be resolved. Anything carrying
// address syntax is an address spec; of the rest, glob metacharacters make a
// glob and existing files make a literal. An unknown bare path falls back to
// an address spec so the address machinery reports it.
func Classify(raw string, exists func(string) bool) Kind {
	if strings.HasPrefix(raw, "//") || strings.ContainsAny(raw, ":#") {
		return AddressSpec
	}
	if strings.ContainsAny(raw, "*?[") {
		return FileGlobSpec
	}
	if exists(raw) {
		return FileLiteralSpec
	}
	return AddressSpec
}

// Options tunes filesystem-spec resolution.
type Options struct {
	// UnmatchedLiteral is applied when a literal file argument has no
	// owner. Unmatched globs are always silently empty.
	UnmatchedLiteral owners.UnmatchedBehavior
}

// Matcher resolves raw spec strings against one index.
type Matcher struct {
	index  *target.Index
	finder *owners.Finder
}

// NewMatcher creates a matcher over the given index.
func NewMatcher(index *target.Index) *Matcher {
	return &Matcher{index: index, finder: owners.NewFinder(index)}
}

// Resolution is the outcome of resolving a batch of specs, keeping the two
// spec families separate for error reporting.
type Resolution struct {
	AddressSpecs    []string
	FilesystemSpecs []string
	// Addresses is the deduplicated union, in first-seen order.
	Addresses []address.Address
}

// Resolve turns raw specs into target addresses. Address specs must resolve;
// literal files with no owner follow the configured behavior; globs with no
// owner are silently empty.
func (m *Matcher) Resolve(ctx context.Context, raw []string, opts Options) (*Resolution, error) {
	res := &Resolution{}
	seen := make(map[address.Address]struct{})
	add := func(addr address.Address) {
		if _, dup := seen[addr]; dup {
			return
		}
		seen[addr] = struct{}{}
		res.Addresses = append(res.Addresses, addr)
	}

	snap := m.index.Snapshot()
	for _, spec := range raw {
		switch Classify(spec, snap.Exists) {
		case AddressSpec:
			res.AddressSpecs = append(res.AddressSpecs, spec)
			addr, err := m.resolveAddressSpec(spec)
			if err != nil {
				return nil, err
			}
			add(addr)

		case FileLiteralSpec:
			res.FilesystemSpecs = append(res.FilesystemSpecs, spec)
			found, err := m.finder.Owners(ctx, owners.Request{
				Sources:   []string{spec},
				Unmatched: opts.UnmatchedLiteral,
			})
			if err != nil {
				return nil, err
			}
			for _, addr := range found {
				add(addr)
			}

		case FileGlobSpec:
			res.FilesystemSpecs = append(res.FilesystemSpecs, spec)
			files, err := snap.Glob(spec)
			if err != nil {
				return nil, fmt.Errorf("spec %q: %w", spec, err)
			}
			if len(files) == 0 {
				continue
			}
			found, err := m.finder.Owners(ctx, owners.Request{
				Sources:   files,
				Unmatched: owners.IgnoreUnmatched,
			})
			if err != nil {
				return nil, err
			}
			for _, addr := range found {
				add(addr)
			}
		}
	}
	return res, nil
}

// resolveAddressSpec parses and validates one address spec against the
// index, returning the canonical address of the target it names.
func (m *Matcher) resolveAddressSpec(spec string) (address.Address, error) {
	in, err := address.Parse(spec, "")
	if err != nil {
		return address.Address{}, err
	}
	var addr address.Address
	if m.index.Snapshot().Exists(in.PathComponent) {
		addr, err = in.FileToAddress()
	} else {
		addr, err = in.DirToAddress()
	}
	if err != nil {
		return address.Address{}, err
	}
	t, err := m.index.Resolve(addr)
	if err != nil {
		return address.Address{}, err
	}
	return t.Address(), nil
}
