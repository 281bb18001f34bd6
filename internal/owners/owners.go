// Package owners answers the reverse question of the dependency graph:
// which targets claim a given source file. Live files are matched against
// expanded targets for file-level precision; deleted files can only be
// matched against the original declarations' globs, since no generated
// target exists for them anymore.
package owners

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/williamscs/pants/internal/address"
	"github.com/williamscs/pants/internal/ctxlog"
	"github.com/williamscs/pants/internal/fsutil"
	"github.com/williamscs/pants/internal/target"
)

// UnmatchedBehavior controls what happens when a requested file has no
// owning target.
type UnmatchedBehavior string

const (
	IgnoreUnmatched UnmatchedBehavior = "ignore"
	WarnUnmatched   UnmatchedBehavior = "warn"
	ErrorUnmatched  UnmatchedBehavior = "error"
)

// UnownedFilesError reports requested files that no target claims, under
// ErrorUnmatched.
type UnownedFilesError struct {
	Paths []string
}

func (e *UnownedFilesError) Error() string {
	return fmt.Sprintf("no owning targets could be found for: %s", strings.Join(e.Paths, ", "))
}

// Request asks which targets own the given file paths. Paths are relative to
// the repository root; they may name files that no longer exist.
type Request struct {
	Sources   []string
	Unmatched UnmatchedBehavior
}

// Finder computes file → owning-target mappings over one index.
type Finder struct {
	index *target.Index
}

// NewFinder creates a finder over the given index.
func NewFinder(index *target.Index) *Finder {
	return &Finder{index: index}
}

// Owners returns the addresses of every target owning at least one of the
// requested paths, sorted. Ownership comes from a target's sources (at file
// level for live files, at glob level for deleted ones), from secondary
// owner fields, and from declaring build files themselves.
func (f *Finder) Owners(ctx context.Context, req Request) ([]address.Address, error) {
	snap := f.index.Snapshot()
	requested := make(map[string]struct{}, len(req.Sources))
	var live, deleted []string
	for _, s := range req.Sources {
		if _, dup := requested[s]; dup {
			continue
		}
		requested[s] = struct{}{}
		if snap.Exists(s) {
			live = append(live, s)
		} else {
			deleted = append(deleted, s)
		}
	}

	owners := make(map[address.Address]struct{})
	matched := make(map[string]struct{})
	claim := func(addr address.Address, source string) {
		owners[addr] = struct{}{}
		matched[source] = struct{}{}
	}

	expanded, err := f.index.ExpandedAll()
	if err != nil {
		return nil, err
	}
	for _, t := range expanded {
		paths, err := f.sourcePaths(t)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			if _, want := requested[p]; want && snap.Exists(p) {
				claim(t.Address(), p)
			}
		}
		if bf, ok := f.index.BuildFile(t.Address()); ok {
			if _, want := requested[bf]; want {
				claim(t.Address(), bf)
			}
		}
	}

	if len(deleted) > 0 {
		for _, t := range f.index.All() {
			patterns, err := f.sourcePatterns(t)
			if err != nil {
				return nil, err
			}
			for _, p := range deleted {
				if fsutil.MatchAny(patterns, p) {
					claim(t.Address(), p)
				}
			}
		}
	}

	// Secondary owner fields name a single path each; they always bind to
	// the declared target, never to a generated one.
	for _, t := range f.index.All() {
		for _, field := range t.Kind().SecondaryOwnerFields {
			value, err := t.StringField(field)
			if err != nil {
				return nil, err
			}
			if value == "" {
				continue
			}
			full := value
			if dir := t.Address().SpecPath(); dir != "" {
				full = path.Join(dir, value)
			}
			if _, want := requested[full]; want {
				claim(t.Address(), full)
			}
		}
	}

	var unmatched []string
	for _, s := range req.Sources {
		if _, ok := matched[s]; !ok {
			unmatched = append(unmatched, s)
		}
	}
	if len(unmatched) > 0 {
		sort.Strings(unmatched)
		switch req.Unmatched {
		case ErrorUnmatched:
			return nil, &UnownedFilesError{Paths: unmatched}
		case WarnUnmatched:
			ctxlog.FromContext(ctx).Warn("No owning targets found for some files.",
				"paths", strings.Join(unmatched, ", "))
		}
	}

	out := make([]address.Address, 0, len(owners))
	for addr := range owners {
		out = append(out, addr)
	}
	address.Sort(out)
	return out, nil
}

// sourcePaths returns the repository-relative files a target's sources field
// matches right now.
func (f *Finder) sourcePaths(t *target.Target) ([]string, error) {
	files, err := f.index.SourceFiles(t)
	if err != nil {
		return nil, err
	}
	dir := t.Address().SpecPath()
	out := make([]string, len(files))
	for i, file := range files {
		if dir != "" {
			out[i] = path.Join(dir, file)
		} else {
			out[i] = file
		}
	}
	return out, nil
}

// sourcePatterns returns a target's sources globs anchored at its directory.
func (f *Finder) sourcePatterns(t *target.Target) ([]string, error) {
	if !t.Kind().HasField(target.FieldSources) {
		return nil, nil
	}
	patterns, err := t.StringListField(target.FieldSources)
	if err != nil {
		return nil, err
	}
	dir := t.Address().SpecPath()
	out := make([]string, len(patterns))
	for i, p := range patterns {
		if dir != "" {
			out[i] = path.Join(dir, p)
		} else {
			out[i] = p
		}
	}
	return out, nil
}
