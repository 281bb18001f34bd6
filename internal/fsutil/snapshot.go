// Package fsutil provides the immutable file-listing view that one
// resolution session operates on. All glob matching and file-existence
// questions in the graph core go through a Snapshot, never the live
// filesystem, so concurrent queries observe a single consistent state.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Snapshot is a read-only view of the repository's files, captured once per
// resolution session. Paths are slash-separated and relative to the root.
type Snapshot interface {
	// Exists reports whether the path was present when the snapshot was taken.
	Exists(path string) bool
	// Files returns every captured path in sorted order.
	Files() []string
	// Glob returns the captured paths matching the doublestar pattern, sorted.
	Glob(pattern string) ([]string, error)
	// Read returns the content of the given path.
	Read(path string) ([]byte, error)
}

// DirSnapshot captures the file tree under a root directory.
type DirSnapshot struct {
	root  string
	files []string
	index map[string]struct{}
}

// ScanDir walks root once and captures every regular file. Hidden
// directories (those starting with a dot) are skipped.
func ScanDir(root string) (*DirSnapshot, error) {
	s := &DirSnapshot{root: root, index: make(map[string]struct{})}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		s.files = append(s.files, rel)
		s.index[rel] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	sort.Strings(s.files)
	return s, nil
}

func (s *DirSnapshot) Exists(path string) bool {
	_, ok := s.index[path]
	return ok
}

func (s *DirSnapshot) Files() []string {
	out := make([]string, len(s.files))
	copy(out, s.files)
	return out
}

func (s *DirSnapshot) Glob(pattern string) ([]string, error) {
	return globFiles(s.files, pattern)
}

func (s *DirSnapshot) Read(path string) ([]byte, error) {
	if !s.Exists(path) {
		return nil, fmt.Errorf("%s: %w", path, fs.ErrNotExist)
	}
	return os.ReadFile(filepath.Join(s.root, filepath.FromSlash(path)))
}

// MemSnapshot is a Snapshot backed by an in-memory file map. It is the test
// double for DirSnapshot and also serves callers that already hold hydrated
// content.
type MemSnapshot struct {
	files   []string
	content map[string][]byte
}

// NewMemSnapshot captures the given path → content map.
func NewMemSnapshot(files map[string]string) *MemSnapshot {
	s := &MemSnapshot{content: make(map[string][]byte, len(files))}
	for p, c := range files {
		s.files = append(s.files, p)
		s.content[p] = []byte(c)
	}
	sort.Strings(s.files)
	return s
}

func (s *MemSnapshot) Exists(path string) bool {
	_, ok := s.content[path]
	return ok
}

func (s *MemSnapshot) Files() []string {
	out := make([]string, len(s.files))
	copy(out, s.files)
	return out
}

func (s *MemSnapshot) Glob(pattern string) ([]string, error) {
	return globFiles(s.files, pattern)
}

func (s *MemSnapshot) Read(path string) ([]byte, error) {
	c, ok := s.content[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, fs.ErrNotExist)
	}
	return c, nil
}

func globFiles(files []string, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern %q", pattern)
	}
	var out []string
	for _, f := range files {
		ok, err := doublestar.Match(pattern, f)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// MatchAny reports whether the path matches at least one of the patterns.
// Invalid patterns never match.
func MatchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}
