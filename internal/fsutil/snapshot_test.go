package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemSnapshot(t *testing.T) {
	s := NewMemSnapshot(map[string]string{
		"demo/f1.txt":   "one",
		"demo/f2.txt":   "two",
		"demo/sub/g.go": "three",
		"BUILD.hcl":     "",
	})

	assert.True(t, s.Exists("demo/f1.txt"))
	assert.False(t, s.Exists("demo/deleted.txt"))
	assert.Equal(t, []string{"BUILD.hcl", "demo/f1.txt", "demo/f2.txt", "demo/sub/g.go"}, s.Files())

	matched, err := s.Glob("demo/*.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"demo/f1.txt", "demo/f2.txt"}, matched)

	matched, err = s.Glob("demo/**/*.go")
	require.NoError(t, err)
	assert.Equal(t, []string{"demo/sub/g.go"}, matched)

	content, err := s.Read("demo/f2.txt")
	require.NoError(t, err)
	assert.Equal(t, "two", string(content))

	_, err = s.Read("demo/missing.txt")
	require.Error(t, err)
}

func TestDirSnapshot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "f.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "b", "g.txt"), []byte("y"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "config"), nil, 0o644))

	s, err := ScanDir(root)
	require.NoError(t, err)

	// Hidden directories are not captured.
	assert.Equal(t, []string{"a/b/g.txt", "a/f.txt"}, s.Files())
	assert.True(t, s.Exists("a/f.txt"))

	content, err := s.Read("a/b/g.txt")
	require.NoError(t, err)
	assert.Equal(t, "y", string(content))
}

func TestMatchAny(t *testing.T) {
	assert.True(t, MatchAny([]string{"a/*.txt", "b/*.txt"}, "b/f.txt"))
	assert.False(t, MatchAny([]string{"a/*.txt"}, "b/f.txt"))
	assert.False(t, MatchAny(nil, "b/f.txt"))
}
