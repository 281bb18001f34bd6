package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/williamscs/pants/internal/cli"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func TestRunEndToEnd(t *testing.T) {
	root := writeTree(t, map[string]string{
		"lib/BUILD.hcl": `
target "lib" {
  sources = ["*.txt"]
}
`,
		"lib/a.txt": "",
		"app/BUILD.hcl": `
target "bin" {
  dependencies = ["//lib"]
}
`,
	})

	var out bytes.Buffer
	err := run(&out, []string{"-root", root, "closure", "app:bin"})
	require.NoError(t, err)
	assert.Equal(t, "app:bin\nlib\n", out.String())
}

func TestRunHelpExitsCleanly(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(&out, nil))
	assert.Contains(t, out.String(), "Usage:")
}

func TestRunInvalidFlag(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, []string{"-log-format", "yaml", "targets"})
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}
