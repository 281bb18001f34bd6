package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommandAndSpecs(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	inv, exit, err := Parse([]string{"-root", "/repo", "closure", "//app:bin", "lib/*.txt"}, &out)
	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, "/repo", inv.Config.RootDir)
	assert.Equal(t, "closure", inv.Command)
	assert.Equal(t, []string{"//app:bin", "lib/*.txt"}, inv.Args)
}

func TestParseDefaults(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	inv, exit, err := Parse([]string{"targets"}, &out)
	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, ".", inv.Config.RootDir)
	assert.Equal(t, "error", inv.Config.UnownedFiles)
	assert.Equal(t, "text", inv.Config.LogFormat)
	assert.Equal(t, "warn", inv.Config.LogLevel)
	assert.Empty(t, inv.Args)
}

func TestParseBuildIgnorePatterns(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	inv, _, err := Parse([]string{"-build-ignore", "vendor/, third_party/", "targets"}, &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"vendor/", "third_party/"}, inv.Config.BuildIgnore)
}

func TestParseNoCommandPrintsUsage(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	inv, exit, err := Parse(nil, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, inv)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParseValidation(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"bad log format", []string{"-log-format", "yaml", "targets"}, "invalid log-format"},
		{"bad log level", []string{"-log-level", "loud", "targets"}, "invalid log-level"},
		{"bad unowned behavior", []string{"-unowned-files", "explode", "targets"}, "invalid unowned-files"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			_, _, err := Parse(tc.args, &out)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.want)
		})
	}
}
