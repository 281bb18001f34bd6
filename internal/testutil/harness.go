// Package testutil provides the shared harness for integration-style tests:
// it builds an App over an in-memory file map and runs one command against
// it, capturing output.
package testutil

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/williamscs/pants/internal/app"
	"github.com/williamscs/pants/internal/fsutil"
)

// SafeBuffer is a thread-safe buffer for capturing output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of one command run.
type HarnessResult struct {
	Output string
	Err    error
	App    *app.App
}

// Lines splits the captured output into its non-empty lines.
func (r *HarnessResult) Lines() []string {
	var out []string
	for _, line := range strings.Split(r.Output, "\n") {
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// RunCommand builds an App over the given file map and runs one command,
// using a default background context.
func RunCommand(t *testing.T, files map[string]string, command string, args ...string) *HarnessResult {
	t.Helper()
	return RunCommandWithConfig(t, files, app.Config{RootDir: "."}, command, args...)
}

// RunCommandWithConfig is RunCommand with a caller-controlled Config. The
// RootDir is ignored since the snapshot is injected.
func RunCommandWithConfig(t *testing.T, files map[string]string, cfg app.Config, command string, args ...string) *HarnessResult {
	t.Helper()
	if cfg.RootDir == "" {
		cfg.RootDir = "."
	}
	config, err := app.NewConfig(cfg)
	require.NoError(t, err)

	var out SafeBuffer
	session, err := app.NewApp(&out, config, app.WithSnapshot(fsutil.NewMemSnapshot(files)))
	require.NoError(t, err)

	runErr := session.Run(context.Background(), command, args)
	return &HarnessResult{Output: out.String(), Err: runErr, App: session}
}
