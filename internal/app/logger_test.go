package app

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerDefaultsToWarn(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := newLogger("bogus", "text", &buf)

	logger.Info("below the default level")
	assert.Empty(t, buf.String(), "unrecognized levels fall back to warn")

	logger.Warn("surfaced")
	assert.Contains(t, buf.String(), "surfaced")
}

func TestNewLoggerFormats(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	newLogger("error", "json", &buf).Error("boom")
	assert.Contains(t, buf.String(), `"msg":"boom"`)

	buf.Reset()
	newLogger("debug", "text", &buf).Debug("verbose")
	assert.Contains(t, buf.String(), "msg=verbose")
}
