package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: LevelWarn, Output: &buf})

	l.Debug("hidden")
	l.Info("also hidden")
	assert.Empty(t, buf.String())

	l.Warn("visible", "line", 3)
	assert.Contains(t, buf.String(), "[WARN]")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "line=3")
}

func TestDefaultLoggerSwap(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(New(&Config{Level: LevelDebug, Output: &buf}))
	defer SetDefault(nil)

	Info("hello")
	assert.Contains(t, buf.String(), "hello")
}
