package obslog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerWritesLevelAndComponent(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: Debug, Component: "test", Output: &buf})

	log.Info("hello", String("key", "value"))

	out := buf.String()
	assert.Contains(t, out, "[INFO")
	assert.Contains(t, out, "[test]")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, `key="value"`)
}

func TestLoggerRespectsLevelFloor(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: Warn, Component: "test", Output: &buf})

	log.Debug("should be dropped")
	log.Info("also dropped")
	log.Warn("kept")

	out := buf.String()
	assert.False(t, strings.Contains(out, "should be dropped"))
	assert.False(t, strings.Contains(out, "also dropped"))
	assert.True(t, strings.Contains(out, "kept"))
}

func TestLoggerWithAppendsComponentPath(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: Debug, Component: "root", Output: &buf})
	child := log.With("child")

	child.Info("nested")
	assert.Contains(t, buf.String(), "[root.child]")
}

func TestFieldFormatting(t *testing.T) {
	assert.Equal(t, `"x"`, String("k", "x").format())
	assert.Equal(t, "3", Int("k", 3).format())
}
