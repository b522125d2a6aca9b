package ulogger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroLogger_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("miner", WithWriter(&buf), WithPretty(false), WithLevel("WARN"))

	logger.Infof("hidden %d", 1)
	logger.Warnf("shown %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden 1")
	assert.Contains(t, out, "shown 2")
	assert.Contains(t, out, `"service":"miner"`)
	assert.Equal(t, "WARN", logger.LogLevel())
}

func TestZeroLogger_PrettyOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New("asm", WithWriter(&buf), WithPretty(true), WithLevel("DEBUG"))

	logger.Debugf("assembled %d txs", 3)

	out := buf.String()
	assert.Contains(t, out, "DEBUG")
	assert.Contains(t, out, "asm")
	assert.Contains(t, out, "assembled 3 txs")
}

func TestZeroLogger_NewInheritsWriterAndLevel(t *testing.T) {
	var buf bytes.Buffer
	parent := New("parent", WithWriter(&buf), WithPretty(false), WithLevel("ERROR"))
	child := parent.New("child")

	child.Warnf("dropped")
	child.Errorf("kept")

	assert.Equal(t, "ERROR", child.LogLevel())
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"service":"child"`)
}

func TestValidLevel(t *testing.T) {
	assert.True(t, ValidLevel("debug"))
	assert.True(t, ValidLevel("INFO"))
	assert.False(t, ValidLevel("verbose"))
}

func TestBufferLogger(t *testing.T) {
	logger := NewBufferLogger()
	child := logger.New("child")

	logger.Infof("one")
	child.Warnf("two %s", "x")

	require.Len(t, logger.Lines(""), 2)
	assert.Equal(t, []string{"WARN two x"}, logger.Lines("WARN"))
}
