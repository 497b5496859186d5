package logx

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger(buf *bytes.Buffer) *Logger {
	return &Logger{
		component: "runner",
		logger:    log.New(buf, "", 0),
	}
}

func TestLogFormat(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferedLogger(&buf)

	l.Info("polling %s", "feed")

	line := buf.String()
	require.NotEmpty(t, line)
	assert.Contains(t, line, "[runner] INFO: polling feed")
	assert.Regexp(t, `^\[\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z\] `, line)
}

func TestWarnAndErrorLevels(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferedLogger(&buf)

	l.Warn("slow poll")
	l.Error("poll failed: %v", "timeout")

	out := buf.String()
	assert.Contains(t, out, "WARN: slow poll")
	assert.Contains(t, out, "ERROR: poll failed: timeout")
}

func TestDebugSuppressedByDefault(t *testing.T) {
	prev := IsDebugEnabled()
	defer SetDebug(prev)
	SetDebug(false)

	var buf bytes.Buffer
	l := newBufferedLogger(&buf)
	l.Debug("hidden")
	assert.Empty(t, buf.String())

	SetDebug(true)
	l.Debug("visible")
	assert.Contains(t, buf.String(), "DEBUG: visible")
}

func TestDebugToggle(t *testing.T) {
	prev := IsDebugEnabled()
	defer SetDebug(prev)

	SetDebug(true)
	assert.True(t, IsDebugEnabled())
	SetDebug(false)
	assert.False(t, IsDebugEnabled())
}
