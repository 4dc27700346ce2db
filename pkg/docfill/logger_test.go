package docfill

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  []string
	}{
		{LogDebug, []string{"debug message", "info message", "warn message", "error message"}},
		{LogInfo, []string{"info message", "warn message", "error message"}},
		{LogWarn, []string{"warn message", "error message"}},
		{LogError, []string{"error message"}},
		{LogOff, nil},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			l := NewLogger(&buf, tt.level)
			l.Debug("debug %s", "message")
			l.Info("info %s", "message")
			l.Warn("warn %s", "message")
			l.Error("error %s", "message")

			var lines []string
			for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
				if line == "" {
					continue
				}
				for _, msg := range []string{"debug message", "info message", "warn message", "error message"} {
					if strings.Contains(line, msg) {
						lines = append(lines, msg)
					}
				}
			}
			assert.Equal(t, tt.want, lines)
		})
	}
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, LogInfo)

	child := l.WithField("template", "invoice").WithFields(Fields{"request": "r-1"})
	child.Info("compiled")

	out := buf.String()
	assert.Contains(t, out, "compiled")
	assert.Contains(t, out, `"template": "invoice"`)
	assert.Contains(t, out, `"request": "r-1"`)

	assert.Equal(t, Fields{"template": "invoice", "request": "r-1"}, child.Fields())
	assert.Empty(t, l.Fields())
}

func TestLoggerSharedLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, LogWarn)
	child := l.WithField("k", "v")

	child.Info("hidden")
	assert.Empty(t, buf.String())
	assert.False(t, child.IsDebugMode())

	l.SetLevel(LogDebug)
	assert.True(t, child.IsDebugMode())
	child.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestGlobalLogger(t *testing.T) {
	original := GetLogger()
	t.Cleanup(func() { SetLogger(original) })

	var buf bytes.Buffer
	SetLogger(NewLogger(&buf, LogInfo))
	Info("hello %d", 1)
	WithField("a", 1).Warn("careful")
	WithFields(Fields{"entry": "memo"}).Info("skipped")
	Error("broken %s", "pipe")
	Debug("invisible")

	out := buf.String()
	assert.Contains(t, out, "hello 1")
	assert.Contains(t, out, "careful")
	assert.Contains(t, out, "skipped")
	assert.Contains(t, out, "memo")
	assert.Contains(t, out, "broken pipe")
	assert.NotContains(t, out, "invisible")
}

func TestParseLogLevel(t *testing.T) {
	for _, s := range []string{"debug", "info", "warn", "error", "off"} {
		level, ok := parseLogLevel(s)
		require.True(t, ok, s)
		assert.Equal(t, strings.ToUpper(s), level.String())
	}
	level, ok := parseLogLevel("loud")
	assert.False(t, ok)
	assert.Equal(t, LogInfo, level)
}

func TestNewLoggerFromConfigWritesFile(t *testing.T) {
	config := DefaultConfig()
	config.LogLevel = "error"
	config.LogFile = t.TempDir() + "/docfill.log"

	l := NewLoggerFromConfig(config)
	l.Warn("filtered")
	l.Error("disk %s", "full")
	_ = l.Sync() // syncing stderr fails on pipes

	data, err := os.ReadFile(config.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"disk full"`)
	assert.Contains(t, string(data), `"level":"ERROR"`)
	assert.NotContains(t, string(data), "filtered")
}
