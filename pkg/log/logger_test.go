package log

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLogger_LevelFilter(t *testing.T) {
	var sb strings.Builder
	logger := NewDefaultLoggerWithOutput(LogWarn, &sb)

	logger.Error("boom %d", 1)
	logger.Warn("careful")
	logger.Info("ignored")
	logger.Debug("ignored too")

	out := sb.String()
	assert.Contains(t, out, "[ERROR] boom 1")
	assert.Contains(t, out, "[WARN] careful")
	assert.NotContains(t, out, "ignored")
}

func TestDefaultLogger_SetLevel(t *testing.T) {
	var sb strings.Builder
	logger := NewDefaultLoggerWithOutput(LogError, &sb)

	logger.Info("hidden")
	logger.SetLevel(LogInfo)
	assert.Equal(t, LogInfo, logger.GetLevel())
	logger.Info("shown")

	assert.NotContains(t, sb.String(), "hidden")
	assert.Contains(t, sb.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogError, ParseLevel("error"))
	assert.Equal(t, LogWarn, ParseLevel("WARN"))
	assert.Equal(t, LogDebug, ParseLevel("debug"))
	assert.Equal(t, LogInfo, ParseLevel("anything"))
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Debug("no-op")
	logger.SetLevel(LogDebug)
	assert.Equal(t, LogError, logger.GetLevel())
}
