package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerDefaultsToInfoLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	logger := NewLogger()
	require := assert.New(t)
	require.NotNil(logger)
	require.True(logger.Core().Enabled(zapcore.InfoLevel))
	require.False(logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLoggerHonorsDebugLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	logger := NewLogger()
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLoggerUnrecognizedLevelFallsBackToInfo(t *testing.T) {
	t.Setenv("LOG_LEVEL", "bogus")
	logger := NewLogger()
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}
