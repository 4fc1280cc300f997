package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlkit/sqlkit/executor"
)

func TestLoadPoolConfigDefaultsMaxOpenAndWarmConcurrency(t *testing.T) {
	cfg, err := LoadPoolConfig([]byte(`dsn: postgres://localhost/app`))
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.MaxOpen)
	assert.Equal(t, 1, cfg.WarmConcurrency)
}

func TestLoadPoolConfigHonorsExplicitValues(t *testing.T) {
	cfg, err := LoadPoolConfig([]byte("mode: sticky\nmax_open: 10\nwarm_concurrency: 4\ndsn: postgres://localhost/app\n"))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.MaxOpen)
	assert.Equal(t, 4, cfg.WarmConcurrency)
	assert.Equal(t, executor.Sticky, cfg.ExecutorMode())
}

func TestLoadPoolConfigInvalidYAMLErrors(t *testing.T) {
	_, err := LoadPoolConfig([]byte("not: [valid"))
	require.Error(t, err)
}

func TestExecutorModeDefaultsToSessionPerStatement(t *testing.T) {
	cfg := &PoolConfig{}
	assert.Equal(t, executor.SessionPerStatement, cfg.ExecutorMode())
}

func TestExecutorModeUnrecognizedFallsBackToSessionPerStatement(t *testing.T) {
	cfg := &PoolConfig{Mode: "bogus"}
	assert.Equal(t, executor.SessionPerStatement, cfg.ExecutorMode())
}
