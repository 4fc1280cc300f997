package session

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/sqlkit/sqlkit/executor"
)

// PoolConfig is the YAML-driven executor pool configuration, continuing
// the teacher's database.GeneratorConfig pattern (database/database.go) of
// loading driver connection settings from a YAML file rather than flags.
type PoolConfig struct {
	Mode            string `yaml:"mode"`
	MaxOpen         int    `yaml:"max_open"`
	WarmConcurrency int    `yaml:"warm_concurrency"`
	DSN             string `yaml:"dsn"`
}

// LoadPoolConfig parses a pool configuration document.
func LoadPoolConfig(data []byte) (*PoolConfig, error) {
	var cfg PoolConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("session: parsing pool config: %w", err)
	}
	if cfg.MaxOpen <= 0 {
		cfg.MaxOpen = 1
	}
	if cfg.WarmConcurrency <= 0 {
		cfg.WarmConcurrency = cfg.MaxOpen
	}
	return &cfg, nil
}

// ExecutorMode translates the YAML mode string to executor.Mode, defaulting
// to session-per-statement when unset or unrecognized.
func (c *PoolConfig) ExecutorMode() executor.Mode {
	if c.Mode == "sticky" {
		return executor.Sticky
	}
	return executor.SessionPerStatement
}
