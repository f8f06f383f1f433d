// Package testsupport provides shared helpers for package tests: temp-dir
// configs, session stores, and a scripted generator.
package testsupport

import (
	"path/filepath"
	"testing"

	"textloom/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Provider.APIKey = "test"
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithBatchDelayMS overrides the engine batch delay on the test config.
func WithBatchDelayMS(ms int) ConfigOption {
	return func(c *config.Config) {
		c.Engine.BatchDelayMS = ms
	}
}

// WithRetryAttempts overrides the engine retry budget on the test config.
func WithRetryAttempts(attempts int) ConfigOption {
	return func(c *config.Config) {
		c.Engine.RetryAttempts = attempts
	}
}
