package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProvider()
	c.normalizeModels()
	c.normalizeEngine()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeProvider() {
	c.Provider.APIKey = strings.TrimSpace(c.Provider.APIKey)
	if c.Provider.APIKey == "" {
		c.Provider.APIKey = strings.TrimSpace(os.Getenv("TEXTLOOM_API_KEY"))
	}
	c.Provider.BaseURL = strings.TrimSpace(c.Provider.BaseURL)
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = defaultBaseURL
	}
	c.Provider.Referer = strings.TrimSpace(c.Provider.Referer)
	c.Provider.Title = strings.TrimSpace(c.Provider.Title)
	if c.Provider.TimeoutSeconds <= 0 {
		c.Provider.TimeoutSeconds = defaultTimeoutSeconds
	}
}

func (c *Config) normalizeModels() {
	c.Models.Swift = strings.TrimSpace(c.Models.Swift)
	c.Models.Balanced = strings.TrimSpace(c.Models.Balanced)
	c.Models.Deep = strings.TrimSpace(c.Models.Deep)
	c.Models.Default = strings.ToLower(strings.TrimSpace(c.Models.Default))
	if c.Models.Swift == "" {
		c.Models.Swift = defaultModelSwift
	}
	if c.Models.Balanced == "" {
		c.Models.Balanced = defaultModelBalanced
	}
	if c.Models.Deep == "" {
		c.Models.Deep = defaultModelDeep
	}
	if c.Models.Default == "" {
		c.Models.Default = defaultModelTier
	}
}

func (c *Config) normalizeEngine() {
	if c.Engine.RetryAttempts <= 0 {
		c.Engine.RetryAttempts = defaultRetryAttempts
	}
	if c.Engine.BatchDelayMS <= 0 {
		c.Engine.BatchDelayMS = defaultBatchDelayMS
	}
	if c.Engine.GridConcurrency <= 0 {
		c.Engine.GridConcurrency = defaultGridWorkers
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
