package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProvider(); err != nil {
		return err
	}
	if err := c.validateModels(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateProvider() error {
	if c.Provider.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/textloom/config.toml"
		}
		return fmt.Errorf("provider.api_key is required. Set TEXTLOOM_API_KEY env var or edit %s (create with 'textloom config init')", defaultPath)
	}
	parsed, err := url.Parse(c.Provider.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("provider.base_url %q is not a valid URL", c.Provider.BaseURL)
	}
	if c.Provider.TimeoutSeconds > 300 {
		return errors.New("provider.timeout_seconds must be 300 or less")
	}
	return nil
}

func (c *Config) validateModels() error {
	switch c.Models.Default {
	case "swift", "balanced", "deep":
	default:
		return fmt.Errorf("models.default %q must be one of swift, balanced, deep", c.Models.Default)
	}
	for name, id := range map[string]string{
		"models.swift":    c.Models.Swift,
		"models.balanced": c.Models.Balanced,
		"models.deep":     c.Models.Deep,
	} {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%s must be set", name)
		}
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.RetryAttempts > 10 {
		return errors.New("engine.retry_attempts must be 10 or less")
	}
	if c.Engine.BatchDelayMS > 10000 {
		return errors.New("engine.batch_delay_ms must be 10000 or less")
	}
	if c.Engine.GridConcurrency > 8 {
		return errors.New("engine.grid_concurrency must be 8 or less")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn, or error", c.Logging.Level)
	}
	return nil
}
