package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"textloom/internal/config"
)

func TestLoadDefaultsUseEnvAPIKeyAndExpandPaths(t *testing.T) {
	t.Setenv("TEXTLOOM_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "textloom")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Provider.APIKey != "test-key" {
		t.Fatalf("expected env API key, got %q", cfg.Provider.APIKey)
	}
	if cfg.Engine.RetryAttempts != 3 {
		t.Fatalf("unexpected retry attempts: %d", cfg.Engine.RetryAttempts)
	}
	if !cfg.Engine.Prefetch {
		t.Fatal("expected prefetch enabled by default")
	}
}

func TestLoadMissingAPIKeyFails(t *testing.T) {
	t.Setenv("TEXTLOOM_API_KEY", "")
	t.Setenv("HOME", t.TempDir())

	_, _, _, err := config.Load("")
	if err == nil {
		t.Fatal("expected error when api key missing")
	}
	if !strings.Contains(err.Error(), "provider.api_key") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadParsesFileOverrides(t *testing.T) {
	t.Setenv("TEXTLOOM_API_KEY", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[provider]
api_key = "file-key"
timeout_seconds = 30

[models]
default = "deep"

[engine]
retry_attempts = 5
batch_delay_ms = 1500
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatalf("expected config file to resolve, got exists=%v path=%q", exists, resolved)
	}
	if cfg.Provider.APIKey != "file-key" {
		t.Fatalf("unexpected api key %q", cfg.Provider.APIKey)
	}
	if cfg.Models.Default != "deep" {
		t.Fatalf("unexpected default tier %q", cfg.Models.Default)
	}
	if cfg.Engine.RetryAttempts != 5 || cfg.Engine.BatchDelayMS != 1500 {
		t.Fatalf("unexpected engine settings: %+v", cfg.Engine)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"bad default tier", func(c *config.Config) { c.Models.Default = "turbo" }, "models.default"},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"huge retries", func(c *config.Config) { c.Engine.RetryAttempts = 50 }, "engine.retry_attempts"},
		{"bad url", func(c *config.Config) { c.Provider.BaseURL = "::not-a-url" }, "provider.base_url"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Provider.APIKey = "k"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %v does not mention %q", err, tc.want)
			}
		})
	}
}

func TestModelIDResolution(t *testing.T) {
	cfg := config.Default()
	id, err := cfg.ModelID("")
	if err != nil {
		t.Fatalf("ModelID default: %v", err)
	}
	if id != cfg.Models.Balanced {
		t.Fatalf("default tier resolved to %q", id)
	}
	if _, err := cfg.ModelID("warp"); err == nil {
		t.Fatal("expected error for unknown tier")
	}
}
