package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"textloom/internal/config"
	"textloom/internal/engine"
	"textloom/internal/feature"
	"textloom/internal/logging"
	"textloom/internal/services"
	"textloom/internal/services/textgen"
	"textloom/internal/session"
)

// commandContext lazily builds the shared runtime the subcommands use:
// config, logger, session store, generation engine, and the three
// feature controllers. The data directory is guarded with a file lock
// so two invocations never mutate the same session database at once.
type commandContext struct {
	configFlag *string

	cfg     *config.Config
	logger  *slog.Logger
	store   session.Store
	lock    *flock.Flock
	grid    *feature.Grid
	bridge  *feature.Bridge
	filters *feature.Filters
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, _, _, err := config.Load(c.configPath())
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// runtime assembles the full stack. Call it from RunE, after the
// config has been validated for provider use.
func (c *commandContext) runtime() error {
	if c.store != nil {
		return nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		OutputPaths: []string{
			filepath.Join(cfg.Paths.LogDir, "textloom.log"),
		},
	})
	if err != nil {
		return err
	}
	c.logger = logger

	c.lock = flock.New(filepath.Join(cfg.Paths.DataDir, "textloom.lock"))
	locked, err := c.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire data lock: %w", err)
	}
	if !locked {
		return errors.New("another textloom instance is using this data directory")
	}

	store, err := session.OpenWithFallback(cfg, logger)
	if err != nil && !errors.Is(err, services.ErrStorageUnavailable) {
		return err
	}
	if errors.Is(err, services.ErrStorageUnavailable) {
		fmt.Fprintln(os.Stderr, "warning: session storage unavailable, results will not persist")
	}
	c.store = store

	generator := textgen.NewClient(textgen.Config{
		APIKey:         cfg.Provider.APIKey,
		BaseURL:        cfg.Provider.BaseURL,
		Referer:        cfg.Provider.Referer,
		Title:          cfg.Provider.Title,
		TimeoutSeconds: cfg.Provider.TimeoutSeconds,
		ModelIDs: map[textgen.Model]string{
			textgen.ModelSwift:    cfg.Models.Swift,
			textgen.ModelBalanced: cfg.Models.Balanced,
			textgen.ModelDeep:     cfg.Models.Deep,
		},
	})

	eng := engine.New(store, generator, logger,
		engine.WithRetryAttempts(cfg.Engine.RetryAttempts),
		engine.WithBatchDelay(time.Duration(cfg.Engine.BatchDelayMS)*time.Millisecond))

	c.grid = feature.NewGrid(store, eng, cfg, logger)
	c.bridge = feature.NewBridge(store, eng, cfg, logger)
	c.filters = feature.NewFilters(store, eng, cfg, logger)
	return nil
}

// close releases the store and the data-directory lock.
func (c *commandContext) close() {
	if c.store != nil {
		_ = c.store.Close()
		c.store = nil
	}
	if c.lock != nil {
		_ = c.lock.Unlock()
		c.lock = nil
	}
}

// model resolves the requested tier, falling back to the configured
// default.
func (c *commandContext) model(flagValue string) (textgen.Model, error) {
	tier := strings.ToLower(strings.TrimSpace(flagValue))
	if tier == "" {
		tier = c.cfg.Models.Default
	}
	model := textgen.Model(tier)
	if !model.Valid() {
		return "", fmt.Errorf("unknown model tier %q (choose swift, balanced, or deep)", tier)
	}
	return model, nil
}

// readText resolves a --text/--file pair into the input text.
func readText(text, file string) (string, error) {
	text = strings.TrimSpace(text)
	if text != "" {
		return text, nil
	}
	if strings.TrimSpace(file) == "" {
		return "", errors.New("provide the text directly or via --file")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read text file: %w", err)
	}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return "", fmt.Errorf("text file %s is empty", file)
	}
	return trimmed, nil
}
