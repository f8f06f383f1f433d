package config

const (
	defaultDataDir        = "~/.local/share/textloom"
	defaultLogDir         = "~/.local/share/textloom/logs"
	defaultBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultReferer        = "https://github.com/textloom/textloom"
	defaultTitle          = "textloom"
	defaultTimeoutSeconds = 45
	defaultModelSwift     = "google/gemini-3-flash-preview"
	defaultModelBalanced  = "openai/gpt-5.2-mini"
	defaultModelDeep      = "anthropic/claude-sonnet-4.5"
	defaultModelTier      = "balanced"
	defaultRetryAttempts  = 3
	defaultBatchDelayMS   = 500
	defaultGridWorkers    = 2
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Provider: Provider{
			BaseURL:        defaultBaseURL,
			Referer:        defaultReferer,
			Title:          defaultTitle,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Models: Models{
			Swift:    defaultModelSwift,
			Balanced: defaultModelBalanced,
			Deep:     defaultModelDeep,
			Default:  defaultModelTier,
		},
		Engine: Engine{
			RetryAttempts:   defaultRetryAttempts,
			BatchDelayMS:    defaultBatchDelayMS,
			GridConcurrency: defaultGridWorkers,
			Prefetch:        true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
