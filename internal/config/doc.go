// Package config loads, normalizes, and validates textloom configuration.
//
// Configuration lives in a TOML file (default ~/.config/textloom/config.toml)
// and covers the generation provider connection, model aliases, engine tuning
// (retries, batch delays, concurrency), data/log directories, and log output.
// Load applies defaults, expands paths, and validates before returning, so
// downstream code never sees a half-formed Config.
package config
