// Package logging assembles structured slog loggers and formatting helpers
// used across textloom.
//
// It owns the configurable console/JSON handlers, centralizes level and
// output plumbing, and exposes context-aware helpers so engine code can
// automatically tag log lines with feature names, cache keys, and run
// identifiers. The package also provides a no-op logger for tests and wiring
// code that cannot fail.
package logging
