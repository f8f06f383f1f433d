// Package services defines shared utilities consumed by the generation
// engine and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp feature names, task cache keys, and run
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     into retryable versus terminal outcomes.
//
// Use these helpers when wiring new feature logic so operational behaviour
// (error handling, observability, retries) stays uniform across features.
package services
