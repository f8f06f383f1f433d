// Package session persists per-feature sessions, variant caches, and task
// progress in SQLite.
//
// Each feature (grid, bridge, filters) owns one namespace holding its
// inputs, its content-addressed cache of generated variants, per-key task
// statuses, and aggregate token counters. Cache entries are append-only
// within a session except for explicit invalidation; clearing a namespace
// removes everything at once.
//
// Open falls back to an in-memory store when the database cannot be opened,
// so a broken data directory degrades the process instead of killing it.
// Callers surface the degradation as a warning and carry on.
package session
