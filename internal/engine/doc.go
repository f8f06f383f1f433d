// Package engine executes generation plans against the session cache.
// It drives each task through pending, generating and a terminal
// complete or error state, bounds in-batch parallelism, retries
// transient provider failures with model-aware backoff, and writes
// every successful result through to the cache before dependents run.
// A run token guards cache writes so results from a superseded run are
// discarded instead of clobbering newer work.
package engine
