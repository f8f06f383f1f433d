// Package feature exposes the three exploration surfaces: the
// adjective grid, the bridge, and the filter stack. Each controller
// owns its session namespace, turns caller inputs into a generation
// plan, and drives the engine. Starting work with changed inputs
// invalidates the stored session; issuing a new plan supersedes any
// run still in flight.
package feature
