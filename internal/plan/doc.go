// Package plan builds the ordered task lists the generation engine
// executes. Each feature has its own shape: grid tasks are independent
// and ordered ring by ring, bridge tasks form a dependency graph
// resolved round by round, and filter tasks are a strictly sequential
// chain. Tasks name their inputs by cache key so the engine can bind
// dependency text late, once upstream results land in the cache.
package plan
