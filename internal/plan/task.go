package plan

import (
	"textloom/internal/services/textgen"
)

// Task is a single generation unit. Key doubles as the cache key the
// result is stored under and as the task's identity within a run.
// DependsOn names the cache keys whose text the prompt needs; the
// engine reads them immediately before dispatch and passes them to
// Build. An empty DependsOn means the prompt is fully determined by
// values captured at planning time.
type Task struct {
	Key       string
	DependsOn []string
	Model     textgen.Model

	// Build renders the system and user prompts from the dependency
	// texts, keyed by cache key.
	Build func(inputs map[string]string) (system, user string, err error)
}

// Batch is a set of tasks safe to dispatch concurrently: no task in a
// batch depends on another task in the same batch.
type Batch []Task

// Plan is what the engine consumes: batches in dispatch order plus the
// policies that govern the run.
type Plan struct {
	Batches []Batch

	// Concurrency bounds parallel dispatch within a batch.
	Concurrency int

	// StopOnError halts all later batches after any task failure.
	// Set for filter chains, where every step feeds the next.
	StopOnError bool
}

// Empty reports whether the plan contains no tasks at all.
func (p Plan) Empty() bool {
	for _, batch := range p.Batches {
		if len(batch) > 0 {
			return false
		}
	}
	return true
}

// TaskCount returns the total number of tasks across all batches.
func (p Plan) TaskCount() int {
	total := 0
	for _, batch := range p.Batches {
		total += len(batch)
	}
	return total
}
