package engine

import (
	"context"
	"fmt"
	"sync"

	"log/slog"

	"textloom/internal/logging"
	"textloom/internal/plan"
	"textloom/internal/services"
	"textloom/internal/services/textgen"
	"textloom/internal/session"
)

// RunResult summarizes one executed plan.
type RunResult struct {
	// Completed counts tasks whose result was generated and cached.
	Completed int
	// Failed counts tasks that exhausted retries or hit a terminal error.
	Failed int
	// Skipped counts tasks satisfied by the cache before dispatch.
	Skipped int
	// Discarded counts tasks abandoned because a newer run superseded
	// this one.
	Discarded int
	// Errors maps failed task keys to their recorded error text.
	Errors map[string]string
}

type outcomeKind int

const (
	outcomeCompleted outcomeKind = iota
	outcomeFailed
	outcomeSkipped
	outcomeDiscarded
)

type taskOutcome struct {
	kind outcomeKind
	err  error
}

// Run executes the plan batch by batch. Tasks within a batch run
// concurrently up to the plan's limit; batches are separated by the
// configured delay. Failed tasks never block independent siblings, but
// a halting plan stops dispatching further batches after any failure.
func (e *Engine) Run(ctx context.Context, ns session.Namespace, runID string, guard Guard, p plan.Plan) (RunResult, error) {
	result := RunResult{Errors: make(map[string]string)}
	if guard == nil {
		guard = NoGuard()
	}
	logger := e.logger.With(
		logging.FieldFeature, string(ns),
		logging.FieldRunID, runID,
	)

	for i, batch := range p.Batches {
		if len(batch) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !guard.Active(runID) {
			result.Discarded += remaining(p, i)
			return result, nil
		}
		if i > 0 && e.batchDelay > 0 {
			if err := e.sleep(ctx, e.batchDelay); err != nil {
				return result, err
			}
		}

		failedBefore := result.Failed
		e.runBatch(ctx, logger, ns, runID, guard, p.Concurrency, batch, &result)

		if p.StopOnError && result.Failed > failedBefore {
			logger.Warn("halting run after failed step",
				logging.FieldEventType, "run_halted")
			break
		}
	}
	return result, nil
}

func remaining(p plan.Plan, from int) int {
	total := 0
	for _, batch := range p.Batches[from:] {
		total += len(batch)
	}
	return total
}

func (e *Engine) runBatch(ctx context.Context, logger *slog.Logger, ns session.Namespace, runID string, guard Guard, concurrency int, batch plan.Batch, result *RunResult) {
	if concurrency < 1 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, task := range batch {
		wg.Add(1)
		sem <- struct{}{}
		go func(task plan.Task) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := e.runTask(ctx, logger, ns, runID, guard, task)

			mu.Lock()
			defer mu.Unlock()
			switch outcome.kind {
			case outcomeCompleted:
				result.Completed++
			case outcomeSkipped:
				result.Skipped++
			case outcomeDiscarded:
				result.Discarded++
			case outcomeFailed:
				result.Failed++
				result.Errors[task.Key] = services.Details(outcome.err)
			}
		}(task)
	}
	wg.Wait()
}

func (e *Engine) runTask(ctx context.Context, logger *slog.Logger, ns session.Namespace, runID string, guard Guard, task plan.Task) taskOutcome {
	log := logger.With(logging.FieldTaskKey, task.Key)
	if err := ctx.Err(); err != nil {
		return taskOutcome{kind: outcomeDiscarded}
	}
	if !guard.Active(runID) {
		return taskOutcome{kind: outcomeDiscarded}
	}

	// Re-check the cache right before dispatch: an on-demand request or
	// an overlapping prefetch may have produced this key already.
	if _, ok, err := e.store.Entry(ctx, ns, task.Key); err == nil && ok {
		return taskOutcome{kind: outcomeSkipped}
	}

	inputs, err := e.readInputs(ctx, ns, task)
	if err != nil {
		return e.failTask(ctx, log, ns, runID, guard, task.Key, err)
	}
	system, user, err := task.Build(inputs)
	if err != nil {
		return e.failTask(ctx, log, ns, runID, guard, task.Key, err)
	}

	if err := e.store.SetTaskState(ctx, ns, task.Key, session.StatusGenerating, ""); err != nil {
		log.Warn("failed to record generating state", "error", err)
	}

	generated, err := e.generate(ctx, log, task, system, user)
	if err != nil {
		return e.failTask(ctx, log, ns, runID, guard, task.Key, err)
	}

	// Late results from a superseded run must not land in the cache.
	if !guard.Active(runID) {
		log.Info("discarding result from superseded run",
			logging.FieldEventType, "run_superseded")
		return taskOutcome{kind: outcomeDiscarded}
	}

	if err := e.store.PutEntry(ctx, ns, task.Key, generated.Text); err != nil {
		return e.failTask(ctx, log, ns, runID, guard, task.Key, err)
	}
	input, output := 0, 0
	if generated.InputTokens != nil {
		input = *generated.InputTokens
	}
	if generated.OutputTokens != nil {
		output = *generated.OutputTokens
	}
	if input > 0 || output > 0 {
		if err := e.store.AddTokens(ctx, ns, input, output); err != nil {
			log.Warn("failed to record token usage", "error", err)
		}
	}
	if err := e.store.SetTaskState(ctx, ns, task.Key, session.StatusComplete, ""); err != nil {
		log.Warn("failed to record completion", "error", err)
	}
	return taskOutcome{kind: outcomeCompleted}
}

// readInputs resolves dependency texts from the cache. Dependencies are
// bound here, not at planning time, so a task picks up whatever its
// upstream tasks wrote during this same run.
func (e *Engine) readInputs(ctx context.Context, ns session.Namespace, task plan.Task) (map[string]string, error) {
	if len(task.DependsOn) == 0 {
		return nil, nil
	}
	inputs := make(map[string]string, len(task.DependsOn))
	for _, key := range task.DependsOn {
		text, ok, err := e.store.Entry(ctx, ns, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, services.Wrap(services.ErrDependencyNotReady, string(ns), "execute",
				fmt.Sprintf("input %q not cached for task %s", key, task.Key), nil)
		}
		inputs[key] = text
	}
	return inputs, nil
}

func (e *Engine) generate(ctx context.Context, log *slog.Logger, task plan.Task, system, user string) (textgen.Result, error) {
	var lastErr error
	for attempt := 1; attempt <= e.attempts; attempt++ {
		result, err := e.generator.Generate(ctx, system, user, task.Model)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !services.Retryable(err) {
			log.Warn("generation failed terminally",
				logging.FieldModel, string(task.Model),
				logging.FieldAttempt, attempt,
				"error", err)
			return textgen.Result{}, err
		}
		if attempt == e.attempts {
			break
		}

		delay := task.Model.BackoffBase(textgen.Overloaded(err)) << (attempt - 1)
		if after, ok := textgen.RetryAfter(err); ok && after > delay {
			delay = after
		}
		log.Warn("generation failed, backing off",
			logging.FieldModel, string(task.Model),
			logging.FieldAttempt, attempt,
			"delay", delay,
			"error", err)
		if sleepErr := e.sleep(ctx, delay); sleepErr != nil {
			return textgen.Result{}, lastErr
		}
	}
	return textgen.Result{}, lastErr
}

func (e *Engine) failTask(ctx context.Context, log *slog.Logger, ns session.Namespace, runID string, guard Guard, key string, err error) taskOutcome {
	log.Error("task failed",
		logging.FieldErrorHint, services.Details(err),
		"error", err)
	// A superseded run must not overwrite the state a newer run owns.
	if guard.Active(runID) {
		if stateErr := e.store.SetTaskState(ctx, ns, key, session.StatusError, services.Details(err)); stateErr != nil {
			log.Warn("failed to record error state", "error", stateErr)
		}
	}
	return taskOutcome{kind: outcomeFailed, err: err}
}
