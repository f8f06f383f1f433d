package engine

import (
	"context"
	"log/slog"
	"time"

	"textloom/internal/logging"
	"textloom/internal/services/textgen"
	"textloom/internal/session"
)

// Generator is the slice of the text-generation client the engine
// needs. Satisfied by *textgen.Client and by test fakes.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, model textgen.Model) (textgen.Result, error)
}

const (
	defaultRetryAttempts = 3
	defaultBatchDelay    = 500 * time.Millisecond
)

// Engine runs generation plans. One engine serves all features; the
// plan carries the per-run policies (batching, concurrency, halting).
type Engine struct {
	store      session.Store
	generator  Generator
	logger     *slog.Logger
	attempts   int
	batchDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option adjusts engine policy.
type Option func(*Engine)

// WithRetryAttempts sets how many times a task is attempted before it
// is marked failed. Values below 1 are ignored.
func WithRetryAttempts(attempts int) Option {
	return func(e *Engine) {
		if attempts >= 1 {
			e.attempts = attempts
		}
	}
}

// WithBatchDelay sets the pause between dispatched batches.
func WithBatchDelay(delay time.Duration) Option {
	return func(e *Engine) {
		if delay >= 0 {
			e.batchDelay = delay
		}
	}
}

// WithSleep replaces the delay function. Tests use this to run
// backoff and batch pacing without real waiting.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Engine) {
		if sleep != nil {
			e.sleep = sleep
		}
	}
}

// New builds an engine over the given store and generator.
func New(store session.Store, generator Generator, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	e := &Engine{
		store:      store,
		generator:  generator,
		logger:     logger,
		attempts:   defaultRetryAttempts,
		batchDelay: defaultBatchDelay,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
