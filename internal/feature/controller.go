package feature

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"textloom/internal/engine"
	"textloom/internal/logging"
	"textloom/internal/session"
)

// Progress summarizes the persisted state of one feature's tasks.
type Progress struct {
	Completed int
	Failed    int
	Pending   int
	Total     int
}

// controller carries the pieces every feature shares: its session
// namespace, the store, the engine, and the run guard that lets a new
// plan supersede the previous one.
type controller struct {
	ns     session.Namespace
	store  session.Store
	engine *engine.Engine
	guard  engine.TokenGuard
	logger *slog.Logger
}

func newController(ns session.Namespace, store session.Store, eng *engine.Engine, logger *slog.Logger) controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	return controller{
		ns:     ns,
		store:  store,
		engine: eng,
		logger: logger.With(logging.FieldFeature, string(ns)),
	}
}

// Cancel supersedes the in-flight run, if any. Results that arrive
// afterward are discarded instead of written.
func (c *controller) Cancel() {
	c.guard.Cancel()
}

// ensureSession keeps the stored session when its inputs match and
// replaces it (dropping the whole cache) when they differ. Changing
// any input, including the model, makes every cached variant stale.
func (c *controller) ensureSession(ctx context.Context, inputs any) error {
	encoded, err := json.Marshal(inputs)
	if err != nil {
		return err
	}
	existing, err := c.store.GetSession(ctx, c.ns)
	if err != nil {
		return err
	}
	if existing != nil && bytes.Equal(existing.Inputs, encoded) {
		return nil
	}
	if existing != nil {
		c.logger.Info("inputs changed, resetting session",
			logging.FieldEventType, "session_reset")
		if err := c.store.ClearSession(ctx, c.ns); err != nil {
			return err
		}
	}
	return c.store.SaveSession(ctx, &session.Session{
		ID:        uuid.NewString(),
		Namespace: c.ns,
		Inputs:    encoded,
	})
}

// cachedKeys returns the cache as a membership set for planning.
func (c *controller) cachedKeys(ctx context.Context) (map[string]bool, error) {
	snapshot, err := c.store.Snapshot(ctx, c.ns)
	if err != nil {
		return nil, err
	}
	cached := make(map[string]bool, len(snapshot))
	for key := range snapshot {
		cached[key] = true
	}
	return cached, nil
}

// status resolves a key's state, preferring the cache: a cached entry
// is complete no matter what the task table says.
func (c *controller) status(ctx context.Context, key string) (session.Status, error) {
	if _, ok, err := c.store.Entry(ctx, c.ns, key); err != nil {
		return session.StatusPending, err
	} else if ok {
		return session.StatusComplete, nil
	}
	state, err := c.store.TaskState(ctx, c.ns, key)
	if err != nil {
		return session.StatusPending, err
	}
	return state.Status, nil
}

// progress tallies persisted task outcomes against a known total.
func (c *controller) progress(ctx context.Context, total int, isTask func(key string) bool) (Progress, error) {
	states, err := c.store.TaskStates(ctx, c.ns)
	if err != nil {
		return Progress{}, err
	}
	snapshot, err := c.store.Snapshot(ctx, c.ns)
	if err != nil {
		return Progress{}, err
	}

	p := Progress{Total: total}
	for key := range snapshot {
		if isTask(key) {
			p.Completed++
		}
	}
	for key, state := range states {
		if _, ok := snapshot[key]; ok {
			continue
		}
		if isTask(key) && state.Status == session.StatusError {
			p.Failed++
		}
	}
	p.Pending = p.Total - p.Completed - p.Failed
	if p.Pending < 0 {
		p.Pending = 0
	}
	return p, nil
}
