package feature

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"textloom/internal/config"
	"textloom/internal/engine"
	"textloom/internal/filterchain"
	"textloom/internal/logging"
	"textloom/internal/plan"
	"textloom/internal/services"
	"textloom/internal/services/textgen"
	"textloom/internal/session"
)

// FilterInputs are the fixed inputs of a filter-stack session. The
// layer stack itself is not part of the inputs: editing it reshapes
// the chain and invalidates derived entries, but never resets the
// session or the original text.
type FilterInputs struct {
	Original string        `json:"original"`
	Model    textgen.Model `json:"model"`
}

func (in FilterInputs) validate() error {
	if strings.TrimSpace(in.Original) == "" {
		return services.Wrap(services.ErrValidation, "filters", "inputs", "original text is required", nil)
	}
	if !in.Model.Valid() {
		return services.Wrap(services.ErrValidation, "filters", "inputs",
			fmt.Sprintf("unknown model tier %q", in.Model), nil)
	}
	return nil
}

// Filters applies an ordered stack of style transforms to a text,
// reusing every cached intermediate it can.
type Filters struct {
	controller
}

// NewFilters builds the filter-stack controller.
func NewFilters(store session.Store, eng *engine.Engine, _ *config.Config, logger *slog.Logger) *Filters {
	return &Filters{
		controller: newController(session.NamespaceFilters, store, eng, logger),
	}
}

// StartGeneration realizes the enabled chain against the cache: only
// the steps above the deepest cached suffix are generated, strictly
// bottom to top. It returns the run outcome together with the final
// chain text when the whole chain completed.
func (f *Filters) StartGeneration(ctx context.Context, inputs FilterInputs, layers []filterchain.Layer) (engine.RunResult, string, error) {
	if err := inputs.validate(); err != nil {
		return engine.RunResult{}, "", err
	}
	if err := filterchain.ValidateLayers(layers); err != nil {
		return engine.RunResult{}, "", err
	}
	if err := f.ensureSession(ctx, inputs); err != nil {
		return engine.RunResult{}, "", err
	}
	if err := f.store.PutEntry(ctx, f.ns, filterchain.OriginalKey, inputs.Original); err != nil {
		return engine.RunResult{}, "", err
	}

	snapshot, err := f.store.Snapshot(ctx, f.ns)
	if err != nil {
		return engine.RunResult{}, "", err
	}
	p, err := plan.Filters(layers, inputs.Model, filterchain.Snapshot(snapshot))
	if err != nil {
		return engine.RunResult{}, "", err
	}

	runID := f.guard.Begin()
	f.logger.Info("starting filter chain",
		logging.FieldRunID, runID,
		logging.FieldModel, string(inputs.Model),
		"steps", p.TaskCount())
	result, err := f.engine.Run(ctx, f.ns, runID, &f.guard, p)
	if err != nil {
		return result, "", err
	}

	text, ok, err := f.store.Entry(ctx, f.ns, filterchain.ChainKey(layers))
	if err != nil {
		return result, "", err
	}
	if !ok {
		return result, "", nil
	}
	return result, text, nil
}

// RequestVariant returns the text for one chain key, generating any
// missing steps on demand. The key encodes the chain itself, so a
// previously failed step is simply attempted again.
func (f *Filters) RequestVariant(ctx context.Context, key string, inputs FilterInputs) (string, error) {
	layers, err := filterchain.ParseChainKey(key)
	if err != nil {
		return "", err
	}
	result, text, err := f.StartGeneration(ctx, inputs, layers)
	if err != nil {
		return "", err
	}
	if text == "" && key != filterchain.OriginalKey {
		for failedKey, msg := range result.Errors {
			return "", services.Wrap(services.ErrProvider, "filters", "request variant",
				fmt.Sprintf("step %s failed: %s", failedKey, msg), nil)
		}
		return "", services.Wrap(services.ErrProvider, "filters", "request variant",
			fmt.Sprintf("chain %s was not generated", key), nil)
	}
	if key == filterchain.OriginalKey {
		return inputs.Original, nil
	}
	return text, nil
}

// Invalidate drops every cached entry derived from the layer at
// changedIndex or above it. Call it with the stack as it was before
// the edit; the original text always survives.
func (f *Filters) Invalidate(ctx context.Context, previousLayers []filterchain.Layer, changedIndex int) error {
	snapshot, err := f.store.Snapshot(ctx, f.ns)
	if err != nil {
		return err
	}
	stale, err := filterchain.InvalidationKeys(previousLayers, changedIndex, filterchain.Snapshot(snapshot))
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}
	f.logger.Info("invalidating stale chain entries",
		logging.FieldEventType, "chain_invalidated",
		"keys", len(stale))
	return f.store.DeleteEntries(ctx, f.ns, stale...)
}

// Status reports the persisted state of one chain key.
func (f *Filters) Status(ctx context.Context, key string) (session.Status, error) {
	if _, err := filterchain.ParseChainKey(key); err != nil {
		return session.StatusPending, err
	}
	return f.status(ctx, key)
}

// Tokens returns the session's accumulated token usage.
func (f *Filters) Tokens(ctx context.Context) (input, output int64, err error) {
	sess, err := f.store.GetSession(ctx, f.ns)
	if err != nil {
		return 0, 0, err
	}
	if sess == nil {
		return 0, 0, nil
	}
	return sess.InputTokens, sess.OutputTokens, nil
}
