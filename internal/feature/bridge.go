package feature

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"textloom/internal/bridge"
	"textloom/internal/config"
	"textloom/internal/engine"
	"textloom/internal/logging"
	"textloom/internal/plan"
	"textloom/internal/services"
	"textloom/internal/services/textgen"
	"textloom/internal/session"
)

// BridgeInputs are the fixed inputs of a bridge session: the two
// anchor texts and the model used for every interpolation.
type BridgeInputs struct {
	Left  string        `json:"left"`
	Right string        `json:"right"`
	Model textgen.Model `json:"model"`
}

func (in BridgeInputs) validate() error {
	if strings.TrimSpace(in.Left) == "" || strings.TrimSpace(in.Right) == "" {
		return services.Wrap(services.ErrValidation, "bridge", "inputs", "both anchor texts are required", nil)
	}
	if !in.Model.Valid() {
		return services.Wrap(services.ErrValidation, "bridge", "inputs",
			fmt.Sprintf("unknown model tier %q", in.Model), nil)
	}
	return nil
}

// Bridge interpolates nine intermediate texts between two anchors.
type Bridge struct {
	controller
}

// NewBridge builds the bridge controller.
func NewBridge(store session.Store, eng *engine.Engine, _ *config.Config, logger *slog.Logger) *Bridge {
	return &Bridge{
		controller: newController(session.NamespaceBridge, store, eng, logger),
	}
}

// seedAnchors stores the two anchor texts under their position keys so
// every derived task can read its inputs from the cache.
func (b *Bridge) seedAnchors(ctx context.Context, in BridgeInputs) error {
	if err := b.store.PutEntry(ctx, b.ns, bridge.Key(bridge.AnchorLeft), in.Left); err != nil {
		return err
	}
	return b.store.PutEntry(ctx, b.ns, bridge.Key(bridge.AnchorRight), in.Right)
}

// StartGeneration plans and runs all four rounds in dependency order.
func (b *Bridge) StartGeneration(ctx context.Context, inputs BridgeInputs) (engine.RunResult, error) {
	if err := inputs.validate(); err != nil {
		return engine.RunResult{}, err
	}
	if err := b.ensureSession(ctx, inputs); err != nil {
		return engine.RunResult{}, err
	}
	if err := b.seedAnchors(ctx, inputs); err != nil {
		return engine.RunResult{}, err
	}
	cached, err := b.cachedKeys(ctx)
	if err != nil {
		return engine.RunResult{}, err
	}

	p := plan.Bridge(plan.BridgeInputs{Model: inputs.Model}, cached)
	runID := b.guard.Begin()
	b.logger.Info("starting bridge generation",
		logging.FieldRunID, runID,
		logging.FieldModel, string(inputs.Model),
		"tasks", p.TaskCount())
	return b.engine.Run(ctx, b.ns, runID, &b.guard, p)
}

// RequestVariant returns the text at one position, generating it and
// any missing dependencies on demand. Anchors resolve directly to the
// session's input texts.
func (b *Bridge) RequestVariant(ctx context.Context, key string, inputs BridgeInputs) (string, error) {
	if err := inputs.validate(); err != nil {
		return "", err
	}
	position, err := bridge.ParseKey(key)
	if err != nil {
		return "", err
	}
	if err := b.ensureSession(ctx, inputs); err != nil {
		return "", err
	}
	if err := b.seedAnchors(ctx, inputs); err != nil {
		return "", err
	}
	if bridge.IsAnchor(position) {
		if position == bridge.AnchorLeft {
			return inputs.Left, nil
		}
		return inputs.Right, nil
	}
	if text, ok, err := b.store.Entry(ctx, b.ns, bridge.Key(position)); err != nil {
		return "", err
	} else if ok {
		return text, nil
	}

	cached, err := b.cachedKeys(ctx)
	if err != nil {
		return "", err
	}
	p, err := plan.BridgeOnDemand(plan.BridgeInputs{Model: inputs.Model}, position, cached)
	if err != nil {
		return "", err
	}

	runID := b.guard.Begin()
	result, err := b.engine.Run(ctx, b.ns, runID, &b.guard, p)
	if err != nil {
		return "", err
	}
	text, ok, err := b.store.Entry(ctx, b.ns, bridge.Key(position))
	if err != nil {
		return "", err
	}
	if !ok {
		if msg, found := result.Errors[bridge.Key(position)]; found {
			return "", services.Wrap(services.ErrProvider, "bridge", "request variant", msg, nil)
		}
		return "", services.Wrap(services.ErrProvider, "bridge", "request variant",
			fmt.Sprintf("position %d was not generated", position), nil)
	}
	return text, nil
}

// Status reports the persisted state of one position. Anchors are
// always complete.
func (b *Bridge) Status(ctx context.Context, key string) (session.Status, error) {
	position, err := bridge.ParseKey(key)
	if err != nil {
		return session.StatusPending, err
	}
	if bridge.IsAnchor(position) {
		return session.StatusComplete, nil
	}
	return b.status(ctx, bridge.Key(position))
}

// Progress tallies the nine derived positions.
func (b *Bridge) Progress(ctx context.Context) (Progress, error) {
	return b.progress(ctx, bridge.PositionCount-2, func(key string) bool {
		position, err := bridge.ParseKey(key)
		return err == nil && !bridge.IsAnchor(position)
	})
}
