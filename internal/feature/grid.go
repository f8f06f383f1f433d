package feature

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"textloom/internal/config"
	"textloom/internal/engine"
	"textloom/internal/grid"
	"textloom/internal/logging"
	"textloom/internal/plan"
	"textloom/internal/services"
	"textloom/internal/services/textgen"
	"textloom/internal/session"
)

// GridInputs are the fixed inputs of a grid exploration session.
type GridInputs struct {
	Original   string        `json:"original"`
	AdjectiveX string        `json:"adjective_x"`
	AdjectiveY string        `json:"adjective_y"`
	Model      textgen.Model `json:"model"`
}

func (in GridInputs) validate() error {
	if strings.TrimSpace(in.Original) == "" {
		return services.Wrap(services.ErrValidation, "grid", "inputs", "original text is required", nil)
	}
	if strings.TrimSpace(in.AdjectiveX) == "" || strings.TrimSpace(in.AdjectiveY) == "" {
		return services.Wrap(services.ErrValidation, "grid", "inputs", "both adjectives are required", nil)
	}
	if !in.Model.Valid() {
		return services.Wrap(services.ErrValidation, "grid", "inputs",
			fmt.Sprintf("unknown model tier %q", in.Model), nil)
	}
	return nil
}

// Grid explores the 11x11 adjective plane around an original text.
type Grid struct {
	controller
	concurrency int
	prefetch    bool
}

// NewGrid builds the grid controller.
func NewGrid(store session.Store, eng *engine.Engine, cfg *config.Config, logger *slog.Logger) *Grid {
	return &Grid{
		controller:  newController(session.NamespaceGrid, store, eng, logger),
		concurrency: cfg.Engine.GridConcurrency,
		prefetch:    cfg.Engine.Prefetch,
	}
}

// StartGeneration plans and runs the full grid, center ring outward.
// Changed inputs reset the session; otherwise only uncached
// coordinates are generated.
func (g *Grid) StartGeneration(ctx context.Context, inputs GridInputs) (engine.RunResult, error) {
	if err := inputs.validate(); err != nil {
		return engine.RunResult{}, err
	}
	if err := g.ensureSession(ctx, inputs); err != nil {
		return engine.RunResult{}, err
	}
	cached, err := g.cachedKeys(ctx)
	if err != nil {
		return engine.RunResult{}, err
	}

	p := plan.Grid(plan.GridInputs{
		Original:   inputs.Original,
		AdjectiveX: inputs.AdjectiveX,
		AdjectiveY: inputs.AdjectiveY,
		Model:      inputs.Model,
	}, cached, g.concurrency)

	runID := g.guard.Begin()
	g.logger.Info("starting grid generation",
		logging.FieldRunID, runID,
		logging.FieldModel, string(inputs.Model),
		"tasks", p.TaskCount())
	return g.engine.Run(ctx, g.ns, runID, &g.guard, p)
}

// RequestVariant returns the text at one coordinate, generating it on
// demand when it is not cached. When prefetch is enabled the uncached
// orthogonal neighbors are generated in a trailing batch. A coordinate
// that previously failed goes through the same path, so failures stay
// retriable.
func (g *Grid) RequestVariant(ctx context.Context, key string, inputs GridInputs) (string, error) {
	if err := inputs.validate(); err != nil {
		return "", err
	}
	coord, err := grid.ParseKey(key)
	if err != nil {
		return "", err
	}
	if err := g.ensureSession(ctx, inputs); err != nil {
		return "", err
	}
	if text, ok, err := g.store.Entry(ctx, g.ns, coord.Key()); err != nil {
		return "", err
	} else if ok {
		return text, nil
	}

	cached, err := g.cachedKeys(ctx)
	if err != nil {
		return "", err
	}
	p, err := plan.GridOnDemand(plan.GridInputs{
		Original:   inputs.Original,
		AdjectiveX: inputs.AdjectiveX,
		AdjectiveY: inputs.AdjectiveY,
		Model:      inputs.Model,
	}, coord, g.prefetch, cached, g.concurrency)
	if err != nil {
		return "", err
	}

	runID := g.guard.Begin()
	result, err := g.engine.Run(ctx, g.ns, runID, &g.guard, p)
	if err != nil {
		return "", err
	}
	text, ok, err := g.store.Entry(ctx, g.ns, coord.Key())
	if err != nil {
		return "", err
	}
	if !ok {
		if msg, found := result.Errors[coord.Key()]; found {
			return "", services.Wrap(services.ErrProvider, "grid", "request variant", msg, nil)
		}
		return "", services.Wrap(services.ErrProvider, "grid", "request variant",
			fmt.Sprintf("coordinate %s was not generated", coord.Key()), nil)
	}
	return text, nil
}

// Status reports the persisted state of one coordinate.
func (g *Grid) Status(ctx context.Context, key string) (session.Status, error) {
	coord, err := grid.ParseKey(key)
	if err != nil {
		return session.StatusPending, err
	}
	return g.status(ctx, coord.Key())
}

// Progress tallies the grid's 121 coordinates.
func (g *Grid) Progress(ctx context.Context) (Progress, error) {
	return g.progress(ctx, grid.CellCount, func(key string) bool {
		_, err := grid.ParseKey(key)
		return err == nil
	})
}
