package plan

import (
	"fmt"
	"sort"

	"textloom/internal/bridge"
	"textloom/internal/prompt"
	"textloom/internal/services"
	"textloom/internal/services/textgen"
)

// BridgeInputs carry the two anchor texts the bridge interpolates
// between. The planner assumes the anchors are already cached under
// their position keys ("0" and "10") before the run starts.
type BridgeInputs struct {
	Model textgen.Model
}

// Bridge emits one batch per round, rounds 1 through 4, skipping
// positions already cached. Every task names its two dependency keys;
// the engine reads their texts from the cache at dispatch, which is
// safe because a dependency always belongs to an earlier round.
func Bridge(in BridgeInputs, cached map[string]bool) Plan {
	p := Plan{Concurrency: in.Model.BridgeConcurrency()}
	for round := 1; round <= bridge.RoundCount; round++ {
		positions, err := bridge.RoundPositions(round)
		if err != nil {
			continue
		}
		batch := make(Batch, 0, len(positions))
		for _, position := range positions {
			if cached[bridge.Key(position)] {
				continue
			}
			task, err := bridgeTask(in, position)
			if err != nil {
				continue
			}
			batch = append(batch, task)
		}
		if len(batch) > 0 {
			p.Batches = append(p.Batches, batch)
		}
	}
	return p
}

// BridgeOnDemand plans a single requested position together with any
// uncached positions it transitively depends on, grouped by round so
// dependencies always land before their dependents.
func BridgeOnDemand(in BridgeInputs, position int, cached map[string]bool) (Plan, error) {
	if !bridge.Valid(position) || bridge.IsAnchor(position) {
		return Plan{}, services.Wrap(services.ErrValidation, "bridge", "plan",
			fmt.Sprintf("position %d is not a derived bridge position", position), nil)
	}

	needed := map[int]bool{}
	var collect func(pos int) error
	collect = func(pos int) error {
		if bridge.IsAnchor(pos) || cached[bridge.Key(pos)] || needed[pos] {
			return nil
		}
		needed[pos] = true
		dep, err := bridge.Dependencies(pos)
		if err != nil {
			return err
		}
		if err := collect(dep.Left); err != nil {
			return err
		}
		return collect(dep.Right)
	}
	if err := collect(position); err != nil {
		return Plan{}, err
	}

	p := Plan{Concurrency: in.Model.BridgeConcurrency()}
	byRound := map[int][]int{}
	for pos := range needed {
		round := bridge.Round(pos)
		byRound[round] = append(byRound[round], pos)
	}
	for round := 1; round <= bridge.RoundCount; round++ {
		positions := byRound[round]
		if len(positions) == 0 {
			continue
		}
		sort.Ints(positions)
		batch := make(Batch, 0, len(positions))
		for _, pos := range positions {
			task, err := bridgeTask(in, pos)
			if err != nil {
				return Plan{}, err
			}
			batch = append(batch, task)
		}
		p.Batches = append(p.Batches, batch)
	}
	return p, nil
}

func bridgeTask(in BridgeInputs, position int) (Task, error) {
	dep, err := bridge.Dependencies(position)
	if err != nil {
		return Task{}, err
	}
	leftKey := bridge.Key(dep.Left)
	rightKey := bridge.Key(dep.Right)
	return Task{
		Key:       bridge.Key(position),
		DependsOn: []string{leftKey, rightKey},
		Model:     in.Model,
		Build: func(inputs map[string]string) (string, string, error) {
			left, okLeft := inputs[leftKey]
			right, okRight := inputs[rightKey]
			if !okLeft || !okRight {
				return "", "", services.Wrap(services.ErrDependencyNotReady, "bridge", "prompt",
					fmt.Sprintf("position %d missing dependency text", position), nil)
			}
			return prompt.SystemPrompt, prompt.Bridge(left, right), nil
		},
	}, nil
}
