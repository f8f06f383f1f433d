package plan

import (
	"fmt"

	"textloom/internal/filterchain"
	"textloom/internal/prompt"
	"textloom/internal/services"
	"textloom/internal/services/textgen"
)

// Filters wraps the filter-chain plan as a strictly sequential task
// list: one batch per step, each step reading the previous step's
// output from the cache. A failed step therefore halts every step
// above it.
func Filters(layers []filterchain.Layer, model textgen.Model, cache filterchain.Snapshot) (Plan, error) {
	steps, err := filterchain.Plan(layers, cache)
	if err != nil {
		return Plan{}, err
	}
	p := Plan{Concurrency: 1, StopOnError: true}
	if len(steps) == 0 {
		return p, nil
	}

	// The first step builds on the deepest cached suffix; every later
	// step builds on its predecessor.
	inputKey := filterchain.LongestCachedSuffix(layers, cache).Key
	for _, step := range steps {
		p.Batches = append(p.Batches, Batch{filterTask(step, inputKey, model)})
		inputKey = step.CacheKey
	}
	return p, nil
}

func filterTask(step filterchain.Step, inputKey string, model textgen.Model) Task {
	return Task{
		Key:       step.CacheKey,
		DependsOn: []string{inputKey},
		Model:     model,
		Build: func(inputs map[string]string) (string, string, error) {
			text, ok := inputs[inputKey]
			if !ok {
				return "", "", services.Wrap(services.ErrDependencyNotReady, "filters", "prompt",
					fmt.Sprintf("input %q missing for step %s", inputKey, step.CacheKey), nil)
			}
			return prompt.SystemPrompt, prompt.Filter(text, step.Filter, step.Intensity), nil
		},
	}
}
