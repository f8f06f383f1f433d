package plan

import (
	"fmt"

	"textloom/internal/grid"
	"textloom/internal/prompt"
	"textloom/internal/services"
	"textloom/internal/services/textgen"
)

// GridInputs are the fixed inputs every grid variation derives from.
type GridInputs struct {
	Original   string
	AdjectiveX string
	AdjectiveY string
	Model      textgen.Model
}

// Grid emits one batch per ring, center outward, skipping coordinates
// already present in the cache. Grid tasks never depend on one another;
// the ring ordering is a priority ordering, not a data dependency.
func Grid(in GridInputs, cached map[string]bool, concurrency int) Plan {
	p := Plan{Concurrency: concurrency}
	for ring := 0; ring <= grid.MaxRing; ring++ {
		coords, err := grid.RingCoordinates(ring)
		if err != nil {
			continue
		}
		batch := make(Batch, 0, len(coords))
		for _, coord := range coords {
			if cached[coord.Key()] {
				continue
			}
			batch = append(batch, gridTask(in, coord))
		}
		if len(batch) > 0 {
			p.Batches = append(p.Batches, batch)
		}
	}
	return p
}

// GridOnDemand plans a single requested coordinate followed, when
// prefetch is on, by a background batch of its uncached orthogonal
// neighbors.
func GridOnDemand(in GridInputs, coord grid.Coordinate, prefetch bool, cached map[string]bool, concurrency int) (Plan, error) {
	if !coord.InBounds() {
		return Plan{}, services.Wrap(services.ErrValidation, "grid", "plan",
			fmt.Sprintf("coordinate %s outside grid", coord.Key()), nil)
	}

	p := Plan{Concurrency: concurrency}
	if !cached[coord.Key()] {
		p.Batches = append(p.Batches, Batch{gridTask(in, coord)})
	}
	if prefetch {
		var neighbors Batch
		for _, next := range coord.Adjacent() {
			if cached[next.Key()] {
				continue
			}
			neighbors = append(neighbors, gridTask(in, next))
		}
		if len(neighbors) > 0 {
			p.Batches = append(p.Batches, neighbors)
		}
	}
	return p, nil
}

func gridTask(in GridInputs, coord grid.Coordinate) Task {
	user := prompt.Grid(in.Original, in.AdjectiveX, in.AdjectiveY, coord)
	return Task{
		Key:   coord.Key(),
		Model: in.Model,
		Build: func(map[string]string) (string, string, error) {
			return prompt.SystemPrompt, user, nil
		},
	}
}
