package filterchain

import (
	"fmt"

	"textloom/internal/services"
)

// Snapshot is a read-only view of the session cache: cache key to generated
// text.
type Snapshot map[string]string

// SuffixMatch identifies the deepest already-cached portion of a chain.
type SuffixMatch struct {
	// MatchIndex is the visual index of the highest enabled layer whose
	// cumulative key is cached, or -1 when only the original text matched.
	MatchIndex int
	Key        string
	Text       string
	// Found is false when neither a chain key nor the original is cached.
	Found bool
}

// Step is one generation call in a plan, in execution order.
type Step struct {
	// LayerIndex is the visual index of the layer this step applies.
	LayerIndex int
	Filter     FilterID
	Intensity  int
	CacheKey   string
	// InputText carries the concrete input only for the first step. Later
	// steps read the previous step's output, bound by the executor once it
	// exists (HasInput stays false until then).
	InputText string
	HasInput  bool
}

// LongestCachedSuffix walks the enabled chain from the bottom upward and
// returns the highest layer whose cumulative key already has a cache entry.
// When no chain key matches it falls back to the original text.
func LongestCachedSuffix(layers []Layer, cache Snapshot) SuffixMatch {
	match := SuffixMatch{MatchIndex: -1}
	if text, ok := cache[OriginalKey]; ok {
		match.Key = OriginalKey
		match.Text = text
		match.Found = true
	}

	key := ""
	for _, entry := range enabledBottomUp(layers) {
		key = extendKey(key, entry.layer.Filter, entry.layer.Intensity)
		if text, ok := cache[key]; ok {
			match.MatchIndex = entry.visualIndex
			match.Key = key
			match.Text = text
			match.Found = true
		}
	}
	return match
}

// Plan computes the minimal ordered list of generation steps needed to
// realize the chain against the cache snapshot. It returns an empty plan
// when the full chain (or an empty chain) is already satisfied.
func Plan(layers []Layer, cache Snapshot) ([]Step, error) {
	if err := ValidateLayers(layers); err != nil {
		return nil, err
	}

	entries := enabledBottomUp(layers)
	if len(entries) == 0 {
		return nil, nil
	}

	// Cumulative keys in processing order; start past the deepest cached one.
	keys := make([]string, len(entries))
	key := ""
	for i, entry := range entries {
		key = extendKey(key, entry.layer.Filter, entry.layer.Intensity)
		keys[i] = key
	}

	start := 0
	inputText := ""
	haveInput := false
	for i := len(entries) - 1; i >= 0; i-- {
		if text, ok := cache[keys[i]]; ok {
			start = i + 1
			inputText = text
			haveInput = true
			break
		}
	}
	if start == len(entries) {
		return nil, nil
	}
	if !haveInput {
		original, ok := cache[OriginalKey]
		if !ok {
			return nil, services.Wrap(services.ErrDependencyNotReady, "filters", "plan",
				"original text missing from cache", nil)
		}
		inputText = original
	}

	steps := make([]Step, 0, len(entries)-start)
	for i := start; i < len(entries); i++ {
		step := Step{
			LayerIndex: entries[i].visualIndex,
			Filter:     entries[i].layer.Filter,
			Intensity:  SnapIntensity(entries[i].layer.Intensity),
			CacheKey:   keys[i],
		}
		if i == start {
			step.InputText = inputText
			step.HasInput = true
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// InvalidationKeys returns every cached key derived from the layer at
// changedIndex or any layer above it: those entries were produced from the
// now-stale layer and must be deleted. Pass the layer list as it was before
// the change. The original text is never invalidated.
func InvalidationKeys(layers []Layer, changedIndex int, cache Snapshot) ([]string, error) {
	if changedIndex < 0 || changedIndex >= len(layers) {
		return nil, services.Wrap(services.ErrValidation, "filters", "invalidate",
			fmt.Sprintf("layer index %d outside stack of %d", changedIndex, len(layers)), nil)
	}

	var stale []string
	key := ""
	reached := false
	for _, entry := range enabledBottomUp(layers) {
		key = extendKey(key, entry.layer.Filter, entry.layer.Intensity)
		if entry.visualIndex <= changedIndex {
			reached = true
		}
		if !reached {
			continue
		}
		if _, ok := cache[key]; ok {
			stale = append(stale, key)
		}
	}
	return stale, nil
}
