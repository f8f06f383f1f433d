package filterchain

import (
	"errors"
	"testing"

	"textloom/internal/services"
)

func twoLayerStack() []Layer {
	return []Layer{
		{Filter: FilterHumor, Enabled: true, Intensity: 75},    // top
		{Filter: FilterSimplify, Enabled: true, Intensity: 50}, // bottom
	}
}

func TestPlanEmptyCacheWalksWholeChain(t *testing.T) {
	cache := Snapshot{OriginalKey: "the original text"}
	steps, err := Plan(twoLayerStack(), cache)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}

	first, second := steps[0], steps[1]
	if first.CacheKey != "simplify-50" {
		t.Fatalf("step 1 key = %q", first.CacheKey)
	}
	if !first.HasInput || first.InputText != "the original text" {
		t.Fatalf("step 1 input = %+v", first)
	}
	if second.CacheKey != "humor-75|simplify-50" {
		t.Fatalf("step 2 key = %q", second.CacheKey)
	}
	if second.HasInput {
		t.Fatal("step 2 input must stay unbound until step 1 completes")
	}
}

func TestPlanReusesLongestCachedSuffix(t *testing.T) {
	layers := []Layer{
		{Filter: FilterFormalize, Enabled: true, Intensity: 75},
		{Filter: FilterSimplify, Enabled: true, Intensity: 50},
	}
	cache := Snapshot{
		OriginalKey:   "origin",
		"simplify-50": "simplified",
	}
	steps, err := Plan(layers, cache)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(steps) != 1 {
		t.Fatalf("expected exactly 1 step, got %d", len(steps))
	}
	if steps[0].CacheKey != "formalize-75|simplify-50" {
		t.Fatalf("step key = %q", steps[0].CacheKey)
	}
	if !steps[0].HasInput || steps[0].InputText != "simplified" {
		t.Fatalf("step must start from the cached simplify-50 text, got %+v", steps[0])
	}
}

func TestPlanIdempotentWhenFullyCached(t *testing.T) {
	cache := Snapshot{
		OriginalKey:            "origin",
		"simplify-50":          "simplified",
		"humor-75|simplify-50": "funny and simple",
	}
	steps, err := Plan(twoLayerStack(), cache)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(steps) != 0 {
		t.Fatalf("expected empty plan, got %d steps", len(steps))
	}
}

func TestPlanShorterChainAfterDisableNeedsNoCalls(t *testing.T) {
	// End-to-end property: generate both layers, then disable the top one.
	cache := Snapshot{
		OriginalKey:            "origin",
		"simplify-50":          "simplified",
		"humor-75|simplify-50": "funny and simple",
	}
	layers := twoLayerStack()
	layers[0].Enabled = false
	steps, err := Plan(layers, cache)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(steps) != 0 {
		t.Fatalf("disabling the top layer must need zero calls, got %d steps", len(steps))
	}
}

func TestPlanEmptyStackNeedsNothing(t *testing.T) {
	steps, err := Plan(nil, Snapshot{OriginalKey: "origin"})
	if err != nil || len(steps) != 0 {
		t.Fatalf("empty stack: steps=%d err=%v", len(steps), err)
	}
	disabled := []Layer{{Filter: FilterHumor, Enabled: false, Intensity: 75}}
	steps, err = Plan(disabled, Snapshot{})
	if err != nil || len(steps) != 0 {
		t.Fatalf("all-disabled stack: steps=%d err=%v", len(steps), err)
	}
}

func TestPlanRejectsInvalidLayers(t *testing.T) {
	badIntensity := []Layer{{Filter: FilterHumor, Enabled: true, Intensity: 33}}
	if _, err := Plan(badIntensity, Snapshot{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for intensity, got %v", err)
	}
	unknown := []Layer{{Filter: FilterID("sparkle"), Enabled: true, Intensity: 50}}
	if _, err := Plan(unknown, Snapshot{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for unknown filter, got %v", err)
	}
	zero := []Layer{{Filter: FilterHumor, Enabled: true, Intensity: 0}}
	if _, err := Plan(zero, Snapshot{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for zero intensity, got %v", err)
	}
}

func TestPlanMissingOriginalFailsLoudly(t *testing.T) {
	layers := []Layer{{Filter: FilterHumor, Enabled: true, Intensity: 75}}
	if _, err := Plan(layers, Snapshot{}); !errors.Is(err, services.ErrDependencyNotReady) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestLongestCachedSuffix(t *testing.T) {
	layers := []Layer{
		{Filter: FilterDramatic, Enabled: true, Intensity: 100}, // top
		{Filter: FilterHumor, Enabled: true, Intensity: 75},
		{Filter: FilterSimplify, Enabled: true, Intensity: 50}, // bottom
	}
	cache := Snapshot{
		OriginalKey:            "origin",
		"simplify-50":          "simplified",
		"humor-75|simplify-50": "funny",
	}
	match := LongestCachedSuffix(layers, cache)
	if !match.Found {
		t.Fatal("expected a match")
	}
	if match.Key != "humor-75|simplify-50" || match.Text != "funny" {
		t.Fatalf("unexpected match %+v", match)
	}
	if match.MatchIndex != 1 {
		t.Fatalf("match index = %d, want 1", match.MatchIndex)
	}
}

func TestLongestCachedSuffixFallsBackToOriginal(t *testing.T) {
	layers := twoLayerStack()
	match := LongestCachedSuffix(layers, Snapshot{OriginalKey: "origin"})
	if !match.Found || match.Key != OriginalKey || match.MatchIndex != -1 {
		t.Fatalf("unexpected fallback match %+v", match)
	}

	empty := LongestCachedSuffix(layers, Snapshot{})
	if empty.Found {
		t.Fatalf("expected no match against empty cache, got %+v", empty)
	}
}

func TestInvalidationCascade(t *testing.T) {
	layers := twoLayerStack()
	cache := Snapshot{
		OriginalKey:            "origin",
		"simplify-50":          "simplified",
		"humor-75|simplify-50": "funny",
	}

	// Changing the bottom layer invalidates its own key and the combined
	// key, leaving the original untouched.
	stale, err := InvalidationKeys(layers, 1, cache)
	if err != nil {
		t.Fatalf("InvalidationKeys: %v", err)
	}
	want := map[string]bool{"simplify-50": true, "humor-75|simplify-50": true}
	if len(stale) != len(want) {
		t.Fatalf("stale keys %v, want %v", stale, want)
	}
	for _, key := range stale {
		if !want[key] {
			t.Fatalf("unexpected stale key %q", key)
		}
		if key == OriginalKey {
			t.Fatal("original must never be invalidated")
		}
	}

	// Changing the top layer leaves the bottom layer's entry alone.
	stale, err = InvalidationKeys(layers, 0, cache)
	if err != nil {
		t.Fatalf("InvalidationKeys: %v", err)
	}
	if len(stale) != 1 || stale[0] != "humor-75|simplify-50" {
		t.Fatalf("stale keys %v, want only the combined key", stale)
	}
}

func TestInvalidationKeysRejectsBadIndex(t *testing.T) {
	if _, err := InvalidationKeys(twoLayerStack(), 2, Snapshot{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := InvalidationKeys(twoLayerStack(), -1, Snapshot{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
