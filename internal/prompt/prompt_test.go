package prompt

import (
	"strings"
	"testing"

	"textloom/internal/filterchain"
	"textloom/internal/grid"
)

func TestGridPromptMentionsBothAxes(t *testing.T) {
	p := Grid("hello world", "formal", "funny", grid.Coordinate{X: 3, Y: -2})
	if !strings.Contains(p, "more formal, at strength 3") {
		t.Fatalf("missing positive axis instruction in %q", p)
	}
	if !strings.Contains(p, "less funny") || !strings.Contains(p, "strength 2") {
		t.Fatalf("missing negative axis instruction in %q", p)
	}
	if !strings.Contains(p, "hello world") {
		t.Fatal("original text missing from prompt")
	}
}

func TestGridPromptNeutralAxis(t *testing.T) {
	p := Grid("text", "formal", "funny", grid.Coordinate{X: 0, Y: 0})
	if strings.Count(p, "Stay neutral") != 2 {
		t.Fatalf("expected both axes neutral at origin: %q", p)
	}
}

func TestGridPromptDeterministic(t *testing.T) {
	a := Grid("text", "formal", "funny", grid.Coordinate{X: 1, Y: 1})
	b := Grid("text", "formal", "funny", grid.Coordinate{X: 1, Y: 1})
	if a != b {
		t.Fatal("grid prompt must be deterministic")
	}
}

func TestBridgePromptIncludesBothTexts(t *testing.T) {
	p := Bridge("alpha text", "omega text")
	if !strings.Contains(p, "alpha text") || !strings.Contains(p, "omega text") {
		t.Fatalf("bridge prompt missing inputs: %q", p)
	}
	if !strings.Contains(p, "midpoint") {
		t.Fatalf("bridge prompt missing blend instruction: %q", p)
	}
}

func TestFilterPromptStatesIntensity(t *testing.T) {
	p := Filter("some text", filterchain.FilterHumor, 75)
	if !strings.Contains(p, "75%") {
		t.Fatalf("intensity missing from %q", p)
	}
	if !strings.Contains(p, "humor") {
		t.Fatalf("instruction missing from %q", p)
	}
	if !strings.Contains(p, "some text") {
		t.Fatal("input text missing")
	}
}

func TestFilterPromptCoversAllFilters(t *testing.T) {
	for _, id := range filterchain.AllFilters {
		p := Filter("x", id, 50)
		if strings.Contains(p, "Rewrite the following text: "+string(id)+".") {
			t.Fatalf("filter %s fell back to its raw id", id)
		}
	}
}
