package main

import (
	"os"
	"path/filepath"
	"testing"

	"textloom/internal/filterchain"
)

func TestParseLayerSpecsReversesApplicationOrder(t *testing.T) {
	layers, err := parseLayerSpecs([]string{"simplify@50", "humor@75"})
	if err != nil {
		t.Fatalf("parseLayerSpecs: %v", err)
	}
	if len(layers) != 2 {
		t.Fatalf("got %d layers", len(layers))
	}
	// First applied ends up bottom-most, i.e. last in visual order.
	if layers[0].Filter != filterchain.FilterHumor || layers[1].Filter != filterchain.FilterSimplify {
		t.Fatalf("unexpected order: %+v", layers)
	}
	if layers[1].Intensity != 50 || !layers[1].Enabled {
		t.Fatalf("unexpected layer %+v", layers[1])
	}
}

func TestParseLayerSpecsRejectsMalformedSpecs(t *testing.T) {
	for _, spec := range []string{"simplify", "simplify@", "simplify@high", "@50", "mystery@50"} {
		if _, err := parseLayerSpecs([]string{spec}); err == nil {
			t.Errorf("spec %q accepted", spec)
		}
	}
}

func TestReadTextPrefersInlineText(t *testing.T) {
	text, err := readText("  inline  ", "ignored.txt")
	if err != nil || text != "inline" {
		t.Fatalf("readText = %q, %v", text, err)
	}
}

func TestReadTextFallsBackToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	if err := os.WriteFile(path, []byte("from file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	text, err := readText("", path)
	if err != nil || text != "from file" {
		t.Fatalf("readText = %q, %v", text, err)
	}

	if _, err := readText("", ""); err == nil {
		t.Fatal("expected error when neither text nor file given")
	}
	if _, err := readText("", filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"grid", "bridge", "filters", "sessions", "config"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Errorf("command %q not registered", name)
		}
	}
}
