package filterchain

import "testing"

func TestChainKeyOrdersSegmentsTopFirst(t *testing.T) {
	layers := []Layer{
		{Filter: FilterHumor, Enabled: true, Intensity: 75},    // top
		{Filter: FilterSimplify, Enabled: true, Intensity: 50}, // bottom
	}
	if got := ChainKey(layers); got != "humor-75|simplify-50" {
		t.Fatalf("ChainKey = %q", got)
	}
}

func TestChainKeyDeterministic(t *testing.T) {
	layers := []Layer{
		{Filter: FilterFormalize, Enabled: true, Intensity: 75},
		{Filter: FilterSimplify, Enabled: true, Intensity: 50},
	}
	first := ChainKey(layers)
	second := ChainKey(layers)
	if first != second {
		t.Fatalf("ChainKey not deterministic: %q vs %q", first, second)
	}
	if first != "formalize-75|simplify-50" {
		t.Fatalf("unexpected key %q", first)
	}
}

func TestChainKeySkipsDisabledLayers(t *testing.T) {
	layers := []Layer{
		{Filter: FilterHumor, Enabled: false, Intensity: 75},
		{Filter: FilterSimplify, Enabled: true, Intensity: 50},
	}
	if got := ChainKey(layers); got != "simplify-50" {
		t.Fatalf("disabled layer leaked into key %q", got)
	}
}

func TestChainKeyEmptyAndAllDisabled(t *testing.T) {
	if got := ChainKey(nil); got != OriginalKey {
		t.Fatalf("empty stack key = %q", got)
	}
	layers := []Layer{
		{Filter: FilterHumor, Enabled: false, Intensity: 75},
		{Filter: FilterSimplify, Enabled: false, Intensity: 50},
	}
	if got := ChainKey(layers); got != OriginalKey {
		t.Fatalf("all-disabled stack key = %q", got)
	}
}

func TestChainKeySnapsIntensity(t *testing.T) {
	layers := []Layer{{Filter: FilterPoetic, Enabled: true, Intensity: 60}}
	if got := ChainKey(layers); got != "poetic-50" {
		t.Fatalf("expected snapped intensity, got %q", got)
	}
}

func TestPrefixKeySharedBottomPrefix(t *testing.T) {
	shorter := []Layer{
		{Filter: FilterSimplify, Enabled: true, Intensity: 50},
	}
	longer := []Layer{
		{Filter: FilterHumor, Enabled: true, Intensity: 75},
		{Filter: FilterSimplify, Enabled: true, Intensity: 50},
	}
	// Truncating the longer stack at its bottom layer must equal the
	// shorter stack's key, so the shorter chain's entry is reusable.
	if got, want := PrefixKey(longer, 1), ChainKey(shorter); got != want {
		t.Fatalf("PrefixKey = %q, want %q", got, want)
	}
	if got := PrefixKey(longer, 0); got != ChainKey(longer) {
		t.Fatalf("PrefixKey at top = %q, want full chain key", got)
	}
	if got := PrefixKey(longer, 2); got != OriginalKey {
		t.Fatalf("PrefixKey past bottom = %q, want original", got)
	}
}

func TestSnapIntensity(t *testing.T) {
	cases := map[int]int{
		-10: 25, 0: 25, 25: 25, 37: 25, 38: 50,
		50: 50, 60: 50, 63: 75, 75: 75, 99: 100, 100: 100, 140: 100,
	}
	for input, want := range cases {
		if got := SnapIntensity(input); got != want {
			t.Fatalf("SnapIntensity(%d) = %d, want %d", input, got, want)
		}
	}
}

func TestSegmentCount(t *testing.T) {
	if SegmentCount(OriginalKey) != 0 {
		t.Fatal("original key must count zero segments")
	}
	if SegmentCount("humor-75|simplify-50") != 2 {
		t.Fatal("two-segment key miscounted")
	}
}
