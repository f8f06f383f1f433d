package filterchain

import (
	"fmt"
	"strconv"
	"strings"

	"textloom/internal/services"
)

// OriginalKey addresses the unmodified input text.
const OriginalKey = "original"

// Segment renders one "filter-intensity" key segment with the intensity
// snapped to the nearest supported step.
func Segment(filter FilterID, intensity int) string {
	return string(filter) + "-" + strconv.Itoa(SnapIntensity(intensity))
}

// ChainKey derives the cache key for the full enabled chain. An empty or
// fully disabled stack yields OriginalKey.
//
// Segments read top-to-bottom while processing runs bottom-to-top: each step
// prepends its own segment to the key of the chain below it, so every
// partially processed chain's key survives verbatim as the tail of the keys
// built above it. That tail sharing is what makes shorter chains reusable.
func ChainKey(layers []Layer) string {
	entries := enabledBottomUp(layers)
	if len(entries) == 0 {
		return OriginalKey
	}
	key := ""
	for _, entry := range entries {
		key = extendKey(key, entry.layer.Filter, entry.layer.Intensity)
	}
	return key
}

// PrefixKey derives the cache key for the chain truncated at topIndex: the
// layer at that visual index plus everything below it. Layers above topIndex
// are ignored.
func PrefixKey(layers []Layer, topIndex int) string {
	if topIndex < 0 {
		topIndex = 0
	}
	if topIndex >= len(layers) {
		return OriginalKey
	}
	return ChainKey(layers[topIndex:])
}

// extendKey prepends one segment to the cumulative key of the chain below it.
func extendKey(below string, filter FilterID, intensity int) string {
	segment := Segment(filter, intensity)
	if below == "" || below == OriginalKey {
		return segment
	}
	return segment + "|" + below
}

// SegmentCount reports how many filter applications a cache key encodes.
// OriginalKey encodes zero.
func SegmentCount(key string) int {
	if key == "" || key == OriginalKey {
		return 0
	}
	return strings.Count(key, "|") + 1
}

// ParseChainKey decodes a cache key back into an enabled layer stack in
// visual (top-to-bottom) order. OriginalKey decodes to an empty stack.
// Keys with unknown filters or unsupported intensities are rejected.
func ParseChainKey(key string) ([]Layer, error) {
	if key == "" || key == OriginalKey {
		return nil, nil
	}
	segments := strings.Split(key, "|")
	layers := make([]Layer, 0, len(segments))
	for _, segment := range segments {
		id, value, ok := strings.Cut(segment, "-")
		if !ok {
			return nil, services.Wrap(services.ErrValidation, "filters", "parse key",
				fmt.Sprintf("malformed segment %q", segment), nil)
		}
		intensity, err := strconv.Atoi(value)
		if err != nil || !ValidIntensity(intensity) {
			return nil, services.Wrap(services.ErrValidation, "filters", "parse key",
				fmt.Sprintf("unsupported intensity in segment %q", segment), nil)
		}
		filter := FilterID(id)
		if !KnownFilter(filter) {
			return nil, services.Wrap(services.ErrValidation, "filters", "parse key",
				fmt.Sprintf("unknown filter in segment %q", segment), nil)
		}
		layers = append(layers, Layer{Filter: filter, Enabled: true, Intensity: intensity})
	}
	return layers, nil
}
