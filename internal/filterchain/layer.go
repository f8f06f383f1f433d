package filterchain

import (
	"fmt"

	"textloom/internal/services"
)

// Layer is one entry of the filter stack in visual order (index 0 = top).
type Layer struct {
	Filter    FilterID `json:"filter"`
	Enabled   bool     `json:"enabled"`
	Intensity int      `json:"intensity"`
}

// Validate rejects unknown filters and out-of-domain intensities before any
// network call is planned.
func (l Layer) Validate() error {
	if !KnownFilter(l.Filter) {
		return services.Wrap(services.ErrValidation, "filters", "validate",
			fmt.Sprintf("unknown filter %q", l.Filter), nil)
	}
	if !ValidIntensity(l.Intensity) {
		return services.Wrap(services.ErrValidation, "filters", "validate",
			fmt.Sprintf("intensity %d for %s must be one of 25, 50, 75, 100", l.Intensity, l.Filter), nil)
	}
	return nil
}

// ValidateLayers validates a whole stack.
func ValidateLayers(layers []Layer) error {
	for i, layer := range layers {
		if err := layer.Validate(); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return nil
}

// chainEntry pairs a layer with its visual index, in processing order.
type chainEntry struct {
	visualIndex int
	layer       Layer
}

// enabledBottomUp is the single conversion point between visual order
// (top-to-bottom storage) and processing order (bottom-to-top execution).
// Disabled layers are excluded entirely, not passed through.
func enabledBottomUp(layers []Layer) []chainEntry {
	entries := make([]chainEntry, 0, len(layers))
	for i := len(layers) - 1; i >= 0; i-- {
		if layers[i].Enabled {
			entries = append(entries, chainEntry{visualIndex: i, layer: layers[i]})
		}
	}
	return entries
}
