package textgen

import "time"

// Model names one of the three supported generation tiers. The tier decides
// how hard the bridge feature may lean on the provider: tighter rate limits
// mean fewer concurrent calls and longer backoff.
type Model string

const (
	// ModelSwift is the fast, loosely rate-limited tier.
	ModelSwift Model = "swift"
	// ModelBalanced is the default tier.
	ModelBalanced Model = "balanced"
	// ModelDeep is the highest-quality, most tightly rate-limited tier.
	ModelDeep Model = "deep"
)

// AllModels lists the supported tiers.
var AllModels = []Model{ModelSwift, ModelBalanced, ModelDeep}

// Valid reports whether m names a supported tier.
func (m Model) Valid() bool {
	switch m {
	case ModelSwift, ModelBalanced, ModelDeep:
		return true
	default:
		return false
	}
}

// BridgeConcurrency returns how many bridge calls may run in flight at once
// for this tier.
func (m Model) BridgeConcurrency() int {
	switch m {
	case ModelSwift:
		return 4
	case ModelBalanced:
		return 2
	default:
		return 1
	}
}

// BackoffBase returns the initial retry delay for this tier. Overload
// signals (rate limiting, provider saturation) earn a longer base than
// generic failures.
func (m Model) BackoffBase(overloaded bool) time.Duration {
	var base time.Duration
	switch m {
	case ModelSwift:
		base = 500 * time.Millisecond
	case ModelBalanced:
		base = time.Second
	default:
		base = 2 * time.Second
	}
	if overloaded {
		base *= 4
	}
	return base
}
