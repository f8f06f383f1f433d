package bridge

import (
	"fmt"
	"strconv"

	"textloom/internal/services"
)

const (
	// AnchorLeft is the user-supplied start position.
	AnchorLeft = 0
	// AnchorRight is the user-supplied end position.
	AnchorRight = 10
	// PositionCount is the total number of positions including anchors.
	PositionCount = 11
	// RoundCount is the number of generation rounds.
	RoundCount = 4
)

// Dependency names the two positions a derived position blends from.
type Dependency struct {
	Left  int
	Right int
}

// Each derived position blends its two nearest already-known neighbors.
// A dependency always belongs to an earlier round, so generating rounds in
// order never reads a missing input.
var dependencies = map[int]Dependency{
	5: {Left: 0, Right: 10},
	2: {Left: 0, Right: 5},
	7: {Left: 5, Right: 10},
	1: {Left: 0, Right: 2},
	3: {Left: 2, Right: 5},
	6: {Left: 5, Right: 7},
	8: {Left: 7, Right: 10},
	4: {Left: 3, Right: 5},
	9: {Left: 8, Right: 10},
}

var rounds = [RoundCount + 1][]int{
	1: {5},
	2: {2, 7},
	3: {1, 3, 6, 8},
	4: {4, 9},
}

// IsAnchor reports whether the position is one of the two user-supplied texts.
func IsAnchor(position int) bool {
	return position == AnchorLeft || position == AnchorRight
}

// Valid reports whether position falls inside the bridge.
func Valid(position int) bool {
	return position >= AnchorLeft && position <= AnchorRight
}

// Key renders the canonical cache key for a position.
func Key(position int) string {
	return strconv.Itoa(position)
}

// ParseKey parses a cache key back into a position.
func ParseKey(key string) (int, error) {
	position, err := strconv.Atoi(key)
	if err != nil || !Valid(position) {
		return 0, services.Wrap(services.ErrValidation, "bridge", "parse key",
			fmt.Sprintf("malformed position %q", key), nil)
	}
	return position, nil
}

// Dependencies returns the pair of positions a derived position blends from.
// Anchors and out-of-range positions are rejected.
func Dependencies(position int) (Dependency, error) {
	dep, ok := dependencies[position]
	if !ok {
		return Dependency{}, services.Wrap(services.ErrValidation, "bridge", "dependencies",
			fmt.Sprintf("position %d has no dependencies (derived positions are 1-9)", position), nil)
	}
	return dep, nil
}

// Round returns the generation round for a position: 0 for anchors, 1-4 for
// derived positions.
func Round(position int) int {
	for round := 1; round <= RoundCount; round++ {
		for _, p := range rounds[round] {
			if p == position {
				return round
			}
		}
	}
	return 0
}

// RoundPositions returns the derived positions generated in the given round.
func RoundPositions(round int) ([]int, error) {
	if round < 1 || round > RoundCount {
		return nil, services.Wrap(services.ErrValidation, "bridge", "round",
			fmt.Sprintf("round %d outside [1,%d]", round, RoundCount), nil)
	}
	out := make([]int, len(rounds[round]))
	copy(out, rounds[round])
	return out, nil
}

// Generable reports whether both dependencies of a derived position are
// present in available. Anchors are never generable.
func Generable(position int, available map[int]bool) bool {
	dep, err := Dependencies(position)
	if err != nil {
		return false
	}
	return available[dep.Left] && available[dep.Right]
}
