package grid

import (
	"fmt"
	"strconv"
	"strings"

	"textloom/internal/services"
)

const (
	// Extent is the inclusive coordinate bound on each axis.
	Extent = 5
	// MaxRing is the outermost ring index.
	MaxRing = Extent
	// CellCount is the total number of coordinates on the plane.
	CellCount = (2*Extent + 1) * (2*Extent + 1)
)

// Coordinate identifies one cell on the adjective plane.
type Coordinate struct {
	X int
	Y int
}

// Key renders the canonical "x,y" cache key for the coordinate.
func (c Coordinate) Key() string {
	return strconv.Itoa(c.X) + "," + strconv.Itoa(c.Y)
}

// Ring returns the Chebyshev distance from the origin.
func (c Coordinate) Ring() int {
	return max(abs(c.X), abs(c.Y))
}

// InBounds reports whether the coordinate lies on the plane.
func (c Coordinate) InBounds() bool {
	return abs(c.X) <= Extent && abs(c.Y) <= Extent
}

// ParseKey parses a canonical "x,y" key back into a Coordinate.
func ParseKey(key string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(key), ",")
	if len(parts) != 2 {
		return Coordinate{}, services.Wrap(services.ErrValidation, "grid", "parse key",
			fmt.Sprintf("malformed coordinate %q", key), nil)
	}
	x, errX := strconv.Atoi(strings.TrimSpace(parts[0]))
	y, errY := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errX != nil || errY != nil {
		return Coordinate{}, services.Wrap(services.ErrValidation, "grid", "parse key",
			fmt.Sprintf("malformed coordinate %q", key), nil)
	}
	coord := Coordinate{X: x, Y: y}
	if !coord.InBounds() {
		return Coordinate{}, services.Wrap(services.ErrValidation, "grid", "parse key",
			fmt.Sprintf("coordinate %q outside [-%d,%d]", key, Extent, Extent), nil)
	}
	return coord, nil
}

// RingCoordinates returns every coordinate whose Chebyshev distance equals
// ring. Ring 0 is the origin alone; ring n>0 is the boundary of the
// (2n+1)x(2n+1) square. Sizes run 1, 8, 16, 24, 32, 40 for rings 0..5.
func RingCoordinates(ring int) ([]Coordinate, error) {
	if ring < 0 || ring > MaxRing {
		return nil, services.Wrap(services.ErrValidation, "grid", "ring",
			fmt.Sprintf("ring %d outside [0,%d]", ring, MaxRing), nil)
	}
	if ring == 0 {
		return []Coordinate{{X: 0, Y: 0}}, nil
	}

	coords := make([]Coordinate, 0, 8*ring)
	// Top and bottom edges, full width.
	for x := -ring; x <= ring; x++ {
		coords = append(coords, Coordinate{X: x, Y: ring})
		coords = append(coords, Coordinate{X: x, Y: -ring})
	}
	// Left and right edges, corners already covered.
	for y := -ring + 1; y <= ring-1; y++ {
		coords = append(coords, Coordinate{X: -ring, Y: y})
		coords = append(coords, Coordinate{X: ring, Y: y})
	}
	return coords, nil
}

// Adjacent returns the orthogonal neighbors of c that lie on the plane.
// Used for speculative prefetch around the user's exploration point.
func (c Coordinate) Adjacent() []Coordinate {
	candidates := []Coordinate{
		{X: c.X + 1, Y: c.Y},
		{X: c.X - 1, Y: c.Y},
		{X: c.X, Y: c.Y + 1},
		{X: c.X, Y: c.Y - 1},
	}
	neighbors := make([]Coordinate, 0, 4)
	for _, candidate := range candidates {
		if candidate.InBounds() {
			neighbors = append(neighbors, candidate)
		}
	}
	return neighbors
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
