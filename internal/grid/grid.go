// Package grid holds the integer board geometry shared by every resolver:
// cells, distance metrics, compass octants, unit footprints and line walks.
package grid

import (
	"fmt"
	"math"
	"strings"
)

// Cell is one integer grid coordinate. Y grows downward.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add offsets the cell.
func (c Cell) Add(dx, dy int) Cell {
	return Cell{X: c.X + dx, Y: c.Y + dy}
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Chebyshev is the 8-direction step distance.
func Chebyshev(a, b Cell) int {
	return max(abs(a.X-b.X), abs(a.Y-b.Y))
}

// Manhattan is the 4-direction step distance.
func Manhattan(a, b Cell) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// Metric selects how a range is measured.
type Metric int

const (
	MetricChebyshev Metric = iota
	MetricManhattan
)

// Distance measures a→b with the metric.
func (m Metric) Distance(a, b Cell) int {
	if m == MetricManhattan {
		return Manhattan(a, b)
	}
	return Chebyshev(a, b)
}

func (m Metric) String() string {
	switch m {
	case MetricManhattan:
		return "manhattan"
	default:
		return "chebyshev"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Metric) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Metric) UnmarshalText(text []byte) error {
	v, err := ParseMetric(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseMetric parses a metric name. Empty means chebyshev.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "chebyshev":
		return MetricChebyshev, nil
	case "manhattan":
		return MetricManhattan, nil
	default:
		return 0, fmt.Errorf("unknown metric %q", s)
	}
}

// Bounds is the board size; valid cells are 0 ≤ X < Width, 0 ≤ Y < Height.
type Bounds struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains reports whether c lies on the board.
func (b Bounds) Contains(c Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < b.Width && c.Y < b.Height
}

// ContainsAll reports whether every cell lies on the board.
func (b Bounds) ContainsAll(cells []Cell) bool {
	for _, c := range cells {
		if !b.Contains(c) {
			return false
		}
	}
	return true
}

// Footprint returns the cells covered by an occupant of the given size class
// anchored at its top-left cell. Size classes are 1 (1×1), 2 (2×1),
// 4 (2×2) and 8 (4×2); anything else is treated as 1.
func Footprint(anchor Cell, size int) []Cell {
	w, h := FootprintDims(size)
	out := make([]Cell, 0, w*h)
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			out = append(out, anchor.Add(dx, dy))
		}
	}
	return out
}

// FootprintDims returns the width and height of a size class.
func FootprintDims(size int) (int, int) {
	switch size {
	case 2:
		return 2, 1
	case 4:
		return 2, 2
	case 8:
		return 4, 2
	default:
		return 1, 1
	}
}

// ValidSize reports whether size is a known size class.
func ValidSize(size int) bool {
	switch size {
	case 1, 2, 4, 8:
		return true
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func round(f float64) int {
	return int(math.Round(f))
}
