package pattern

import (
	"fmt"
	"strings"

	"github.com/pefman/tactics-duel/internal/grid"
)

// Shape names a preset offset layout.
type Shape string

const (
	ShapeSingle  Shape = "single"
	ShapeSquare  Shape = "square"
	ShapeDiamond Shape = "diamond"
	ShapeCross   Shape = "cross"
	ShapeLine    Shape = "line"
	ShapeCone    Shape = "cone"
	ShapeCustom  Shape = "custom"
)

// Expand returns the offsets of a preset shape of the given size, plus the
// metric that shape is ranged with.
//
//   - single: the anchor
//   - square: every cell within Chebyshev size
//   - diamond: every cell within Manhattan size
//   - cross: the anchor and size cells along each axis
//   - line: size cells east of the anchor, anchor excluded
//   - cone: widening rows east of the anchor, row i spans ±(i-1)
func Expand(shape Shape, size int) ([]Offset, grid.Metric, error) {
	switch Shape(strings.ToLower(string(shape))) {
	case "", ShapeSingle:
		return []Offset{{}}, grid.MetricChebyshev, nil
	case ShapeSquare:
		var out []Offset
		for dy := -size; dy <= size; dy++ {
			for dx := -size; dx <= size; dx++ {
				out = append(out, Offset{DX: dx, DY: dy})
			}
		}
		return out, grid.MetricChebyshev, nil
	case ShapeDiamond:
		var out []Offset
		for dy := -size; dy <= size; dy++ {
			for dx := -size; dx <= size; dx++ {
				if abs(dx)+abs(dy) <= size {
					out = append(out, Offset{DX: dx, DY: dy})
				}
			}
		}
		return out, grid.MetricManhattan, nil
	case ShapeCross:
		out := []Offset{{}}
		for i := 1; i <= size; i++ {
			out = append(out, Offset{DX: i}, Offset{DY: i}, Offset{DX: -i}, Offset{DY: -i})
		}
		return out, grid.MetricManhattan, nil
	case ShapeLine:
		var out []Offset
		for i := 1; i <= size; i++ {
			out = append(out, Offset{DX: i})
		}
		return out, grid.MetricChebyshev, nil
	case ShapeCone:
		var out []Offset
		for i := 1; i <= size; i++ {
			for dy := -(i - 1); dy <= i-1; dy++ {
				out = append(out, Offset{DX: i, DY: dy})
			}
		}
		return out, grid.MetricChebyshev, nil
	case ShapeCustom:
		return nil, grid.MetricChebyshev, nil
	default:
		return nil, 0, fmt.Errorf("unknown pattern shape %q", shape)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
