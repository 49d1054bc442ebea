package grid

import (
	"fmt"
	"math"
	"strings"
)

// Octant is one of the 8 compass directions, numbered clockwise from east on
// a y-down board.
type Octant int

const (
	East Octant = iota
	SouthEast
	South
	SouthWest
	West
	NorthWest
	North
	NorthEast
)

var octantVectors = [8][2]int{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

var octantNames = [8]string{"E", "SE", "S", "SW", "W", "NW", "N", "NE"}

func (o Octant) String() string {
	return octantNames[o.norm()]
}

// MarshalText implements encoding.TextMarshaler.
func (o Octant) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Octant) UnmarshalText(text []byte) error {
	v, err := ParseOctant(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// ParseOctant parses a compass name such as "NE".
func ParseOctant(s string) (Octant, error) {
	for i, n := range octantNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return Octant(i), nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// Vector returns the unit step of the octant.
func (o Octant) Vector() (int, int) {
	v := octantVectors[o.norm()]
	return v[0], v[1]
}

// Facing returns the horizontal component used for sprite facing: -1 left,
// 1 right, 0 for pure north/south.
func (o Octant) Facing() int {
	dx, _ := o.Vector()
	return dx
}

func (o Octant) norm() int {
	return ((int(o) % 8) + 8) % 8
}

// DirectionTo buckets the from→to angle into an octant. Equal cells face east.
func DirectionTo(from, to Cell) Octant {
	dx := float64(to.X - from.X)
	dy := float64(to.Y - from.Y)
	if dx == 0 && dy == 0 {
		return East
	}
	angle := math.Atan2(dy, dx)
	idx := round(angle / (math.Pi / 4))
	return Octant(((idx % 8) + 8) % 8)
}

// Rotate turns an east-facing offset to face o. The offset is moved along its
// Chebyshev ring by r cells per octant, which keeps it on integer cells and
// keeps its Chebyshev distance; quarter turns match an exact 90° rotation.
func Rotate(dx, dy int, o Octant) (int, int) {
	r := max(abs(dx), abs(dy))
	if r == 0 {
		return 0, 0
	}
	perimeter := 8 * r
	idx := (ringIndex(dx, dy, r) + o.norm()*r) % perimeter
	return ringCell(idx, r)
}

// ringIndex walks the ring clockwise starting at the top-right corner (r,-r).
func ringIndex(dx, dy, r int) int {
	switch {
	case dx == r && dy < r:
		return dy + r
	case dy == r && dx > -r:
		return 2*r + (r - dx)
	case dx == -r && dy > -r:
		return 4*r + (r - dy)
	default: // dy == -r
		return 6*r + (dx + r)
	}
}

func ringCell(idx, r int) (int, int) {
	switch side := idx / (2 * r); side {
	case 0:
		return r, -r + idx
	case 1:
		return r - (idx - 2*r), r
	case 2:
		return -r, r - (idx - 4*r)
	default:
		return -r + (idx - 6*r), -r
	}
}
