package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistances(t *testing.T) {
	a, b := Cell{X: 1, Y: 1}, Cell{X: 4, Y: 3}
	assert.Equal(t, 3, Chebyshev(a, b))
	assert.Equal(t, 5, Manhattan(a, b))
	assert.Equal(t, 5, MetricManhattan.Distance(a, b))
	assert.Equal(t, 3, MetricChebyshev.Distance(a, b))
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, MetricChebyshev, m)
	m, err = ParseMetric("Manhattan")
	require.NoError(t, err)
	assert.Equal(t, MetricManhattan, m)
	_, err = ParseMetric("euclid")
	assert.Error(t, err)
}

func TestDirectionToBucketsOctants(t *testing.T) {
	o := Cell{X: 5, Y: 5}
	tcs := map[Cell]Octant{
		{X: 9, Y: 5}: East,
		{X: 9, Y: 9}: SouthEast,
		{X: 5, Y: 9}: South,
		{X: 1, Y: 9}: SouthWest,
		{X: 1, Y: 5}: West,
		{X: 1, Y: 1}: NorthWest,
		{X: 5, Y: 1}: North,
		{X: 9, Y: 1}: NorthEast,
		{X: 9, Y: 6}: East,
		{X: 5, Y: 5}: East,
	}
	for target, want := range tcs {
		assert.Equal(t, want, DirectionTo(o, target), "target %v", target)
	}
	assert.Equal(t, -1, DirectionTo(o, Cell{X: 1, Y: 9}).Facing())
	assert.Equal(t, 0, North.Facing())
}

func TestRotateKeepsChebyshevDistance(t *testing.T) {
	for dx := -3; dx <= 3; dx++ {
		for dy := -3; dy <= 3; dy++ {
			r := max(abs(dx), abs(dy))
			for o := East; o <= NorthEast; o++ {
				rx, ry := Rotate(dx, dy, o)
				assert.Equal(t, r, max(abs(rx), abs(ry)))
			}
			fx, fy := Rotate(dx, dy, East)
			assert.Equal(t, [2]int{dx, dy}, [2]int{fx, fy})
		}
	}
}

func TestRotateLine(t *testing.T) {
	x, y := Rotate(2, 0, SouthEast)
	assert.Equal(t, [2]int{2, 2}, [2]int{x, y})
	x, y = Rotate(1, 0, North)
	assert.Equal(t, [2]int{0, -1}, [2]int{x, y})
	// quarter turn clockwise on a y-down board: (x,y) -> (-y,x)
	x, y = Rotate(2, 1, South)
	assert.Equal(t, [2]int{-1, 2}, [2]int{x, y})
	x, y = Rotate(3, 0, West)
	assert.Equal(t, [2]int{-3, 0}, [2]int{x, y})
}

func TestLine(t *testing.T) {
	got := Line(Cell{X: 0, Y: 0}, Cell{X: 3, Y: 0})
	assert.Equal(t, []Cell{{X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}}, got)

	got = Line(Cell{X: 0, Y: 0}, Cell{X: 2, Y: 2})
	assert.Equal(t, []Cell{{X: 1, Y: 1}, {X: 2, Y: 2}}, got)

	assert.Empty(t, Line(Cell{X: 1, Y: 1}, Cell{X: 1, Y: 1}))
}

func TestSupercover(t *testing.T) {
	assert.Equal(t, []Cell{{X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}}, Supercover(Cell{}, Cell{X: 3, Y: 0}))
	assert.Equal(t, []Cell{{X: 0, Y: -1}, {X: 0, Y: -2}}, Supercover(Cell{}, Cell{X: 0, Y: -2}))
	assert.Equal(t, []Cell{{X: 1, Y: 1}, {X: 2, Y: 2}}, Supercover(Cell{}, Cell{X: 2, Y: 2}))
	assert.Empty(t, Supercover(Cell{X: 1, Y: 1}, Cell{X: 1, Y: 1}))

	// a shallow line touches both rows it crosses; Line skips one of them
	assert.Equal(t, []Cell{{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 1}}, Supercover(Cell{}, Cell{X: 2, Y: 1}))
	assert.Len(t, Line(Cell{}, Cell{X: 2, Y: 1}), 2)
	assert.Equal(t, []Cell{{X: -1, Y: 0}, {X: -1, Y: 1}, {X: -2, Y: 1}}, Supercover(Cell{}, Cell{X: -2, Y: 1}))
}

func TestRay(t *testing.T) {
	got := Ray(Cell{X: 2, Y: 2}, NorthWest, 2)
	assert.Equal(t, []Cell{{X: 1, Y: 1}, {X: 0, Y: 0}}, got)
}

func TestFootprint(t *testing.T) {
	assert.Len(t, Footprint(Cell{}, 1), 1)
	assert.Equal(t, []Cell{{X: 3, Y: 3}, {X: 4, Y: 3}}, Footprint(Cell{X: 3, Y: 3}, 2))
	assert.Len(t, Footprint(Cell{}, 4), 4)
	assert.Len(t, Footprint(Cell{}, 8), 8)
	assert.True(t, ValidSize(8))
	assert.False(t, ValidSize(3))
}

func TestBounds(t *testing.T) {
	b := Bounds{Width: 3, Height: 2}
	assert.True(t, b.Contains(Cell{X: 2, Y: 1}))
	assert.False(t, b.Contains(Cell{X: 3, Y: 1}))
	assert.False(t, b.Contains(Cell{X: -1, Y: 0}))
	assert.False(t, b.ContainsAll(Footprint(Cell{X: 2, Y: 0}, 2)))
}

func TestOccupancy(t *testing.T) {
	occ := NewOccupancy(Bounds{Width: 4, Height: 4})
	occ.PlaceUnit("big", Cell{X: 0, Y: 0}, 4)
	occ.PlaceObstacle("rock", Cell{X: 3, Y: 3}, 1)

	id, ok := occ.UnitAt(Cell{X: 1, Y: 1})
	assert.True(t, ok)
	assert.Equal(t, "big", id)
	assert.True(t, occ.Blocked(Cell{X: 3, Y: 3}))

	assert.True(t, occ.Free(Cell{X: 1, Y: 0}, 4, "big"))
	assert.False(t, occ.Free(Cell{X: 1, Y: 0}, 4, "other"))
	assert.False(t, occ.Free(Cell{X: 2, Y: 2}, 4, "big"))
	assert.False(t, occ.Free(Cell{X: 3, Y: 0}, 4, "big"))

	occ.MoveUnit("big", Cell{X: 2, Y: 0}, 4)
	_, ok = occ.UnitAt(Cell{X: 0, Y: 0})
	assert.False(t, ok)
	id, _ = occ.UnitAt(Cell{X: 3, Y: 1})
	assert.Equal(t, "big", id)
}
