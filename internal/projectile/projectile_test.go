package projectile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pefman/tactics-duel/internal/grid"
	"github.com/pefman/tactics-duel/internal/pattern"
)

type mapField struct {
	bounds    grid.Bounds
	units     map[grid.Cell]string
	obstacles map[grid.Cell]string
}

func (f mapField) InBounds(c grid.Cell) bool { return f.bounds.Contains(c) }

func (f mapField) ObstacleAt(c grid.Cell) (string, bool) {
	id, ok := f.obstacles[c]
	return id, ok
}

func (f mapField) UnitAt(c grid.Cell) (string, bool) {
	id, ok := f.units[c]
	return id, ok
}

func lineField() mapField {
	return mapField{
		bounds: grid.Bounds{Width: 10, Height: 3},
		units: map[grid.Cell]string{
			{X: 2, Y: 1}: "a",
			{X: 4, Y: 1}: "b",
			{X: 6, Y: 1}: "c",
		},
		obstacles: map[grid.Cell]string{},
	}
}

var (
	origin = grid.Cell{X: 0, Y: 1}
	far    = grid.Cell{X: 9, Y: 1}
)

func neverDodge(string, grid.Cell) Dodge { return DodgeFailed }

func TestNonPiercingHaltsAtFirstUnit(t *testing.T) {
	path := Path(origin, []grid.Cell{far}, pattern.OrderNearest, 0)
	f := Simulate(origin, path, lineField(), neverDodge, Config{})
	assert.Equal(t, []string{"a"}, f.Struck)
	assert.Equal(t, grid.Cell{X: 2, Y: 1}, f.Impact)
	assert.Equal(t, HaltUnit, f.Halt)
}

func TestPiercingRespectsMaxTargets(t *testing.T) {
	path := Path(origin, []grid.Cell{far}, pattern.OrderNearest, 0)
	f := Simulate(origin, path, lineField(), neverDodge, Config{Piercing: true, MaxTargets: 2})
	assert.Equal(t, []string{"a", "b"}, f.Struck)
	assert.Equal(t, HaltMaxTargets, f.Halt)
	assert.Equal(t, grid.Cell{X: 4, Y: 1}, f.Impact)
}

func TestPiercingWithoutCapReachesEnd(t *testing.T) {
	path := Path(origin, []grid.Cell{far}, pattern.OrderNearest, 0)
	f := Simulate(origin, path, lineField(), neverDodge, Config{Piercing: true})
	assert.Equal(t, []string{"a", "b", "c"}, f.Struck)
	assert.Equal(t, far, f.Impact)
	assert.Equal(t, HaltEndOfPath, f.Halt)
}

func TestDodgeLetsProjectileContinue(t *testing.T) {
	dodge := func(id string, _ grid.Cell) Dodge {
		if id == "a" {
			return DodgeSucceeded
		}
		return DodgeFailed
	}
	path := Path(origin, []grid.Cell{far}, pattern.OrderNearest, 0)
	f := Simulate(origin, path, lineField(), dodge, Config{})
	assert.Equal(t, []string{"a"}, f.Dodged)
	assert.Equal(t, []string{"b"}, f.Struck)
}

func TestStopsOnUnitSkipsDodge(t *testing.T) {
	called := false
	dodge := func(string, grid.Cell) Dodge {
		called = true
		return DodgeSucceeded
	}
	path := Path(origin, []grid.Cell{far}, pattern.OrderNearest, 0)
	f := Simulate(origin, path, lineField(), dodge, Config{StopsOnUnit: true})
	assert.False(t, called)
	assert.Equal(t, []string{"a"}, f.Struck)
}

func TestObstacleStopsProjectile(t *testing.T) {
	field := lineField()
	field.obstacles[grid.Cell{X: 1, Y: 1}] = "rock"
	path := Path(origin, []grid.Cell{far}, pattern.OrderNearest, 0)

	f := Simulate(origin, path, field, neverDodge, Config{StopsOnObstacle: true})
	assert.Equal(t, "rock", f.HitObstacle)
	assert.Equal(t, grid.Cell{X: 1, Y: 1}, f.Impact)
	assert.Empty(t, f.Struck)

	f = Simulate(origin, path, field, neverDodge, Config{})
	assert.Equal(t, []string{"a"}, f.Struck)
}

func TestDeferredDodgePausesFlight(t *testing.T) {
	dodge := func(string, grid.Cell) Dodge { return DodgeDeferred }
	path := Path(origin, []grid.Cell{far}, pattern.OrderNearest, 0)
	f := Simulate(origin, path, lineField(), dodge, Config{})
	assert.Equal(t, HaltDeferred, f.Halt)
	assert.Equal(t, "a", f.AwaitingUnit)
	assert.Empty(t, f.Struck)
}

func TestLargeUnitStruckOnce(t *testing.T) {
	field := lineField()
	field.units[grid.Cell{X: 3, Y: 1}] = "a"
	path := Path(origin, []grid.Cell{far}, pattern.OrderNearest, 0)
	f := Simulate(origin, path, field, neverDodge, Config{Piercing: true, MaxTargets: 3})
	assert.Equal(t, []string{"a", "b", "c"}, f.Struck)
}

func TestPathOrdering(t *testing.T) {
	cells := []grid.Cell{{X: 3, Y: 1}, {X: 1, Y: 1}, {X: 2, Y: 1}}
	assert.Equal(t, []grid.Cell{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 3, Y: 1}}, Path(origin, cells, pattern.OrderNearest, 0))
	assert.Equal(t, cells, Path(origin, cells, pattern.OrderSequential, 0))
	assert.Equal(t, []grid.Cell{{X: 2, Y: 1}, {X: 1, Y: 1}, {X: 3, Y: 1}}, Path(origin, cells, pattern.OrderReverse, 0))
	assert.Len(t, Path(origin, []grid.Cell{far}, pattern.OrderNearest, 4), 4)
	assert.Nil(t, Path(origin, nil, pattern.OrderNearest, 0))
}

func TestTravelDistanceSetsImpactForExplosion(t *testing.T) {
	field := mapField{bounds: grid.Bounds{Width: 10, Height: 3}}
	path := Path(origin, []grid.Cell{far}, pattern.OrderNearest, 3)
	f := Simulate(origin, path, field, neverDodge, Config{})
	require.Equal(t, grid.Cell{X: 3, Y: 1}, f.Impact)

	offsets, _, err := pattern.Expand(pattern.ShapeCross, 1)
	require.NoError(t, err)
	cells := Explosion(pattern.Pattern{Offsets: offsets}, origin, f.Impact, field.bounds, nil)
	assert.ElementsMatch(t, []grid.Cell{{X: 3, Y: 1}, {X: 4, Y: 1}, {X: 2, Y: 1}, {X: 3, Y: 0}, {X: 3, Y: 2}}, cells)
}

func TestOutOfBoundsHalts(t *testing.T) {
	field := mapField{bounds: grid.Bounds{Width: 3, Height: 3}}
	f := Simulate(origin, []grid.Cell{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 3, Y: 1}}, field, neverDodge, Config{})
	assert.Equal(t, HaltOutOfBounds, f.Halt)
	assert.Equal(t, grid.Cell{X: 2, Y: 1}, f.Impact)
}
