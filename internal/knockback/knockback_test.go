package knockback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pefman/tactics-duel/internal/grid"
)

func board() *grid.Occupancy {
	return grid.NewOccupancy(grid.Bounds{Width: 8, Height: 8})
}

func TestPushStopsBeforeLiveBlocker(t *testing.T) {
	occ := board()
	occ.PlaceUnit("target", grid.Cell{X: 2, Y: 3}, 1)
	occ.PlaceUnit("wall", grid.Cell{X: 5, Y: 3}, 1)

	out := Push(Target{UnitID: "target", Anchor: grid.Cell{X: 2, Y: 3}, Size: 1},
		grid.Cell{X: 1, Y: 3}, occ, Config{Distance: 5, StopsOnUnit: true, CollisionPercent: 50}, 10)

	assert.Equal(t, grid.Cell{X: 4, Y: 3}, out.To)
	assert.True(t, out.Collided)
	assert.Equal(t, CollisionUnit, out.Collision)
	assert.Equal(t, "wall", out.CollidedWith)
	assert.Equal(t, 5, out.CollisionDamage)
	assert.Equal(t, 2, out.Distance)
	assert.Equal(t, grid.East, out.Direction)
}

func TestPushStopsAtEdge(t *testing.T) {
	occ := board()
	out := Push(Target{UnitID: "u", Anchor: grid.Cell{X: 6, Y: 6}, Size: 1},
		grid.Cell{X: 5, Y: 5}, occ, Config{Distance: 3}, 10)
	assert.Equal(t, grid.Cell{X: 7, Y: 7}, out.To)
	assert.Equal(t, CollisionEdge, out.Collision)
	assert.Equal(t, grid.SouthEast, out.Direction)
	assert.Zero(t, out.CollisionDamage)
}

func TestPushFullDistanceNoCollision(t *testing.T) {
	occ := board()
	out := Push(Target{UnitID: "u", Anchor: grid.Cell{X: 3, Y: 3}, Size: 1},
		grid.Cell{X: 3, Y: 4}, occ, Config{Distance: 2, CollisionPercent: 100}, 10)
	assert.Equal(t, grid.Cell{X: 3, Y: 1}, out.To)
	assert.False(t, out.Collided)
	assert.Zero(t, out.CollisionDamage)
	assert.Equal(t, []grid.Cell{{X: 3, Y: 2}, {X: 3, Y: 1}}, out.Path)
}

func TestPushPassesOverWhenNotStopping(t *testing.T) {
	occ := board()
	occ.PlaceObstacle("rock", grid.Cell{X: 3, Y: 0}, 1)
	out := Push(Target{UnitID: "u", Anchor: grid.Cell{X: 2, Y: 0}, Size: 1},
		grid.Cell{X: 1, Y: 0}, occ, Config{Distance: 2}, 10)
	assert.Equal(t, grid.Cell{X: 4, Y: 0}, out.To)
	assert.False(t, out.Collided)

	stop := Push(Target{UnitID: "u", Anchor: grid.Cell{X: 2, Y: 0}, Size: 1},
		grid.Cell{X: 1, Y: 0}, occ, Config{Distance: 2, StopsOnObstacle: true}, 10)
	assert.Equal(t, grid.Cell{X: 2, Y: 0}, stop.To)
	assert.Equal(t, "rock", stop.CollidedWith)
}

func TestPushLandsOnLastFreeCell(t *testing.T) {
	occ := board()
	occ.PlaceUnit("other", grid.Cell{X: 7, Y: 0}, 1)
	out := Push(Target{UnitID: "u", Anchor: grid.Cell{X: 5, Y: 0}, Size: 1},
		grid.Cell{X: 4, Y: 0}, occ, Config{Distance: 3}, 10)
	assert.Equal(t, grid.Cell{X: 6, Y: 0}, out.To)
	assert.Equal(t, CollisionEdge, out.Collision)
}

func TestPushLargeUnitIgnoresOwnFootprint(t *testing.T) {
	occ := board()
	occ.PlaceUnit("big", grid.Cell{X: 2, Y: 2}, 4)
	out := Push(Target{UnitID: "big", Anchor: grid.Cell{X: 2, Y: 2}, Size: 4},
		grid.Cell{X: 1, Y: 2}, occ, Config{Distance: 1, StopsOnUnit: true}, 0)
	assert.Equal(t, grid.Cell{X: 3, Y: 2}, out.To)
	assert.False(t, out.Collided)
}

func TestPushFromOriginDoesNotMove(t *testing.T) {
	out := Push(Target{UnitID: "u", Anchor: grid.Cell{X: 1, Y: 1}, Size: 1},
		grid.Cell{X: 1, Y: 1}, board(), Config{Distance: 3}, 10)
	assert.Equal(t, out.From, out.To)
}

func TestResolveAllFarthestFirst(t *testing.T) {
	occ := board()
	occ.PlaceUnit("near", grid.Cell{X: 2, Y: 4}, 1)
	occ.PlaceUnit("far", grid.Cell{X: 3, Y: 4}, 1)
	targets := []Target{
		{UnitID: "near", Anchor: grid.Cell{X: 2, Y: 4}, Size: 1},
		{UnitID: "far", Anchor: grid.Cell{X: 3, Y: 4}, Size: 1},
	}

	out := ResolveAll(targets, grid.Cell{X: 1, Y: 4}, occ, Config{Distance: 2, StopsOnUnit: true}, 0)
	require.Len(t, out, 2)
	assert.Equal(t, "far", out[0].UnitID)
	assert.Equal(t, grid.Cell{X: 5, Y: 4}, out[0].To)
	assert.Equal(t, "near", out[1].UnitID)
	assert.Equal(t, grid.Cell{X: 4, Y: 4}, out[1].To)
	assert.False(t, out[1].Collided)

	id, ok := occ.UnitAt(grid.Cell{X: 5, Y: 4})
	require.True(t, ok)
	assert.Equal(t, "far", id)
}
