package game

import (
	"github.com/pefman/tactics-duel/internal/grid"
)

// findPath returns the shortest 8-way walk for u from its anchor to to, start
// excluded, or nil when to is unreachable within limit steps. Every step must
// fit the unit's whole footprint. Neighbours are expanded in octant order, so
// the path is deterministic.
func findPath(occ *grid.Occupancy, u Unit, to grid.Cell, limit int) []grid.Cell {
	from := u.Position
	if from == to || limit <= 0 {
		return nil
	}
	prev := map[grid.Cell]grid.Cell{from: from}
	depth := map[grid.Cell]int{from: 0}
	queue := []grid.Cell{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if depth[cur] >= limit {
			continue
		}
		for _, n := range grid.Neighbors(cur) {
			if _, seen := prev[n]; seen {
				continue
			}
			if !occ.Free(n, u.Size, u.ID) {
				continue
			}
			prev[n] = cur
			depth[n] = depth[cur] + 1
			if n == to {
				return walkBack(prev, from, to)
			}
			queue = append(queue, n)
		}
	}
	return nil
}

func walkBack(prev map[grid.Cell]grid.Cell, from, to grid.Cell) []grid.Cell {
	var rev []grid.Cell
	for c := to; c != from; c = prev[c] {
		rev = append(rev, c)
	}
	out := make([]grid.Cell, len(rev))
	for i, c := range rev {
		out[len(rev)-1-i] = c
	}
	return out
}
