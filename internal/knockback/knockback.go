// Package knockback resolves forced movement away from an effect origin.
package knockback

import (
	"sort"

	"github.com/pefman/tactics-duel/internal/grid"
)

// Field is the occupancy seen by a push.
type Field interface {
	InBounds(c grid.Cell) bool
	ObstacleAt(c grid.Cell) (string, bool)
	UnitAt(c grid.Cell) (string, bool)
}

// Config is the per-ability knockback behaviour.
type Config struct {
	Distance        int  `json:"distance"`
	StopsOnUnit     bool `json:"stops_on_unit"`
	StopsOnObstacle bool `json:"stops_on_obstacle"`
	// CollisionPercent of the ability's damage is dealt when a push stops early.
	CollisionPercent int `json:"collision_percent,omitempty"`
}

// Collision says what ended a push early.
type Collision string

const (
	CollisionNone     Collision = ""
	CollisionEdge     Collision = "edge"
	CollisionObstacle Collision = "obstacle"
	CollisionUnit     Collision = "unit"
)

// Target is a unit to push.
type Target struct {
	UnitID string
	Anchor grid.Cell
	Size   int
}

// Outcome is the result of one push.
type Outcome struct {
	UnitID          string      `json:"unit_id"`
	From            grid.Cell   `json:"from"`
	To              grid.Cell   `json:"to"`
	Direction       grid.Octant `json:"direction"`
	Path            []grid.Cell `json:"path,omitempty"`
	Distance        int         `json:"distance"`
	Collided        bool        `json:"collided"`
	Collision       Collision   `json:"collision,omitempty"`
	CollidedWith    string      `json:"collided_with,omitempty"`
	CollisionDamage int         `json:"collision_damage,omitempty"`
}

// Push moves t up to cfg.Distance cells directly away from origin. The board
// edge always stops it. Units and obstacles stop it when configured; otherwise
// it passes over them and lands on the last cell where its whole footprint
// fits. A unit standing on the origin is not moved.
func Push(t Target, origin grid.Cell, field Field, cfg Config, abilityDamage int) Outcome {
	out := Outcome{UnitID: t.UnitID, From: t.Anchor, To: t.Anchor}
	if t.Anchor == origin || cfg.Distance <= 0 {
		return out
	}
	dir := grid.DirectionTo(origin, t.Anchor)
	out.Direction = dir
	dx, dy := dir.Vector()

	cur := t.Anchor
	var walked []grid.Cell
	for step := 0; step < cfg.Distance; step++ {
		next := cur.Add(dx, dy)
		kind, with, free := probe(t, next, field)
		if kind == CollisionEdge ||
			(kind == CollisionObstacle && cfg.StopsOnObstacle) ||
			(kind == CollisionUnit && cfg.StopsOnUnit) {
			out.Collided = true
			out.Collision = kind
			out.CollidedWith = with
			break
		}
		cur = next
		walked = append(walked, cur)
		if free {
			out.To = cur
			out.Path = append([]grid.Cell(nil), walked...)
		}
	}

	out.Distance = grid.Chebyshev(out.From, out.To)
	if out.Collided && cfg.CollisionPercent > 0 {
		out.CollisionDamage = cfg.CollisionPercent * abilityDamage / 100
	}
	return out
}

// probe reports the first blocker in the footprint at anchor, ignoring the
// pushed unit itself.
func probe(t Target, anchor grid.Cell, field Field) (Collision, string, bool) {
	kind, with := CollisionNone, ""
	for _, c := range grid.Footprint(anchor, t.Size) {
		if !field.InBounds(c) {
			return CollisionEdge, "", false
		}
		if id, ok := field.ObstacleAt(c); ok && kind == CollisionNone {
			kind, with = CollisionObstacle, id
			continue
		}
		if id, ok := field.UnitAt(c); ok && id != t.UnitID && kind == CollisionNone {
			kind, with = CollisionUnit, id
		}
	}
	return kind, with, kind == CollisionNone
}

// ResolveAll pushes every target, farthest from origin first, so units at the
// back clear space for those in front. The occupancy is updated after each
// push.
func ResolveAll(targets []Target, origin grid.Cell, occ *grid.Occupancy, cfg Config, abilityDamage int) []Outcome {
	ordered := append([]Target(nil), targets...)
	sort.SliceStable(ordered, func(i, j int) bool {
		ci, cj := grid.Chebyshev(origin, ordered[i].Anchor), grid.Chebyshev(origin, ordered[j].Anchor)
		if ci != cj {
			return ci > cj
		}
		mi, mj := grid.Manhattan(origin, ordered[i].Anchor), grid.Manhattan(origin, ordered[j].Anchor)
		if mi != mj {
			return mi > mj
		}
		return ordered[i].UnitID < ordered[j].UnitID
	})

	out := make([]Outcome, 0, len(ordered))
	for _, t := range ordered {
		o := Push(t, origin, occ, cfg, abilityDamage)
		if o.To != o.From {
			occ.MoveUnit(t.UnitID, o.To, t.Size)
		}
		out = append(out, o)
	}
	return out
}
