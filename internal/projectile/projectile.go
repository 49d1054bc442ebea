// Package projectile walks a projectile cell by cell along its path,
// resolving obstacles, dodges, piercing and the impact point.
package projectile

import (
	"sort"

	"github.com/pefman/tactics-duel/internal/grid"
	"github.com/pefman/tactics-duel/internal/pattern"
)

// Field answers occupancy questions about the board. Implementations must
// only report live units and undestroyed obstacles.
type Field interface {
	InBounds(c grid.Cell) bool
	ObstacleAt(c grid.Cell) (string, bool)
	UnitAt(c grid.Cell) (string, bool)
}

// Dodge is the answer of a dodge resolution.
type Dodge int

const (
	// DodgeFailed means the unit is struck.
	DodgeFailed Dodge = iota
	// DodgeSucceeded lets the projectile continue past the unit.
	DodgeSucceeded
	// DodgeDeferred pauses the flight until an interactive input arrives.
	DodgeDeferred
)

// DodgeFunc resolves a dodge for the unit at cell.
type DodgeFunc func(unitID string, cell grid.Cell) Dodge

// Config is the travel behaviour of one projectile.
type Config struct {
	Piercing        bool
	MaxTargets      int
	StopsOnObstacle bool
	StopsOnUnit     bool
}

// ConfigFrom extracts travel behaviour from pattern parameters.
func ConfigFrom(p pattern.Projectile) Config {
	return Config{
		Piercing:        p.Piercing,
		MaxTargets:      p.MaxTargets,
		StopsOnObstacle: p.StopsOnObstacle,
		StopsOnUnit:     p.StopsOnUnit,
	}
}

// Halt explains why a flight ended.
type Halt string

const (
	HaltEndOfPath   Halt = "end_of_path"
	HaltObstacle    Halt = "obstacle"
	HaltUnit        Halt = "unit"
	HaltMaxTargets  Halt = "max_targets"
	HaltOutOfBounds Halt = "out_of_bounds"
	HaltDeferred    Halt = "deferred"
)

// Step is one visited cell.
type Step struct {
	Cell       grid.Cell `json:"cell"`
	UnitID     string    `json:"unit_id,omitempty"`
	ObstacleID string    `json:"obstacle_id,omitempty"`
	Dodged     bool      `json:"dodged,omitempty"`
	Struck     bool      `json:"struck,omitempty"`
}

// Flight is the full travel outcome.
type Flight struct {
	Origin      grid.Cell   `json:"origin"`
	Path        []grid.Cell `json:"path"`
	Steps       []Step      `json:"steps"`
	Struck      []string    `json:"struck,omitempty"`
	Dodged      []string    `json:"dodged,omitempty"`
	Impact      grid.Cell   `json:"impact"`
	HitObstacle string      `json:"hit_obstacle,omitempty"`
	Halt        Halt        `json:"halt"`
	// AwaitingUnit is set when a dodge was deferred.
	AwaitingUnit string `json:"awaiting_unit,omitempty"`
}

// Path orders the cells a projectile will visit. With a single destination
// the path is the straight line from origin. With several cells (a shaped
// projectile) they are ordered by policy: nearest-first by Chebyshev then
// Manhattan distance, or the declared order, or its reverse. A positive
// travelDistance truncates the path.
func Path(origin grid.Cell, cells []grid.Cell, order pattern.Order, travelDistance int) []grid.Cell {
	var path []grid.Cell
	switch {
	case len(cells) == 0:
		return nil
	case len(cells) == 1:
		path = grid.Line(origin, cells[0])
	default:
		path = append([]grid.Cell(nil), cells...)
		switch order {
		case pattern.OrderReverse:
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
		case pattern.OrderNearest:
			sort.SliceStable(path, func(i, j int) bool {
				ci, cj := grid.Chebyshev(origin, path[i]), grid.Chebyshev(origin, path[j])
				if ci != cj {
					return ci < cj
				}
				return grid.Manhattan(origin, path[i]) < grid.Manhattan(origin, path[j])
			})
		}
	}
	if travelDistance > 0 && len(path) > travelDistance {
		path = path[:travelDistance]
	}
	return path
}

// Simulate walks path. A unit is offered at most one dodge and struck at most
// once per flight, even when its footprint spans several path cells.
func Simulate(origin grid.Cell, path []grid.Cell, field Field, dodge DodgeFunc, cfg Config) Flight {
	f := Flight{Origin: origin, Path: path, Impact: origin, Halt: HaltEndOfPath}
	struck := map[string]bool{}
	dodged := map[string]bool{}

	for _, c := range path {
		if !field.InBounds(c) {
			f.Halt = HaltOutOfBounds
			return f
		}
		step := Step{Cell: c}
		f.Impact = c

		if id, ok := field.ObstacleAt(c); ok {
			step.ObstacleID = id
			if cfg.StopsOnObstacle {
				f.Steps = append(f.Steps, step)
				f.HitObstacle = id
				f.Halt = HaltObstacle
				return f
			}
		}

		id, ok := field.UnitAt(c)
		if !ok || struck[id] || dodged[id] {
			f.Steps = append(f.Steps, step)
			continue
		}
		step.UnitID = id

		answer := DodgeFailed
		if !cfg.StopsOnUnit && dodge != nil {
			answer = dodge(id, c)
		}
		switch answer {
		case DodgeDeferred:
			f.Steps = append(f.Steps, step)
			f.AwaitingUnit = id
			f.Halt = HaltDeferred
			return f
		case DodgeSucceeded:
			step.Dodged = true
			dodged[id] = true
			f.Dodged = append(f.Dodged, id)
			f.Steps = append(f.Steps, step)
			continue
		}

		step.Struck = true
		struck[id] = true
		f.Struck = append(f.Struck, id)
		f.Steps = append(f.Steps, step)

		if !cfg.Piercing {
			f.Halt = HaltUnit
			return f
		}
		if cfg.MaxTargets > 0 && len(f.Struck) >= cfg.MaxTargets {
			f.Halt = HaltMaxTargets
			return f
		}
	}
	return f
}

// Explosion resolves the explosion footprint anchored at the impact point.
// It is a second pattern pass with the impact as the clicked cell.
func Explosion(p pattern.Pattern, origin, impact grid.Cell, bounds grid.Bounds, blocked pattern.Blocked) []grid.Cell {
	p.Origin = pattern.OriginTarget
	return pattern.Affected(p, origin, impact, bounds, blocked)
}
