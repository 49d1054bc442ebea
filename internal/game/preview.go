package game

import (
	"github.com/pefman/tactics-duel/internal/grid"
	"github.com/pefman/tactics-duel/internal/pattern"
	"github.com/pefman/tactics-duel/internal/projectile"
)

// Preview is the client-side prediction for a pending aim. It is computed
// from the same pure functions as the authoritative resolution but never
// rolls dice or mutates the arena.
type Preview struct {
	Ability    string      `json:"ability"`
	Selectable []grid.Cell `json:"selectable"`
	Hovered    *grid.Cell  `json:"hovered,omitempty"`
	Valid      bool        `json:"valid"`
	Reason     string      `json:"reason,omitempty"`
	Affected   []grid.Cell `json:"affected,omitempty"`
	Direction  grid.Octant `json:"direction"`
	Impact     *grid.Cell  `json:"impact,omitempty"`
	Explosion  []grid.Cell `json:"explosion,omitempty"`
	Path       []grid.Cell `json:"path,omitempty"`
}

// Preview lists the selectable cells of an ability and, when hovered is set,
// the footprint a confirmation there would affect. Projectiles are traced
// assuming every unit fails its dodge.
func (e *Executor) Preview(a *Arena, casterID, code string, hovered *grid.Cell) (Preview, error) {
	cells, err := e.SelectableCells(a, casterID, code)
	if err != nil {
		return Preview{}, err
	}
	out := Preview{Ability: code, Selectable: cells}
	if hovered == nil {
		return out, nil
	}
	out.Hovered = hovered

	caster, _ := a.Unit(casterID)
	target := *hovered
	pl, err := e.validate(a, Request{CasterID: casterID, Ability: code, TargetCell: &target})
	if err != nil {
		out.Reason = err.Error()
		return out, nil
	}
	out.Valid = true
	out.Direction = grid.DirectionTo(caster.Position, pl.target)
	out.Path = pl.path

	p := pl.pattern
	anchorTarget := pl.target
	if pl.selfCast {
		anchorTarget = caster.Position
	}
	out.Affected = pattern.Affected(p, caster.Position, anchorTarget, a.Bounds, a.Blocked)
	if p.Projectile == nil || pl.selfCast {
		return out, nil
	}

	pp := *p.Projectile
	dest := out.Affected
	if len(p.Offsets) <= 1 {
		dest = []grid.Cell{pl.target}
	}
	field := flightField{occ: a.Occupancy(), units: a.units, pl: pl}
	path := projectile.Path(caster.Position, dest, pp.Order, pp.TravelDistance)
	flight := projectile.Simulate(caster.Position, path, field, nil, projectile.ConfigFrom(pp))
	impact := flight.Impact
	out.Impact = &impact
	if pp.Explosion != nil {
		out.Explosion = projectile.Explosion(*pp.Explosion, caster.Position, impact, a.Bounds, a.Blocked)
	}
	return out, nil
}
