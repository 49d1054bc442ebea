package game

import (
	"fmt"
	"sort"

	"github.com/pefman/tactics-duel/internal/condition"
	apperrors "github.com/pefman/tactics-duel/internal/errors"
	"github.com/pefman/tactics-duel/internal/grid"
)

// Arena is the authoritative battle state: units indexed by stable id, the
// board and its obstacles. Resolvers never hold unit pointers across passes;
// every lookup goes through the id index.
type Arena struct {
	Bounds     grid.Bounds `json:"bounds"`
	Obstacles  []Obstacle  `json:"obstacles"`
	ActiveUnit string      `json:"active_unit"`
	Turn       int         `json:"turn"`
	Sequence   int64       `json:"sequence"`

	units map[string]*Unit
	order []string
}

// NewArena validates the layout and builds the index. Units keep the order
// they were given in.
func NewArena(bounds grid.Bounds, units []Unit, obstacles []Obstacle) (*Arena, error) {
	if bounds.Width <= 0 || bounds.Height <= 0 {
		return nil, fmt.Errorf("arena: invalid bounds %dx%d", bounds.Width, bounds.Height)
	}
	a := &Arena{
		Bounds:    bounds,
		Obstacles: append([]Obstacle(nil), obstacles...),
		units:     make(map[string]*Unit, len(units)),
	}
	occ := grid.NewOccupancy(bounds)
	for i := range a.Obstacles {
		o := &a.Obstacles[i]
		if o.Size == 0 {
			o.Size = 1
		}
		if !bounds.ContainsAll(grid.Footprint(o.Position, o.Size)) {
			return nil, fmt.Errorf("arena: obstacle %s out of bounds", o.ID)
		}
		if !o.Destroyed {
			occ.PlaceObstacle(o.ID, o.Position, o.Size)
		}
	}
	for _, u := range units {
		if u.ID == "" {
			return nil, fmt.Errorf("arena: unit without id")
		}
		if _, dup := a.units[u.ID]; dup {
			return nil, fmt.Errorf("arena: duplicate unit %s", u.ID)
		}
		if u.Size == 0 {
			u.Size = 1
		}
		if !grid.ValidSize(u.Size) {
			return nil, fmt.Errorf("arena: unit %s has invalid size %d", u.ID, u.Size)
		}
		if u.Alive && !occ.Free(u.Position, u.Size, u.ID) {
			return nil, fmt.Errorf("arena: unit %s does not fit at %s", u.ID, u.Position)
		}
		c := u.Clone()
		a.units[u.ID] = &c
		a.order = append(a.order, u.ID)
		if u.Alive {
			occ.PlaceUnit(u.ID, u.Position, u.Size)
		}
	}
	return a, nil
}

// Snapshot is the serialisable form of an arena.
type Snapshot struct {
	Bounds     grid.Bounds `json:"bounds"`
	Obstacles  []Obstacle  `json:"obstacles"`
	Units      []Unit      `json:"units"`
	ActiveUnit string      `json:"active_unit"`
	Turn       int         `json:"turn"`
	Sequence   int64       `json:"sequence"`
}

// Snapshot copies the full state.
func (a *Arena) Snapshot() Snapshot {
	return Snapshot{
		Bounds:     a.Bounds,
		Obstacles:  append([]Obstacle(nil), a.Obstacles...),
		Units:      a.Units(),
		ActiveUnit: a.ActiveUnit,
		Turn:       a.Turn,
		Sequence:   a.Sequence,
	}
}

// FromSnapshot rebuilds an arena.
func FromSnapshot(s Snapshot) (*Arena, error) {
	a, err := NewArena(s.Bounds, s.Units, s.Obstacles)
	if err != nil {
		return nil, err
	}
	a.ActiveUnit = s.ActiveUnit
	a.Turn = s.Turn
	a.Sequence = s.Sequence
	return a, nil
}

// Clone returns an independent deep copy.
func (a *Arena) Clone() *Arena {
	c := *a
	c.Obstacles = append([]Obstacle(nil), a.Obstacles...)
	c.order = append([]string(nil), a.order...)
	c.units = make(map[string]*Unit, len(a.units))
	for id, u := range a.units {
		cu := u.Clone()
		c.units[id] = &cu
	}
	return &c
}

// adopt replaces this arena's state with a staged copy.
func (a *Arena) adopt(staged *Arena) {
	*a = *staged
}

// Unit returns a copy of the unit with id.
func (a *Arena) Unit(id string) (Unit, bool) {
	u, ok := a.units[id]
	if !ok {
		return Unit{}, false
	}
	return u.Clone(), true
}

func (a *Arena) unit(id string) (*Unit, error) {
	u, ok := a.units[id]
	if !ok {
		return nil, apperrors.WithMetadata(apperrors.CodeInconsistentState,
			"unit vanished during resolution", map[string]string{"unit_id": id})
	}
	return u, nil
}

// Units returns copies of every unit in stable order.
func (a *Arena) Units() []Unit {
	out := make([]Unit, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.units[id].Clone())
	}
	return out
}

// UnitAt returns the live unit covering c.
func (a *Arena) UnitAt(c grid.Cell) (Unit, bool) {
	for _, id := range a.order {
		u := a.units[id]
		if u.Alive && u.Covers(c) {
			return u.Clone(), true
		}
	}
	return Unit{}, false
}

// Occupancy snapshots live units and standing obstacles.
func (a *Arena) Occupancy() *grid.Occupancy {
	occ := grid.NewOccupancy(a.Bounds)
	for _, o := range a.Obstacles {
		if !o.Destroyed {
			occ.PlaceObstacle(o.ID, o.Position, o.Size)
		}
	}
	for _, id := range a.order {
		u := a.units[id]
		if u.Alive {
			occ.PlaceUnit(u.ID, u.Position, u.Size)
		}
	}
	return occ
}

// Blocked reports whether c holds a standing obstacle.
func (a *Arena) Blocked(c grid.Cell) bool {
	for _, o := range a.Obstacles {
		if o.Destroyed {
			continue
		}
		for _, f := range grid.Footprint(o.Position, o.Size) {
			if f == c {
				return true
			}
		}
	}
	return false
}

// LineOfSight reports whether no standing obstacle lies strictly between
// from and to, and the line does not squeeze through the corner shared by two
// obstacles. Units do not block sight.
func (a *Arena) LineOfSight(from, to grid.Cell) bool {
	prev := from
	for _, c := range grid.Supercover(from, to) {
		if c != to && a.Blocked(c) {
			return false
		}
		if c.X != prev.X && c.Y != prev.Y &&
			a.Blocked(grid.Cell{X: c.X, Y: prev.Y}) && a.Blocked(grid.Cell{X: prev.X, Y: c.Y}) {
			return false
		}
		prev = c
	}
	return true
}

// TurnStart describes what BeginTurn changed.
type TurnStart struct {
	UnitID    string             `json:"unit_id"`
	Turn      int                `json:"turn"`
	Budget    Budget             `json:"budget"`
	Expired   []condition.Change `json:"expired,omitempty"`
	Cooldowns map[string]int     `json:"cooldowns,omitempty"`
}

// BeginTurn makes id the active unit, refills its per-turn budget and ticks
// its conditions and cooldowns.
func (a *Arena) BeginTurn(id string) (TurnStart, error) {
	u, ok := a.units[id]
	if !ok {
		return TurnStart{}, apperrors.WithMetadata(apperrors.CodeUnitNotFound,
			"unit not found", map[string]string{"unit_id": id})
	}
	if !u.Alive {
		return TurnStart{}, apperrors.New(apperrors.CodeCasterDefeated, "unit is defeated")
	}
	a.ActiveUnit = id
	a.Turn++
	u.Left = u.PerTurn
	expired := u.Conditions.Tick()
	for code, n := range u.Cooldowns {
		if n <= 1 {
			delete(u.Cooldowns, code)
			continue
		}
		u.Cooldowns[code] = n - 1
	}
	return TurnStart{
		UnitID:    id,
		Turn:      a.Turn,
		Budget:    u.Left,
		Expired:   expired,
		Cooldowns: u.Clone().Cooldowns,
	}, nil
}

// LiveOwners returns the distinct owners that still have a live unit, sorted.
func (a *Arena) LiveOwners() []string {
	seen := map[string]bool{}
	var out []string
	for _, id := range a.order {
		u := a.units[id]
		if u.Alive && !seen[u.Owner] {
			seen[u.Owner] = true
			out = append(out, u.Owner)
		}
	}
	sort.Strings(out)
	return out
}

// Over reports whether at most one owner has units left, and that owner.
func (a *Arena) Over() (string, bool) {
	owners := a.LiveOwners()
	switch len(owners) {
	case 0:
		return "", true
	case 1:
		return owners[0], true
	}
	return "", false
}
