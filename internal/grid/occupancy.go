package grid

// Occupancy is a working snapshot of who stands where. Every footprint cell of
// an occupant maps back to its id. Resolvers that move units during one pass
// (knockback, teleports) update it so later steps see the new layout.
type Occupancy struct {
	Bounds    Bounds
	units     map[Cell]string
	obstacles map[Cell]string
}

// NewOccupancy returns an empty board of the given bounds.
func NewOccupancy(b Bounds) *Occupancy {
	return &Occupancy{
		Bounds:    b,
		units:     map[Cell]string{},
		obstacles: map[Cell]string{},
	}
}

// PlaceUnit marks the footprint of a unit.
func (o *Occupancy) PlaceUnit(id string, anchor Cell, size int) {
	for _, c := range Footprint(anchor, size) {
		o.units[c] = id
	}
}

// PlaceObstacle marks the footprint of an obstacle.
func (o *Occupancy) PlaceObstacle(id string, anchor Cell, size int) {
	for _, c := range Footprint(anchor, size) {
		o.obstacles[c] = id
	}
}

// RemoveUnit clears every cell held by id.
func (o *Occupancy) RemoveUnit(id string) {
	for c, held := range o.units {
		if held == id {
			delete(o.units, c)
		}
	}
}

// MoveUnit re-anchors a unit.
func (o *Occupancy) MoveUnit(id string, to Cell, size int) {
	o.RemoveUnit(id)
	o.PlaceUnit(id, to, size)
}

// InBounds reports whether c lies on the board.
func (o *Occupancy) InBounds(c Cell) bool { return o.Bounds.Contains(c) }

// UnitAt returns the unit covering c.
func (o *Occupancy) UnitAt(c Cell) (string, bool) {
	id, ok := o.units[c]
	return id, ok
}

// ObstacleAt returns the obstacle covering c.
func (o *Occupancy) ObstacleAt(c Cell) (string, bool) {
	id, ok := o.obstacles[c]
	return id, ok
}

// Blocked reports whether c holds an obstacle.
func (o *Occupancy) Blocked(c Cell) bool {
	_, ok := o.obstacles[c]
	return ok
}

// Free reports whether every footprint cell at anchor is on the board and
// unoccupied, ignoring cells held by self.
func (o *Occupancy) Free(anchor Cell, size int, self string) bool {
	for _, c := range Footprint(anchor, size) {
		if !o.Bounds.Contains(c) {
			return false
		}
		if _, ok := o.obstacles[c]; ok {
			return false
		}
		if id, ok := o.units[c]; ok && id != self {
			return false
		}
	}
	return true
}
