// Package pattern expands ability footprints into concrete grid cells.
//
// A Pattern is pure data. Selectable answers "where may the player aim",
// Affected answers "which cells does the confirmed aim cover". Both are
// side-effect free so clients can run them for previews.
package pattern

import (
	"fmt"
	"strings"

	"github.com/pefman/tactics-duel/internal/grid"
)

// Origin selects the anchor of a pattern.
type Origin int

const (
	// OriginCaster anchors offsets at the caster.
	OriginCaster Origin = iota
	// OriginTarget anchors offsets at the clicked cell.
	OriginTarget
	// OriginDirection anchors at the caster and turns offsets toward the clicked cell.
	OriginDirection
)

func (o Origin) String() string {
	switch o {
	case OriginTarget:
		return "target"
	case OriginDirection:
		return "direction"
	default:
		return "caster"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Origin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Origin) UnmarshalText(text []byte) error {
	v, err := ParseOrigin(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// ParseOrigin parses an origin mode. Empty means caster.
func ParseOrigin(s string) (Origin, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "caster", "self":
		return OriginCaster, nil
	case "target", "clicked":
		return OriginTarget, nil
	case "direction":
		return OriginDirection, nil
	default:
		return 0, fmt.Errorf("unknown pattern origin %q", s)
	}
}

// Order is the cell visitation order of a projectile.
type Order int

const (
	OrderNearest Order = iota
	OrderSequential
	OrderReverse
)

func (o Order) String() string {
	switch o {
	case OrderSequential:
		return "sequential"
	case OrderReverse:
		return "reverse"
	default:
		return "nearest"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Order) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Order) UnmarshalText(text []byte) error {
	v, err := ParseOrder(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// ParseOrder parses a visitation order. Empty means nearest.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nearest":
		return OrderNearest, nil
	case "sequential":
		return OrderSequential, nil
	case "reverse":
		return OrderReverse, nil
	default:
		return 0, fmt.Errorf("unknown projectile order %q", s)
	}
}

// Offset is a cell delta from the anchor, defined facing east.
type Offset struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// Projectile holds the travel parameters of a projectile pattern.
type Projectile struct {
	Piercing        bool     `json:"piercing"`
	MaxTargets      int      `json:"max_targets,omitempty"`
	Order           Order    `json:"order"`
	TravelDistance  int      `json:"travel_distance,omitempty"`
	StopsOnObstacle bool     `json:"stops_on_obstacle"`
	StopsOnUnit     bool     `json:"stops_on_unit"`
	Interactive     bool     `json:"interactive,omitempty"`
	Explosion       *Pattern `json:"explosion,omitempty"`
}

// Pattern describes the footprint of an ability.
type Pattern struct {
	Origin           Origin      `json:"origin"`
	Offsets          []Offset    `json:"offsets"`
	Rotate           bool        `json:"rotate,omitempty"`
	MinRange         int         `json:"min_range,omitempty"`
	MaxRange         int         `json:"max_range"`
	Metric           grid.Metric `json:"metric"`
	IncludeSelf      bool        `json:"include_self,omitempty"`
	ExcludeObstacles bool        `json:"exclude_obstacles,omitempty"`
	Projectile       *Projectile `json:"projectile,omitempty"`
}

// Blocked reports whether a cell holds a live obstacle. A nil Blocked means
// nothing blocks.
type Blocked func(grid.Cell) bool

// Selectable returns the valid aim points around caster, in row-major order.
// A MaxRange of 0 offers the caster cell only.
func Selectable(p Pattern, caster grid.Cell, bounds grid.Bounds, blocked Blocked) []grid.Cell {
	if p.MaxRange <= 0 {
		if bounds.Contains(caster) {
			return []grid.Cell{caster}
		}
		return nil
	}
	minRange := max(p.MinRange, 1)
	out := make([]grid.Cell, 0)
	for y := caster.Y - p.MaxRange; y <= caster.Y+p.MaxRange; y++ {
		for x := caster.X - p.MaxRange; x <= caster.X+p.MaxRange; x++ {
			c := grid.Cell{X: x, Y: y}
			if c == caster {
				if p.IncludeSelf {
					out = append(out, c)
				}
				continue
			}
			if !bounds.Contains(c) {
				continue
			}
			d := p.Metric.Distance(caster, c)
			if d < minRange || d > p.MaxRange {
				continue
			}
			if p.ExcludeObstacles && blocked != nil && blocked(c) {
				continue
			}
			out = append(out, c)
		}
	}
	return out
}

// InRange reports whether target is one of the selectable cells.
func InRange(p Pattern, caster, target grid.Cell, bounds grid.Bounds, blocked Blocked) bool {
	for _, c := range Selectable(p, caster, bounds, blocked) {
		if c == target {
			return true
		}
	}
	return false
}

// Anchor returns the anchor cell and facing octant for a confirmed aim.
func Anchor(p Pattern, caster, target grid.Cell) (grid.Cell, grid.Octant) {
	dir := grid.DirectionTo(caster, target)
	if p.Origin == OriginTarget {
		return target, dir
	}
	return caster, dir
}

// Affected returns the full footprint once target is confirmed. Offsets keep
// their declared order; duplicates after rotation are dropped.
func Affected(p Pattern, caster, target grid.Cell, bounds grid.Bounds, blocked Blocked) []grid.Cell {
	anchor, dir := Anchor(p, caster, target)
	rotate := p.Origin == OriginDirection || p.Rotate

	offsets := p.Offsets
	if len(offsets) == 0 {
		offsets = []Offset{{}}
	}
	seen := make(map[grid.Cell]struct{}, len(offsets))
	out := make([]grid.Cell, 0, len(offsets))
	for _, off := range offsets {
		dx, dy := off.DX, off.DY
		if rotate {
			dx, dy = grid.Rotate(dx, dy, dir)
		}
		c := anchor.Add(dx, dy)
		if !bounds.Contains(c) {
			continue
		}
		if p.ExcludeObstacles && blocked != nil && blocked(c) {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
