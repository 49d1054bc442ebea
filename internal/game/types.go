package game

import (
	"fmt"
	"strings"

	"github.com/pefman/tactics-duel/internal/condition"
	"github.com/pefman/tactics-duel/internal/damage"
	"github.com/pefman/tactics-duel/internal/grid"
)

// Attribute names one of the six unit attributes.
type Attribute string

const (
	Combat     Attribute = "combat"
	Speed      Attribute = "speed"
	Focus      Attribute = "focus"
	Resistance Attribute = "resistance"
	Will       Attribute = "will"
	Vitality   Attribute = "vitality"
)

// ParseAttribute parses an attribute name. Empty is allowed and means none.
func ParseAttribute(s string) (Attribute, error) {
	a := Attribute(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case "", Combat, Speed, Focus, Resistance, Will, Vitality:
		return a, nil
	}
	return "", fmt.Errorf("unknown attribute %q", s)
}

// Attributes is the stat block of a unit.
type Attributes struct {
	Combat     int `json:"combat" yaml:"combat"`
	Speed      int `json:"speed" yaml:"speed"`
	Focus      int `json:"focus" yaml:"focus"`
	Resistance int `json:"resistance" yaml:"resistance"`
	Will       int `json:"will" yaml:"will"`
	Vitality   int `json:"vitality" yaml:"vitality"`
}

// Get returns the value of attr, 0 for none.
func (a Attributes) Get(attr Attribute) int {
	switch attr {
	case Combat:
		return a.Combat
	case Speed:
		return a.Speed
	case Focus:
		return a.Focus
	case Resistance:
		return a.Resistance
	case Will:
		return a.Will
	case Vitality:
		return a.Vitality
	}
	return 0
}

// Mitigation returns the defence attribute used against a damage type.
func (a Attributes) Mitigation(t damage.Type) int {
	switch t {
	case damage.Physical:
		return a.Resistance
	case damage.Magical:
		return a.Will
	}
	return 0
}

// Budget is a set of per-turn resources.
type Budget struct {
	Actions      int `json:"actions" yaml:"actions"`
	Moves        int `json:"moves" yaml:"moves"`
	ExtraAttacks int `json:"extra_attacks" yaml:"extra_attacks"`
}

// Unit is one combatant.
type Unit struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Owner    string    `json:"owner"`
	Position grid.Cell `json:"position"`
	Size     int       `json:"size"`
	Alive    bool      `json:"alive"`

	HP                    int  `json:"hp"`
	MaxHP                 int  `json:"max_hp"`
	Mana                  int  `json:"mana"`
	MaxMana               int  `json:"max_mana"`
	PhysicalProtection    int  `json:"physical_protection"`
	MaxPhysicalProtection int  `json:"max_physical_protection"`
	MagicalProtection     int  `json:"magical_protection"`
	MaxMagicalProtection  int  `json:"max_magical_protection"`
	PhysicalBroken        bool `json:"physical_broken"`
	MagicalBroken         bool `json:"magical_broken"`

	Attributes Attributes `json:"attributes"`
	PerTurn    Budget     `json:"per_turn"`
	Left       Budget     `json:"left"`

	Conditions condition.Ledger `json:"conditions"`
	Abilities  []string         `json:"abilities"`
	Cooldowns  map[string]int   `json:"cooldowns,omitempty"`
	// Interactive owners answer projectile dodges with a timed input.
	Interactive bool `json:"interactive,omitempty"`
}

// Clone returns a deep copy.
func (u Unit) Clone() Unit {
	c := u
	c.Conditions = u.Conditions.Clone()
	c.Abilities = append([]string(nil), u.Abilities...)
	if u.Cooldowns != nil {
		c.Cooldowns = make(map[string]int, len(u.Cooldowns))
		for k, v := range u.Cooldowns {
			c.Cooldowns[k] = v
		}
	}
	return c
}

// Footprint returns the cells the unit covers.
func (u Unit) Footprint() []grid.Cell {
	return grid.Footprint(u.Position, u.Size)
}

// Covers reports whether c is part of the unit's footprint.
func (u Unit) Covers(c grid.Cell) bool {
	for _, f := range u.Footprint() {
		if f == c {
			return true
		}
	}
	return false
}

// Knows reports whether the ability is in the unit's kit.
func (u Unit) Knows(code string) bool {
	for _, a := range u.Abilities {
		if a == code {
			return true
		}
	}
	return false
}

// Hostile reports whether other belongs to a different owner.
func (u Unit) Hostile(other Unit) bool {
	return u.Owner != other.Owner
}

// Pools returns the unit's depletable layers.
func (u Unit) Pools() damage.Pools {
	return damage.Pools{
		HP:                    u.HP,
		MaxHP:                 u.MaxHP,
		PhysicalProtection:    u.PhysicalProtection,
		MaxPhysicalProtection: u.MaxPhysicalProtection,
		MagicalProtection:     u.MagicalProtection,
		MaxMagicalProtection:  u.MaxMagicalProtection,
		PhysicalBroken:        u.PhysicalBroken,
		MagicalBroken:         u.MagicalBroken,
	}
}

// SetPools writes back the layers. A unit at 0 HP is no longer alive.
func (u *Unit) SetPools(p damage.Pools) {
	u.HP = p.HP
	u.PhysicalProtection = p.PhysicalProtection
	u.MagicalProtection = p.MagicalProtection
	u.PhysicalBroken = p.PhysicalBroken
	u.MagicalBroken = p.MagicalBroken
	if u.HP <= 0 {
		u.HP = 0
		u.Alive = false
	}
}

// Obstacle is a static grid occupant.
type Obstacle struct {
	ID        string    `json:"id"`
	Position  grid.Cell `json:"position"`
	Size      int       `json:"size"`
	Destroyed bool      `json:"destroyed"`
}
