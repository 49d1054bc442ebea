package game

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pefman/tactics-duel/internal/condition"
	"github.com/pefman/tactics-duel/internal/damage"
	"github.com/pefman/tactics-duel/internal/engine"
	"github.com/pefman/tactics-duel/internal/pattern"
)

// EffectKind is the closed set of effect routines.
type EffectKind int

const (
	EffectDamage EffectKind = iota
	EffectHeal
	EffectTeleport
	EffectMove
	EffectCondition
	EffectKnockback
	EffectComposite
)

var effectNames = map[EffectKind]string{
	EffectDamage:    "damage",
	EffectHeal:      "heal",
	EffectTeleport:  "teleport",
	EffectMove:      "move",
	EffectCondition: "condition",
	EffectKnockback: "knockback",
	EffectComposite: "composite",
}

func (k EffectKind) String() string {
	if s, ok := effectNames[k]; ok {
		return s
	}
	return fmt.Sprintf("effect(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k EffectKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *EffectKind) UnmarshalText(text []byte) error {
	v, err := ParseEffectKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// ParseEffectKind parses an effect name.
func ParseEffectKind(s string) (EffectKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range effectNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown effect kind %q", s)
}

// Targeting constrains what a confirmed aim cell must hold.
type Targeting int

const (
	// TargetCell accepts any selectable cell.
	TargetCell Targeting = iota
	// TargetEmpty needs room for the caster's footprint.
	TargetEmpty
	// TargetUnit needs a live unit, friend or foe.
	TargetUnit
	// TargetEnemy needs a live hostile unit.
	TargetEnemy
	// TargetAlly needs a live friendly unit, the caster included.
	TargetAlly
	// TargetSelf only ever resolves on the caster.
	TargetSelf
)

var targetingNames = map[Targeting]string{
	TargetCell:  "cell",
	TargetEmpty: "empty",
	TargetUnit:  "unit",
	TargetEnemy: "enemy",
	TargetAlly:  "ally",
	TargetSelf:  "self",
}

func (t Targeting) String() string {
	if s, ok := targetingNames[t]; ok {
		return s
	}
	return fmt.Sprintf("targeting(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t Targeting) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Targeting) UnmarshalText(text []byte) error {
	v, err := ParseTargeting(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseTargeting parses a targeting name. Empty means cell.
func ParseTargeting(s string) (Targeting, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return TargetCell, nil
	}
	for t, n := range targetingNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown targeting %q", s)
}

// NeedsUnit reports whether the aim cell must hold a live unit.
func (t Targeting) NeedsUnit() bool {
	return t == TargetUnit || t == TargetEnemy || t == TargetAlly
}

// Value is a dynamic number: a fixed part, an optional attribute of the
// caster, a bonus and an optional dice expression, summed.
type Value struct {
	Fixed     int       `json:"fixed,omitempty"`
	Attribute Attribute `json:"attribute,omitempty"`
	Bonus     int       `json:"bonus,omitempty"`
	Dice      string    `json:"dice,omitempty"`
}

// Fixed returns a constant value.
func Fixed(n int) Value { return Value{Fixed: n} }

// Bound returns a value bound to an attribute plus bonus.
func Bound(attr Attribute, bonus int) Value { return Value{Attribute: attr, Bonus: bonus} }

// IsZero reports whether the value is unset.
func (v Value) IsZero() bool {
	return v == Value{}
}

// Resolve evaluates the value for a caster. Dice expressions draw from src.
func (v Value) Resolve(caster Unit, src engine.Source) (int, error) {
	n := v.Fixed + caster.Attributes.Get(v.Attribute) + v.Bonus
	if v.Dice != "" {
		rolled, err := engine.RollExpr(src, v.Dice)
		if err != nil {
			return 0, err
		}
		n += rolled
	}
	return max(n, 0), nil
}

// Static evaluates the value without dice, for previews and validation.
func (v Value) Static(caster Unit) int {
	return max(v.Fixed+caster.Attributes.Get(v.Attribute)+v.Bonus, 0)
}

// Contest names the attributes sizing each side of a contested roll.
type Contest struct {
	Attacker Attribute `json:"attacker"`
	Defender Attribute `json:"defender"`
}

// ConditionGrant applies a condition on resolution.
type ConditionGrant struct {
	Code     condition.Code `json:"code"`
	Duration Value          `json:"duration"`
	// OnSelf applies to the caster instead of the targets.
	OnSelf bool `json:"on_self,omitempty"`
}

// Knockback configures forced movement.
type Knockback struct {
	Distance         Value `json:"distance"`
	StopsOnUnit      bool  `json:"stops_on_unit"`
	StopsOnObstacle  bool  `json:"stops_on_obstacle"`
	CollisionPercent int   `json:"collision_percent,omitempty"`
}

// AbilityDefinition is an immutable catalog entry.
type AbilityDefinition struct {
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Kind      EffectKind      `json:"kind"`
	Effects   []EffectKind    `json:"effects,omitempty"`
	Targeting Targeting       `json:"targeting"`
	Pattern   pattern.Pattern `json:"pattern"`
	// Range overrides Pattern.MaxRange when set.
	Range Value `json:"range,omitempty"`

	ManaCost       int  `json:"mana_cost"`
	Cooldown       int  `json:"cooldown"`
	ConsumesAction bool `json:"consumes_action"`
	// Attack abilities may be paid with an extra attack.
	Attack bool `json:"attack,omitempty"`

	Contest    *Contest    `json:"contest,omitempty"`
	Dodge      *Contest    `json:"dodge,omitempty"`
	DamageType damage.Type `json:"damage_type"`
	Damage     Value       `json:"damage,omitempty"`
	Healing    Value       `json:"healing,omitempty"`

	Conditions       []ConditionGrant `json:"conditions,omitempty"`
	RemoveConditions []condition.Code `json:"remove_conditions,omitempty"`
	Knockback        *Knockback       `json:"knockback,omitempty"`

	RequiresLineOfSight bool           `json:"requires_line_of_sight,omitempty"`
	RequiresCondition   condition.Code `json:"requires_condition,omitempty"`
	FriendlyFire        bool           `json:"friendly_fire,omitempty"`
}

// Steps returns the effect routines in execution order.
func (d AbilityDefinition) Steps() []EffectKind {
	if d.Kind == EffectComposite {
		return d.Effects
	}
	return []EffectKind{d.Kind}
}

// Has reports whether the ability runs the given effect routine.
func (d AbilityDefinition) Has(kind EffectKind) bool {
	for _, k := range d.Steps() {
		if k == kind {
			return true
		}
	}
	return false
}

// Validate checks internal consistency of the definition.
func (d AbilityDefinition) Validate() error {
	if d.Code == "" {
		return fmt.Errorf("ability without code")
	}
	if d.Kind == EffectComposite {
		if len(d.Effects) == 0 {
			return fmt.Errorf("ability %s: composite without effects", d.Code)
		}
		for _, k := range d.Effects {
			if k == EffectComposite {
				return fmt.Errorf("ability %s: composite cannot nest", d.Code)
			}
		}
	}
	if d.ManaCost < 0 || d.Cooldown < 0 {
		return fmt.Errorf("ability %s: negative cost or cooldown", d.Code)
	}
	if d.Has(EffectKnockback) && d.Knockback == nil {
		return fmt.Errorf("ability %s: knockback effect without knockback settings", d.Code)
	}
	if d.Has(EffectCondition) && len(d.Conditions) == 0 && len(d.RemoveConditions) == 0 {
		return fmt.Errorf("ability %s: condition effect without conditions", d.Code)
	}
	if d.Dice() != "" && !engine.ValidExpr(d.Dice()) {
		return fmt.Errorf("ability %s: bad dice expression %q", d.Code, d.Dice())
	}
	return nil
}

// Dice returns the damage or healing dice expression, whichever is set.
func (d AbilityDefinition) Dice() string {
	if d.Damage.Dice != "" {
		return d.Damage.Dice
	}
	return d.Healing.Dice
}

// Catalog maps ability codes to definitions, plus the condition rules the
// executor consults.
type Catalog struct {
	Abilities  map[string]AbilityDefinition
	Conditions condition.Registry
	// BaseDodge is the fixed dodge chance every unit starts from, in percent.
	BaseDodge int
}

// NewCatalog validates and indexes definitions.
func NewCatalog(defs []AbilityDefinition, rules condition.Registry) (*Catalog, error) {
	c := &Catalog{Abilities: make(map[string]AbilityDefinition, len(defs)), Conditions: rules}
	if c.Conditions == nil {
		c.Conditions = condition.Registry{}
	}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.Abilities[d.Code]; dup {
			return nil, fmt.Errorf("duplicate ability %s", d.Code)
		}
		c.Abilities[d.Code] = d
	}
	return c, nil
}

// Ability looks up a definition.
func (c *Catalog) Ability(code string) (AbilityDefinition, bool) {
	d, ok := c.Abilities[code]
	return d, ok
}

// Codes returns all ability codes, sorted.
func (c *Catalog) Codes() []string {
	out := make([]string, 0, len(c.Abilities))
	for code := range c.Abilities {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
