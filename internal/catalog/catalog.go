// Package catalog loads ability definitions, condition rules and battle
// scenarios from YAML.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pefman/tactics-duel/internal/condition"
	"github.com/pefman/tactics-duel/internal/damage"
	"github.com/pefman/tactics-duel/internal/engine"
	apperrors "github.com/pefman/tactics-duel/internal/errors"
	"github.com/pefman/tactics-duel/internal/game"
	"github.com/pefman/tactics-duel/internal/grid"
	"github.com/pefman/tactics-duel/internal/pattern"
)

//go:embed data/abilities.yaml
var defaultCatalog []byte

// File is the root of a catalog document.
type File struct {
	BaseDodge  int          `yaml:"base_dodge"`
	Conditions []RawRule    `yaml:"conditions"`
	Abilities  []RawAbility `yaml:"abilities"`
}

// RawRule is a condition rule as written in YAML.
type RawRule struct {
	Code             string `yaml:"code"`
	Stacking         string `yaml:"stacking"`
	MaxDuration      int    `yaml:"max_duration"`
	MaxStacks        int    `yaml:"max_stacks"`
	DodgeBonus       int    `yaml:"dodge_bonus"`
	AttackAdvantage  int    `yaml:"attack_advantage"`
	DefenseAdvantage int    `yaml:"defense_advantage"`
	Disables         bool   `yaml:"disables"`
	GrantsDash       bool   `yaml:"grants_dash"`
	Roots            bool   `yaml:"roots"`
	Interactive      bool   `yaml:"interactive"`
}

// RawValue accepts a plain number, a dice expression such as "1d6+2", or a
// mapping with fixed/attribute/bonus/dice keys.
type RawValue struct {
	Fixed     int    `yaml:"fixed"`
	Attribute string `yaml:"attribute"`
	Bonus     int    `yaml:"bonus"`
	Dice      string `yaml:"dice"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *RawValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s := strings.TrimSpace(node.Value)
		if n, err := strconv.Atoi(s); err == nil {
			*v = RawValue{Fixed: n}
			return nil
		}
		if !engine.ValidExpr(s) {
			return fmt.Errorf("line %d: %q is neither a number nor a dice expression", node.Line, s)
		}
		*v = RawValue{Dice: s}
		return nil
	}
	type plain RawValue
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*v = RawValue(p)
	return nil
}

// RawContest names the attributes of a contested roll.
type RawContest struct {
	Attacker string `yaml:"attacker"`
	Defender string `yaml:"defender"`
}

// RawProjectile is the projectile block of a pattern.
type RawProjectile struct {
	Piercing        bool        `yaml:"piercing"`
	MaxTargets      int         `yaml:"max_targets"`
	Order           string      `yaml:"order"`
	TravelDistance  int         `yaml:"travel_distance"`
	StopsOnObstacle *bool       `yaml:"stops_on_obstacle"`
	StopsOnUnit     bool        `yaml:"stops_on_unit"`
	Interactive     bool        `yaml:"interactive"`
	Explosion       *RawPattern `yaml:"explosion"`
}

// RawPattern is a pattern as written in YAML. Shape and Size expand into
// offsets; explicit Offsets are [dx, dy] pairs facing east.
type RawPattern struct {
	Shape            string         `yaml:"shape"`
	Size             int            `yaml:"size"`
	Offsets          [][]int        `yaml:"offsets"`
	Origin           string         `yaml:"origin"`
	Rotate           bool           `yaml:"rotate"`
	MinRange         int            `yaml:"min_range"`
	MaxRange         int            `yaml:"max_range"`
	Metric           string         `yaml:"metric"`
	IncludeSelf      bool           `yaml:"include_self"`
	ExcludeObstacles bool           `yaml:"exclude_obstacles"`
	Projectile       *RawProjectile `yaml:"projectile"`
}

// RawGrant is a condition application.
type RawGrant struct {
	Code     string   `yaml:"code"`
	Duration RawValue `yaml:"duration"`
	OnSelf   bool     `yaml:"on_self"`
}

// RawKnockback is the forced-movement block.
type RawKnockback struct {
	Distance         RawValue `yaml:"distance"`
	StopsOnUnit      bool     `yaml:"stops_on_unit"`
	StopsOnObstacle  bool     `yaml:"stops_on_obstacle"`
	CollisionPercent int      `yaml:"collision_percent"`
}

// RawAbility is an ability as written in YAML.
type RawAbility struct {
	Code                string        `yaml:"code"`
	Name                string        `yaml:"name"`
	Kind                string        `yaml:"kind"`
	Effects             []string      `yaml:"effects"`
	Targeting           string        `yaml:"targeting"`
	Pattern             RawPattern    `yaml:"pattern"`
	Range               *RawValue     `yaml:"range"`
	ManaCost            int           `yaml:"mana_cost"`
	Cooldown            int           `yaml:"cooldown"`
	ConsumesAction      *bool         `yaml:"consumes_action"`
	Attack              bool          `yaml:"attack"`
	Contest             *RawContest   `yaml:"contest"`
	Dodge               *RawContest   `yaml:"dodge"`
	DamageType          string        `yaml:"damage_type"`
	Damage              *RawValue     `yaml:"damage"`
	Healing             *RawValue     `yaml:"healing"`
	Conditions          []RawGrant    `yaml:"conditions"`
	RemoveConditions    []string      `yaml:"remove_conditions"`
	Knockback           *RawKnockback `yaml:"knockback"`
	RequiresLineOfSight bool          `yaml:"requires_line_of_sight"`
	RequiresCondition   string        `yaml:"requires_condition"`
	FriendlyFire        bool          `yaml:"friendly_fire"`
}

// Load reads a catalog file.
func Load(filename string) (*game.Catalog, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// MustLoad loads a catalog or panics.
func MustLoad(filename string) *game.Catalog {
	c, err := Load(filename)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the built-in catalog.
func Default() (*game.Catalog, error) {
	return Parse(defaultCatalog)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*game.Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeCatalogInvalid, "failed to parse catalog", err)
	}
	c, err := f.Build()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeCatalogInvalid, err.Error(), err)
	}
	return c, nil
}

// Build converts the raw document into an executor catalog.
func (f File) Build() (*game.Catalog, error) {
	rules := make(condition.Registry, len(f.Conditions))
	for _, r := range f.Conditions {
		rule, err := r.rule()
		if err != nil {
			return nil, err
		}
		if _, dup := rules[rule.Code]; dup {
			return nil, fmt.Errorf("duplicate condition %s", rule.Code)
		}
		rules[rule.Code] = rule
	}
	defs := make([]game.AbilityDefinition, 0, len(f.Abilities))
	for _, a := range f.Abilities {
		def, err := a.definition()
		if err != nil {
			return nil, fmt.Errorf("ability %s: %w", a.Code, err)
		}
		defs = append(defs, def)
	}
	c, err := game.NewCatalog(defs, rules)
	if err != nil {
		return nil, err
	}
	c.BaseDodge = f.BaseDodge
	return c, nil
}

func (r RawRule) rule() (condition.Rule, error) {
	if r.Code == "" {
		return condition.Rule{}, fmt.Errorf("condition without code")
	}
	st, err := condition.ParseStacking(r.Stacking)
	if err != nil {
		return condition.Rule{}, fmt.Errorf("condition %s: %w", r.Code, err)
	}
	return condition.Rule{
		Code:             condition.Code(strings.ToUpper(r.Code)),
		Stacking:         st,
		MaxDuration:      r.MaxDuration,
		MaxStacks:        r.MaxStacks,
		DodgeBonus:       r.DodgeBonus,
		AttackAdvantage:  r.AttackAdvantage,
		DefenseAdvantage: r.DefenseAdvantage,
		Disables:         r.Disables,
		GrantsDash:       r.GrantsDash,
		Roots:            r.Roots,
		Interactive:      r.Interactive,
	}, nil
}

func (v *RawValue) value() (game.Value, error) {
	if v == nil {
		return game.Value{}, nil
	}
	attr, err := game.ParseAttribute(v.Attribute)
	if err != nil {
		return game.Value{}, err
	}
	if !engine.ValidExpr(v.Dice) {
		return game.Value{}, fmt.Errorf("bad dice expression %q", v.Dice)
	}
	return game.Value{Fixed: v.Fixed, Attribute: attr, Bonus: v.Bonus, Dice: v.Dice}, nil
}

func (c *RawContest) contest() (*game.Contest, error) {
	if c == nil {
		return nil, nil
	}
	att, err := game.ParseAttribute(c.Attacker)
	if err != nil {
		return nil, err
	}
	def, err := game.ParseAttribute(c.Defender)
	if err != nil {
		return nil, err
	}
	return &game.Contest{Attacker: att, Defender: def}, nil
}

func (p RawPattern) pattern() (pattern.Pattern, error) {
	var out pattern.Pattern
	var err error
	if out.Origin, err = pattern.ParseOrigin(p.Origin); err != nil {
		return out, err
	}
	shape := pattern.Shape(p.Shape)
	if len(p.Offsets) > 0 && p.Shape == "" {
		shape = pattern.ShapeCustom
	}
	offsets, metric, err := pattern.Expand(shape, p.Size)
	if err != nil {
		return out, err
	}
	for _, o := range p.Offsets {
		if len(o) != 2 {
			return out, fmt.Errorf("offset %v is not a [dx, dy] pair", o)
		}
		offsets = append(offsets, pattern.Offset{DX: o[0], DY: o[1]})
	}
	if p.Metric != "" {
		if metric, err = grid.ParseMetric(p.Metric); err != nil {
			return out, err
		}
	}
	if p.MinRange < 0 || p.MaxRange < 0 || (p.MaxRange > 0 && p.MinRange > p.MaxRange) {
		return out, fmt.Errorf("invalid range %d..%d", p.MinRange, p.MaxRange)
	}
	out.Offsets = offsets
	out.Metric = metric
	out.Rotate = p.Rotate
	out.MinRange = p.MinRange
	out.MaxRange = p.MaxRange
	out.IncludeSelf = p.IncludeSelf
	out.ExcludeObstacles = p.ExcludeObstacles

	if pp := p.Projectile; pp != nil {
		order, err := pattern.ParseOrder(pp.Order)
		if err != nil {
			return out, err
		}
		proj := &pattern.Projectile{
			Piercing:        pp.Piercing,
			MaxTargets:      pp.MaxTargets,
			Order:           order,
			TravelDistance:  pp.TravelDistance,
			StopsOnObstacle: pp.StopsOnObstacle == nil || *pp.StopsOnObstacle,
			StopsOnUnit:     pp.StopsOnUnit,
			Interactive:     pp.Interactive,
		}
		if pp.Explosion != nil {
			ex, err := pp.Explosion.pattern()
			if err != nil {
				return out, fmt.Errorf("explosion: %w", err)
			}
			proj.Explosion = &ex
		}
		out.Projectile = proj
	}
	return out, nil
}

func (a RawAbility) definition() (game.AbilityDefinition, error) {
	def := game.AbilityDefinition{
		Code:                strings.ToUpper(a.Code),
		Name:                a.Name,
		ManaCost:            a.ManaCost,
		Cooldown:            a.Cooldown,
		ConsumesAction:      a.ConsumesAction == nil || *a.ConsumesAction,
		Attack:              a.Attack,
		RequiresLineOfSight: a.RequiresLineOfSight,
		RequiresCondition:   condition.Code(strings.ToUpper(a.RequiresCondition)),
		FriendlyFire:        a.FriendlyFire,
	}
	if def.Name == "" {
		def.Name = def.Code
	}
	var err error
	if def.Kind, err = game.ParseEffectKind(a.Kind); err != nil {
		return def, err
	}
	for _, e := range a.Effects {
		k, err := game.ParseEffectKind(e)
		if err != nil {
			return def, err
		}
		def.Effects = append(def.Effects, k)
	}
	if def.Targeting, err = game.ParseTargeting(a.Targeting); err != nil {
		return def, err
	}
	if def.Pattern, err = a.Pattern.pattern(); err != nil {
		return def, fmt.Errorf("pattern: %w", err)
	}
	if def.Range, err = a.Range.value(); err != nil {
		return def, fmt.Errorf("range: %w", err)
	}
	if def.Contest, err = a.Contest.contest(); err != nil {
		return def, fmt.Errorf("contest: %w", err)
	}
	if def.Dodge, err = a.Dodge.contest(); err != nil {
		return def, fmt.Errorf("dodge: %w", err)
	}
	if def.DamageType, err = damage.ParseType(a.DamageType); err != nil {
		return def, err
	}
	if def.Damage, err = a.Damage.value(); err != nil {
		return def, fmt.Errorf("damage: %w", err)
	}
	if def.Healing, err = a.Healing.value(); err != nil {
		return def, fmt.Errorf("healing: %w", err)
	}
	for _, g := range a.Conditions {
		dur, err := g.Duration.value()
		if err != nil {
			return def, fmt.Errorf("condition %s: %w", g.Code, err)
		}
		def.Conditions = append(def.Conditions, game.ConditionGrant{
			Code:     condition.Code(strings.ToUpper(g.Code)),
			Duration: dur,
			OnSelf:   g.OnSelf,
		})
	}
	for _, code := range a.RemoveConditions {
		def.RemoveConditions = append(def.RemoveConditions, condition.Code(strings.ToUpper(code)))
	}
	if kb := a.Knockback; kb != nil {
		dist, err := kb.Distance.value()
		if err != nil {
			return def, fmt.Errorf("knockback: %w", err)
		}
		def.Knockback = &game.Knockback{
			Distance:         dist,
			StopsOnUnit:      kb.StopsOnUnit,
			StopsOnObstacle:  kb.StopsOnObstacle,
			CollisionPercent: kb.CollisionPercent,
		}
	}
	return def, nil
}
