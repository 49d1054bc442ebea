package game

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pefman/tactics-duel/internal/condition"
	"github.com/pefman/tactics-duel/internal/damage"
	"github.com/pefman/tactics-duel/internal/engine"
	"github.com/pefman/tactics-duel/internal/grid"
	"github.com/pefman/tactics-duel/internal/pattern"
)

// seqSrc replays fixed die faces; Intn(6) yields face-1.
type seqSrc struct {
	vals []int
	i    int
}

func (s *seqSrc) Intn(n int) int {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v % n
}

func faces(fs ...int) func(int64) engine.Source {
	return func(int64) engine.Source {
		vals := make([]int, len(fs))
		for i, f := range fs {
			vals[i] = f - 1
		}
		return &seqSrc{vals: vals}
	}
}

func single(origin pattern.Origin, maxRange int) pattern.Pattern {
	return pattern.Pattern{Origin: origin, Offsets: []pattern.Offset{{}}, MaxRange: maxRange}
}

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	heal := single(pattern.OriginTarget, 2)
	heal.IncludeSelf = true
	self := single(pattern.OriginCaster, 0)
	bolt := single(pattern.OriginTarget, 8)
	bolt.Projectile = &pattern.Projectile{Piercing: true, MaxTargets: 2, StopsOnObstacle: true}
	arrow := single(pattern.OriginTarget, 8)
	arrow.Projectile = &pattern.Projectile{StopsOnObstacle: true, Interactive: true}

	defs := []AbilityDefinition{
		{
			Code: "STRIKE", Name: "Strike", Kind: EffectDamage, Targeting: TargetEnemy,
			Pattern: single(pattern.OriginTarget, 1), ConsumesAction: true, Attack: true,
			Contest:    &Contest{Attacker: Combat, Defender: Resistance},
			DamageType: damage.Physical, Damage: Bound(Combat, 0),
		},
		{
			Code: "SMITE", Name: "Smite", Kind: EffectDamage, Targeting: TargetEnemy,
			Pattern: single(pattern.OriginTarget, 8), DamageType: damage.True, Damage: Fixed(5),
		},
		{
			Code: "BOLT", Name: "Bolt", Kind: EffectDamage, Targeting: TargetCell,
			Pattern: bolt, DamageType: damage.True, Damage: Fixed(3),
		},
		{
			Code: "ARROW", Name: "Arrow", Kind: EffectDamage, Targeting: TargetCell,
			Pattern: arrow, DamageType: damage.True, Damage: Fixed(2),
		},
		{
			Code: "HEAL", Name: "Heal", Kind: EffectHeal, Targeting: TargetAlly,
			Pattern: heal, ManaCost: 2, Cooldown: 2, Healing: Fixed(4),
		},
		{
			Code: "BLINK", Name: "Blink", Kind: EffectTeleport, Targeting: TargetEmpty,
			Pattern: single(pattern.OriginTarget, 3), ManaCost: 1,
		},
		{
			Code: "WALK", Name: "Walk", Kind: EffectMove, Targeting: TargetEmpty,
			Pattern: single(pattern.OriginTarget, 0),
		},
		{
			Code: "DASH", Name: "Dash", Kind: EffectMove, Targeting: TargetEmpty,
			Pattern: single(pattern.OriginTarget, 0), RequiresCondition: condition.Dashing,
		},
		{
			Code: "SHOVE", Name: "Shove", Kind: EffectComposite,
			Effects:   []EffectKind{EffectDamage, EffectKnockback},
			Targeting: TargetEnemy, Pattern: single(pattern.OriginTarget, 1),
			DamageType: damage.True, Damage: Fixed(2),
			Knockback: &Knockback{Distance: Fixed(3), StopsOnUnit: true, CollisionPercent: 50},
		},
		{
			Code: "STUN", Name: "Stun", Kind: EffectCondition, Targeting: TargetEnemy,
			Pattern:    single(pattern.OriginTarget, 2),
			Conditions: []ConditionGrant{{Code: condition.Stunned, Duration: Fixed(2)}},
		},
		{
			Code: "FOCUS", Name: "Focus", Kind: EffectCondition, Targeting: TargetSelf,
			Pattern:    self,
			Conditions: []ConditionGrant{{Code: condition.Focused, Duration: Fixed(2), OnSelf: true}},
		},
	}
	rules := condition.Registry{
		condition.Stunned: {Code: condition.Stunned, Disables: true},
		condition.Focused: {Code: condition.Focused, AttackAdvantage: 1},
		condition.Dashing: {Code: condition.Dashing, GrantsDash: true},
	}
	c, err := NewCatalog(defs, rules)
	require.NoError(t, err)
	return c
}

func allAbilities() []string {
	return []string{"STRIKE", "SMITE", "BOLT", "ARROW", "HEAL", "BLINK", "WALK", "DASH", "SHOVE", "STUN", "FOCUS"}
}

func testUnits() []Unit {
	budget := Budget{Actions: 1, Moves: 3}
	return []Unit{
		{
			ID: "hero", Name: "Hero", Owner: "p1", Position: grid.Cell{X: 1, Y: 1}, Size: 1, Alive: true,
			HP: 10, MaxHP: 10, Mana: 5, MaxMana: 5,
			Attributes: Attributes{Combat: 3, Speed: 3},
			PerTurn:    budget, Left: budget, Abilities: allAbilities(),
		},
		{
			ID: "ally", Name: "Ally", Owner: "p1", Position: grid.Cell{X: 1, Y: 3}, Size: 1, Alive: true,
			HP: 5, MaxHP: 10, PerTurn: budget, Left: budget,
		},
		{
			ID: "orc", Name: "Orc", Owner: "p2", Position: grid.Cell{X: 2, Y: 1}, Size: 1, Alive: true,
			HP: 10, MaxHP: 10, PhysicalProtection: 4, MaxPhysicalProtection: 10,
			PerTurn: budget, Left: budget, Abilities: []string{"STRIKE"},
		},
		{
			ID: "goblin", Name: "Goblin", Owner: "p2", Position: grid.Cell{X: 5, Y: 1}, Size: 1, Alive: true,
			HP: 3, MaxHP: 3, PerTurn: budget, Left: budget,
		},
		{
			ID: "troll", Name: "Troll", Owner: "p2", Position: grid.Cell{X: 6, Y: 1}, Size: 1, Alive: true,
			HP: 12, MaxHP: 12, PerTurn: budget, Left: budget,
		},
	}
}

func newArena(t *testing.T, mutate ...func(map[string]*Unit)) *Arena {
	t.Helper()
	units := testUnits()
	byID := map[string]*Unit{}
	for i := range units {
		byID[units[i].ID] = &units[i]
	}
	for _, m := range mutate {
		m(byID)
	}
	a, err := NewArena(grid.Bounds{Width: 8, Height: 8}, units, []Obstacle{{ID: "rock", Position: grid.Cell{X: 4, Y: 4}, Size: 1}})
	require.NoError(t, err)
	return a
}

func cell(x, y int) *grid.Cell {
	return &grid.Cell{X: x, Y: y}
}

func mustUnit(t *testing.T, a *Arena, id string) Unit {
	t.Helper()
	u, ok := a.Unit(id)
	require.True(t, ok, "unit %s", id)
	return u
}
