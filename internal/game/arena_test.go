package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pefman/tactics-duel/internal/condition"
	"github.com/pefman/tactics-duel/internal/grid"
)

func TestNewArenaRejectsBadLayouts(t *testing.T) {
	bounds := grid.Bounds{Width: 4, Height: 4}
	unit := func(id string, x, y, size int) Unit {
		return Unit{ID: id, Owner: id, Position: grid.Cell{X: x, Y: y}, Size: size, Alive: true, HP: 1, MaxHP: 1}
	}

	_, err := NewArena(bounds, []Unit{unit("a", 0, 0, 2), unit("b", 1, 0, 1)}, nil)
	assert.Error(t, err, "overlapping footprints")

	_, err = NewArena(bounds, []Unit{unit("a", 3, 3, 2)}, nil)
	assert.Error(t, err, "footprint off the board")

	_, err = NewArena(bounds, []Unit{unit("a", 0, 0, 1), unit("a", 2, 2, 1)}, nil)
	assert.Error(t, err, "duplicate id")

	_, err = NewArena(bounds, []Unit{unit("a", 1, 1, 1)}, []Obstacle{{ID: "rock", Position: grid.Cell{X: 1, Y: 1}, Size: 1}})
	assert.Error(t, err, "unit on obstacle")

	a, err := NewArena(bounds, []Unit{unit("a", 0, 0, 2), unit("b", 2, 2, 2)}, nil)
	require.NoError(t, err)
	u, ok := a.UnitAt(grid.Cell{X: 3, Y: 2})
	require.True(t, ok)
	assert.Equal(t, "b", u.ID)
}

func TestUnitCopiesAreDetached(t *testing.T) {
	a := newArena(t)
	u := mustUnit(t, a, "hero")
	u.HP = 1
	u.Abilities[0] = "CHANGED"
	again := mustUnit(t, a, "hero")
	assert.Equal(t, 10, again.HP)
	assert.Equal(t, "STRIKE", again.Abilities[0])
}

func TestSnapshotRoundTrip(t *testing.T) {
	a := newArena(t, func(u map[string]*Unit) {
		u["orc"].Conditions = condition.NewLedger(condition.Instance{Code: condition.Stunned, Remaining: 2})
		u["hero"].Cooldowns = map[string]int{"HEAL": 1}
	})
	_, err := a.BeginTurn("hero")
	require.NoError(t, err)

	data, err := json.Marshal(a.Snapshot())
	require.NoError(t, err)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	b, err := FromSnapshot(snap)
	require.NoError(t, err)

	assert.Equal(t, a.ActiveUnit, b.ActiveUnit)
	assert.Equal(t, a.Turn, b.Turn)
	orc := mustUnit(t, b, "orc")
	assert.True(t, orc.Conditions.Has(condition.Stunned))
	assert.Empty(t, mustUnit(t, b, "hero").Cooldowns)
	assert.Len(t, b.Units(), 5)
}

func TestBeginTurnRefillsBudget(t *testing.T) {
	a := newArena(t, func(u map[string]*Unit) {
		u["hero"].Left = Budget{}
		u["hero"].PerTurn = Budget{Actions: 1, Moves: 3, ExtraAttacks: 1}
	})
	start, err := a.BeginTurn("hero")
	require.NoError(t, err)
	assert.Equal(t, "hero", a.ActiveUnit)
	assert.Equal(t, 1, start.Turn)
	assert.Equal(t, Budget{Actions: 1, Moves: 3, ExtraAttacks: 1}, start.Budget)

	_, err = a.BeginTurn("nobody")
	assert.Error(t, err)
}

func TestOver(t *testing.T) {
	a := newArena(t)
	_, over := a.Over()
	assert.False(t, over)
	assert.Equal(t, []string{"p1", "p2"}, a.LiveOwners())

	ex := NewExecutor(testCatalog(t))
	for _, id := range []string{"orc", "goblin", "troll"} {
		for {
			u := mustUnit(t, a, id)
			if !u.Alive {
				break
			}
			_, err := ex.Execute(a, Request{CasterID: "hero", Ability: "SMITE", TargetUnitID: id})
			require.NoError(t, err)
		}
	}
	winner, over := a.Over()
	assert.True(t, over)
	assert.Equal(t, "p1", winner)
}

func TestCatalogValidation(t *testing.T) {
	_, err := NewCatalog([]AbilityDefinition{{Code: "X", Kind: EffectKnockback}}, nil)
	assert.Error(t, err)

	_, err = NewCatalog([]AbilityDefinition{{Code: "X", Kind: EffectComposite}}, nil)
	assert.Error(t, err)

	_, err = NewCatalog([]AbilityDefinition{{Code: "X", Kind: EffectDamage}, {Code: "X", Kind: EffectDamage}}, nil)
	assert.Error(t, err)

	_, err = NewCatalog([]AbilityDefinition{{Code: "X", Kind: EffectDamage, Damage: Value{Dice: "2d"}}}, nil)
	assert.Error(t, err)

	c, err := NewCatalog([]AbilityDefinition{{Code: "B", Kind: EffectDamage}, {Code: "A", Kind: EffectHeal}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, c.Codes())
	assert.NotNil(t, c.Conditions)
}

func TestValueResolve(t *testing.T) {
	caster := Unit{Attributes: Attributes{Combat: 3, Will: 2}}
	n, err := Bound(Combat, 2).Resolve(caster, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 4, Fixed(4).Static(caster))
	assert.True(t, Value{}.IsZero())
}

func TestLineOfSight(t *testing.T) {
	rocks := func(cells ...grid.Cell) *Arena {
		obs := make([]Obstacle, 0, len(cells))
		for i, c := range cells {
			obs = append(obs, Obstacle{ID: string(rune('a' + i)), Position: c})
		}
		a, err := NewArena(grid.Bounds{Width: 4, Height: 4}, nil, obs)
		require.NoError(t, err)
		return a
	}
	from, far := grid.Cell{}, grid.Cell{X: 2, Y: 1}

	assert.True(t, rocks().LineOfSight(from, far))
	assert.False(t, rocks(grid.Cell{X: 1, Y: 0}).LineOfSight(from, far), "the line grazes (1,0)")
	assert.True(t, rocks(grid.Cell{X: 2, Y: 1}).LineOfSight(from, far), "the target cell itself never blocks")

	diag := grid.Cell{X: 2, Y: 2}
	assert.True(t, rocks(grid.Cell{X: 1, Y: 0}).LineOfSight(from, diag))
	assert.False(t, rocks(grid.Cell{X: 1, Y: 0}, grid.Cell{X: 0, Y: 1}).LineOfSight(from, diag), "no squeezing between touching corners")
	assert.False(t, rocks(grid.Cell{X: 1, Y: 1}).LineOfSight(from, diag))
}
