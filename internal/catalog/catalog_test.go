package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/pefman/tactics-duel/internal/condition"
	"github.com/pefman/tactics-duel/internal/damage"
	apperrors "github.com/pefman/tactics-duel/internal/errors"
	"github.com/pefman/tactics-duel/internal/game"
	"github.com/pefman/tactics-duel/internal/grid"
	"github.com/pefman/tactics-duel/internal/pattern"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Equal(t, 5, c.BaseDodge)

	strike, ok := c.Ability("STRIKE")
	require.True(t, ok)
	assert.Equal(t, game.EffectDamage, strike.Kind)
	assert.Equal(t, game.TargetEnemy, strike.Targeting)
	assert.True(t, strike.ConsumesAction, "consumes_action defaults to true")
	require.NotNil(t, strike.Contest)
	assert.Equal(t, game.Combat, strike.Contest.Attacker)
	assert.Equal(t, game.Bound(game.Combat, 0), strike.Damage)

	smite, _ := c.Ability("SMITE")
	assert.Equal(t, damage.True, smite.DamageType)
	assert.Equal(t, game.Fixed(4), smite.Damage)

	fireball, _ := c.Ability("FIREBALL")
	require.NotNil(t, fireball.Pattern.Projectile)
	assert.True(t, fireball.Pattern.Projectile.StopsOnObstacle)
	require.NotNil(t, fireball.Pattern.Projectile.Explosion)
	assert.Len(t, fireball.Pattern.Projectile.Explosion.Offsets, 9)
	assert.Equal(t, "1d6+2", fireball.Damage.Dice)

	lance, _ := c.Ability("LANCE")
	assert.Equal(t, pattern.OriginDirection, lance.Pattern.Origin)
	assert.Len(t, lance.Pattern.Offsets, 4)
	assert.Equal(t, pattern.OrderSequential, lance.Pattern.Projectile.Order)

	shove, _ := c.Ability("SHOVE")
	assert.Equal(t, []game.EffectKind{game.EffectDamage, game.EffectKnockback}, shove.Effects)
	require.NotNil(t, shove.Knockback)
	assert.Equal(t, 100, shove.Knockback.CollisionPercent)

	move, _ := c.Ability("MOVE")
	assert.False(t, move.ConsumesAction)

	dash, _ := c.Ability("DASH")
	assert.Equal(t, condition.Dashing, dash.RequiresCondition)

	rule := c.Conditions.Rule(condition.Evasive)
	assert.Equal(t, condition.StackIndependent, rule.Stacking)
	assert.Equal(t, 15, rule.DodgeBonus)
}

func TestDefaultStunOutlastsTargetTurnStart(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	sc, err := ParseScenario([]byte(`
name: stun
width: 4
height: 1
units:
  - {id: k, owner: p1, x: 0, y: 0, hp: 10, attributes: {combat: 4}, abilities: [STUN]}
  - {id: o, owner: p2, x: 1, y: 0, hp: 10, abilities: [STRIKE]}
`))
	require.NoError(t, err)
	ex := game.NewExecutor(c)

	var a *game.Arena
	for seed := int64(1); seed <= 64 && a == nil; seed++ {
		try, err := sc.Arena(c)
		require.NoError(t, err)
		_, err = ex.Execute(try, game.Request{CasterID: "k", Ability: "STUN", TargetUnitID: "o", Seed: seed})
		require.NoError(t, err)
		if o, _ := try.Unit("o"); o.Conditions.Has(condition.Stunned) {
			a = try
		}
	}
	require.NotNil(t, a, "stun never landed")

	start, err := a.BeginTurn("o")
	require.NoError(t, err)
	assert.Empty(t, start.Expired)
	_, err = ex.Execute(a, game.Request{CasterID: "o", Ability: "STRIKE", TargetUnitID: "k"})
	assert.True(t, errors.Is(err, apperrors.New(apperrors.CodeCasterDisabled, "")))

	start, err = a.BeginTurn("o")
	require.NoError(t, err)
	require.Len(t, start.Expired, 1)
	assert.Equal(t, condition.Stunned, start.Expired[0].Code)
}

func TestRawValueForms(t *testing.T) {
	var doc struct {
		A RawValue `yaml:"a"`
		B RawValue `yaml:"b"`
		C RawValue `yaml:"c"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: 3\nb: 2d6+1\nc: {attribute: will, bonus: 2}\n"), &doc))
	assert.Equal(t, RawValue{Fixed: 3}, doc.A)
	assert.Equal(t, RawValue{Dice: "2d6+1"}, doc.B)
	assert.Equal(t, RawValue{Attribute: "will", Bonus: 2}, doc.C)

	assert.Error(t, yaml.Unmarshal([]byte("a: lots\n"), &doc))
}

func TestParseRejectsBadDocuments(t *testing.T) {
	tests := map[string]string{
		"unknown kind":      "abilities:\n  - {code: X, kind: explode}\n",
		"unknown targeting": "abilities:\n  - {code: X, kind: damage, targeting: everyone}\n",
		"unknown attribute": "abilities:\n  - {code: X, kind: damage, damage: {attribute: luck}}\n",
		"bad offsets":       "abilities:\n  - {code: X, kind: damage, pattern: {offsets: [[1, 2, 3]]}}\n",
		"bad range":         "abilities:\n  - {code: X, kind: damage, pattern: {min_range: 3, max_range: 1}}\n",
		"duplicate rule":    "conditions:\n  - {code: A}\n  - {code: a}\n",
		"knockback missing": "abilities:\n  - {code: X, kind: knockback}\n",
		"not yaml":          "abilities: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
			e, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.CodeCatalogInvalid, e.Code)
		})
	}
}

func TestCustomOffsets(t *testing.T) {
	c, err := Parse([]byte(`
abilities:
  - code: hook
    kind: damage
    targeting: cell
    pattern:
      origin: direction
      offsets: [[1, 0], [2, -1], [2, 1]]
      max_range: 2
`))
	require.NoError(t, err)
	hook, ok := c.Ability("HOOK")
	require.True(t, ok)
	assert.Equal(t, "HOOK", hook.Name)
	assert.Equal(t, []pattern.Offset{{DX: 1}, {DX: 2, DY: -1}, {DX: 2, DY: 1}}, hook.Pattern.Offsets)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "abilities.yaml")
	require.NoError(t, os.WriteFile(p, []byte("abilities:\n  - {code: poke, kind: damage, damage: 1}\n"), 0o644))

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"POKE"}, c.Codes())

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
	assert.Panics(t, func() { MustLoad(filepath.Join(dir, "missing.yaml")) })
}

func TestDefaultScenarioBuildsArena(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	s, err := FindScenario("", "")
	require.NoError(t, err)
	assert.Equal(t, "duel", s.Name)

	a, err := s.Arena(c)
	require.NoError(t, err)
	assert.Len(t, a.Units(), 4)
	assert.Equal(t, []string{"p1", "p2"}, a.LiveOwners())

	ranger, ok := a.Unit("p2-ranger")
	require.True(t, ok)
	assert.Equal(t, 4, ranger.PerTurn.Moves)
	assert.Equal(t, 1, ranger.Left.ExtraAttacks)

	knight, _ := a.Unit("p1-knight")
	assert.Equal(t, DefaultBudget, knight.PerTurn)
	assert.Equal(t, 4, knight.MaxPhysicalProtection)
	assert.True(t, a.Blocked(grid.Cell{X: 4, Y: 2}))
}

func TestScenarioRejectsUnknownAbility(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	s, err := ParseScenario([]byte(`
name: broken
width: 4
height: 4
units:
  - {id: a, owner: p1, x: 0, y: 0, hp: 5, abilities: [FLY]}
`))
	require.NoError(t, err)
	_, err = s.Arena(c)
	assert.ErrorContains(t, err, "unknown ability FLY")
}

func TestFindScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "arena.yml"), []byte("name: arena\nwidth: 3\nheight: 3\n"), 0o644))

	s, err := FindScenario(dir, "arena")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Width)

	_, err = FindScenario(dir, "nope")
	assert.Error(t, err)
	_, err = FindScenario(dir, "../etc/passwd")
	assert.Error(t, err)
}
