package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pefman/tactics-duel/internal/damage"
	"github.com/pefman/tactics-duel/internal/game"
	"github.com/pefman/tactics-duel/internal/session"
)

var owners = map[string]string{"knight": "p1", "mage": "p1", "ranger": "p2", "priest": "p2"}

func action(res game.Result) session.Event {
	return session.Event{BattleID: "b1", Type: session.EventActionResult, Data: res, Owners: owners}
}

func TestTrackerTallies(t *testing.T) {
	tr := New()
	day := time.Date(2026, time.May, 4, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return day }

	tr.Observe(action(game.Result{CasterID: "knight", Ability: "SHOVE", Targets: []game.TargetResult{
		{UnitID: "ranger", Hit: true, Damage: &damage.Outcome{Amount: 3}, Collision: &damage.Outcome{Amount: 2}},
	}}))
	tr.Observe(action(game.Result{CasterID: "mage", Ability: "FIREBALL", Targets: []game.TargetResult{
		{UnitID: "priest", Hit: true, Damage: &damage.Outcome{Amount: 4}, Defeated: true},
		{UnitID: "knight", Hit: true, Damage: &damage.Outcome{Amount: 1}},
	}}))
	tr.Observe(action(game.Result{CasterID: "priest", Ability: "HEAL", SelfCast: true, Targets: []game.TargetResult{
		{UnitID: "priest", Hit: true, Healed: 3},
	}}))
	tr.Observe(session.Event{Type: session.EventBattleOver, Data: map[string]string{"winner": "p1"}})
	tr.Observe(session.Event{Type: session.EventTurnStarted, Data: game.TurnStart{UnitID: "knight"}})

	p1 := tr.Player("p1")
	assert.Equal(t, 2, p1.Actions)
	assert.Equal(t, 10, p1.DamageDealt)
	assert.Equal(t, 1, p1.DamageTaken)
	assert.Equal(t, 1, p1.Defeats)
	assert.Equal(t, 5, p1.LargestHit)
	assert.Equal(t, 1, p1.Wins)

	p2 := tr.Player("p2")
	assert.Equal(t, 9, p2.DamageTaken)
	assert.Equal(t, 3, p2.Healing)
	assert.Equal(t, 1, p2.Losses)

	assert.Equal(t, PlayerStats{Player: "nobody"}, tr.Player("nobody"))

	hit, ok := tr.MaxHitToday()
	require.True(t, ok)
	assert.Equal(t, 5, hit.Damage)
	assert.Equal(t, "SHOVE", hit.Ability)
	assert.Equal(t, "ranger", hit.Target)
}

func TestDailyMaxRollsOverAndResets(t *testing.T) {
	tr := New()
	day := time.Date(2026, time.May, 4, 23, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return day }
	tr.Observe(action(game.Result{CasterID: "knight", Ability: "STRIKE", Targets: []game.TargetResult{
		{UnitID: "ranger", Hit: true, Damage: &damage.Outcome{Amount: 6}},
	}}))

	day = day.Add(2 * time.Hour)
	_, ok := tr.MaxHitToday()
	assert.False(t, ok, "a new day starts empty")

	tr.Observe(action(game.Result{CasterID: "ranger", Ability: "SHOOT", Targets: []game.TargetResult{
		{UnitID: "knight", Hit: true, Damage: &damage.Outcome{Amount: 2}},
	}}))
	hit, ok := tr.MaxHitToday()
	require.True(t, ok)
	assert.Equal(t, "p2", hit.Player)

	tr.ResetDaily()
	_, ok = tr.MaxHitToday()
	assert.False(t, ok)
	assert.Equal(t, 6, tr.Player("p1").LargestHit)
}
