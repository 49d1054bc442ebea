package game

import (
	"github.com/pefman/tactics-duel/internal/condition"
	"github.com/pefman/tactics-duel/internal/damage"
	"github.com/pefman/tactics-duel/internal/engine"
	apperrors "github.com/pefman/tactics-duel/internal/errors"
)

// attackPool sizes the caster's side of a contest.
func (r *resolution) attackPool(attr Attribute) engine.Pool {
	c := r.caster()
	return engine.Pool{
		Dice:      max(c.Attributes.Get(attr), 0),
		Advantage: engine.ClampAdvantage(condition.AttackAdvantage(c.Conditions, r.reg)),
	}
}

// defensePool sizes a defender's side of a contest.
func (r *resolution) defensePool(u *Unit, attr Attribute) engine.Pool {
	return engine.Pool{
		Dice:      max(u.Attributes.Get(attr), 0),
		Advantage: engine.ClampAdvantage(condition.DefenseAdvantage(u.Conditions, r.reg)),
	}
}

// strike resolves one damaging hit on u: the contest, raw damage, then the
// protection layers. Without a contest the hit lands with one success.
func (r *resolution) strike(t *TargetResult, u *Unit, base int) error {
	def := r.pl.def
	attSuccesses, defSuccesses := 1, 0

	if c := def.Contest; c != nil {
		defPool := r.defensePool(u, c.Defender)
		if def.DamageType == damage.True {
			defPool.Dice = 0
		}
		cr, err := engine.Contest(r.src, r.attackPool(c.Attacker), defPool)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInconsistentState, "contested roll", err)
		}
		t.Contest = &cr
		r.logf("Contest vs %s: %d dice -> %d success(es), %d dice -> %d success(es)",
			u.Name, cr.Attacker.Dice, cr.Attacker.Successes, cr.Defender.Dice, cr.Defender.Successes)
		if !cr.AttackerWins {
			t.Hit = false
			r.logf("%s resists (ties favour the defender)", u.Name)
			return nil
		}
		attSuccesses, defSuccesses = cr.Attacker.Successes, cr.Defender.Successes
	}

	mitigation := u.Attributes.Mitigation(def.DamageType)
	raw := damage.Raw(def.DamageType, attSuccesses, base, defSuccesses, mitigation)
	pools, out := damage.Apply(u.Pools(), def.DamageType, raw)
	u.SetPools(pools)
	t.Damage = &out
	r.logf("Damage %s %d x %d - %d x (%d/2) = %d %s: absorbed %d, HP %d -> %d",
		u.Name, attSuccesses, base, defSuccesses, mitigation, raw, def.DamageType, out.Absorbed, out.HPBefore, out.HPAfter)
	if out.BrokeNow {
		r.logf("%s protection of %s is broken", def.DamageType, u.Name)
	}
	if out.Defeated {
		r.defeat(u, t)
	}
	return nil
}

// rollDodge resolves a non-interactive dodge: a contested roll when the
// ability declares one, otherwise the unit's fixed dodge chance.
func (r *resolution) rollDodge(u *Unit) bool {
	if c := r.pl.def.Dodge; c != nil {
		cr, err := engine.Contest(r.src, r.attackPool(c.Attacker), r.defensePool(u, c.Defender))
		if err != nil {
			return false
		}
		dodged := !cr.AttackerWins
		r.logf("Dodge %s: contest %d vs %d -> %s", u.Name, cr.Attacker.Successes, cr.Defender.Successes, dodgeWord(dodged))
		return dodged
	}
	chance := condition.DodgeChance(u.Conditions, r.reg, r.e.Catalog.BaseDodge)
	if chance <= 0 {
		return false
	}
	dodged, roll := engine.Chance(r.src, chance)
	r.logf("Dodge %s: d100 %d vs %d%% -> %s", u.Name, roll, chance, dodgeWord(dodged))
	return dodged
}
