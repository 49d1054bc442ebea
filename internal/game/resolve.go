package game

import (
	"fmt"

	"github.com/pefman/tactics-duel/internal/condition"
	"github.com/pefman/tactics-duel/internal/damage"
	"github.com/pefman/tactics-duel/internal/engine"
	apperrors "github.com/pefman/tactics-duel/internal/errors"
	"github.com/pefman/tactics-duel/internal/grid"
	"github.com/pefman/tactics-duel/internal/knockback"
	"github.com/pefman/tactics-duel/internal/pattern"
	"github.com/pefman/tactics-duel/internal/projectile"
)

// resolution carries one action through its effect routines on a staged
// arena. Units are always looked up by id.
type resolution struct {
	e     *Executor
	arena *Arena
	pl    plan
	req   Request
	src   engine.Source
	occ   *grid.Occupancy
	reg   condition.Registry
	res   *Result

	targets     []*TargetResult
	byID        map[string]*TargetResult
	knockOrigin grid.Cell
	base        *int
}

func (e *Executor) resolve(s *Arena, pl plan, req Request) (Result, error) {
	caster, err := s.unit(pl.casterID)
	if err != nil {
		return Result{}, err
	}
	dir := grid.DirectionTo(caster.Position, pl.target)
	res := Result{
		Success:    true,
		CasterID:   caster.ID,
		Ability:    pl.def.Code,
		TargetCell: pl.target,
		Direction:  dir,
		Facing:     dir.Facing(),
		SelfCast:   pl.selfCast,
		Seed:       req.Seed,
		Logs:       []string{},
	}
	r := &resolution{
		e:     e,
		arena: s,
		pl:    pl,
		req:   req,
		src:   e.source(req.Seed),
		occ:   s.Occupancy(),
		reg:   e.Catalog.Conditions,
		res:   &res,
		byID:  map[string]*TargetResult{},
	}
	if pl.selfCast {
		r.logf("%s uses %s on self", caster.Name, pl.def.Code)
	} else {
		r.logf("%s uses %s at %s", caster.Name, pl.def.Code, pl.target)
	}

	if err := r.collect(); err != nil {
		return Result{}, err
	}
	for _, step := range pl.def.Steps() {
		var err error
		switch step {
		case EffectDamage:
			err = r.damage()
		case EffectHeal:
			err = r.heal()
		case EffectTeleport:
			err = r.teleport()
		case EffectMove:
			err = r.move()
		case EffectCondition:
			err = r.conditions()
		case EffectKnockback:
			err = r.knockback()
		default:
			err = apperrors.New(apperrors.CodeInconsistentState, fmt.Sprintf("unsupported effect %s", step))
		}
		if err != nil {
			return Result{}, err
		}
	}

	for _, t := range r.targets {
		if u, ok := s.units[t.UnitID]; ok {
			t.HP = u.HP
		}
		res.Targets = append(res.Targets, *t)
	}
	return res, nil
}

func (r *resolution) logf(format string, args ...any) {
	r.res.Logs = append(r.res.Logs, fmt.Sprintf(format, args...))
}

func (r *resolution) caster() *Unit {
	return r.arena.units[r.pl.casterID]
}

// affects decides whether an effect of the planned ability cast by c lands
// on u.
func (pl plan) affects(c, u *Unit) bool {
	if u == nil || !u.Alive {
		return false
	}
	friendly := !c.Hostile(*u)
	switch pl.def.Targeting {
	case TargetSelf:
		return u.ID == c.ID
	case TargetAlly:
		return friendly
	case TargetUnit:
		if u.ID == pl.targetUnit {
			return true
		}
	}
	if pl.selfCast && u.ID == c.ID {
		return !pl.def.Has(EffectDamage) || pl.def.FriendlyFire
	}
	if pl.def.Has(EffectHeal) && !pl.def.Has(EffectDamage) {
		return friendly
	}
	if !friendly {
		return true
	}
	return pl.def.FriendlyFire && u.ID != c.ID
}

func (r *resolution) eligible(u *Unit) bool {
	return r.pl.affects(r.caster(), u)
}

func (r *resolution) add(id string) *TargetResult {
	if t, ok := r.byID[id]; ok {
		return t
	}
	t := &TargetResult{UnitID: id, Hit: true}
	r.byID[id] = t
	r.targets = append(r.targets, t)
	return t
}

func (r *resolution) addUnitsIn(cells []grid.Cell) {
	for _, c := range cells {
		id, ok := r.occ.UnitAt(c)
		if !ok {
			continue
		}
		if u := r.arena.units[id]; r.eligible(u) {
			r.add(id)
		}
	}
}

// collect resolves the affected cells and the units standing in them.
func (r *resolution) collect() error {
	caster := r.caster()
	p := r.pl.pattern
	r.knockOrigin = caster.Position

	if r.pl.selfCast {
		r.res.AffectedCells = pattern.Affected(p, caster.Position, caster.Position, r.arena.Bounds, r.arena.Blocked)
		r.addUnitsIn(r.res.AffectedCells)
		return nil
	}
	r.res.AffectedCells = pattern.Affected(p, caster.Position, r.pl.target, r.arena.Bounds, r.arena.Blocked)
	if p.Projectile != nil {
		return r.fly()
	}
	if p.Origin == pattern.OriginTarget && len(p.Offsets) > 1 {
		r.knockOrigin = r.pl.target
	}
	r.addUnitsIn(r.res.AffectedCells)
	return nil
}

// flightField shows the projectile only the units this ability can affect.
type flightField struct {
	occ   *grid.Occupancy
	units map[string]*Unit
	pl    plan
}

func (f flightField) InBounds(c grid.Cell) bool { return f.occ.InBounds(c) }

func (f flightField) ObstacleAt(c grid.Cell) (string, bool) { return f.occ.ObstacleAt(c) }

func (f flightField) UnitAt(c grid.Cell) (string, bool) {
	id, ok := f.occ.UnitAt(c)
	if !ok || id == f.pl.casterID || !f.pl.affects(f.units[f.pl.casterID], f.units[id]) {
		return "", false
	}
	return id, true
}

func (r *resolution) fly() error {
	caster := r.caster()
	pp := *r.pl.pattern.Projectile
	cells := r.res.AffectedCells
	if len(r.pl.pattern.Offsets) <= 1 {
		cells = []grid.Cell{r.pl.target}
	}
	path := projectile.Path(caster.Position, cells, pp.Order, pp.TravelDistance)
	flight := projectile.Simulate(caster.Position, path, flightField{occ: r.occ, units: r.arena.units, pl: r.pl}, r.dodgeFunc(pp), projectile.ConfigFrom(pp))
	if flight.Halt == projectile.HaltDeferred {
		return &AwaitingDodge{UnitID: flight.AwaitingUnit, Cell: flight.Impact}
	}
	r.logf("Projectile from %s -> impact %s (%s)", caster.Position, flight.Impact, flight.Halt)

	info := &ProjectileInfo{RequiresProjectile: true, ImpactPoint: flight.Impact, Flight: flight}
	for _, id := range flight.Dodged {
		t := r.add(id)
		t.Hit = false
		t.Dodged = true
	}
	for _, id := range flight.Struck {
		r.add(id)
	}
	affected := make([]grid.Cell, 0, len(flight.Steps))
	for _, st := range flight.Steps {
		affected = append(affected, st.Cell)
	}

	if pp.Explosion != nil {
		info.Explosion = projectile.Explosion(*pp.Explosion, caster.Position, flight.Impact, r.arena.Bounds, r.arena.Blocked)
		r.knockOrigin = flight.Impact
		r.logf("Explosion at %s covers %d cell(s)", flight.Impact, len(info.Explosion))
		seen := map[grid.Cell]bool{}
		for _, c := range affected {
			seen[c] = true
		}
		for _, c := range info.Explosion {
			if !seen[c] {
				affected = append(affected, c)
				seen[c] = true
			}
			id, ok := r.occ.UnitAt(c)
			if !ok || !r.eligible(r.arena.units[id]) {
				continue
			}
			// the blast lands regardless of an earlier dodge
			r.add(id).Hit = true
		}
	}
	r.res.AffectedCells = affected
	r.res.Projectile = info
	return nil
}

func (r *resolution) dodgeFunc(pp pattern.Projectile) projectile.DodgeFunc {
	return func(id string, _ grid.Cell) projectile.Dodge {
		if answer, ok := r.req.Dodges[id]; ok {
			r.logf("Dodge %s: interactive -> %s", id, dodgeWord(answer))
			return verdict(answer)
		}
		u := r.arena.units[id]
		if pp.Interactive && r.req.AwaitDodge && (u.Interactive || condition.Interactive(u.Conditions, r.reg)) {
			return projectile.DodgeDeferred
		}
		return verdict(r.rollDodge(u))
	}
}

func verdict(dodged bool) projectile.Dodge {
	if dodged {
		return projectile.DodgeSucceeded
	}
	return projectile.DodgeFailed
}

func dodgeWord(dodged bool) string {
	if dodged {
		return "DODGED"
	}
	return "HIT"
}

func (r *resolution) baseDamage() (int, error) {
	if r.base != nil {
		return *r.base, nil
	}
	n, err := r.pl.def.Damage.Resolve(*r.caster(), r.src)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInconsistentState, "damage value", err)
	}
	r.base = &n
	return n, nil
}

func (r *resolution) damage() error {
	base, err := r.baseDamage()
	if err != nil {
		return err
	}
	for _, t := range r.targets {
		if !t.Hit {
			continue
		}
		u, err := r.arena.unit(t.UnitID)
		if err != nil {
			return err
		}
		if !u.Alive {
			t.Hit = false
			continue
		}
		if err := r.strike(t, u, base); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolution) heal() error {
	amount, err := r.pl.def.Healing.Resolve(*r.caster(), r.src)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInconsistentState, "healing value", err)
	}
	for _, t := range r.targets {
		if !t.Hit {
			continue
		}
		u, err := r.arena.unit(t.UnitID)
		if err != nil {
			return err
		}
		pools, healed := damage.Heal(u.Pools(), amount)
		u.SetPools(pools)
		t.Healed += healed
		r.logf("Heal %s: +%d -> HP %d/%d", u.Name, healed, u.HP, u.MaxHP)
	}
	return nil
}

func (r *resolution) teleport() error {
	c := r.caster()
	to := r.pl.target
	if !r.occ.Free(to, c.Size, c.ID) {
		return apperrors.WithMetadata(apperrors.CodeInconsistentState, "teleport destination became occupied",
			map[string]string{"cell": to.String()})
	}
	from := c.Position
	r.occ.MoveUnit(c.ID, to, c.Size)
	c.Position = to
	r.res.Movements = append(r.res.Movements, Movement{UnitID: c.ID, Kind: "teleport", From: from, To: to})
	r.logf("%s teleports %s -> %s", c.Name, from, to)
	return nil
}

func (r *resolution) move() error {
	c := r.caster()
	path := r.pl.path
	if len(path) == 0 {
		return apperrors.New(apperrors.CodeInconsistentState, "move without a path")
	}
	for _, step := range path {
		if !r.occ.Free(step, c.Size, c.ID) {
			return apperrors.WithMetadata(apperrors.CodeInconsistentState, "path became blocked",
				map[string]string{"cell": step.String()})
		}
	}
	from := c.Position
	to := path[len(path)-1]
	r.occ.MoveUnit(c.ID, to, c.Size)
	c.Position = to
	r.res.Movements = append(r.res.Movements, Movement{
		UnitID: c.ID,
		Kind:   "move",
		From:   from,
		To:     to,
		Path:   append([]grid.Cell(nil), path...),
	})
	r.logf("%s moves %s -> %s (%d step(s))", c.Name, from, to, len(path))
	return nil
}

func (r *resolution) conditions() error {
	caster := r.caster()
	for _, g := range r.pl.def.Conditions {
		dur, err := g.Duration.Resolve(*caster, r.src)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInconsistentState, "condition duration", err)
		}
		if dur <= 0 {
			r.logf("%s: zero duration, not applied", g.Code)
			continue
		}
		rule := r.reg.Rule(g.Code)
		if g.OnSelf {
			if err := r.applyCondition(caster, rule, dur); err != nil {
				return err
			}
			continue
		}
		for _, t := range r.targets {
			u := r.arena.units[t.UnitID]
			if !t.Hit || u == nil || !u.Alive {
				continue
			}
			if err := r.applyCondition(u, rule, dur); err != nil {
				return err
			}
		}
	}
	for _, code := range r.pl.def.RemoveConditions {
		for _, t := range r.targets {
			u := r.arena.units[t.UnitID]
			if !t.Hit || u == nil || !u.Alive {
				continue
			}
			if n := u.Conditions.Remove(code); n > 0 {
				r.res.Conditions = append(r.res.Conditions, ConditionChange{
					UnitID: u.ID,
					Change: condition.Change{Code: code, Removed: true},
				})
				r.logf("%s loses %s", u.Name, code)
			}
		}
	}
	return nil
}

func (r *resolution) applyCondition(u *Unit, rule condition.Rule, dur int) error {
	ch, err := u.Conditions.Apply(rule, dur)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInconsistentState, "apply condition", err)
	}
	r.res.Conditions = append(r.res.Conditions, ConditionChange{UnitID: u.ID, Change: ch})
	r.logf("%s gains %s (%d turn(s), %d stack(s))", u.Name, ch.Code, ch.Remaining, ch.Stacks)
	return nil
}

func (r *resolution) knockback() error {
	kb := r.pl.def.Knockback
	caster := r.caster()
	dist, err := kb.Distance.Resolve(*caster, r.src)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInconsistentState, "knockback distance", err)
	}
	base, err := r.baseDamage()
	if err != nil {
		return err
	}
	cfg := knockback.Config{
		Distance:         dist,
		StopsOnUnit:      kb.StopsOnUnit,
		StopsOnObstacle:  kb.StopsOnObstacle,
		CollisionPercent: kb.CollisionPercent,
	}

	var away, fromCaster []knockback.Target
	for _, t := range r.targets {
		u := r.arena.units[t.UnitID]
		if !t.Hit || u == nil || !u.Alive || u.ID == caster.ID {
			continue
		}
		kt := knockback.Target{UnitID: u.ID, Anchor: u.Position, Size: u.Size}
		if u.Covers(r.knockOrigin) {
			fromCaster = append(fromCaster, kt)
			continue
		}
		away = append(away, kt)
	}
	outcomes := knockback.ResolveAll(away, r.knockOrigin, r.occ, cfg, base)
	outcomes = append(outcomes, knockback.ResolveAll(fromCaster, caster.Position, r.occ, cfg, base)...)

	for _, o := range outcomes {
		u, err := r.arena.unit(o.UnitID)
		if err != nil {
			return err
		}
		if o.To != o.From {
			u.Position = o.To
			r.res.Movements = append(r.res.Movements, Movement{UnitID: u.ID, Kind: "knockback", From: o.From, To: o.To, Path: o.Path})
		}
		r.logf("Knockback %s: %s -> %s (%d cell(s))", u.Name, o.From, o.To, o.Distance)
		if o.CollisionDamage > 0 {
			pools, out := damage.Apply(u.Pools(), damage.True, o.CollisionDamage)
			u.SetPools(pools)
			t := r.add(u.ID)
			t.Collision = &out
			r.logf("Collision with %s %s: %d true damage -> HP %d", o.Collision, o.CollidedWith, out.HPDamage, u.HP)
			if out.Defeated {
				r.defeat(u, t)
			}
		}
	}
	r.res.Knockbacks = append(r.res.Knockbacks, outcomes...)
	return nil
}

func (r *resolution) defeat(u *Unit, t *TargetResult) {
	r.occ.RemoveUnit(u.ID)
	t.Defeated = true
	r.res.Defeated = append(r.res.Defeated, u.ID)
	r.logf("%s is defeated", u.Name)
}
