package game

import (
	"fmt"

	"github.com/pefman/tactics-duel/internal/condition"
	"github.com/pefman/tactics-duel/internal/engine"
	apperrors "github.com/pefman/tactics-duel/internal/errors"
	"github.com/pefman/tactics-duel/internal/grid"
	"github.com/pefman/tactics-duel/internal/pattern"
)

// Request is one declared action. TargetUnitID wins over TargetCell when both
// are set.
type Request struct {
	CasterID     string     `json:"caster_id"`
	Ability      string     `json:"ability"`
	TargetCell   *grid.Cell `json:"target_cell,omitempty"`
	TargetUnitID string     `json:"target_unit_id,omitempty"`
	// Seed feeds every roll of the action.
	Seed int64 `json:"seed"`
	// Dodges holds interactive dodge answers by unit id.
	Dodges map[string]bool `json:"dodges,omitempty"`
	// AwaitDodge defers interactive dodges instead of rolling for them.
	AwaitDodge bool `json:"await_dodge,omitempty"`
}

// Executor validates, resolves and commits ability uses against an arena.
type Executor struct {
	Catalog *Catalog
	// NewSource builds the dice source of one action from its seed.
	NewSource func(seed int64) engine.Source
}

// NewExecutor returns an executor over catalog.
func NewExecutor(catalog *Catalog) *Executor {
	return &Executor{Catalog: catalog, NewSource: engine.NewSource}
}

func (e *Executor) source(seed int64) engine.Source {
	if e.NewSource == nil {
		return engine.NewSource(seed)
	}
	return e.NewSource(seed)
}

// plan is a validated action, ready to resolve.
type plan struct {
	def        AbilityDefinition
	pattern    pattern.Pattern
	casterID   string
	target     grid.Cell
	targetUnit string
	selfCast   bool
	path       []grid.Cell
	payExtra   bool
}

// Execute runs one action. A validation failure returns a rejected or
// invalid-target error and leaves the arena untouched. Resolution runs on a
// staged copy which replaces the arena state only once the whole effect has
// been computed, so an inconsistency mid-resolution mutates nothing either.
func (e *Executor) Execute(a *Arena, req Request) (Result, error) {
	pl, err := e.validate(a, req)
	if err != nil {
		return Result{}, err
	}
	staged := a.Clone()
	res, err := e.resolve(staged, pl, req)
	if err != nil {
		return Result{}, err
	}
	e.commit(staged, pl, &res)
	a.adopt(staged)
	return res, nil
}

func reject(code apperrors.Code, format string, args ...any) error {
	return apperrors.New(code, fmt.Sprintf(format, args...))
}

// usable runs the caster and resource checks shared by Execute and Preview.
func (e *Executor) usable(a *Arena, casterID, code string) (Unit, AbilityDefinition, error) {
	caster, ok := a.Unit(casterID)
	if !ok {
		return Unit{}, AbilityDefinition{}, reject(apperrors.CodeUnitNotFound, "unit %s not found", casterID)
	}
	if !caster.Alive {
		return caster, AbilityDefinition{}, reject(apperrors.CodeCasterDefeated, "%s is defeated", caster.Name)
	}
	if a.ActiveUnit != "" && a.ActiveUnit != caster.ID {
		return caster, AbilityDefinition{}, reject(apperrors.CodeCasterNotActive, "it is not %s's turn", caster.Name)
	}
	def, ok := e.Catalog.Ability(code)
	if !ok {
		return caster, def, reject(apperrors.CodeAbilityUnknown, "unknown ability %s", code)
	}
	if !caster.Knows(def.Code) {
		return caster, def, reject(apperrors.CodeAbilityNotKnown, "%s does not know %s", caster.Name, def.Code)
	}

	reg := e.Catalog.Conditions
	if condition.Disabled(caster.Conditions, reg) {
		return caster, def, reject(apperrors.CodeCasterDisabled, "%s cannot act", caster.Name)
	}
	if req := def.RequiresCondition; req != "" && !caster.Conditions.Has(req) &&
		!(req == condition.Dashing && condition.CanDash(caster.Conditions, reg)) {
		return caster, def, reject(apperrors.CodeConditionRequired, "%s requires %s", def.Code, req)
	}
	if n := caster.Cooldowns[def.Code]; n > 0 {
		return caster, def, reject(apperrors.CodeAbilityOnCooldown, "%s is on cooldown for %d turn(s)", def.Code, n)
	}
	if caster.Mana < def.ManaCost {
		return caster, def, reject(apperrors.CodeInsufficientMana, "%s needs %d mana, has %d", def.Code, def.ManaCost, caster.Mana)
	}
	if def.Has(EffectMove) {
		if condition.IsRooted(caster.Conditions, reg) {
			return caster, def, reject(apperrors.CodeCasterDisabled, "%s is rooted", caster.Name)
		}
		if budgeted(def) && caster.Left.Moves <= 0 {
			return caster, def, reject(apperrors.CodeNoMovesLeft, "%s has no moves left", caster.Name)
		}
	}
	if def.ConsumesAction && caster.Left.Actions <= 0 && !(def.Attack && caster.Left.ExtraAttacks > 0) {
		return caster, def, reject(apperrors.CodeNoActionsLeft, "%s has no actions left", caster.Name)
	}
	return caster, def, nil
}

// budgeted reports whether a move ability walks on the per-turn move budget.
// Move abilities with their own range (a dash) leave the budget alone.
func budgeted(def AbilityDefinition) bool {
	return def.Pattern.MaxRange == 0 && def.Range.IsZero()
}

// effectivePattern applies dynamic range to the catalog pattern.
func effectivePattern(def AbilityDefinition, caster Unit) pattern.Pattern {
	p := def.Pattern
	if !def.Range.IsZero() {
		p.MaxRange = def.Range.Static(caster)
	}
	if def.Has(EffectMove) && budgeted(def) {
		p.MaxRange = caster.Left.Moves
	}
	return p
}

func (e *Executor) validate(a *Arena, req Request) (plan, error) {
	caster, def, err := e.usable(a, req.CasterID, req.Ability)
	if err != nil {
		return plan{}, err
	}
	pl := plan{
		def:      def,
		pattern:  effectivePattern(def, caster),
		casterID: caster.ID,
		payExtra: def.ConsumesAction && def.Attack && caster.Left.ExtraAttacks > 0,
	}

	var aimed *Unit
	switch {
	case req.TargetUnitID != "":
		tu, ok := a.Unit(req.TargetUnitID)
		if !ok {
			return plan{}, reject(apperrors.CodeUnitNotFound, "unit %s not found", req.TargetUnitID)
		}
		if !tu.Alive {
			return plan{}, reject(apperrors.CodeTargetUnitRequired, "%s is defeated", tu.Name)
		}
		aimed = &tu
		pl.target = tu.Position
		pl.targetUnit = tu.ID
	case req.TargetCell != nil:
		pl.target = *req.TargetCell
	case def.Targeting == TargetSelf || pl.pattern.MaxRange <= 0:
		pl.target = caster.Position
	default:
		return plan{}, reject(apperrors.CodeTargetRequired, "%s needs a target", def.Code)
	}
	if !a.Bounds.Contains(pl.target) {
		return plan{}, reject(apperrors.CodeTargetOutOfBounds, "target %s is off the board", pl.target)
	}

	selfCompatible := def.Targeting == TargetSelf || pl.pattern.IncludeSelf || pl.pattern.MaxRange <= 0
	if selfCompatible && caster.Covers(pl.target) {
		pl.selfCast = true
		pl.target = caster.Position
		pl.targetUnit = caster.ID
		return pl, nil
	}
	if def.Targeting == TargetSelf {
		return plan{}, reject(apperrors.CodeOutOfRange, "%s can only target its caster", def.Code)
	}

	if aimed != nil {
		// aim at the first footprint cell the pattern can reach
		for _, c := range aimed.Footprint() {
			if pattern.InRange(pl.pattern, caster.Position, c, a.Bounds, a.Blocked) {
				pl.target = c
				break
			}
		}
	}
	occ := a.Occupancy()
	if err := e.admissible(a, occ, caster, pl, pl.target); err != nil {
		return plan{}, err
	}
	if def.Targeting.NeedsUnit() && pl.targetUnit == "" {
		u, _ := a.UnitAt(pl.target)
		pl.targetUnit = u.ID
	}
	if def.Has(EffectMove) {
		pl.path = findPath(occ, caster, pl.target, pl.pattern.MaxRange)
	}
	return pl, nil
}

// admissible checks one aim cell. It is shared by validation and the
// selectable-cell listing so both always agree.
func (e *Executor) admissible(a *Arena, occ *grid.Occupancy, caster Unit, pl plan, c grid.Cell) error {
	def := pl.def
	if !pattern.InRange(pl.pattern, caster.Position, c, a.Bounds, a.Blocked) {
		return reject(apperrors.CodeOutOfRange, "%s is out of range of %s", c, def.Code)
	}
	switch {
	case def.Targeting.NeedsUnit():
		u, ok := a.UnitAt(c)
		if !ok {
			return reject(apperrors.CodeTargetUnitRequired, "%s needs a unit target", def.Code)
		}
		if def.Targeting == TargetEnemy && !caster.Hostile(u) {
			return reject(apperrors.CodeTargetNotHostile, "%s is not an enemy", u.Name)
		}
		if def.Targeting == TargetAlly && caster.Hostile(u) {
			return reject(apperrors.CodeTargetNotFriendly, "%s is not an ally", u.Name)
		}
	case def.Targeting == TargetEmpty || def.Has(EffectTeleport) || def.Has(EffectMove):
		if !occ.Free(c, caster.Size, caster.ID) {
			return reject(apperrors.CodeTargetOccupied, "%s is occupied", c)
		}
	}
	if def.RequiresLineOfSight && !a.LineOfSight(caster.Position, c) {
		return reject(apperrors.CodeNoLineOfSight, "no line of sight to %s", c)
	}
	if def.Has(EffectMove) && findPath(occ, caster, c, pl.pattern.MaxRange) == nil {
		return reject(apperrors.CodeUnreachable, "%s cannot reach %s", caster.Name, c)
	}
	return nil
}

// SelectableCells lists the cells an ability may be aimed at right now.
// Unit-targeting abilities only offer cells holding live units, so a unit
// defeated earlier in the turn drops out immediately.
func (e *Executor) SelectableCells(a *Arena, casterID, code string) ([]grid.Cell, error) {
	caster, def, err := e.usable(a, casterID, code)
	if err != nil {
		return nil, err
	}
	pl := plan{def: def, pattern: effectivePattern(def, caster), casterID: caster.ID}
	occ := a.Occupancy()
	out := make([]grid.Cell, 0)
	for _, c := range pattern.Selectable(pl.pattern, caster.Position, a.Bounds, a.Blocked) {
		if caster.Covers(c) && (def.Targeting == TargetSelf || pl.pattern.IncludeSelf) {
			out = append(out, c)
			continue
		}
		if e.admissible(a, occ, caster, pl, c) == nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (e *Executor) commit(s *Arena, pl plan, res *Result) {
	c := s.units[pl.casterID]
	def := pl.def

	c.Mana -= def.ManaCost
	res.Resources.ManaSpent = def.ManaCost
	if def.Cooldown > 0 {
		if c.Cooldowns == nil {
			c.Cooldowns = map[string]int{}
		}
		c.Cooldowns[def.Code] = def.Cooldown
		res.Resources.Cooldown = def.Cooldown
	}
	if def.ConsumesAction {
		if pl.payExtra {
			c.Left.ExtraAttacks--
			res.Resources.ExtraAttacksUsed = 1
		} else {
			c.Left.Actions--
			res.Resources.ActionsUsed = 1
		}
	}
	if len(pl.path) > 0 && budgeted(def) {
		c.Left.Moves = max(c.Left.Moves-len(pl.path), 0)
		res.Resources.MovesUsed = len(pl.path)
	}
	s.Sequence++
	res.Sequence = s.Sequence
}
