package game

import (
	"github.com/pefman/tactics-duel/internal/condition"
	"github.com/pefman/tactics-duel/internal/damage"
	"github.com/pefman/tactics-duel/internal/engine"
	apperrors "github.com/pefman/tactics-duel/internal/errors"
	"github.com/pefman/tactics-duel/internal/grid"
	"github.com/pefman/tactics-duel/internal/knockback"
	"github.com/pefman/tactics-duel/internal/projectile"
)

// TargetResult is what happened to one unit.
type TargetResult struct {
	UnitID    string                `json:"unit_id"`
	Hit       bool                  `json:"hit"`
	Dodged    bool                  `json:"dodged,omitempty"`
	Contest   *engine.ContestResult `json:"contest,omitempty"`
	Damage    *damage.Outcome       `json:"damage,omitempty"`
	Collision *damage.Outcome       `json:"collision,omitempty"`
	Healed    int                   `json:"healed,omitempty"`
	HP        int                   `json:"hp"`
	Defeated  bool                  `json:"defeated"`
}

// ConditionChange is a ledger change on one unit.
type ConditionChange struct {
	UnitID string `json:"unit_id"`
	condition.Change
}

// Movement is a position delta.
type Movement struct {
	UnitID string      `json:"unit_id"`
	Kind   string      `json:"kind"`
	From   grid.Cell   `json:"from"`
	To     grid.Cell   `json:"to"`
	Path   []grid.Cell `json:"path,omitempty"`
}

// ProjectileInfo drives the travel phase on the presentation side.
type ProjectileInfo struct {
	RequiresProjectile bool              `json:"requires_projectile"`
	ImpactPoint        grid.Cell         `json:"impact_point"`
	Flight             projectile.Flight `json:"flight"`
	Explosion          []grid.Cell       `json:"explosion,omitempty"`
}

// Resources is what the caster paid.
type Resources struct {
	ManaSpent        int `json:"mana_spent"`
	ActionsUsed      int `json:"actions_used"`
	ExtraAttacksUsed int `json:"extra_attacks_used"`
	MovesUsed        int `json:"moves_used"`
	Cooldown         int `json:"cooldown"`
}

// Result is the sole structured output of one ability use. It carries
// everything needed to replay the action on the presentation side.
type Result struct {
	ID         string      `json:"id"`
	Sequence   int64       `json:"sequence"`
	Success    bool        `json:"success"`
	Error      string      `json:"error,omitempty"`
	CasterID   string      `json:"caster_id"`
	Ability    string      `json:"ability"`
	TargetCell grid.Cell   `json:"target_cell"`
	Direction  grid.Octant `json:"direction"`
	Facing     int         `json:"facing"`
	SelfCast   bool        `json:"self_cast,omitempty"`
	Seed       int64       `json:"seed"`

	AffectedCells []grid.Cell         `json:"affected_cells"`
	Targets       []TargetResult      `json:"targets,omitempty"`
	Conditions    []ConditionChange   `json:"conditions,omitempty"`
	Movements     []Movement          `json:"movements,omitempty"`
	Projectile    *ProjectileInfo     `json:"projectile,omitempty"`
	Knockbacks    []knockback.Outcome `json:"knockbacks,omitempty"`
	Resources     Resources           `json:"resources"`
	Defeated      []string            `json:"defeated,omitempty"`
	Logs          []string            `json:"logs"`
}

// Target returns the entry for unitID.
func (r Result) Target(unitID string) (TargetResult, bool) {
	for _, t := range r.Targets {
		if t.UnitID == unitID {
			return t, true
		}
	}
	return TargetResult{}, false
}

// Rejection is the shape relayed to the acting player when an action is
// refused.
type Rejection struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// Reject converts an executor error into the relayed shape.
func Reject(err error) Rejection {
	r := Rejection{Error: err.Error(), Kind: apperrors.KindOf(err).String()}
	if e, ok := apperrors.As(err); ok {
		r.Code = string(e.Code)
	}
	return r
}

// AwaitingDodge is returned when a projectile reached an interactive unit
// and the caller asked to wait for its input.
type AwaitingDodge struct {
	UnitID string    `json:"unit_id"`
	Cell   grid.Cell `json:"cell"`
}

func (a *AwaitingDodge) Error() string {
	return "awaiting dodge input from " + a.UnitID
}

// Unwrap lets errors.Is match ErrAwaitingDodge.
func (a *AwaitingDodge) Unwrap() error {
	return ErrAwaitingDodge
}

// ErrAwaitingDodge is the sentinel behind AwaitingDodge.
var ErrAwaitingDodge = apperrors.New(apperrors.CodeAwaitingDodge, "awaiting dodge input")
